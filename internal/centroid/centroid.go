// Package centroid refines a region's peak position from its data cutout.
package centroid

import (
	"errors"
	"fmt"

	"starpick/internal/cutout"
	"starpick/pkg/geometry"
)

// Method selects the centroiding algorithm.
type Method string

const (
	// None leaves the current center point unchanged.
	None Method = "none"
	// Peak returns the brightest valid sample.
	Peak Method = "peak"
	// Gaussian2D fits a 2D Gaussian profile and returns its fitted center.
	Gaussian2D Method = "2D Gaussian"
)

// ParseMethod converts a method name to a Method.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case None, Peak, Gaussian2D:
		return Method(name), nil
	}
	return "", fmt.Errorf("unknown centroid method %q", name)
}

// ErrFitFailed reports that a centroid could not be computed from the cutout:
// the fit did not converge or the data was degenerate.
var ErrFitFailed = errors.New("centroid fit failed")

// Capabilities describes the optional algorithms available in this
// environment. Resolved once at startup, never re-checked per call.
type Capabilities struct {
	Gaussian2D bool
}

// Registry holds the set of centroid methods offered to callers.
type Registry struct {
	available []Method
}

// NewRegistry builds the offered method set from the environment's
// capabilities. Gaussian2D is silently omitted when unavailable.
func NewRegistry(caps Capabilities) *Registry {
	available := []Method{None, Peak}
	if caps.Gaussian2D {
		available = append(available, Gaussian2D)
	}
	return &Registry{available: available}
}

// Methods returns the offered methods in presentation order.
func (r *Registry) Methods() []Method {
	out := make([]Method, len(r.available))
	copy(out, r.available)
	return out
}

// Has reports whether the method is offered.
func (r *Registry) Has(m Method) bool {
	for _, a := range r.available {
		if a == m {
			return true
		}
	}
	return false
}

// Resolve returns preferred when it is offered, otherwise the best available
// default: Gaussian2D when present, else Peak.
func (r *Registry) Resolve(preferred Method) Method {
	if r.Has(preferred) {
		return preferred
	}
	if r.Has(Gaussian2D) {
		return Gaussian2D
	}
	return Peak
}

// Compute returns the refined position in absolute image pixel coordinates.
// current is the region's current center point, returned unchanged by None.
// An unregistered method is a programming error and panics; callers must
// only offer methods from a Registry.
func Compute(method Method, cut *cutout.Cutout, current geometry.Point2D) (geometry.Point2D, error) {
	switch method {
	case None:
		return current, nil
	case Peak:
		return peak(cut)
	case Gaussian2D:
		return fitGaussian2D(cut)
	default:
		panic(fmt.Sprintf("centroid: %q is not a valid centering method", method))
	}
}

// peak returns the coordinate of the maximum valid sample, first occurrence
// in row-major order winning ties.
func peak(cut *cutout.Cutout) (geometry.Point2D, error) {
	if cut.Empty() {
		return geometry.Point2D{}, fmt.Errorf("empty cutout: %w", ErrFitFailed)
	}

	best := -1
	var bestVal float64
	w := cut.Width()
	for i, v := range cut.Data {
		if cut.Mask[i] {
			continue
		}
		if best < 0 || v > bestVal {
			best = i
			bestVal = v
		}
	}
	if best < 0 {
		return geometry.Point2D{}, fmt.Errorf("no valid samples in cutout: %w", ErrFitFailed)
	}

	return geometry.Point2D{
		X: float64(cut.Bounds.X1 + best%w),
		Y: float64(cut.Bounds.Y1 + best/w),
	}, nil
}
