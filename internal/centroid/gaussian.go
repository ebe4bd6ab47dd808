package centroid

import (
	"fmt"
	"math"

	"starpick/internal/cutout"
	"starpick/pkg/geometry"

	"gonum.org/v1/gonum/optimize"
)

// minFitSamples is the smallest number of valid samples that can constrain
// the six Gaussian parameters.
const minFitSamples = 6

// fitGaussian2D fits an elliptical 2D Gaussian plus constant background to
// the cutout's valid samples and returns the fitted center in absolute image
// coordinates.
func fitGaussian2D(cut *cutout.Cutout) (geometry.Point2D, error) {
	if cut.Empty() {
		return geometry.Point2D{}, fmt.Errorf("empty cutout: %w", ErrFitFailed)
	}

	lo, hi, ok := cut.ValidRange()
	if !ok {
		return geometry.Point2D{}, fmt.Errorf("no valid samples in cutout: %w", ErrFitFailed)
	}
	if hi <= lo {
		return geometry.Point2D{}, fmt.Errorf("flat cutout: %w", ErrFitFailed)
	}

	w, h := cut.Width(), cut.Height()
	nValid := 0
	for i := range cut.Data {
		if !cut.Mask[i] {
			nValid++
		}
	}
	if nValid < minFitSamples {
		return geometry.Point2D{}, fmt.Errorf("only %d valid samples: %w", nValid, ErrFitFailed)
	}

	// Moment-based initial guess, weighting by background-subtracted flux.
	var sumW, sumX, sumY float64
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			v, valid := cut.At(ix, iy)
			if !valid {
				continue
			}
			wgt := v - lo
			sumW += wgt
			sumX += wgt * float64(ix)
			sumY += wgt * float64(iy)
		}
	}
	if sumW <= 0 {
		return geometry.Point2D{}, fmt.Errorf("flat cutout: %w", ErrFitFailed)
	}
	cx := sumX / sumW
	cy := sumY / sumW

	var sumXX, sumYY float64
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			v, valid := cut.At(ix, iy)
			if !valid {
				continue
			}
			wgt := v - lo
			dx := float64(ix) - cx
			dy := float64(iy) - cy
			sumXX += wgt * dx * dx
			sumYY += wgt * dy * dy
		}
	}
	sx := clamp(math.Sqrt(sumXX/sumW), 0.5, float64(w))
	sy := clamp(math.Sqrt(sumYY/sumW), 0.5, float64(h))

	// Parameters: x0, y0, amplitude, sigma x, sigma y, background.
	initial := []float64{cx, cy, hi - lo, sx, sy, lo}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			x0, y0, amp := p[0], p[1], p[2]
			sx := math.Abs(p[3]) + 1e-3
			sy := math.Abs(p[4]) + 1e-3
			bg := p[5]

			var sse float64
			for iy := 0; iy < h; iy++ {
				for ix := 0; ix < w; ix++ {
					v, valid := cut.At(ix, iy)
					if !valid {
						continue
					}
					dx := (float64(ix) - x0) / sx
					dy := (float64(iy) - y0) / sy
					model := bg + amp*math.Exp(-0.5*(dx*dx+dy*dy))
					r := model - v
					sse += r * r
				}
			}
			return sse
		},
	}

	result, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("%v: %w", err, ErrFitFailed)
	}

	fx, fy := result.X[0], result.X[1]
	if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
		return geometry.Point2D{}, fmt.Errorf("non-finite fitted center: %w", ErrFitFailed)
	}
	// A center fitted outside the cutout means the profile was not a source.
	if fx < -1 || fx > float64(w) || fy < -1 || fy > float64(h) {
		return geometry.Point2D{}, fmt.Errorf("fitted center (%.1f, %.1f) outside cutout: %w", fx, fy, ErrFitFailed)
	}

	return geometry.Point2D{
		X: fx + float64(cut.Bounds.X1),
		Y: fy + float64(cut.Bounds.Y1),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
