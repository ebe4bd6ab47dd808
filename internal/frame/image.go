// Package frame provides access to 2D image data: sample values, header
// keywords, and the pixel/sky coordinate transform.
package frame

import (
	"errors"

	"starpick/pkg/geometry"
)

// ErrNoWCS is returned by sky-coordinate transforms when the image carries no
// astrometric solution.
var ErrNoWCS = errors.New("no astrometric solution attached to image")

// Image is any 2D data source a centering region can measure against. The
// engine borrows an Image per operation and never retains it past the active
// region's lifetime.
type Image interface {
	// Name identifies the image, e.g. its file base name.
	Name() string

	// Extent returns the valid data extent in pixel coordinates.
	Extent() geometry.RectInt

	// ValueAt returns the sample at integer pixel (x, y). Behavior is
	// undefined outside Extent; callers clip first.
	ValueAt(x, y int) float64

	// Keyword looks up a header keyword. The second result distinguishes an
	// absent key from a present-but-empty value.
	Keyword(key string) (string, bool)

	// PixelToSky maps a pixel coordinate to sky coordinates in degrees.
	// Returns ErrNoWCS (possibly wrapped) when no solution is available.
	PixelToSky(x, y float64) (ra, dec float64, err error)

	// SkyToPixel maps sky coordinates in degrees to a pixel coordinate.
	SkyToPixel(ra, dec float64) (x, y float64, err error)
}

// SearchKeyword returns the first candidate keyword present in the image
// header along with its value. Empty candidate strings are skipped.
func SearchKeyword(img Image, candidates []string) (key, value string, ok bool) {
	for _, k := range candidates {
		if k == "" {
			continue
		}
		if v, present := img.Keyword(k); present {
			return k, v, true
		}
	}
	return "", "", false
}
