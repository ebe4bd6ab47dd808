package frame

import (
	"math"
	"strconv"
)

// WCS maps between pixel and sky coordinates. The projection itself is
// treated as an opaque service; the engine only needs the two directions.
type WCS interface {
	PixelToSky(x, y float64) (ra, dec float64, err error)
	SkyToPixel(ra, dec float64) (x, y float64, err error)
}

// LinearWCS is a locally-linear solution: sky offsets are proportional to
// pixel offsets from a reference pixel. Adequate over the small fields this
// tool measures.
type LinearWCS struct {
	RefX, RefY     float64 // reference pixel
	RefRA, RefDec  float64 // sky position at the reference pixel, degrees
	ScaleX, ScaleY float64 // degrees per pixel along x and y
}

// PixelToSky maps a pixel coordinate to (ra, dec) in degrees.
func (w *LinearWCS) PixelToSky(x, y float64) (float64, float64, error) {
	if w.ScaleX == 0 || w.ScaleY == 0 {
		return 0, 0, ErrNoWCS
	}
	ra := w.RefRA + (x-w.RefX)*w.ScaleX
	dec := w.RefDec + (y-w.RefY)*w.ScaleY
	if math.IsNaN(ra) || math.IsNaN(dec) {
		return 0, 0, ErrNoWCS
	}
	return ra, dec, nil
}

// SkyToPixel maps (ra, dec) in degrees to a pixel coordinate.
func (w *LinearWCS) SkyToPixel(ra, dec float64) (float64, float64, error) {
	if w.ScaleX == 0 || w.ScaleY == 0 {
		return 0, 0, ErrNoWCS
	}
	x := w.RefX + (ra-w.RefRA)/w.ScaleX
	y := w.RefY + (dec-w.RefDec)/w.ScaleY
	return x, y, nil
}

// Keywords used to reconstruct a LinearWCS from image headers.
const (
	keyRefX   = "CRPIX1"
	keyRefY   = "CRPIX2"
	keyRefRA  = "CRVAL1"
	keyRefDec = "CRVAL2"
	keyScaleX = "CDELT1"
	keyScaleY = "CDELT2"
)

// WCSFromKeywords builds a LinearWCS from standard header keywords. Returns
// nil when the required keywords are missing or malformed.
func WCSFromKeywords(img Image) *LinearWCS {
	read := func(key string) (float64, bool) {
		s, ok := img.Keyword(key)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	w := &LinearWCS{}
	var ok bool
	if w.RefX, ok = read(keyRefX); !ok {
		return nil
	}
	if w.RefY, ok = read(keyRefY); !ok {
		return nil
	}
	if w.RefRA, ok = read(keyRefRA); !ok {
		return nil
	}
	if w.RefDec, ok = read(keyRefDec); !ok {
		return nil
	}
	if w.ScaleX, ok = read(keyScaleX); !ok {
		return nil
	}
	if w.ScaleY, ok = read(keyScaleY); !ok {
		return nil
	}
	return w
}
