// Package cutout extracts masked data windows under region shapes.
package cutout

import (
	"math"

	"starpick/internal/frame"
	"starpick/internal/shape"
	"starpick/pkg/geometry"
)

// Cutout is a rectangular window of image samples with an element-wise
// validity mask. Data and Mask are row-major with Bounds.Width() columns;
// Mask[i] true means Data[i] is excluded from statistics.
type Cutout struct {
	Bounds geometry.RectInt
	Data   []float64
	Mask   []bool
}

// Width returns the number of columns.
func (c *Cutout) Width() int { return c.Bounds.Width() }

// Height returns the number of rows.
func (c *Cutout) Height() int { return c.Bounds.Height() }

// Empty reports whether the cutout holds no samples.
func (c *Cutout) Empty() bool { return c.Bounds.Empty() }

// At returns the sample at local offset (ix, iy) and whether it is valid.
func (c *Cutout) At(ix, iy int) (float64, bool) {
	i := iy*c.Width() + ix
	return c.Data[i], !c.Mask[i]
}

// ValidRange returns the minimum and maximum over unmasked samples. ok is
// false when no valid sample exists.
func (c *Cutout) ValidRange() (lo, hi float64, ok bool) {
	for i, v := range c.Data {
		if c.Mask[i] {
			continue
		}
		if !ok {
			lo, hi = v, v
			ok = true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// Bounds returns the shape's bounding box rounded to the nearest integer
// pixel. The rounding matches the cutout's own pixel indexing.
func Bounds(s *shape.Shape) geometry.RectInt {
	return s.Bounds().Round()
}

// Extract returns the image's masked data restricted to the shape's
// footprint. Pixels outside the exact geometric boundary, outside the
// image's valid extent, or holding non-finite samples are masked. A shape
// with a zero-area bounding box, or one entirely outside the image, yields a
// zero-size cutout.
func Extract(img frame.Image, s *shape.Shape) *Cutout {
	b := Bounds(s)
	if b.Empty() {
		return &Cutout{Bounds: geometry.RectInt{}}
	}

	extent := img.Extent()
	if extent.Intersect(b).Empty() {
		return &Cutout{Bounds: geometry.RectInt{}}
	}

	w, h := b.Width(), b.Height()
	data := make([]float64, w*h)
	mask := make([]bool, w*h)
	needsMask := s.NeedsMask()

	for iy := 0; iy < h; iy++ {
		y := b.Y1 + iy
		for ix := 0; ix < w; ix++ {
			x := b.X1 + ix
			i := iy*w + ix

			if x < extent.X1 || x >= extent.X2 || y < extent.Y1 || y >= extent.Y2 {
				mask[i] = true
				continue
			}
			if needsMask && !s.Contains(geometry.NewPoint2D(float64(x), float64(y))) {
				mask[i] = true
				continue
			}

			v := img.ValueAt(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				mask[i] = true
				continue
			}
			data[i] = v
		}
	}

	return &Cutout{Bounds: b, Data: data, Mask: mask}
}
