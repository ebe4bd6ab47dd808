package region

import (
	"math"

	"starpick/internal/centroid"
	"starpick/internal/cutout"
	"starpick/internal/frame"
	"starpick/internal/shape"
	"starpick/pkg/geometry"
)

// Default dimensions for regions placed by a single click.
const (
	DefaultWidth  = 7.0
	DefaultHeight = 7.0
)

const (
	markerRadius = 6
	markerColor  = "red"
)

// CenteringRegion is the mutable session state for one measurement. It owns
// the visual composite on the canvas and keeps its data cutout consistent
// with the shape's current bounding box. At most one region is active per
// viewer; a superseded region must be closed so its markers are removed.
type CenteringRegion struct {
	img    frame.Image
	canvas Canvas
	comp   *Composite
	tag    Tag
	data   *cutout.Cutout
	closed bool
}

// New creates a region based on an existing shape, draws its composite on
// the canvas, and extracts the initial cutout.
func New(s *shape.Shape, img frame.Image, canvas Canvas, label string) *CenteringRegion {
	b := s.Bounds()
	c := s.CenterPoint()

	comp := &Composite{
		Shape: s,
		Marker: Marker{
			Pos:     c,
			Radius:  markerRadius,
			Color:   markerColor,
			Visible: true,
		},
		Label: Label{
			Pos:   geometry.NewPoint2D(b.X1, b.Y2),
			Text:  label,
			Color: s.Color,
		},
	}

	r := &CenteringRegion{img: img, canvas: canvas, comp: comp}
	r.tag = canvas.Add(comp)
	r.UpdateImageData()
	return r
}

// AtLocation creates a box region of the given dimensions centered at (x, y).
func AtLocation(x, y float64, img frame.Image, canvas Canvas, label, color string, width, height float64) *CenteringRegion {
	s := shape.NewBox(x, y, width/2, height/2)
	s.Color = color
	return New(s, img, canvas, label)
}

// Close removes the region's composite from the canvas. Safe to call more
// than once.
func (r *CenteringRegion) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.canvas.Remove(r.tag)
	r.canvas.Refresh()
}

// Shape returns the region's shape.
func (r *CenteringRegion) Shape() *shape.Shape {
	return r.comp.Shape
}

// Marker returns a copy of the peak marker's current display state.
func (r *CenteringRegion) Marker() Marker {
	return r.comp.Marker
}

// Data returns the current cutout.
func (r *CenteringRegion) Data() *cutout.Cutout {
	return r.data
}

// UpdateImageData re-extracts the cutout from the image under the shape's
// current bounding box.
func (r *CenteringRegion) UpdateImageData() {
	r.data = cutout.Extract(r.img, r.comp.Shape)
}

// Bounds returns the shape's bounding box rounded to the nearest pixel.
func (r *CenteringRegion) Bounds() geometry.RectInt {
	return cutout.Bounds(r.comp.Shape)
}

// Center returns the region shape's center.
func (r *CenteringRegion) Center() geometry.Point2D {
	return r.comp.Shape.CenterPoint()
}

// SetCenter moves the region to a new center and re-extracts the cutout.
// The shape may legally extend past the image edges, so the center itself is
// not bounds-checked; only the peak marker is.
func (r *CenteringRegion) SetCenter(x, y float64) {
	r.comp.Shape.MoveTo(x, y)
	b := r.comp.Shape.Bounds()
	r.comp.Label.Pos = geometry.NewPoint2D(b.X1, b.Y2)
	r.UpdateImageData()
	r.canvas.Refresh()
}

// CenterPoint returns the peak marker's coordinates.
func (r *CenteringRegion) CenterPoint() geometry.Point2D {
	return r.comp.Marker.Pos
}

// SetCenterPoint places the peak marker at (x, y) after validating the
// coordinates against the shape's current rounded bounding box and against
// finiteness. On violation the marker is hidden and repositioned to the
// region center, and ErrOutOfBounds is returned; the marker never moves to
// the invalid point.
func (r *CenteringRegion) SetCenterPoint(x, y float64) error {
	p := geometry.NewPoint2D(x, y)
	b := r.Bounds().ToFloat()

	if !p.IsFinite() || !b.Contains(p) {
		r.comp.Marker.Pos = r.Center()
		r.comp.Marker.Visible = false
		r.canvas.Refresh()
		return outOfBounds(x, y)
	}

	r.comp.Marker.Visible = true
	r.comp.Marker.Pos = p
	r.canvas.Refresh()
	return nil
}

// CenterPointValue reads the cutout sample underneath the rounded peak
// marker position. Returns 0 for a zero-size cutout. The marker position is
// re-validated here rather than trusting the last SetCenterPoint: the shape
// may have moved in between.
func (r *CenteringRegion) CenterPointValue() (float64, error) {
	if r.data.Empty() {
		return 0, nil
	}

	p := r.CenterPoint()
	b := r.Bounds()
	if !p.IsFinite() || !b.ToFloat().Contains(p) {
		return 0, outOfBounds(p.X, p.Y)
	}

	ix := int(math.Round(p.X - float64(b.X1)))
	iy := int(math.Round(p.Y - float64(b.Y1)))
	if ix < 0 || ix >= r.data.Width() || iy < 0 || iy >= r.data.Height() {
		return 0, outOfBounds(p.X, p.Y)
	}

	v, _ := r.data.At(ix, iy)
	return v, nil
}

// Centroid computes a candidate position with the given method. The peak
// marker is not moved; callers decide whether to commit via SetCenterPoint.
func (r *CenteringRegion) Centroid(method centroid.Method) (geometry.Point2D, error) {
	return centroid.Compute(method, r.data, r.CenterPoint())
}

// CutLevels returns the low and high cut levels suggested by the region's
// data: the minimum and maximum unmasked sample. ok is false when the cutout
// has no valid samples.
func (r *CenteringRegion) CutLevels() (lo, hi float64, ok bool) {
	return r.data.ValidRange()
}
