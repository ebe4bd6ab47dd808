// Package shape provides the geometric region shapes that can be drawn on a
// viewer canvas. Shapes are a single tagged variant rather than an interface
// hierarchy, so every operation handles all kinds in one place.
package shape

import (
	"fmt"

	"starpick/pkg/geometry"
)

// Kind identifies the geometry of a region shape.
type Kind int

const (
	Box Kind = iota
	SquareBox
	Rectangle
	Circle
	Ellipse
	FreePolygon
	Polygon
)

func (k Kind) String() string {
	switch k {
	case Box:
		return "box"
	case SquareBox:
		return "squarebox"
	case Rectangle:
		return "rectangle"
	case Circle:
		return "circle"
	case Ellipse:
		return "ellipse"
	case FreePolygon:
		return "freepolygon"
	case Polygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// ParseKind converts a shape kind name to a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind %q", name)
}

// Kinds returns all shape kinds that can back a centering region.
func Kinds() []Kind {
	return []Kind{Box, SquareBox, Rectangle, Circle, Ellipse, FreePolygon, Polygon}
}

// Shape is a region shape on the canvas. Center/XRadius/YRadius parametrize
// the rectangular and elliptical kinds; Vertices parametrizes the polygon
// kinds. The shape is owned by the canvas and mutated in place.
type Shape struct {
	Kind     Kind
	Center   geometry.Point2D
	XRadius  float64
	YRadius  float64
	Vertices []geometry.Point2D
	Color    string
}

// NewBox creates a box shape centered at (x, y) with the given half-widths.
func NewBox(x, y, xradius, yradius float64) *Shape {
	return &Shape{
		Kind:    Box,
		Center:  geometry.NewPoint2D(x, y),
		XRadius: xradius,
		YRadius: yradius,
	}
}

// NewSquareBox creates a square box shape with the given half-width.
func NewSquareBox(x, y, radius float64) *Shape {
	return &Shape{
		Kind:    SquareBox,
		Center:  geometry.NewPoint2D(x, y),
		XRadius: radius,
		YRadius: radius,
	}
}

// NewRectangle creates a rectangle shape from two corner points.
func NewRectangle(x1, y1, x2, y2 float64) *Shape {
	r := geometry.NewRect(x1, y1, x2, y2)
	return &Shape{
		Kind:    Rectangle,
		Center:  r.Center(),
		XRadius: r.Width() / 2,
		YRadius: r.Height() / 2,
	}
}

// NewCircle creates a circle shape centered at (x, y).
func NewCircle(x, y, radius float64) *Shape {
	return &Shape{
		Kind:    Circle,
		Center:  geometry.NewPoint2D(x, y),
		XRadius: radius,
		YRadius: radius,
	}
}

// NewEllipse creates an axis-aligned ellipse shape centered at (x, y).
func NewEllipse(x, y, xradius, yradius float64) *Shape {
	return &Shape{
		Kind:    Ellipse,
		Center:  geometry.NewPoint2D(x, y),
		XRadius: xradius,
		YRadius: yradius,
	}
}

// NewPolygon creates a polygon shape from its vertices. kind must be Polygon
// or FreePolygon.
func NewPolygon(kind Kind, vertices []geometry.Point2D) *Shape {
	if kind != Polygon && kind != FreePolygon {
		panic(fmt.Sprintf("shape: NewPolygon called with kind %s", kind))
	}
	verts := make([]geometry.Point2D, len(vertices))
	copy(verts, vertices)
	return &Shape{
		Kind:     kind,
		Center:   geometry.Centroid(verts),
		Vertices: verts,
	}
}

// CenterPoint returns the shape's center.
func (s *Shape) CenterPoint() geometry.Point2D {
	switch s.Kind {
	case Box, SquareBox, Rectangle, Circle, Ellipse:
		return s.Center
	case FreePolygon, Polygon:
		return geometry.Centroid(s.Vertices)
	default:
		panic(fmt.Sprintf("shape: unhandled kind %d", s.Kind))
	}
}

// Bounds returns the shape's raw (unrounded) bounding box as lower-left and
// upper-right corners.
func (s *Shape) Bounds() geometry.Rect {
	switch s.Kind {
	case Box, SquareBox, Rectangle, Circle, Ellipse:
		return geometry.NewRect(
			s.Center.X-s.XRadius, s.Center.Y-s.YRadius,
			s.Center.X+s.XRadius, s.Center.Y+s.YRadius,
		)
	case FreePolygon, Polygon:
		return geometry.BoundingBox(s.Vertices)
	default:
		panic(fmt.Sprintf("shape: unhandled kind %d", s.Kind))
	}
}

// MoveTo moves the shape so that its center lands on (x, y).
func (s *Shape) MoveTo(x, y float64) {
	to := geometry.NewPoint2D(x, y)
	switch s.Kind {
	case Box, SquareBox, Rectangle, Circle, Ellipse:
		s.Center = to
	case FreePolygon, Polygon:
		delta := to.Sub(geometry.Centroid(s.Vertices))
		s.Vertices = geometry.TranslatePolygon(s.Vertices, delta)
	default:
		panic(fmt.Sprintf("shape: unhandled kind %d", s.Kind))
	}
}

// Contains reports whether the pixel coordinate lies inside the shape's exact
// geometric footprint. For the rectangular kinds this is the bounding box;
// circles and ellipses use the ellipse equation, polygons use ray casting.
func (s *Shape) Contains(p geometry.Point2D) bool {
	switch s.Kind {
	case Box, SquareBox, Rectangle:
		return s.Bounds().Contains(p)
	case Circle, Ellipse:
		if s.XRadius <= 0 || s.YRadius <= 0 {
			return false
		}
		dx := (p.X - s.Center.X) / s.XRadius
		dy := (p.Y - s.Center.Y) / s.YRadius
		return dx*dx+dy*dy <= 1
	case FreePolygon, Polygon:
		return geometry.PointInPolygon(p, s.Vertices)
	default:
		panic(fmt.Sprintf("shape: unhandled kind %d", s.Kind))
	}
}

// NeedsMask reports whether the shape's footprint is smaller than its
// bounding box, requiring per-pixel masking during cutout extraction.
func (s *Shape) NeedsMask() bool {
	switch s.Kind {
	case Box, SquareBox, Rectangle:
		return false
	case Circle, Ellipse, FreePolygon, Polygon:
		return true
	default:
		panic(fmt.Sprintf("shape: unhandled kind %d", s.Kind))
	}
}
