// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point2D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect represents an axis-aligned rectangle with floating-point corners.
// X1,Y1 is the lower-left corner and X2,Y2 the upper-right.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NewRect creates a Rect from two corners, normalizing so X1<=X2 and Y1<=Y2.
func NewRect(x1, y1, x2, y2 float64) Rect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Contains returns true if the point is inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.X2 - r.X1
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.Y2 - r.Y1
}

// Round returns the rectangle with each corner rounded to the nearest
// integer pixel. Halves round away from zero.
func (r Rect) Round() RectInt {
	return RectInt{
		X1: int(math.Round(r.X1)),
		Y1: int(math.Round(r.Y1)),
		X2: int(math.Round(r.X2)),
		Y2: int(math.Round(r.Y2)),
	}
}

// RectInt represents an axis-aligned rectangle with integer pixel corners.
type RectInt struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent in pixels.
func (r RectInt) Width() int {
	return r.X2 - r.X1
}

// Height returns the vertical extent in pixels.
func (r RectInt) Height() int {
	return r.Y2 - r.Y1
}

// Empty reports whether the rectangle has zero area.
func (r RectInt) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Intersect returns the overlap of two rectangles. The result is the zero
// RectInt when they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	out := RectInt{
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
		X2: min(r.X2, other.X2),
		Y2: min(r.Y2, other.Y2),
	}
	if out.Empty() {
		return RectInt{}
	}
	return out
}

// ToFloat converts to a Rect.
func (r RectInt) ToFloat() Rect {
	return Rect{X1: float64(r.X1), Y1: float64(r.Y1), X2: float64(r.X2), Y2: float64(r.Y2)}
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X1: minX, Y1: minY, X2: maxX, Y2: maxY}
}
