// Package region implements the centering region: a drawn shape, its live
// data cutout, and a peak marker tracking the measured source position.
package region

import (
	"strconv"

	"starpick/internal/shape"
	"starpick/pkg/geometry"
)

// Tag is an opaque handle to an object placed on a canvas.
type Tag string

// Marker is the point annotation denoting the accepted sub-pixel source
// position within a region.
type Marker struct {
	Pos     geometry.Point2D
	Radius  float64
	Color   string
	Visible bool
}

// Label is the text annotation naming a region on the canvas.
type Label struct {
	Pos   geometry.Point2D
	Text  string
	Color string
}

// Composite groups a region's visual parts so the canvas can add and remove
// them as a unit.
type Composite struct {
	Shape  *shape.Shape
	Marker Marker
	Label  Label
}

// Canvas is the drawing surface owned by the host viewer. The engine only
// adds, removes, and refreshes composites; rendering belongs to the host.
type Canvas interface {
	// Add places a composite on the canvas and returns its handle.
	Add(c *Composite) Tag

	// Remove deletes the composite identified by tag.
	Remove(tag Tag)

	// Refresh redraws the canvas after a mutation.
	Refresh()
}

// NopCanvas discards all drawing operations. Headless tools use it where no
// viewer is attached.
type NopCanvas struct {
	next int
}

func (c *NopCanvas) Add(*Composite) Tag {
	c.next++
	return Tag(strconv.Itoa(c.next))
}

func (c *NopCanvas) Remove(Tag) {}

func (c *NopCanvas) Refresh() {}
