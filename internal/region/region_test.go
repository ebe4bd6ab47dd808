package region

import (
	"errors"
	"math"
	"testing"

	"starpick/internal/centroid"
	"starpick/internal/frame"
	"starpick/pkg/geometry"
)

// recordingCanvas counts operations so tests can verify region lifecycle.
type recordingCanvas struct {
	added     int
	removed   []Tag
	refreshes int
}

func (c *recordingCanvas) Add(*Composite) Tag {
	c.added++
	return Tag("t1")
}

func (c *recordingCanvas) Remove(tag Tag) {
	c.removed = append(c.removed, tag)
}

func (c *recordingCanvas) Refresh() {
	c.refreshes++
}

// starField builds a 200x200 image with a single bright pixel at (99, 98).
func starField() *frame.FileImage {
	samples := make([]float64, 200*200)
	samples[98*200+99] = 255
	return frame.NewDataImage("field", 200, 200, samples)
}

func TestAtLocationBounds(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	b := r.Bounds()
	want := geometry.RectInt{X1: 97, Y1: 97, X2: 104, Y2: 104}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
	if r.Data().Width() != 7 || r.Data().Height() != 7 {
		t.Errorf("cutout is %dx%d, want 7x7", r.Data().Width(), r.Data().Height())
	}
	if canvas.added != 1 {
		t.Errorf("canvas.Add called %d times, want 1", canvas.added)
	}
}

func TestCentroidPeakFindsBrightPixel(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	pos, err := r.Centroid(centroid.Peak)
	if err != nil {
		t.Fatalf("Centroid(Peak): %v", err)
	}
	if pos.X != 99 || pos.Y != 98 {
		t.Errorf("peak = %v, want (99, 98)", pos)
	}
}

func TestSetCenterPointAccepts(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	if err := r.SetCenterPoint(99, 98); err != nil {
		t.Fatalf("SetCenterPoint(99, 98): %v", err)
	}
	m := r.Marker()
	if !m.Visible {
		t.Error("marker should be visible after a valid commit")
	}
	if m.Pos.X != 99 || m.Pos.Y != 98 {
		t.Errorf("marker at %v, want (99, 98)", m.Pos)
	}
}

func TestSetCenterPointRejectsOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"left of region", 96, 100},
		{"above region", 100, 105},
		{"far away", 0, 0},
		{"nan x", math.NaN(), 100},
		{"inf y", 100, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := &recordingCanvas{}
			r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
			defer r.Close()

			err := r.SetCenterPoint(tt.x, tt.y)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("SetCenterPoint(%v, %v) = %v, want ErrOutOfBounds", tt.x, tt.y, err)
			}

			m := r.Marker()
			if m.Visible {
				t.Error("marker should be hidden after a rejected commit")
			}
			// The marker never lands on the invalid point; it parks at the
			// region center.
			c := r.Center()
			if m.Pos != c {
				t.Errorf("marker at %v, want region center %v", m.Pos, c)
			}
		})
	}
}

func TestBoundaryPointsAccepted(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	// The rounded bounding box is (97,97)-(104,104), edges inclusive.
	for _, p := range []geometry.Point2D{{X: 97, Y: 97}, {X: 104, Y: 104}, {X: 97, Y: 104}} {
		if err := r.SetCenterPoint(p.X, p.Y); err != nil {
			t.Errorf("SetCenterPoint(%v, %v): %v", p.X, p.Y, err)
		}
	}
}

func TestCenterPointValue(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	if err := r.SetCenterPoint(99, 98); err != nil {
		t.Fatalf("SetCenterPoint: %v", err)
	}
	v, err := r.CenterPointValue()
	if err != nil {
		t.Fatalf("CenterPointValue: %v", err)
	}
	if v != 255 {
		t.Errorf("value = %v, want 255", v)
	}
}

func TestCenterPointValueRevalidatesAfterMove(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	if err := r.SetCenterPoint(99, 98); err != nil {
		t.Fatalf("SetCenterPoint: %v", err)
	}

	// Move the region far away. The marker still sits at (99, 98), which is
	// no longer inside the shape's bounding box.
	r.SetCenter(150, 150)
	if _, err := r.CenterPointValue(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("CenterPointValue after move = %v, want ErrOutOfBounds", err)
	}
}

func TestCenterPointValueEmptyCutout(t *testing.T) {
	canvas := &recordingCanvas{}
	// Region entirely off-image: the cutout is zero-size.
	r := AtLocation(500, 500, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	v, err := r.CenterPointValue()
	if err != nil {
		t.Fatalf("CenterPointValue: %v", err)
	}
	if v != 0 {
		t.Errorf("value = %v, want 0 for an empty cutout", v)
	}
}

func TestSetCenterReextracts(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	r.SetCenter(50, 50)
	b := r.Bounds()
	want := geometry.RectInt{X1: 47, Y1: 47, X2: 54, Y2: 54}
	if b != want {
		t.Errorf("Bounds after SetCenter = %+v, want %+v", b, want)
	}

	// The bright pixel is outside the new window now.
	if _, _, ok := r.Data().ValidRange(); !ok {
		t.Fatal("moved cutout should still have valid samples")
	}
	if lo, hi, _ := r.Data().ValidRange(); lo != 0 || hi != 0 {
		t.Errorf("moved cutout range = (%v, %v), want all zero", lo, hi)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)

	r.Close()
	r.Close()
	if len(canvas.removed) != 1 {
		t.Errorf("canvas.Remove called %d times, want 1", len(canvas.removed))
	}
}

func TestCutLevels(t *testing.T) {
	canvas := &recordingCanvas{}
	r := AtLocation(100, 100, starField(), canvas, "Astrometry", "green", 7, 7)
	defer r.Close()

	lo, hi, ok := r.CutLevels()
	if !ok {
		t.Fatal("CutLevels should report a range")
	}
	if lo != 0 || hi != 255 {
		t.Errorf("CutLevels = (%v, %v), want (0, 255)", lo, hi)
	}
}
