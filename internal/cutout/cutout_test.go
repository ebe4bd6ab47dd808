package cutout

import (
	"math"
	"testing"

	"starpick/internal/frame"
	"starpick/internal/shape"
	"starpick/pkg/geometry"
)

// gradientImage builds a w x h image whose sample at (x, y) is x + 1000*y,
// so tests can verify which absolute pixel a cutout element came from.
func gradientImage(w, h int) *frame.FileImage {
	samples := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			samples[y*w+x] = float64(x) + 1000*float64(y)
		}
	}
	return frame.NewDataImage("gradient", w, h, samples)
}

func TestBoundsRoundsShapeBBox(t *testing.T) {
	s := shape.NewBox(100, 100, 3.5, 3.5)
	b := Bounds(s)
	want := geometry.RectInt{X1: 97, Y1: 97, X2: 104, Y2: 104}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
}

func TestExtractBox(t *testing.T) {
	img := gradientImage(200, 200)
	s := shape.NewBox(100, 100, 3.5, 3.5)

	cut := Extract(img, s)
	if cut.Width() != 7 || cut.Height() != 7 {
		t.Fatalf("cutout is %dx%d, want 7x7", cut.Width(), cut.Height())
	}

	// Element (0,0) is absolute pixel (97, 97).
	v, valid := cut.At(0, 0)
	if !valid || v != 97+1000*97 {
		t.Errorf("At(0,0) = %v (valid=%v), want sample of pixel (97,97)", v, valid)
	}
	v, valid = cut.At(6, 6)
	if !valid || v != 103+1000*103 {
		t.Errorf("At(6,6) = %v (valid=%v), want sample of pixel (103,103)", v, valid)
	}
}

func TestExtractZeroSize(t *testing.T) {
	img := gradientImage(50, 50)

	// Degenerate shape: zero-area bounding box.
	if cut := Extract(img, shape.NewBox(10, 10, 0, 0)); !cut.Empty() {
		t.Error("zero-area shape should yield an empty cutout")
	}

	// Entirely outside the image extent.
	if cut := Extract(img, shape.NewBox(500, 500, 3, 3)); !cut.Empty() {
		t.Error("off-image shape should yield an empty cutout")
	}
}

func TestExtractMasksOutsideExtent(t *testing.T) {
	img := gradientImage(50, 50)

	// Box straddling the left edge: pixels at x < 0 must be masked.
	s := shape.NewBox(0, 25, 3, 3)
	cut := Extract(img, s)
	if cut.Empty() {
		t.Fatal("edge-straddling cutout should not be empty")
	}

	for iy := 0; iy < cut.Height(); iy++ {
		for ix := 0; ix < cut.Width(); ix++ {
			x := cut.Bounds.X1 + ix
			_, valid := cut.At(ix, iy)
			if x < 0 && valid {
				t.Errorf("pixel at absolute x=%d should be masked", x)
			}
			if x >= 0 && !valid {
				t.Errorf("pixel at absolute x=%d should be valid", x)
			}
		}
	}
}

func TestExtractMasksCircleCorners(t *testing.T) {
	img := gradientImage(50, 50)
	s := shape.NewCircle(25, 25, 3.5)

	cut := Extract(img, s)
	if cut.Empty() {
		t.Fatal("circle cutout should not be empty")
	}

	// Bounding-box corners lie outside the circular footprint.
	if _, valid := cut.At(0, 0); valid {
		t.Error("corner element should be masked for a circle")
	}
	// The center is inside.
	cx := cut.Width() / 2
	cy := cut.Height() / 2
	if _, valid := cut.At(cx, cy); !valid {
		t.Error("center element should be valid for a circle")
	}
}

func TestExtractMasksNonFinite(t *testing.T) {
	samples := make([]float64, 25)
	samples[2*5+2] = math.NaN()
	samples[2*5+3] = math.Inf(1)
	img := frame.NewDataImage("nan", 5, 5, samples)

	cut := Extract(img, shape.NewBox(2.5, 2.5, 2.5, 2.5))
	if cut.Width() != 5 || cut.Height() != 5 {
		t.Fatalf("cutout is %dx%d, want 5x5", cut.Width(), cut.Height())
	}
	if _, valid := cut.At(2, 2); valid {
		t.Error("NaN sample should be masked")
	}
	if _, valid := cut.At(3, 2); valid {
		t.Error("Inf sample should be masked")
	}
	if _, valid := cut.At(0, 0); !valid {
		t.Error("finite sample should be valid")
	}
}

func TestValidRange(t *testing.T) {
	samples := []float64{5, 1, 9, 3}
	img := frame.NewDataImage("r", 2, 2, samples)
	cut := Extract(img, shape.NewBox(1, 1, 1, 1))

	lo, hi, ok := cut.ValidRange()
	if !ok || lo != 1 || hi != 9 {
		t.Errorf("ValidRange = (%v, %v, %v), want (1, 9, true)", lo, hi, ok)
	}
}

func TestValidRangeAllMasked(t *testing.T) {
	cut := &Cutout{
		Bounds: geometry.RectInt{X1: 0, Y1: 0, X2: 2, Y2: 1},
		Data:   []float64{1, 2},
		Mask:   []bool{true, true},
	}
	if _, _, ok := cut.ValidRange(); ok {
		t.Error("fully masked cutout should report no valid range")
	}
}
