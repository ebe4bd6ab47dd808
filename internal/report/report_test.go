package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRow(name string) Row {
	return Row{
		Channel:  "Image",
		Name:     name,
		Target:   "2P",
		Date:     "2024-03-01 04:15:00",
		Location: "G37",
		X:        512.125,
		Y:        384.875,
		RA:       123.456789,
		Dec:      -12.345678,
		HasPixel: true,
		HasSky:   true,
	}
}

func TestAddReplacesByName(t *testing.T) {
	rep := New()
	rep.Add(sampleRow("a.fits"))

	updated := sampleRow("a.fits")
	updated.X = 100
	rep.Add(updated)

	if rep.Len() != 1 {
		t.Fatalf("Len = %d, want 1", rep.Len())
	}
	row, ok := rep.Get("a.fits")
	if !ok || row.X != 100 {
		t.Errorf("Get = %+v (ok=%v), want replaced row", row, ok)
	}
}

func TestUpdateMergesAndOverwrites(t *testing.T) {
	rep := New()
	rep.Add(sampleRow("a.fits"))

	replacement := sampleRow("a.fits")
	replacement.Target = "C/2023 A3"
	rep.Update(map[string]Row{
		"a.fits": replacement,
		"b.fits": sampleRow("b.fits"),
	})

	if rep.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rep.Len())
	}
	row, _ := rep.Get("a.fits")
	if row.Target != "C/2023 A3" {
		t.Errorf("Target = %q, want the merged value", row.Target)
	}
}

func TestRowsSortedByName(t *testing.T) {
	rep := New()
	for _, name := range []string{"c.fits", "a.fits", "b.fits"} {
		rep.Add(sampleRow(name))
	}

	rows := rep.Rows()
	want := []string{"a.fits", "b.fits", "c.fits"}
	for i, row := range rows {
		if row.Name != want[i] {
			t.Errorf("rows[%d].Name = %q, want %q", i, row.Name, want[i])
		}
	}
}

func TestSaveHeader(t *testing.T) {
	rep := New()
	rep.Add(sampleRow("a.fits"))

	path := filepath.Join(t.TempDir(), "report.ecsv")
	if err := rep.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# %ECSV 1.0\n") {
		t.Error("file should start with the ECSV version line")
	}
	if !strings.Contains(text, "{name: ra, unit: deg, datatype: string}") {
		t.Error("ra column should carry a deg unit")
	}
	if !strings.Contains(text, "{name: dec, unit: deg, datatype: string}") {
		t.Error("dec column should carry a deg unit")
	}
	if !strings.Contains(text, "creator: "+Creator) {
		t.Error("meta line should name the creator")
	}
	if !strings.Contains(text, "creation_date:") {
		t.Error("meta line should carry a creation date")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	rep := New()
	rep.Add(sampleRow("a.fits"))

	partial := sampleRow("b.fits")
	partial.HasSky = false
	rep.Add(partial)

	noMeasure := sampleRow("c.fits")
	noMeasure.HasPixel = false
	noMeasure.HasSky = false
	rep.Add(noMeasure)

	path := filepath.Join(t.TempDir(), "report.ecsv")
	if err := rep.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3", got.Len())
	}

	full, _ := got.Get("a.fits")
	if !full.HasPixel || !full.HasSky {
		t.Error("full row lost its coordinate flags")
	}
	if math.Abs(full.X-512.125) > 1e-3 || math.Abs(full.Y-384.875) > 1e-3 {
		t.Errorf("pixel coords = (%v, %v), want (512.125, 384.875)", full.X, full.Y)
	}
	if math.Abs(full.RA-123.456789) > 1e-6 || math.Abs(full.Dec-(-12.345678)) > 1e-6 {
		t.Errorf("sky coords = (%v, %v), want (123.456789, -12.345678)", full.RA, full.Dec)
	}
	if full.Target != "2P" || full.Date != "2024-03-01 04:15:00" || full.Location != "G37" {
		t.Errorf("metadata = %q %q %q, want saved values", full.Target, full.Date, full.Location)
	}

	p, _ := got.Get("b.fits")
	if !p.HasPixel || p.HasSky {
		t.Errorf("partial row flags = pixel:%v sky:%v, want pixel only", p.HasPixel, p.HasSky)
	}

	n, _ := got.Get("c.fits")
	if n.HasPixel || n.HasSky {
		t.Error("empty row should have no coordinate flags after roundtrip")
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ecsv")
	content := "# %ECSV 1.0\n# ---\nchannel name\nImage a.fits\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on a table missing columns")
	}
}

func TestClear(t *testing.T) {
	rep := New()
	rep.Add(sampleRow("a.fits"))
	rep.Clear()
	if rep.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", rep.Len())
	}
}
