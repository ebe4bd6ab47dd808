package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Creator is recorded in the metadata header of saved reports.
const Creator = "starpick astrometry tool"

// Column layout of the exported table. ra and dec carry a degree unit
// annotation; x and y are pixel coordinates.
var columns = []string{"channel", "name", "target", "date", "location", "x", "y", "ra", "dec"}

// Save serializes the report to path as an ECSV table, overwriting any
// existing file. Pixel coordinates use 3 decimals, sky coordinates 6;
// undefined values are written blank.
func (r *Report) Save(path string) error {
	var b strings.Builder

	b.WriteString("# %ECSV 1.0\n")
	b.WriteString("# ---\n")
	b.WriteString("# datatype:\n")
	for _, col := range columns {
		switch col {
		case "ra", "dec":
			fmt.Fprintf(&b, "# - {name: %s, unit: deg, datatype: string}\n", col)
		default:
			fmt.Fprintf(&b, "# - {name: %s, datatype: string}\n", col)
		}
	}
	fmt.Fprintf(&b, "# meta: {creator: %s, creation_date: %s}\n",
		Creator, time.Now().UTC().Format("2006-01-02 15:04:05"))

	w := csv.NewWriter(&b)
	w.Comma = ' '
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := w.Write(formatRow(row)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Load reads an ECSV report previously written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no table header in %s", path)
	}

	rd := csv.NewReader(strings.NewReader(strings.Join(rows, "\n")))
	rd.Comma = ' '
	records, err := rd.ReadAll()
	if err != nil {
		return nil, err
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q in %s", col, path)
		}
	}

	rep := New()
	for _, rec := range records[1:] {
		row := Row{
			Channel:  rec[index["channel"]],
			Name:     rec[index["name"]],
			Target:   rec[index["target"]],
			Date:     rec[index["date"]],
			Location: rec[index["location"]],
		}
		row.X, row.Y, row.HasPixel = parsePair(rec[index["x"]], rec[index["y"]])
		row.RA, row.Dec, row.HasSky = parsePair(rec[index["ra"]], rec[index["dec"]])
		rep.Add(row)
	}
	return rep, nil
}

func formatRow(row Row) []string {
	x, y := "", ""
	if row.HasPixel {
		x = strconv.FormatFloat(row.X, 'f', 3, 64)
		y = strconv.FormatFloat(row.Y, 'f', 3, 64)
	}
	ra, dec := "", ""
	if row.HasSky {
		ra = strconv.FormatFloat(row.RA, 'f', 6, 64)
		dec = strconv.FormatFloat(row.Dec, 'f', 6, 64)
	}
	return []string{row.Channel, row.Name, row.Target, row.Date, row.Location, x, y, ra, dec}
}

func parsePair(a, b string) (float64, float64, bool) {
	if a == "" || b == "" {
		return 0, 0, false
	}
	va, errA := strconv.ParseFloat(a, 64)
	vb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return va, vb, true
}
