// Package report collects astrometric measurements keyed by image name and
// persists them as an ECSV table.
package report

import (
	"sort"
)

// Row is one measurement record. X/Y are pixel coordinates, RA/Dec are sky
// coordinates in degrees. HasPixel and HasSky mark which coordinate pairs
// are defined; undefined pairs export as blanks.
type Row struct {
	Channel  string
	Name     string
	Target   string
	Date     string
	Location string
	X, Y     float64
	RA, Dec  float64
	HasPixel bool
	HasSky   bool
}

// Report is an ordered, keyed collection of measurement rows. Keys are image
// names; inserting a row with an existing key replaces it.
type Report struct {
	rows map[string]Row
}

// New creates an empty report.
func New() *Report {
	return &Report{rows: make(map[string]Row)}
}

// Update merges rows into the table. Key collisions overwrite.
func (r *Report) Update(rows map[string]Row) {
	for k, row := range rows {
		r.rows[k] = row
	}
}

// Add inserts a row keyed by its image name, replacing any prior row for
// that image.
func (r *Report) Add(row Row) {
	r.rows[row.Name] = row
}

// Clear empties the table.
func (r *Report) Clear() {
	r.rows = make(map[string]Row)
}

// Len returns the number of rows.
func (r *Report) Len() int {
	return len(r.rows)
}

// Get returns the row stored under key.
func (r *Report) Get(key string) (Row, bool) {
	row, ok := r.rows[key]
	return row, ok
}

// Rows returns all rows ordered lexically by key.
func (r *Report) Rows() []Row {
	keys := make([]string, 0, len(r.rows))
	for k := range r.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Row, len(keys))
	for i, k := range keys {
		out[i] = r.rows[k]
	}
	return out
}
