package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoDataMarker is the textual sentinel written to output columns whose
// value could not be computed because the raster had no measurement at the
// record's coordinate.
const NoDataMarker = "NoData"

// Appended output columns. Names follow the Hazus/DOGAMI conventions so
// results merge cleanly with tooling that expects them.
const (
	ColDepthGrid    = "Depth_Grid"
	ColDepthInStruc = "Depth_in_Struc"
	ColFlExp        = "flExp"
	ColCategoryKey  = "CategoryKey"
	ColBldgDmgPct   = "BldgDmgPct"
	ColBldgLossUSD  = "BldgLossUSD"
	ColGridName     = "GridName"
)

// OutputColumns lists the appended columns in output order.
func OutputColumns() []string {
	return []string{
		ColDepthGrid, ColDepthInStruc, ColFlExp,
		ColCategoryKey, ColBldgDmgPct, ColBldgLossUSD, ColGridName,
	}
}

// Record is one row of a table: an ordered mapping from column name to raw
// string value. Records are never mutated; Extend builds new ones.
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord pairs columns with values positionally. Missing trailing values
// become empty strings.
func NewRecord(columns, values []string) Record {
	m := make(map[string]string, len(columns))
	for i, c := range columns {
		if i < len(values) {
			m[c] = values[i]
		} else {
			m[c] = ""
		}
	}
	return Record{columns: columns, values: m}
}

// Columns returns the column names in table order. Callers must not modify
// the returned slice.
func (r Record) Columns() []string { return r.columns }

// Get returns the raw value for a column and whether the column exists.
func (r Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Float parses the column value as a finite float64. ParseFloat accepts
// "NaN" and "Inf" spellings, which have no meaning in a coordinate, height,
// or cost cell and would poison every arithmetic step downstream, so they
// are rejected here.
func (r Record) Float(column string) (float64, error) {
	raw, ok := r.values[column]
	if !ok {
		return 0, fmt.Errorf("column %q not present", column)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("column %q is empty", column)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", column, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("column %q: value %q is not finite", column, raw)
	}
	return v, nil
}

// Values returns the raw values in column order.
func (r Record) Values() []string {
	out := make([]string, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// Extend returns a new record with the given columns appended. The receiver
// is left untouched. Columns already present are overwritten in place
// rather than duplicated.
func (r Record) Extend(columns, values []string) Record {
	cols := make([]string, len(r.columns), len(r.columns)+len(columns))
	copy(cols, r.columns)
	m := make(map[string]string, len(r.values)+len(columns))
	for k, v := range r.values {
		m[k] = v
	}
	for i, c := range columns {
		if _, exists := m[c]; !exists {
			cols = append(cols, c)
		}
		if i < len(values) {
			m[c] = values[i]
		} else {
			m[c] = ""
		}
	}
	return Record{columns: cols, values: m}
}
