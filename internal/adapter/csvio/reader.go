// Package csvio adapts CSV files on disk to the domain's table, record,
// and DDF types. All of the pipeline's file format mechanics live here so
// the core packages never touch encoding/csv.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/Niyamit/hazus/internal/domain"
)

// Table is a fully-read input table: the header row plus every record in
// input order.
type Table struct {
	Headers []string
	Records []domain.Record
}

// ReadTable reads a CSV file whose first row is the header. Rows may be
// ragged; short rows pad with empty values and long rows are rejected by
// the CSV layer only when the header itself was consistent.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; Record padding handles them
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	t := &Table{Headers: headers}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		t.Records = append(t.Records, domain.NewRecord(headers, row))
	}
	return t, nil
}
