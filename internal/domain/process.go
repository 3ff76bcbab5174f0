package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Sampler returns the raster cell value at a world coordinate, and false
// when the coordinate is outside the raster or the cell holds the no-data
// sentinel. Implementations must be read-only.
type Sampler interface {
	Sample(x, y float64) (float64, bool)
	GridName() string
}

// Processor turns one input record into an output record: coordinate
// extraction, raster sample, first-floor-height adjustment, DDF lookup.
// The mapping, sampler, and table are fixed for the duration of a run and
// shared read-only, so a Processor is safe for concurrent use.
type Processor struct {
	mapping FieldMapping
	sampler Sampler
	table   *DDFTable
}

func NewProcessor(mapping FieldMapping, sampler Sampler, table *DDFTable) *Processor {
	return &Processor{mapping: mapping, sampler: sampler, table: table}
}

// Process evaluates a single record. The returned record always carries
// the full appended column set, with markers where a value could not be
// computed, so mark-mode output keeps a uniform shape. A non-nil
// RecordError classifies the failure for the run summary; it never stops
// the run.
func (p *Processor) Process(row int, rec Record) (Record, *RecordError) {
	category := p.categoryKey(rec)
	grid := p.sampler.GridName()

	x, y, err := p.coordinates(rec)
	if err != nil {
		out := rec.Extend(OutputColumns(), []string{
			NoDataMarker, NoDataMarker, "0", category, NoDataMarker, "", grid,
		})
		return out, &RecordError{Row: row, Kind: KindInvalidCoordinate, Err: err}
	}

	sampled, ok := p.sampler.Sample(x, y)
	if !ok {
		// No measurement at this cell. Propagate the sentinel; a zero
		// default here would silently understate damage.
		out := rec.Extend(OutputColumns(), []string{
			NoDataMarker, NoDataMarker, "0", category, NoDataMarker, "", grid,
		})
		return out, &RecordError{Row: row, Kind: KindNoData,
			Err: fmt.Errorf("no raster data at (%g, %g)", x, y)}
	}

	depth := sampled
	if col := p.mapping.Column(FieldFirstFloorHt); col != "" {
		if ffh, ferr := rec.Float(col); ferr == nil {
			depth = sampled - ffh
		}
	}

	damage, err := p.table.Lookup(category, depth)
	if err != nil {
		out := rec.Extend(OutputColumns(), []string{
			formatFloat(sampled), formatFloat(depth), "1", category, NoDataMarker, "", grid,
		})
		return out, &RecordError{Row: row, Kind: KindMissingCategory, Err: err}
	}

	loss := ""
	if col := p.mapping.Column(FieldCost); col != "" {
		if cost, cerr := rec.Float(col); cerr == nil {
			// Hazus convention: curve output is a percent of replacement cost.
			loss = formatFloat(damage / 100 * cost)
		}
	}

	out := rec.Extend(OutputColumns(), []string{
		formatFloat(sampled), formatFloat(depth), "1", category, formatFloat(damage), loss, grid,
	})
	return out, nil
}

func (p *Processor) coordinates(rec Record) (x, y float64, err error) {
	x, err = rec.Float(p.mapping.Column(FieldX))
	if err != nil {
		return 0, 0, err
	}
	y, err = rec.Float(p.mapping.Column(FieldY))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (p *Processor) categoryKey(rec Record) string {
	v, _ := rec.Get(p.mapping.Column(FieldCategory))
	return strings.TrimSpace(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
