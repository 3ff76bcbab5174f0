// Package pipeline orchestrates one flood loss run: read the inventory
// table, resolve its fields, sample the depth grid, evaluate damage
// curves, and write the annotated table next to the input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Niyamit/hazus/internal/adapter/csvio"
	"github.com/Niyamit/hazus/internal/config"
	"github.com/Niyamit/hazus/internal/domain"
	"github.com/Niyamit/hazus/internal/observability"
	"github.com/Niyamit/hazus/internal/raster"
)

// Sink receives the annotated records after the output file is committed.
// Publishing is best-effort; a sink failure never fails the run.
type Sink interface {
	PublishBatch(ctx context.Context, runID string, records []domain.Record) error
}

// Params configures a single run.
type Params struct {
	InputPath  string
	RasterPath string
	LookupDir  string

	// Specs defaults to domain.DefaultFieldSpecs when nil.
	Specs          []domain.FieldSpec
	FieldOverrides map[string]string

	// FailedRowPolicy is config.PolicyMark (keep failed rows with markers)
	// or config.PolicySkip (omit them from the output).
	FailedRowPolicy  string
	ProgressInterval int

	Sink Sink
}

// Summary is the result of a completed run.
type Summary struct {
	RunID      string
	GridName   string
	OutputPath string

	Total     int
	Succeeded int
	Failed    int
	// FailedRows lists the offending 1-based row indices per failure kind,
	// in input order.
	FailedRows map[domain.ErrorKind][]int

	Started  time.Time
	Finished time.Time
}

// Runner executes runs and exposes readiness and progress for the
// operational HTTP endpoints.
type Runner struct {
	params  Params
	logger  *slog.Logger
	metrics *observability.Metrics

	ready     atomic.Bool
	processed atomic.Int64
	total     atomic.Int64
}

// NewRunner creates a Runner. Specs and policy fall back to the standard
// defaults when unset.
func NewRunner(params Params, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if params.Specs == nil {
		params.Specs = domain.DefaultFieldSpecs()
	}
	if params.FailedRowPolicy == "" {
		params.FailedRowPolicy = config.PolicyMark
	}
	return &Runner{params: params, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once the run has processed at least one record.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("run has not processed any records yet")
	}
	return nil
}

// Progress returns processed and total record counts for the current run.
// Total is 0 until the input table has been read.
func (r *Runner) Progress() (processed, total int64) {
	return r.processed.Load(), r.total.Load()
}

// Run executes one complete run. Fatal errors (missing input, unresolved
// required field, unreadable raster) abort before any output is written;
// per-record failures are counted in the summary and never stop the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if r.params.InputPath == "" {
		return nil, domain.ErrNoInputFile
	}
	if r.params.RasterPath == "" {
		return nil, domain.ErrNoRaster
	}

	started := clock.Now()
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)
	defer func() {
		r.metrics.RunDuration.Observe(clock.Since(started).Seconds())
	}()

	table, err := csvio.ReadTable(r.params.InputPath)
	if err != nil {
		return nil, err
	}
	r.total.Store(int64(len(table.Records)))
	r.metrics.RecordsPerRun.Observe(float64(len(table.Records)))

	// Field resolution happens before the raster is touched: a misnamed
	// required column must fail fast, not after an expensive grid load.
	mapping, err := domain.ResolveAll(r.params.Specs, table.Headers, r.params.FieldOverrides)
	if err != nil {
		return nil, err
	}

	grid, err := raster.OpenASCIIGrid(r.params.RasterPath)
	if err != nil {
		return nil, err
	}
	sampler := raster.NewPointSampler(grid)

	embedded := buildEmbeddedTable(mapping, table.Records)
	external, err := r.loadLookupTables()
	if err != nil {
		return nil, err
	}

	embeddedCurves := 0
	if embedded != nil {
		embeddedCurves = embedded.Len()
	}

	ddf := embedded
	if ddf == nil {
		ddf = external
	} else if external != nil {
		// Curves shipped inside the inventory take precedence; the
		// lookup-table library answers only categories the input lacks.
		ddf.SetFallback(external)
	}
	if ddf == nil {
		return nil, fmt.Errorf("no damage curves: input has no DDF columns and %q has no lookup tables", r.params.LookupDir)
	}

	r.logger.Info("run started",
		"input", r.params.InputPath,
		"raster", grid.Name(),
		"records", len(table.Records),
		"embedded_curves", embeddedCurves,
		"policy", r.params.FailedRowPolicy,
	)

	sum := &Summary{
		RunID:      uuid.NewString(),
		GridName:   grid.Name(),
		Total:      len(table.Records),
		FailedRows: make(map[domain.ErrorKind][]int),
		Started:    started,
	}

	out, err := r.processRecords(ctx, table, mapping, sampler, ddf, embedded, sum)
	if err != nil {
		return nil, err
	}

	sum.OutputPath = csvio.OutputPath(r.params.InputPath, grid.Name())
	headers := domain.NewRecord(table.Headers, nil).Extend(domain.OutputColumns(), nil).Columns()
	if err := csvio.WriteTable(sum.OutputPath, headers, out); err != nil {
		return nil, err
	}

	if r.params.Sink != nil {
		if err := r.params.Sink.PublishBatch(ctx, sum.RunID, out); err != nil {
			r.logger.Warn("result sink publish failed", "error", err, "run_id", sum.RunID)
		}
	}

	sum.Finished = clock.Now()
	r.logger.Info("run finished",
		"run_id", sum.RunID,
		"output", sum.OutputPath,
		"records", sum.Total,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"duration", sum.Finished.Sub(sum.Started),
	)
	return sum, nil
}

// processRecords evaluates every record in input order. The only error it
// returns is context cancellation.
func (r *Runner) processRecords(
	ctx context.Context,
	table *csvio.Table,
	mapping domain.FieldMapping,
	sampler domain.Sampler,
	ddf, embedded *domain.DDFTable,
	sum *Summary,
) ([]domain.Record, error) {
	proc := domain.NewProcessor(mapping, sampler, ddf)
	countFallbacks := embedded != nil && embedded.Len() > 0

	out := make([]domain.Record, 0, len(table.Records))
	for i, rec := range table.Records {
		if err := ctx.Err(); err != nil {
			r.logger.Info("run cancelled", "processed", i, "total", len(table.Records))
			return nil, err
		}

		row := i + 1
		res, perr := proc.Process(row, rec)
		r.processed.Add(1)
		r.ready.Store(true)
		r.metrics.RecordsProcessed.Inc()

		if perr != nil {
			r.metrics.RecordErrors.WithLabelValues(string(perr.Kind)).Inc()
			sum.FailedRows[perr.Kind] = append(sum.FailedRows[perr.Kind], perr.Row)
			sum.Failed++
			r.logger.Warn("record failed", "row", perr.Row, "kind", perr.Kind, "error", perr.Err)
			if r.params.FailedRowPolicy == config.PolicySkip {
				continue
			}
		} else {
			sum.Succeeded++
			r.metrics.RecordsSucceeded.Inc()
			if countFallbacks {
				if key, _ := res.Get(domain.ColCategoryKey); !embedded.Has(key) {
					r.metrics.LookupFallbacks.Inc()
				}
			}
		}
		out = append(out, res)

		if n := r.params.ProgressInterval; n > 0 && row%n == 0 {
			r.logger.Info("progress", "processed", row, "total", len(table.Records))
		}
	}
	return out, nil
}

// loadLookupTables loads the external lookup-table library. A missing
// directory is not an error; inventories that carry their own curves need
// no library at all.
func (r *Runner) loadLookupTables() (*domain.DDFTable, error) {
	if r.params.LookupDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(r.params.LookupDir); os.IsNotExist(err) {
		r.logger.Warn("lookup dir not found, relying on embedded curves", "dir", r.params.LookupDir)
		return nil, nil
	}
	table, err := csvio.LoadLookupDir(r.params.LookupDir, r.logger)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, nil
	}
	return table, nil
}

// buildEmbeddedTable assembles per-category curves from the inventory's own
// DDF columns. Returns nil when the input carries no usable curve data.
func buildEmbeddedTable(mapping domain.FieldMapping, records []domain.Record) *domain.DDFTable {
	depthCol := mapping.Column(domain.FieldDDFDepth)
	damageCol := mapping.Column(domain.FieldDDFDamage)
	if depthCol == "" || damageCol == "" {
		return nil
	}
	catCol := mapping.Column(domain.FieldCategory)

	var order []string
	points := make(map[string][]domain.CurvePoint)
	spelling := make(map[string]string)
	for _, rec := range records {
		raw, _ := rec.Get(catCol)
		key := strings.ToUpper(strings.TrimSpace(raw))
		if key == "" {
			continue
		}
		depth, derr := rec.Float(depthCol)
		damage, merr := rec.Float(damageCol)
		if derr != nil || merr != nil {
			continue
		}
		if _, seen := points[key]; !seen {
			order = append(order, key)
			spelling[key] = strings.TrimSpace(raw)
		}
		points[key] = append(points[key], domain.CurvePoint{Depth: depth, Damage: damage})
	}

	curves := make([]domain.DDFCurve, 0, len(order))
	for _, key := range order {
		curve, err := domain.BuildCurve(spelling[key], points[key])
		if err != nil {
			continue
		}
		curves = append(curves, curve)
	}
	if len(curves) == 0 {
		return nil
	}
	return domain.NewDDFTable(curves...)
}
