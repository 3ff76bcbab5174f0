package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyamit/hazus/internal/adapter/csvio"
	"github.com/Niyamit/hazus/internal/config"
	"github.com/Niyamit/hazus/internal/domain"
	"github.com/Niyamit/hazus/internal/observability"
	"github.com/Niyamit/hazus/internal/pipeline"
)

// --- fixtures ---

// uniformGrid is a 3x3 depth grid covering x [0,30) and y [0,30) with every
// cell at 2.0 feet.
const uniformGrid = `ncols 3
nrows 3
xllcorner 0
yllcorner 0
cellsize 10
NODATA_value -9999
2.0 2.0 2.0
2.0 2.0 2.0
2.0 2.0 2.0
`

const res1Lookup = `Category,Depth,Damage
RES1,0,0
RES1,2,500
RES1,4,1000
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newFixtures lays out an input table, a depth grid, and a lookup-table dir
// in a temp directory and returns ready-to-run Params.
func newFixtures(t *testing.T, inputCSV string) pipeline.Params {
	t.Helper()
	dir := t.TempDir()
	lookupDir := filepath.Join(dir, "lookuptables")
	require.NoError(t, os.Mkdir(lookupDir, 0o755))
	writeTestFile(t, filepath.Join(lookupDir, "res1.csv"), res1Lookup)

	return pipeline.Params{
		InputPath:  writeTestFile(t, filepath.Join(dir, "buildings.csv"), inputCSV),
		RasterPath: writeTestFile(t, filepath.Join(dir, "depth10yr.asc"), uniformGrid),
		LookupDir:  lookupDir,
	}
}

func newRunner(t *testing.T, params pipeline.Params) *pipeline.Runner {
	t.Helper()
	return pipeline.NewRunner(params, testLogger(), observability.NewMetricsForTesting())
}

// --- runs ---

func TestRunAnnotatesEveryRecord(t *testing.T) {
	fixedTime := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	pipeline.SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer pipeline.SetClock(nil)

	params := newFixtures(t, strings.Join([]string{
		"UserDefinedFltyId,X,Y,Category,Cost",
		"b1,5,5,RES1,1000",
		"b2,15,25,RES1,2000",
	}, "\n")+"\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, "depth10yr", sum.GridName)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, fixedTime, sum.Started)
	assert.Equal(t, fixedTime, sum.Finished)

	wantPath := filepath.Join(filepath.Dir(params.InputPath), "buildings_depth10yr.csv")
	assert.Equal(t, wantPath, sum.OutputPath)

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)

	wantHeaders := []string{
		"UserDefinedFltyId", "X", "Y", "Category", "Cost",
		"Depth_Grid", "Depth_in_Struc", "flExp",
		"CategoryKey", "BldgDmgPct", "BldgLossUSD", "GridName",
	}
	assert.Equal(t, wantHeaders, out.Headers)

	// Uniform 2.0 ft grid against the RES1 curve: damage 500, loss 5x cost.
	want := [][]string{
		{"b1", "5", "5", "RES1", "1000", "2", "2", "1", "RES1", "500", "5000", "depth10yr"},
		{"b2", "15", "25", "RES1", "2000", "2", "2", "1", "RES1", "500", "10000", "depth10yr"},
	}
	for i, rec := range out.Records {
		if diff := cmp.Diff(want[i], rec.Values()); diff != "" {
			t.Errorf("record %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	rows := []string{"X,Y,Category"}
	ids := []string{}
	for _, x := range []string{"5", "15", "25", "7", "3", "22"} {
		rows = append(rows, x+",5,RES1")
		ids = append(ids, x)
	}
	params := newFixtures(t, strings.Join(rows, "\n")+"\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Records, len(ids))
	for i, rec := range out.Records {
		x, _ := rec.Get("X")
		assert.Equal(t, ids[i], x, "row %d out of order", i)
	}
}

func TestRunAbortsOnUnresolvedRequiredField(t *testing.T) {
	params := newFixtures(t, "ID,Easting,Northing,Category\nb1,5,5,RES1\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, sum)

	var unresolved *domain.UnresolvedFieldError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, domain.FieldX, unresolved.Field)

	// The aborted run must leave nothing behind.
	entries, rerr := os.ReadDir(filepath.Dir(params.InputPath))
	require.NoError(t, rerr)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "_depth10yr")
		assert.False(t, strings.HasPrefix(e.Name(), ".floodloss-"))
	}
}

func TestRunOverridesResolveRenamedColumns(t *testing.T) {
	params := newFixtures(t, "ID,Easting,Northing,Kind\nb1,5,5,RES1\n")
	params.FieldOverrides = map[string]string{
		domain.FieldX:        "Easting",
		domain.FieldY:        "Northing",
		domain.FieldCategory: "Kind",
	}

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
}

func TestRunMarksRecordsOutsideRasterExtent(t *testing.T) {
	params := newFixtures(t, strings.Join([]string{
		"X,Y,Category",
		"5,5,RES1",
		"100,100,RES1", // beyond the 30x30 grid
		"25,25,RES1",
	}, "\n")+"\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []int{2}, sum.FailedRows[domain.KindNoData])

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Records, 3)

	depth, _ := out.Records[1].Get(domain.ColDepthGrid)
	assert.Equal(t, domain.NoDataMarker, depth)
	exposed, _ := out.Records[1].Get(domain.ColFlExp)
	assert.Equal(t, "0", exposed)
	dmg, _ := out.Records[1].Get(domain.ColBldgDmgPct)
	assert.Equal(t, domain.NoDataMarker, dmg)
}

func TestRunCountsMissingCategories(t *testing.T) {
	params := newFixtures(t, strings.Join([]string{
		"X,Y,Category",
		"5,5,RES1",
		"15,5,COM1", // no COM1 curve anywhere
	}, "\n")+"\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, []int{2}, sum.FailedRows[domain.KindMissingCategory])

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	dmg, _ := out.Records[1].Get(domain.ColBldgDmgPct)
	assert.Equal(t, domain.NoDataMarker, dmg)
}

func TestRunSkipPolicyOmitsFailedRows(t *testing.T) {
	params := newFixtures(t, strings.Join([]string{
		"X,Y,Category",
		"5,5,RES1",
		"100,100,RES1",
	}, "\n")+"\n")
	params.FailedRowPolicy = config.PolicySkip

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	assert.Len(t, out.Records, 1)
}

func TestRunEmbeddedCurvesBeatLookupTables(t *testing.T) {
	// The inventory ships its own RES1 curve putting 2 ft at 100, while the
	// lookup dir says 500. The embedded curve must win.
	params := newFixtures(t, strings.Join([]string{
		"X,Y,Category,DDFDepth,DDFDamage",
		"5,5,RES1,0,0",
		"15,5,RES1,2,100",
		"25,5,RES1,4,200",
	}, "\n")+"\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Succeeded)

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	for i, rec := range out.Records {
		dmg, _ := rec.Get(domain.ColBldgDmgPct)
		assert.Equal(t, "100", dmg, "row %d", i)
	}
}

func TestRunFirstFloorHeightAdjustsDepth(t *testing.T) {
	params := newFixtures(t, "X,Y,Category,FirstFloorHt\n5,5,RES1,1\n")

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sum.Succeeded)

	out, err := csvio.ReadTable(sum.OutputPath)
	require.NoError(t, err)
	rec := out.Records[0]
	inStruc, _ := rec.Get(domain.ColDepthInStruc)
	assert.Equal(t, "1", inStruc)
	// 1 ft on the RES1 curve interpolates to 250.
	dmg, _ := rec.Get(domain.ColBldgDmgPct)
	assert.Equal(t, "250", dmg)
}

func TestRunFailsWithoutInputOrRaster(t *testing.T) {
	r := newRunner(t, pipeline.Params{RasterPath: "grid.asc"})
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoInputFile)

	r = newRunner(t, pipeline.Params{InputPath: "in.csv"})
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoRaster)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	params := newFixtures(t, "X,Y,Category\n5,5,RES1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newRunner(t, params).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sum)
}

// --- readiness and progress ---

func TestReadinessFlipsAfterFirstRecord(t *testing.T) {
	params := newFixtures(t, "X,Y,Category\n5,5,RES1\n")
	r := newRunner(t, params)

	require.Error(t, r.CheckReadiness(context.Background()))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NoError(t, r.CheckReadiness(context.Background()))
	processed, total := r.Progress()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), total)
}

// --- result sink ---

type captureSink struct {
	runID   string
	records []domain.Record
}

func (s *captureSink) PublishBatch(_ context.Context, runID string, records []domain.Record) error {
	s.runID = runID
	s.records = records
	return nil
}

func TestRunPublishesResultsToSink(t *testing.T) {
	params := newFixtures(t, "X,Y,Category\n5,5,RES1\n")
	sink := &captureSink{}
	params.Sink = sink

	sum, err := newRunner(t, params).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sum.RunID, sink.runID)
	require.Len(t, sink.records, 1)
	grid, _ := sink.records[0].Get(domain.ColGridName)
	assert.Equal(t, "depth10yr", grid)
}
