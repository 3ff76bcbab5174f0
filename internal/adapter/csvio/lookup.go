package csvio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Niyamit/hazus/internal/domain"
)

// depthColRe matches Hazus wide-format depth columns: m4..m1 for negative
// feet, p0..p24 for non-negative feet.
var depthColRe = regexp.MustCompile(`^([mp])(\d+)$`)

// LoadLookupDir loads every *.csv in dir into one DDF table. Two layouts
// are accepted per file:
//
//   - long format: Depth and Damage columns, one curve point per row, with
//     an optional Category/SpecificOccupId key column. Without a key
//     column the whole file is one curve keyed by the file's base name.
//   - Hazus wide format: one curve per row keyed by SpecificOccupId, with
//     one damage column per whole foot of depth (m4..p24).
//
// Rows with non-numeric depth or damage are dropped; a file whose curves
// all collapse to zero points is an error. Files that parse but contribute
// curves already loaded replace the earlier ones, last file wins, in
// lexical filename order for determinism.
func LoadLookupDir(dir string, logger *slog.Logger) (*domain.DDFTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read lookup dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	table := domain.NewDDFTable()
	for _, name := range files {
		path := filepath.Join(dir, name)
		curves, err := loadLookupFile(path)
		if err != nil {
			return nil, err
		}
		merged := append(tableCurves(table), curves...)
		table = domain.NewDDFTable(merged...)
		logger.Debug("loaded lookup table", "file", name, "curves", len(curves))
	}
	return table, nil
}

func tableCurves(t *domain.DDFTable) []domain.DDFCurve {
	keys := t.Keys()
	out := make([]domain.DDFCurve, 0, len(keys))
	for _, k := range keys {
		c, _ := t.Curve(k)
		out = append(out, c)
	}
	return out
}

func loadLookupFile(path string) ([]domain.DDFCurve, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	if depthCols := wideDepthColumns(t.Headers); len(depthCols) > 0 {
		return wideCurves(path, t, depthCols)
	}
	return longCurves(path, t)
}

type depthColumn struct {
	column string
	depth  float64
}

// wideDepthColumns returns the (column, depth) pairs for a Hazus
// wide-format header, or nil when the file is not wide format.
func wideDepthColumns(headers []string) []depthColumn {
	var cols []depthColumn
	for _, h := range headers {
		m := depthColRe.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		feet, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if m[1] == "m" {
			feet = -feet
		}
		cols = append(cols, depthColumn{column: h, depth: feet})
	}
	return cols
}

func wideCurves(path string, t *Table, depthCols []depthColumn) ([]domain.DDFCurve, error) {
	keyCol, ok := curveKeyColumn(t.Headers)
	if !ok {
		return nil, fmt.Errorf("lookup table %s: wide format without a key column", path)
	}

	var curves []domain.DDFCurve
	for _, rec := range t.Records {
		key, _ := rec.Get(keyCol)
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		var points []domain.CurvePoint
		for _, dc := range depthCols {
			damage, err := rec.Float(dc.column)
			if err != nil {
				continue // non-numeric damage cell: drop the point
			}
			points = append(points, domain.CurvePoint{Depth: dc.depth, Damage: damage})
		}
		curve, err := domain.BuildCurve(key, points)
		if err != nil {
			return nil, fmt.Errorf("lookup table %s: %w", path, err)
		}
		curves = append(curves, curve)
	}
	if len(curves) == 0 {
		return nil, fmt.Errorf("lookup table %s: no curves", path)
	}
	return curves, nil
}

func longCurves(path string, t *Table) ([]domain.DDFCurve, error) {
	depthCol, okD := matchColumn(t.Headers, "Depth")
	damageCol, okG := matchColumn(t.Headers, "Damage")
	if !okD || !okG {
		return nil, fmt.Errorf("lookup table %s: need Depth and Damage columns or wide-format depth columns", path)
	}

	fileKey := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	keyCol, hasKeyCol := curveKeyColumn(t.Headers)

	grouped := map[string][]domain.CurvePoint{}
	var order []string
	for _, rec := range t.Records {
		key := fileKey
		if hasKeyCol {
			v, _ := rec.Get(keyCol)
			if v = strings.TrimSpace(v); v != "" {
				key = v
			}
		}
		depth, errD := rec.Float(depthCol)
		damage, errG := rec.Float(damageCol)
		if errD != nil || errG != nil {
			continue // drop rows with non-numeric depth/damage
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], domain.CurvePoint{Depth: depth, Damage: damage})
	}

	var curves []domain.DDFCurve
	for _, key := range order {
		curve, err := domain.BuildCurve(key, grouped[key])
		if err != nil {
			return nil, fmt.Errorf("lookup table %s: %w", path, err)
		}
		curves = append(curves, curve)
	}
	if len(curves) == 0 {
		return nil, fmt.Errorf("lookup table %s: no curves", path)
	}
	return curves, nil
}

func curveKeyColumn(headers []string) (string, bool) {
	for _, candidate := range []string{"SpecificOccupId", "Category", "Occupancy", "Key"} {
		if col, ok := matchColumn(headers, candidate); ok {
			return col, true
		}
	}
	return "", false
}

func matchColumn(headers []string, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return h, true
		}
	}
	return "", false
}
