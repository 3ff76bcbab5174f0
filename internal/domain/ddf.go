package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CurvePoint is one (depth, damage) pair of a depth-damage function.
type CurvePoint struct {
	Depth  float64
	Damage float64
}

// DDFCurve is an ordered depth-damage curve for one category key. Points
// are sorted ascending by depth with no duplicate depths, and there is
// always at least one point.
type DDFCurve struct {
	Key    string
	Points []CurvePoint
}

// BuildCurve assembles a curve from unordered points: sorts by depth,
// drops duplicate depths (first occurrence wins), and rejects an empty
// result.
func BuildCurve(key string, points []CurvePoint) (DDFCurve, error) {
	if len(points) == 0 {
		return DDFCurve{}, fmt.Errorf("DDF curve %q has no valid points", key)
	}
	sorted := make([]CurvePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p.Depth == out[len(out)-1].Depth {
			continue
		}
		out = append(out, p)
	}
	return DDFCurve{Key: key, Points: out}, nil
}

// Evaluate returns the damage value at depth. Depths at or below the
// curve's minimum clamp to the first point's damage; at or above the
// maximum they clamp to the last point's. In between, damage is linearly
// interpolated between the bracketing points, so a monotonic curve never
// overshoots its endpoints. A NaN depth evaluates to NaN; it escapes both
// clamp comparisons and brackets no interval, so it must not reach the
// search below.
func (c DDFCurve) Evaluate(depth float64) float64 {
	if math.IsNaN(depth) {
		return math.NaN()
	}
	pts := c.Points
	if depth <= pts[0].Depth {
		return pts[0].Damage
	}
	last := pts[len(pts)-1]
	if depth >= last.Depth {
		return last.Damage
	}
	// First point with Depth >= depth; i >= 1 given the clamp checks above.
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Depth >= depth })
	p0, p1 := pts[i-1], pts[i]
	return p0.Damage + (depth-p0.Depth)*(p1.Damage-p0.Damage)/(p1.Depth-p0.Depth)
}

// DDFTable maps category keys to curves, with an optional fallback table
// consulted when a key is absent. Read-only once built; safe for
// concurrent lookups.
type DDFTable struct {
	curves   map[string]DDFCurve
	fallback *DDFTable
}

// NewDDFTable builds a table from curves. Later curves with a duplicate
// key replace earlier ones.
func NewDDFTable(curves ...DDFCurve) *DDFTable {
	t := &DDFTable{curves: make(map[string]DDFCurve, len(curves))}
	for _, c := range curves {
		t.curves[normalizeKey(c.Key)] = c
	}
	return t
}

// SetFallback installs a secondary source consulted only when a category
// key is missing here. Embedded input curves therefore take precedence
// over the external lookup-table library.
func (t *DDFTable) SetFallback(fb *DDFTable) { t.fallback = fb }

// Len returns the number of curves in this table, excluding the fallback.
func (t *DDFTable) Len() int { return len(t.curves) }

// Keys returns the category keys in this table, sorted, excluding the
// fallback.
func (t *DDFTable) Keys() []string {
	keys := make([]string, 0, len(t.curves))
	for k := range t.curves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether this table holds the key itself, without consulting
// the fallback. Lets callers tell embedded hits from fallback hits.
func (t *DDFTable) Has(key string) bool {
	_, ok := t.curves[normalizeKey(key)]
	return ok
}

// Curve returns the curve for a category key, consulting the fallback.
func (t *DDFTable) Curve(key string) (DDFCurve, bool) {
	c, ok := t.curves[normalizeKey(key)]
	if !ok && t.fallback != nil {
		return t.fallback.Curve(key)
	}
	return c, ok
}

// Lookup evaluates the category's curve at depth. A pure function of table
// state: identical inputs always return identical damage values. Returns
// MissingCategoryError when the key is absent from this table and the
// fallback.
func (t *DDFTable) Lookup(key string, depth float64) (float64, error) {
	c, ok := t.Curve(key)
	if !ok {
		return 0, &MissingCategoryError{Key: key}
	}
	return c.Evaluate(depth), nil
}

func normalizeKey(key string) string { return strings.ToUpper(strings.TrimSpace(key)) }
