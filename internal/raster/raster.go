// Package raster provides read-only access to single-band depth grids and
// point sampling against them. Coordinates are assumed to be in the grid's
// native reference frame; there is no reprojection or resampling here.
package raster

import "math"

// Handle exposes an opened single-band raster surface: its geotransform,
// cell access, and the declared no-data sentinel. Implementations must be
// read-only, so a handle can be shared across concurrent samplers without
// locking.
type Handle interface {
	// Size returns the grid dimensions in cells.
	Size() (cols, rows int)
	// Origin returns the world coordinate of the top-left corner.
	Origin() (x, y float64)
	// CellSize returns the cell edge length in world units. Always positive;
	// rows grow downward from the origin (north-up grid).
	CellSize() float64
	// Value returns the stored cell value at (col, row). Both indices must
	// be in bounds.
	Value(col, row int) float64
	// NoData returns the sentinel meaning "no valid measurement".
	NoData() float64
	// Name identifies the grid, typically the source file base name.
	Name() string
}

// PointSampler samples a Handle at world coordinates. It implements the
// processor's Sampler contract.
type PointSampler struct {
	h Handle
}

func NewPointSampler(h Handle) *PointSampler { return &PointSampler{h: h} }

// GridName returns the underlying grid's name.
func (s *PointSampler) GridName() string { return s.h.Name() }

// Sample returns the cell value containing world coordinate (x, y). The
// containing cell is found by inverting the affine geotransform and
// flooring to integer indices, so a coordinate exactly on a cell boundary
// deterministically belongs to the cell to its right/below. Returns false
// when the coordinate falls outside the grid extent or the cell holds no
// valid measurement. The raw stored value is returned, never rescaled.
func (s *PointSampler) Sample(x, y float64) (float64, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, false
	}

	originX, originY := s.h.Origin()
	cell := s.h.CellSize()

	col := int(math.Floor((x - originX) / cell))
	row := int(math.Floor((originY - y) / cell))

	cols, rows := s.h.Size()
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return 0, false
	}

	// A literal NaN or Inf cell slips past the sentinel equality check
	// (NaN compares unequal to everything) and would poison the depth
	// arithmetic, so non-finite cells count as no data too.
	v := s.h.Value(col, row)
	if v == s.h.NoData() || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Grid is an in-memory Handle backed by a dense row-major value slab,
// row 0 at the top of the grid.
type Grid struct {
	name        string
	cols, rows  int
	xll, yll    float64 // lower-left corner in world coordinates
	cellSize    float64
	noDataValue float64
	data        []float64 // row-major, rows*cols values
}

// NewGrid builds an in-memory grid. data is row-major with row 0 at the
// top and must hold rows*cols values.
func NewGrid(name string, cols, rows int, xll, yll, cellSize, noData float64, data []float64) *Grid {
	return &Grid{
		name: name, cols: cols, rows: rows,
		xll: xll, yll: yll, cellSize: cellSize,
		noDataValue: noData, data: data,
	}
}

func (g *Grid) Size() (int, int) { return g.cols, g.rows }

func (g *Grid) Origin() (float64, float64) {
	return g.xll, g.yll + float64(g.rows)*g.cellSize
}

func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) Value(col, row int) float64 { return g.data[row*g.cols+col] }

func (g *Grid) NoData() float64 { return g.noDataValue }

func (g *Grid) Name() string { return g.name }
