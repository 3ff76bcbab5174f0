// Package domain models flood loss estimation for user-defined facility
// (UDF) point inventories.
//
// # Data Source
//
// Inputs are Hazus-compatible UDF point files: one CSV row per structure,
// with a coordinate pair, an occupancy/category attribute, and optional
// cost and first-floor-height attributes. Column names vary between
// inventory producers, so every semantic field the pipeline needs is
// resolved against the actual CSV header through a [FieldSpec]: an explicit
// user override wins, then the spec's default column aliases are tried in
// order, and a required field with no match aborts the run.
//
// # Depth-Damage Functions
//
// A depth-damage function (DDF) is an ordered curve of (depth, damage)
// points keyed by a category such as the Hazus occupancy class ("RES1",
// "COM1"). Damage at an arbitrary depth is obtained by linear interpolation
// between the bracketing curve points; depths outside the curve's domain
// clamp to the endpoint values. Hazus ships its DDF library as wide CSV
// tables with one column per whole foot of depth ("m4" = -4 ft through
// "p24" = +24 ft); the csvio adapter converts those to curves at load time.
//
// Curves embedded in the input table take precedence over the external
// lookup-table library, which acts purely as a fallback source.
//
// # Depth Conventions
//
//	Depth_Grid      raw raster sample at the facility coordinate (ft)
//	Depth_in_Struc  Depth_Grid minus the first floor height, when supplied
//	NoData          raster sentinel; propagated, never defaulted to zero
//
// A NoData sample yields a NoData damage value. Silently substituting zero
// depth would understate losses, so the sentinel flows through to the
// output row and the record is counted in the run summary.
package domain
