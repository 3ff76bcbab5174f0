package domain

import "strings"

// Semantic field names. The pipeline treats these as opaque labels; the
// concrete CSV column behind each one is established by Resolve.
const (
	FieldX             = "x_coordinate"
	FieldY             = "y_coordinate"
	FieldCategory      = "category"
	FieldFirstFloorHt  = "first_floor_height"
	FieldCost          = "cost"
	FieldDDFDepth      = "ddf_depth"
	FieldDDFDamage     = "ddf_damage"
	FieldUserDefinedID = "user_defined_id"
)

// FieldSpec declares one semantic field the pipeline wants from the input
// table. Defaults are candidate column names tried in order when the user
// supplies no override; inventory producers disagree on naming, so most
// specs carry several aliases.
type FieldSpec struct {
	Name     string
	Defaults []string
	Required bool
}

// DefaultFieldSpecs is the standard deployment field set for Hazus-style
// UDF point files.
func DefaultFieldSpecs() []FieldSpec {
	return []FieldSpec{
		{Name: FieldX, Defaults: []string{"X", "Longitude", "Lon"}, Required: true},
		{Name: FieldY, Defaults: []string{"Y", "Latitude", "Lat"}, Required: true},
		{Name: FieldCategory, Defaults: []string{"Category", "OccupancyClass", "Occupancy", "Occ"}, Required: true},
		{Name: FieldFirstFloorHt, Defaults: []string{"FirstFloorHt", "FFH"}},
		{Name: FieldCost, Defaults: []string{"Cost", "BldgCost"}},
		{Name: FieldDDFDepth, Defaults: []string{"DDFDepth"}},
		{Name: FieldDDFDamage, Defaults: []string{"DDFDamage"}},
		{Name: FieldUserDefinedID, Defaults: []string{"UserDefinedFltyId", "UDF_ID"}},
	}
}

// FieldMapping maps semantic field names to resolved input column names.
// Built once per input file, immutable thereafter.
type FieldMapping map[string]string

// Column returns the resolved column for a semantic field, or "" when the
// (optional) field did not resolve.
func (m FieldMapping) Column(field string) string { return m[field] }

// Has reports whether the semantic field resolved to a column.
func (m FieldMapping) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Resolve maps one FieldSpec to a column in headers. Matching is exact
// after trimming whitespace and folding case; there is no fuzzy or
// substring matching, so similarly named columns cannot be silently
// mis-mapped. Precedence: a non-empty user override wins, then the spec's
// default aliases in order. Returns the header entry as spelled in the
// input and false when nothing matches.
func Resolve(spec FieldSpec, headers []string, override string) (string, bool) {
	if col, ok := matchHeader(headers, override); ok {
		return col, true
	}
	for _, def := range spec.Defaults {
		if col, ok := matchHeader(headers, def); ok {
			return col, true
		}
	}
	return "", false
}

// ResolveAll builds a FieldMapping for the whole spec set. A required field
// that fails to resolve is fatal; optional fields that fail are omitted
// from the mapping.
func ResolveAll(specs []FieldSpec, headers []string, overrides map[string]string) (FieldMapping, error) {
	mapping := make(FieldMapping, len(specs))
	for _, spec := range specs {
		col, ok := Resolve(spec, headers, overrides[spec.Name])
		if ok {
			mapping[spec.Name] = col
			continue
		}
		if spec.Required {
			return nil, &UnresolvedFieldError{Field: spec.Name, Headers: headers}
		}
	}
	return mapping, nil
}

func matchHeader(headers []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return h, true
		}
	}
	return "", false
}
