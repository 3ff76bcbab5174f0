package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	headers := []string{"X", "Y", "OccupancyClass", "Cost"}

	tests := []struct {
		name     string
		spec     FieldSpec
		override string
		expected string
		ok       bool
	}{
		{"default match", FieldSpec{Name: FieldCategory, Defaults: []string{"Category", "OccupancyClass"}}, "", "OccupancyClass", true},
		{"first alias wins", FieldSpec{Name: FieldX, Defaults: []string{"X", "Longitude"}}, "", "X", true},
		{"override beats default", FieldSpec{Name: FieldCategory, Defaults: []string{"OccupancyClass"}}, "Cost", "Cost", true},
		{"override case-insensitive", FieldSpec{Name: FieldCategory, Defaults: nil}, "occupancyclass", "OccupancyClass", true},
		{"override whitespace-trimmed", FieldSpec{Name: FieldX, Defaults: nil}, "  X  ", "X", true},
		{"no substring matching", FieldSpec{Name: FieldX, Defaults: []string{"Xcoord"}}, "", "", false},
		{"override absent falls back", FieldSpec{Name: FieldY, Defaults: []string{"Y"}}, "Northing", "Y", true},
		{"nothing matches", FieldSpec{Name: FieldCategory, Defaults: []string{"Category"}}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := Resolve(tt.spec, headers, tt.override)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, col)
		})
	}
}

func TestResolve_OverrideAndDefaultBothPresent(t *testing.T) {
	// Both the override value and the default value exist as distinct
	// columns; the override must win.
	headers := []string{"Type", "Category"}
	spec := FieldSpec{Name: FieldCategory, Defaults: []string{"Category"}}

	col, ok := Resolve(spec, headers, "Type")

	require.True(t, ok)
	assert.Equal(t, "Type", col)
}

func TestResolve_Deterministic(t *testing.T) {
	headers := []string{"Lon", "Longitude"}
	spec := FieldSpec{Name: FieldX, Defaults: []string{"Longitude", "Lon"}}

	first, ok := Resolve(spec, headers, "")
	require.True(t, ok)
	for range 10 {
		col, ok := Resolve(spec, headers, "")
		require.True(t, ok)
		assert.Equal(t, first, col)
	}
}

func TestResolveAll(t *testing.T) {
	specs := []FieldSpec{
		{Name: FieldX, Defaults: []string{"X"}, Required: true},
		{Name: FieldY, Defaults: []string{"Y"}, Required: true},
		{Name: FieldCategory, Defaults: []string{"Category"}, Required: true},
		{Name: FieldCost, Defaults: []string{"Cost"}},
	}

	t.Run("all resolve", func(t *testing.T) {
		mapping, err := ResolveAll(specs, []string{"X", "Y", "Category", "Cost"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "X", mapping.Column(FieldX))
		assert.Equal(t, "Category", mapping.Column(FieldCategory))
		assert.True(t, mapping.Has(FieldCost))
	})

	t.Run("optional field omitted", func(t *testing.T) {
		mapping, err := ResolveAll(specs, []string{"X", "Y", "Category"}, nil)
		require.NoError(t, err)
		assert.False(t, mapping.Has(FieldCost))
		assert.Equal(t, "", mapping.Column(FieldCost))
	})

	t.Run("required field unresolved is fatal", func(t *testing.T) {
		headers := []string{"X", "Y", "Type"}
		_, err := ResolveAll(specs, headers, nil)

		var unresolved *UnresolvedFieldError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, FieldCategory, unresolved.Field)
		assert.Equal(t, headers, unresolved.Headers)
		assert.Contains(t, err.Error(), "Type")
	})

	t.Run("override rescues required field", func(t *testing.T) {
		mapping, err := ResolveAll(specs, []string{"X", "Y", "Type"},
			map[string]string{FieldCategory: "Type"})
		require.NoError(t, err)
		assert.Equal(t, "Type", mapping.Column(FieldCategory))
	})
}

func TestDefaultFieldSpecs(t *testing.T) {
	specs := DefaultFieldSpecs()

	required := map[string]bool{}
	for _, s := range specs {
		require.NotEmpty(t, s.Defaults, "spec %s has no default columns", s.Name)
		required[s.Name] = s.Required
	}
	assert.True(t, required[FieldX])
	assert.True(t, required[FieldY])
	assert.True(t, required[FieldCategory])
	assert.False(t, required[FieldCost])
	assert.False(t, required[FieldFirstFloorHt])
}
