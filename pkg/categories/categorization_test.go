package categories

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleSpec returns a flat categorization used across the tests.
func simpleSpec() *Spec {
	return &Spec{
		Name:         "SimpleCat",
		Title:        "Simple Categorization",
		Comment:      "A simple example categorization without relationships between categories",
		References:   "doi:00000/00000",
		Institution:  "PIK",
		LastUpdate:   "2021-02-23",
		Hierarchical: false,
		Version:      "1",
		Categories: []CategorySpec{
			{
				Code:             "1",
				Title:            "Category 1",
				Comment:          "The first category",
				AlternativeCodes: []string{"A", "CatA"},
			},
			{
				Code:             "2",
				Title:            "Category 2",
				Comment:          "The second category",
				AlternativeCodes: []string{"B", "CatB"},
			},
			{
				Code:             "3",
				Title:            "Category 3",
				AlternativeCodes: []string{"C", "CatC"},
				Info:             map[string]any{"important_data": []any{"A", "B", "C"}},
			},
			{
				Code:  "unnumbered",
				Title: "The unnumbered category",
			},
		},
	}
}

// hierSpec returns a hierarchical categorization with aliases, alternative
// child-sets and a category outside the canonical hierarchy.
func hierSpec() *Spec {
	return &Spec{
		Name:                      "HierCat",
		Title:                     "Hierarchical Categorization",
		Comment:                   "A categorization with categories that have relationships",
		References:                "doi:00000/00000",
		Institution:               "PIK",
		LastUpdate:                "2021-02-23",
		Hierarchical:              true,
		Version:                   "one",
		TotalSum:                  true,
		CanonicalTopLevelCategory: "0",
		Categories: []CategorySpec{
			{
				Code:             "0",
				Title:            "Category 0",
				AlternativeCodes: []string{"TOTAL"},
				Children:         [][]string{{"1", "2", "3"}, {"0X3", "3"}},
			},
			{Code: "1", Title: "Category 1", Children: [][]string{{"1A", "1B"}}},
			{Code: "2", Title: "Category 2", Children: [][]string{{"2A", "2B"}}},
			{Code: "3", Title: "Category 3", Children: [][]string{{"3A"}}},
			{Code: "1A", Title: "Category 1A", AlternativeCodes: []string{"1a"}},
			{Code: "1B", Title: "Category 1B", AlternativeCodes: []string{"1b"}},
			{Code: "2A", Title: "Category 2A", AlternativeCodes: []string{"2a"}},
			{Code: "2B", Title: "Category 2B", AlternativeCodes: []string{"2b"}},
			{Code: "3A", Title: "Category 3A", AlternativeCodes: []string{"3a"}},
			{
				Code:             "0X3",
				Title:            "Total excluding category 3",
				AlternativeCodes: []string{"0E3"},
			},
			{Code: "OT", Title: "Other top category", Children: [][]string{{"1B", "2B"}}},
		},
	}
}

func mustFromSpec(t *testing.T, spec *Spec) *Categorization {
	t.Helper()
	c, err := FromSpec(spec)
	require.NoError(t, err)
	return c
}

func TestMetadata(t *testing.T) {
	simple := mustFromSpec(t, simpleSpec())

	assert.Equal(t, "SimpleCat", simple.Name())
	assert.Equal(t, "Simple Categorization", simple.Title())
	assert.Equal(t, "doi:00000/00000", simple.References())
	assert.Equal(t, "PIK", simple.Institution())
	assert.Equal(t, time.Date(2021, 2, 23, 0, 0, 0, 0, time.UTC), simple.LastUpdate())
	assert.Equal(t, "1", simple.Version())
	assert.False(t, simple.Hierarchical())
	assert.False(t, simple.TotalSum())
	assert.Nil(t, simple.CanonicalTopLevelCategory())
	assert.Equal(t, 4, simple.Len())

	hier := mustFromSpec(t, hierSpec())
	assert.True(t, hier.Hierarchical())
	assert.True(t, hier.TotalSum())
	require.NotNil(t, hier.CanonicalTopLevelCategory())
	assert.Equal(t, "0", hier.CanonicalTopLevelCategory().Code())
}

func TestLookup(t *testing.T) {
	c := mustFromSpec(t, simpleSpec())

	t.Run("primary code", func(t *testing.T) {
		cat, err := c.Lookup("1")
		require.NoError(t, err)
		assert.Equal(t, "1", cat.Code())
		assert.Equal(t, "Category 1", cat.Title())
		assert.Equal(t, "The first category", cat.Comment())
		assert.Equal(t, "1 Category 1", cat.String())
	})

	t.Run("aliases resolve to the same category", func(t *testing.T) {
		byCode, err := c.Lookup("2")
		require.NoError(t, err)
		byAlias, err := c.Lookup("CatB")
		require.NoError(t, err)
		assert.Same(t, byCode, byAlias)
		assert.Equal(t, []string{"2", "B", "CatB"}, byAlias.Codes())
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := c.Lookup("bogus")
		var unknownErr *UnknownCategoryError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "SimpleCat", unknownErr.Categorization)
		assert.Equal(t, "bogus", unknownErr.Code)
	})

	t.Run("contains", func(t *testing.T) {
		assert.True(t, c.Contains("1"))
		assert.True(t, c.Contains("CatA"))
		assert.False(t, c.Contains("bogus"))
	})

	t.Run("info", func(t *testing.T) {
		cat, err := c.Lookup("3")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"important_data": []any{"A", "B", "C"}}, cat.Info())
	})
}

func TestKeyOrdering(t *testing.T) {
	c := mustFromSpec(t, simpleSpec())

	assert.Equal(t, []string{"1", "2", "3", "unnumbered"}, c.Keys())
	// aliases interleave in declaration order
	assert.Equal(t,
		[]string{"1", "A", "CatA", "2", "B", "CatB", "3", "C", "CatC", "unnumbered"},
		c.AllKeys())

	values := c.Values()
	require.Len(t, values, 4)
	assert.Equal(t, "1", values[0].Code())
	assert.Equal(t, "unnumbered", values[3].Code())
}

func TestDefinitionErrors(t *testing.T) {
	t.Run("alias collision", func(t *testing.T) {
		spec := simpleSpec()
		spec.Categories[1].AlternativeCodes = append(spec.Categories[1].AlternativeCodes, "A")
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Equal(t, "SimpleCat", defErr.Categorization)
		assert.Contains(t, defErr.Error(), `code "A" is used multiple times`)
	})

	t.Run("dangling child reference", func(t *testing.T) {
		spec := hierSpec()
		spec.Categories[1].Children = [][]string{{"1A", "nonexistent"}}
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, defErr.Error(), `references unknown child "nonexistent"`)
	})

	t.Run("cycle in child-set graph", func(t *testing.T) {
		spec := hierSpec()
		// 1A decomposes into 0, closing the loop 0 -> 1 -> 1A -> 0
		spec.Categories[4].Children = [][]string{{"0"}}
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, defErr.Error(), "cycle in child-set graph")
	})

	t.Run("unknown canonical top level category", func(t *testing.T) {
		spec := hierSpec()
		spec.CanonicalTopLevelCategory = "nonexistent"
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, defErr.Error(), `canonical top level category "nonexistent" is not defined`)
	})

	t.Run("invalid last_update", func(t *testing.T) {
		spec := simpleSpec()
		spec.LastUpdate = "not-a-date"
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, defErr.Error(), "invalid last_update")
	})

	t.Run("multiple problems reported together", func(t *testing.T) {
		spec := hierSpec()
		spec.Categories[1].AlternativeCodes = []string{"TOTAL"}
		spec.Categories[2].Children = [][]string{{"nope"}}
		_, err := FromSpec(spec)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Len(t, defErr.Problems, 2)
	})
}

func TestTotalSumWarning(t *testing.T) {
	spec := hierSpec()
	spec.Categories = append(spec.Categories, CategorySpec{
		Code:     "X",
		Title:    "Declared but empty decomposition",
		Children: [][]string{{}},
	})
	c := mustFromSpec(t, spec)
	warnings := c.ValidationWarnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"X"`)
}

func TestSpecRoundTrip(t *testing.T) {
	for _, spec := range []*Spec{simpleSpec(), hierSpec()} {
		t.Run(spec.Name, func(t *testing.T) {
			c := mustFromSpec(t, spec)
			if diff := cmp.Diff(spec, c.Spec()); diff != "" {
				t.Errorf("Spec() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := mustFromSpec(t, hierSpec())

	var buf bytes.Buffer
	require.NoError(t, c.ToYAML(&buf))

	reread, err := FromYAML(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Spec(), reread.Spec()); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSpecRejectsUnknownKeys(t *testing.T) {
	_, err := ReadSpec(bytes.NewReader([]byte(`
name: Broken
title: has a typo
hierarchichal: true
categories:
  "1":
    title: Category 1
`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected key not in schema "hierarchichal"`)
}

func TestReadSpecPreservesCategoryOrder(t *testing.T) {
	spec, err := ReadSpec(bytes.NewReader([]byte(`
name: Ordered
title: declaration order matters
hierarchical: false
categories:
  "z":
    title: Last alphabetically, first declared
  "a":
    title: First alphabetically, last declared
`)))
	require.NoError(t, err)
	require.Len(t, spec.Categories, 2)
	assert.Equal(t, "z", spec.Categories[0].Code)
	assert.Equal(t, "a", spec.Categories[1].Code)
}
