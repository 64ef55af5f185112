package conversion

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primap-community/climate-categories/pkg/categories"
)

// srcCat is a small hierarchical source taxonomy: tot decomposes into the
// leaves x, y and z.
func srcCat(t *testing.T) *categories.Categorization {
	t.Helper()
	c, err := categories.FromSpec(&categories.Spec{
		Name:         "SrcCat",
		Title:        "source categorization",
		Hierarchical: true,
		TotalSum:     true,
		Categories: []categories.CategorySpec{
			{Code: "tot", Title: "everything", Children: [][]string{{"x", "y", "z"}}},
			{Code: "x", Title: "category x", AlternativeCodes: []string{"ex"}},
			{Code: "y", Title: "category y"},
			{Code: "z", Title: "category z"},
		},
	})
	require.NoError(t, err)
	return c
}

func tgtCat(t *testing.T) *categories.Categorization {
	t.Helper()
	c, err := categories.FromSpec(&categories.Spec{
		Name:  "TgtCat",
		Title: "target categorization",
		Categories: []categories.CategorySpec{
			{Code: "p", Title: "category p"},
			{Code: "q", Title: "category q"},
			{Code: "r", Title: "category r"},
		},
	})
	require.NoError(t, err)
	return c
}

func gasCat(t *testing.T) *categories.Categorization {
	t.Helper()
	c, err := categories.FromSpec(&categories.Spec{
		Name:  "GasCat",
		Title: "gases",
		Categories: []categories.CategorySpec{
			{Code: "CO2", Title: "carbon dioxide"},
			{Code: "CH4", Title: "methane", AlternativeCodes: []string{"methane"}},
			{Code: "N2O", Title: "nitrous oxide"},
		},
	})
	require.NoError(t, err)
	return c
}

// fixtureResolve resolves the three test categorizations by name.
func fixtureResolve(t *testing.T) Resolve {
	t.Helper()
	cats := map[string]*categories.Categorization{
		"SrcCat": srcCat(t),
		"TgtCat": tgtCat(t),
		"GasCat": gasCat(t),
	}
	return func(name string) (*categories.Categorization, error) {
		c, ok := cats[name]
		if !ok {
			return nil, fmt.Errorf("no categorization named %q", name)
		}
		return c, nil
	}
}

func TestNew(t *testing.T) {
	def := &Def{
		CategorizationA:          "SrcCat",
		CategorizationB:          "TgtCat",
		AuxiliaryCategorizations: []string{"GasCat"},
		Comment:                  "test conversion",
		LastUpdate:               "2023-05-16",
		Version:                  "1.2",
		Rows: []RowSpec{
			{Line: 2, FormulaA: "x", Auxiliary: []string{""}, FormulaB: "p"},
			{Line: 3, FormulaA: "y + z", Auxiliary: []string{"CO2 CH4"}, FormulaB: "q", Comment: "only   greenhouse gases"},
			{Line: 4, FormulaA: "tot - x", Auxiliary: []string{""}, FormulaB: "q + r"},
		},
	}
	c, err := New(def, fixtureResolve(t))
	require.NoError(t, err)

	assert.Equal(t, "SrcCat<->TgtCat", c.Name())
	assert.Equal(t, "SrcCat", c.CategorizationA().Name())
	assert.Equal(t, "TgtCat", c.CategorizationB().Name())
	assert.Equal(t, []string{"GasCat"}, c.AuxiliaryCategorizations())
	assert.Equal(t, "test conversion", c.Comment())
	assert.Equal(t, time.Date(2023, 5, 16, 0, 0, 0, 0, time.UTC), c.LastUpdate())
	assert.Equal(t, "1.2", c.Version())
	require.Len(t, c.Rules(), 3)

	t.Run("plain rule", func(t *testing.T) {
		rule := c.Rules()[0]
		assert.Equal(t, map[string]int{"x": 1}, rule.Factors(SideA))
		assert.Equal(t, map[string]int{"p": 1}, rule.Factors(SideB))
		assert.False(t, rule.IsRestricted())
		assert.Equal(t, 2, rule.Line())
	})

	t.Run("restricted rule", func(t *testing.T) {
		rule := c.Rules()[1]
		assert.Equal(t, map[string]int{"y": 1, "z": 1}, rule.Factors(SideA))
		assert.True(t, rule.IsRestricted())
		assert.Equal(t, map[string][]string{"GasCat": {"CH4", "CO2"}}, rule.AuxiliaryCategories())
		assert.Equal(t, "only   greenhouse gases", rule.Comment())
	})

	t.Run("signed factors", func(t *testing.T) {
		rule := c.Rules()[2]
		assert.Equal(t, map[string]int{"tot": 1, "x": -1}, rule.Factors(SideA))
		assert.Equal(t, []string{"tot", "x"}, rule.Codes(SideA))
		assert.Equal(t, []string{"q", "r"}, rule.Codes(SideB))
	})
}

func TestNewCanonicalizesAliases(t *testing.T) {
	def := &Def{
		CategorizationA:          "SrcCat",
		CategorizationB:          "TgtCat",
		AuxiliaryCategorizations: []string{"GasCat"},
		Rows: []RowSpec{
			{Line: 2, FormulaA: "ex", Auxiliary: []string{"methane"}, FormulaB: "p"},
		},
	}
	c, err := New(def, fixtureResolve(t))
	require.NoError(t, err)

	rule := c.Rules()[0]
	assert.Equal(t, map[string]int{"x": 1}, rule.Factors(SideA))
	assert.Equal(t, map[string][]string{"GasCat": {"CH4"}}, rule.AuxiliaryCategories())

	// aliases also work for queries
	rules, err := c.RulesFor(SideA, "ex")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestNewErrors(t *testing.T) {
	resolve := fixtureResolve(t)

	t.Run("unknown categorization", func(t *testing.T) {
		_, err := New(&Def{CategorizationA: "Missing", CategorizationB: "TgtCat"}, resolve)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "categorization A")
	})

	t.Run("unknown auxiliary categorization", func(t *testing.T) {
		_, err := New(&Def{
			CategorizationA:          "SrcCat",
			CategorizationB:          "TgtCat",
			AuxiliaryCategorizations: []string{"Missing"},
		}, resolve)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `auxiliary categorization "Missing"`)
	})

	t.Run("unresolved codes are batched", func(t *testing.T) {
		_, err := New(&Def{
			CategorizationA: "SrcCat",
			CategorizationB: "TgtCat",
			Rows: []RowSpec{
				{Line: 2, FormulaA: "nope1", FormulaB: "p"},
				{Line: 3, FormulaA: "x", FormulaB: "nope2"},
			},
		}, resolve)
		var defErr *categories.DefinitionError
		require.ErrorAs(t, err, &defErr)
		require.Len(t, defErr.Problems, 2)
		assert.Contains(t, defErr.Problems[0], `line 2: category "nope1" is not in categorization "SrcCat"`)
		assert.Contains(t, defErr.Problems[1], `line 3: category "nope2" is not in categorization "TgtCat"`)
	})

	t.Run("malformed formula", func(t *testing.T) {
		_, err := New(&Def{
			CategorizationA: "SrcCat",
			CategorizationB: "TgtCat",
			Rows: []RowSpec{
				{Line: 5, FormulaA: "x +", FormulaB: "p"},
			},
		}, resolve)
		var synErr *FormulaSyntaxError
		require.ErrorAs(t, err, &synErr)
		assert.Equal(t, 5, synErr.Line)
		assert.Equal(t, "x +", synErr.Formula)
	})

	t.Run("auxiliary column count mismatch", func(t *testing.T) {
		_, err := New(&Def{
			CategorizationA:          "SrcCat",
			CategorizationB:          "TgtCat",
			AuxiliaryCategorizations: []string{"GasCat"},
			Rows: []RowSpec{
				{Line: 2, FormulaA: "x", FormulaB: "p"},
			},
		}, resolve)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auxiliary columns")
	})

	t.Run("invalid last_update", func(t *testing.T) {
		_, err := New(&Def{
			CategorizationA: "SrcCat",
			CategorizationB: "TgtCat",
			LastUpdate:      "yesterday",
		}, resolve)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid last_update")
	})
}

func TestRulesForAndUnmapped(t *testing.T) {
	c, err := New(&Def{
		CategorizationA: "SrcCat",
		CategorizationB: "TgtCat",
		Rows: []RowSpec{
			{Line: 2, FormulaA: "x", FormulaB: "p"},
			{Line: 3, FormulaA: "y", FormulaB: "p"},
		},
	}, fixtureResolve(t))
	require.NoError(t, err)

	t.Run("rules for a category", func(t *testing.T) {
		rules, err := c.RulesFor(SideB, "p")
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, 2, rules[0].Line())
		assert.Equal(t, 3, rules[1].Line())

		rules, err = c.RulesFor(SideA, "y")
		require.NoError(t, err)
		require.Len(t, rules, 1)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := c.RulesFor(SideA, "bogus")
		var unknownErr *categories.UnknownCategoryError
		require.ErrorAs(t, err, &unknownErr)
	})

	t.Run("unmapped categories", func(t *testing.T) {
		unmappedA := c.FindUnmapped(SideA)
		codes := make([]string, len(unmappedA))
		for i, cat := range unmappedA {
			codes[i] = cat.Code()
		}
		assert.Equal(t, []string{"tot", "z"}, codes)

		unmappedB := c.FindUnmapped(SideB)
		require.Len(t, unmappedB, 2)
		assert.Equal(t, "q", unmappedB[0].Code())
		assert.Equal(t, "r", unmappedB[1].Code())
	})
}

func TestReversed(t *testing.T) {
	c, err := New(&Def{
		CategorizationA:          "SrcCat",
		CategorizationB:          "TgtCat",
		AuxiliaryCategorizations: []string{"GasCat"},
		Rows: []RowSpec{
			{Line: 2, FormulaA: "tot - x", Auxiliary: []string{"CO2"}, FormulaB: "q + r"},
		},
	}, fixtureResolve(t))
	require.NoError(t, err)

	rev := c.Reversed()
	assert.Equal(t, "TgtCat<->SrcCat", rev.Name())
	assert.Equal(t, "TgtCat", rev.CategorizationA().Name())

	rule := rev.Rules()[0]
	assert.Equal(t, map[string]int{"q": 1, "r": 1}, rule.Factors(SideA))
	assert.Equal(t, map[string]int{"tot": 1, "x": -1}, rule.Factors(SideB))
	assert.True(t, rule.IsRestricted())

	// the original conversion is untouched
	assert.Equal(t, "SrcCat<->TgtCat", c.Name())
	assert.Equal(t, map[string]int{"tot": 1, "x": -1}, c.Rules()[0].Factors(SideA))
}

func TestDescribe(t *testing.T) {
	c, err := New(&Def{
		CategorizationA:          "SrcCat",
		CategorizationB:          "TgtCat",
		AuxiliaryCategorizations: []string{"GasCat"},
		Rows: []RowSpec{
			{Line: 2, FormulaA: "x", Auxiliary: []string{""}, FormulaB: "p"},
			{Line: 3, FormulaA: "y", Auxiliary: []string{"CO2"}, FormulaB: "q + r", Comment: "split by gas"},
			{Line: 4, FormulaA: "y + z", Auxiliary: []string{""}, FormulaB: "q"},
		},
	}, fixtureResolve(t))
	require.NoError(t, err)

	got := c.Describe()
	assert.Contains(t, got, "# Mapping between SrcCat and TgtCat")
	assert.Contains(t, got, "## Simple direct mappings")
	assert.Contains(t, got, "## One-to-many mappings - one SrcCat to many TgtCat")
	assert.Contains(t, got, "## Many-to-one mappings - many SrcCat to one TgtCat")
	assert.Contains(t, got, "<SrcCat> x category x")
	assert.Contains(t, got, "only for GasCat in CO2")
	assert.Contains(t, got, "comment: split by gas")
	assert.Contains(t, got, "## Unmapped categories")
	assert.Contains(t, got, "tot everything")
}

func TestLoadAgainstRegistry(t *testing.T) {
	f, err := os.Open("testdata/conversion.IPCC1996.IPCC2006.csv")
	require.NoError(t, err)
	defer f.Close()

	c, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "IPCC1996<->IPCC2006", c.Name())
	assert.Equal(t, "IPCC", c.Institution())
	assert.Equal(t, "1.0", c.Version())
	assert.Len(t, c.Rules(), 20)

	rules, err := c.RulesFor(SideA, "1.B.2")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"1.B.2", "1.B.3"}, rules[0].Codes(SideB))

	unmapped := c.FindUnmapped(SideA)
	codes := make([]string, len(unmapped))
	for i, cat := range unmapped {
		codes[i] = cat.Code()
	}
	assert.Equal(t, []string{"4.D", "6"}, codes)
}
