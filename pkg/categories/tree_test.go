package categories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowAsTree(t *testing.T) {
	c := mustFromSpec(t, hierSpec())

	t.Run("subtree with a single child-set", func(t *testing.T) {
		got, err := c.ShowAsTree(TreeOptions{Root: "1"})
		require.NoError(t, err)
		want := strings.Join([]string{
			"1 Category 1",
			"├1A Category 1A",
			"╰1B Category 1B",
			"",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("alternative child-sets render as options", func(t *testing.T) {
		got, err := c.ShowAsTree(TreeOptions{
			Root:   "0",
			Format: func(cat *Category) string { return cat.Code() },
		})
		require.NoError(t, err)
		want := strings.Join([]string{
			"0",
			"╠╤══ ('0's children, option 1)",
			"║├1",
			"║│├1A",
			"║│╰1B",
			"║├2",
			"║│├2A",
			"║│╰2B",
			"║╰3",
			"║ ╰3A",
			"╠╕ ('0's children, option 2)",
			"║├0X3",
			"║╰3",
			"║ ╰3A",
			"╚═══",
			"",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("all roots without an explicit root", func(t *testing.T) {
		got, err := c.ShowAsTree(TreeOptions{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "0 Category 0"))
		assert.Contains(t, got, "\nOT Other top category\n")
	})

	t.Run("max depth", func(t *testing.T) {
		got, err := c.ShowAsTree(TreeOptions{
			Root:     "1",
			MaxDepth: 1,
			Format:   func(cat *Category) string { return cat.Code() },
		})
		require.NoError(t, err)
		assert.Equal(t, "1\n", got)
	})

	t.Run("unknown root", func(t *testing.T) {
		_, err := c.ShowAsTree(TreeOptions{Root: "bogus"})
		var unknownErr *UnknownCategoryError
		require.ErrorAs(t, err, &unknownErr)
	})

	t.Run("flat categorization", func(t *testing.T) {
		flat := mustFromSpec(t, simpleSpec())
		_, err := flat.ShowAsTree(TreeOptions{})
		require.Error(t, err)
	})
}

func TestTableRows(t *testing.T) {
	t.Run("hierarchical", func(t *testing.T) {
		c := mustFromSpec(t, hierSpec())
		rows := c.TableRows()
		require.Len(t, rows, c.Len())

		assert.Equal(t, "0", rows[0].Code)
		assert.Equal(t, "Category 0", rows[0].Title)
		require.NotNil(t, rows[0].Level)
		assert.Equal(t, 1, *rows[0].Level)

		// OT is not reachable from the canonical top, so it has no level.
		last := rows[len(rows)-1]
		assert.Equal(t, "OT", last.Code)
		assert.Nil(t, last.Level)
	})

	t.Run("flat has no levels", func(t *testing.T) {
		c := mustFromSpec(t, simpleSpec())
		for _, row := range c.TableRows() {
			assert.Nil(t, row.Level)
		}
	})
}
