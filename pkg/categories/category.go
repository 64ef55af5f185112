package categories

import "fmt"

// Category is one classification entry within a Categorization: a primary
// code, optional alternative codes (aliases), a short title, an optional
// longer comment, and an open info bag that the core never interprets.
// Categories are immutable once their categorization is constructed.
//
// When the owning categorization is hierarchical, a category additionally
// carries its alternative child-sets: each child-set is one valid
// decomposition of the category into child categories.
type Category struct {
	codes     []string // primary code first, then alternative codes
	title     string
	comment   string
	info      map[string]any
	childSets [][]string // canonical child codes; nil for leaves and flat categorizations
}

// Code returns the primary code.
func (c *Category) Code() string { return c.codes[0] }

// Codes returns the primary code followed by all alternative codes, in
// declaration order.
func (c *Category) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Title returns the short human-readable label.
func (c *Category) Title() string { return c.title }

// Comment returns the longer description, or "" if none was given.
func (c *Category) Comment() string { return c.comment }

// Info returns the open key/value metadata attached to the category. The
// returned map is shared and must not be modified.
func (c *Category) Info() map[string]any {
	if c.info == nil {
		return map[string]any{}
	}
	return c.info
}

// ChildSets returns the alternative child-sets as lists of canonical child
// codes, in declaration order. The result is empty for leaf categories and
// for categories of flat categorizations.
func (c *Category) ChildSets() [][]string {
	out := make([][]string, len(c.childSets))
	for i, cs := range c.childSets {
		set := make([]string, len(cs))
		copy(set, cs)
		out[i] = set
	}
	return out
}

// IsLeaf reports whether the category has no child-sets.
func (c *Category) IsLeaf() bool { return len(c.childSets) == 0 }

func (c *Category) String() string {
	return fmt.Sprintf("%s %s", c.codes[0], c.title)
}
