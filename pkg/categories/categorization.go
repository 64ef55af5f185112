// Package categories implements hierarchical classification taxonomies
// (gases, emission sectors, country codes) for climate-policy data analysis:
// lookup by code or alias, navigation of parent/child relationships in a
// category DAG with alternative child-sets, level computation, copy-on-write
// extension, and a process-wide registry of loaded categorizations.
//
// Categorizations are built once from a definition and are immutable
// afterwards, so they are safe to share across goroutines without locking.
package categories

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Categorization is a complete named taxonomy of categories, possibly
// hierarchical. Use Lookup to translate codes or aliases to categories and
// Keys for all primary codes in declaration order.
type Categorization struct {
	name         string
	title        string
	comment      string
	references   string
	institution  string
	lastUpdate   time.Time
	version      string
	hierarchical bool

	// hierarchical only
	totalSum     bool
	canonicalTop string

	byKey   map[string]*Category // every primary code and alias
	order   []string             // primary codes, declaration order
	allKeys []string             // primary codes and aliases, declaration order
	parents map[string][]string  // canonical code -> parent canonical codes

	levelShortest map[string]int // canonical code -> shortest-path level from the top
	levelLongest  map[string]int // canonical code -> longest-path level from the top
	warnings      []string       // soft validation findings from construction
}

// FromSpec constructs a categorization from its definition.
//
// It returns a *DefinitionError when the definition is inconsistent: an
// alternative code collides with an existing code or alias, a child-set
// references an unknown code, or the child-set graph contains a cycle. All
// problems found are reported together.
func FromSpec(spec *Spec) (*Categorization, error) {
	c := &Categorization{
		name:         spec.Name,
		title:        spec.Title,
		comment:      spec.Comment,
		references:   spec.References,
		institution:  spec.Institution,
		version:      spec.Version,
		hierarchical: spec.Hierarchical,
		totalSum:     spec.TotalSum,
		canonicalTop: spec.CanonicalTopLevelCategory,
		byKey:        make(map[string]*Category, len(spec.Categories)),
	}
	if spec.LastUpdate != "" {
		t, err := time.Parse(dateLayout, spec.LastUpdate)
		if err != nil {
			return nil, &DefinitionError{
				Categorization: spec.Name,
				Problems:       []string{fmt.Sprintf("invalid last_update %q: must be an ISO date", spec.LastUpdate)},
			}
		}
		c.lastUpdate = t
	}

	var problems []string
	for _, cs := range spec.Categories {
		cat := &Category{
			codes:   append([]string{cs.Code}, cs.AlternativeCodes...),
			title:   cs.Title,
			comment: cs.Comment,
			info:    cs.Info,
		}
		if c.hierarchical && c.totalSum && cs.Children != nil && emptyChildren(cs.Children) {
			// The author declared a decomposition but provided no children.
			// With total_sum this is suspicious, but some categories are
			// intentional leaf placeholders, so it is not fatal.
			c.warnings = append(c.warnings, fmt.Sprintf(
				"category %q declares children but provides none although total_sum is set", cs.Code))
		}
		if c.hierarchical && len(cs.Children) > 0 {
			cat.childSets = make([][]string, len(cs.Children))
			for i, set := range cs.Children {
				cat.childSets[i] = append([]string(nil), set...)
			}
		}
		for _, key := range cat.codes {
			if _, taken := c.byKey[key]; taken {
				problems = append(problems, fmt.Sprintf("code %q is used multiple times", key))
				continue
			}
			c.byKey[key] = cat
			c.allKeys = append(c.allKeys, key)
		}
		c.order = append(c.order, cs.Code)
	}

	if c.hierarchical {
		problems = append(problems, c.resolveHierarchy()...)
		if c.canonicalTop != "" {
			if _, ok := c.byKey[c.canonicalTop]; !ok {
				problems = append(problems,
					fmt.Sprintf("canonical top level category %q is not defined", c.canonicalTop))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Categorization: spec.Name, Problems: problems}
	}
	if c.hierarchical {
		c.computePathLevels()
	}
	return c, nil
}

func emptyChildren(sets [][]string) bool {
	for _, set := range sets {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// ValidationWarnings returns soft findings from construction, e.g. categories
// that declare an empty decomposition in a total_sum categorization. They do
// not prevent use of the categorization.
func (c *Categorization) ValidationWarnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Name returns the unique name of the categorization.
func (c *Categorization) Name() string { return c.name }

// Title returns the short descriptive title.
func (c *Categorization) Title() string { return c.title }

// Comment returns the free-text notes, or "".
func (c *Categorization) Comment() string { return c.comment }

// References returns the citable reference(s), or "".
func (c *Categorization) References() string { return c.references }

// Institution returns where the categorization originates, or "".
func (c *Categorization) Institution() string { return c.institution }

// LastUpdate returns the date of the last change; the zero time if unknown.
func (c *Categorization) LastUpdate() time.Time { return c.lastUpdate }

// Version returns the version string, or "".
func (c *Categorization) Version() string { return c.version }

// Hierarchical reports whether parent/child relationships are defined.
func (c *Categorization) Hierarchical() bool { return c.hierarchical }

// TotalSum reports whether a parent's value equals the sum of any one of its
// child-sets. Only meaningful for hierarchical categorizations.
func (c *Categorization) TotalSum() bool { return c.hierarchical && c.totalSum }

// CanonicalTopLevelCategory returns the designated top-level category, or nil
// if none is designated or the categorization is flat.
func (c *Categorization) CanonicalTopLevelCategory() *Category {
	if !c.hierarchical || c.canonicalTop == "" {
		return nil
	}
	return c.byKey[c.canonicalTop]
}

// Lookup resolves a primary code or alias to its category. It returns an
// *UnknownCategoryError when the key does not resolve.
func (c *Categorization) Lookup(codeOrAlias string) (*Category, error) {
	cat, ok := c.byKey[codeOrAlias]
	if !ok {
		return nil, &UnknownCategoryError{Categorization: c.name, Code: codeOrAlias}
	}
	return cat, nil
}

// Contains reports whether the code or alias resolves in the categorization.
func (c *Categorization) Contains(codeOrAlias string) bool {
	_, ok := c.byKey[codeOrAlias]
	return ok
}

// Keys returns all primary codes in declaration order.
func (c *Categorization) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// AllKeys returns all primary codes and aliases in declaration order.
func (c *Categorization) AllKeys() []string {
	out := make([]string, len(c.allKeys))
	copy(out, c.allKeys)
	return out
}

// Values returns all categories in declaration order.
func (c *Categorization) Values() []*Category {
	out := make([]*Category, len(c.order))
	for i, code := range c.order {
		out[i] = c.byKey[code]
	}
	return out
}

// Len returns the number of categories (aliases not counted).
func (c *Categorization) Len() int { return len(c.order) }

func (c *Categorization) String() string { return c.name }

// Spec returns the definition form of the categorization. Round-tripping a
// categorization through Spec and FromSpec yields an equal categorization.
func (c *Categorization) Spec() *Spec {
	spec := &Spec{
		Name:                      c.name,
		Title:                     c.title,
		Comment:                   c.comment,
		References:                c.references,
		Institution:               c.institution,
		Hierarchical:              c.hierarchical,
		Version:                   c.version,
		TotalSum:                  c.totalSum,
		CanonicalTopLevelCategory: c.canonicalTop,
	}
	if !c.lastUpdate.IsZero() {
		spec.LastUpdate = c.lastUpdate.Format(dateLayout)
	}
	for _, code := range c.order {
		cat := c.byKey[code]
		cs := CategorySpec{
			Code:    code,
			Title:   cat.title,
			Comment: cat.comment,
			Info:    cat.info,
		}
		if len(cat.codes) > 1 {
			cs.AlternativeCodes = append([]string(nil), cat.codes[1:]...)
		}
		if len(cat.childSets) > 0 {
			cs.Children = cat.ChildSets()
		}
		spec.Categories = append(spec.Categories, cs)
	}
	return spec
}
