package categories

import (
	"fmt"
	"sort"
	"time"
)

// ExtendChildSet declares one additional alternative child-set for a parent
// category in an extension.
type ExtendChildSet struct {
	Parent   string
	Children []string
}

// ExtendSpec describes an extension of an existing categorization. Only new
// categories, aliases and child-sets can be added; existing categories can be
// overridden by declaring the same code again.
type ExtendSpec struct {
	// Name of the extension. The extended categorization is named
	// "{original}_{Name}".
	Name string
	// Added or overriding categories.
	Categories []CategorySpec
	// New aliases mapped to existing codes.
	AlternativeCodes map[string]string
	// Additional alternative child-sets (hierarchical only).
	Children []ExtendChildSet
	// Optional suffix for the title; " + {Name}" if empty.
	Title string
	// Optional suffix for the comment; " extended by {Name}" if empty.
	Comment string
	// Optional ISO date; today if empty.
	LastUpdate string
}

// Extend produces a new categorization with the extension applied, leaving
// the original untouched. The institution and references of the original are
// cleared on the result since the extension no longer originates from them;
// version, hierarchical, total_sum and the canonical top level are kept.
func (c *Categorization) Extend(ext ExtendSpec) (*Categorization, error) {
	if ext.Name == "" {
		return nil, fmt.Errorf("extension of categorization %q needs a name", c.name)
	}

	spec := c.Spec()
	spec.Name = c.name + "_" + ext.Name
	spec.References = ""
	spec.Institution = ""
	if ext.Title != "" {
		spec.Title = c.title + ext.Title
	} else {
		spec.Title = c.title + " + " + ext.Name
	}
	if ext.Comment != "" {
		spec.Comment = c.comment + ext.Comment
	} else {
		spec.Comment = c.comment + " extended by " + ext.Name
	}
	if ext.LastUpdate != "" {
		spec.LastUpdate = ext.LastUpdate
	} else {
		spec.LastUpdate = time.Now().Format(dateLayout)
	}

	index := make(map[string]int, len(spec.Categories))
	for i, cs := range spec.Categories {
		index[cs.Code] = i
	}
	for _, cs := range ext.Categories {
		if i, ok := index[cs.Code]; ok {
			spec.Categories[i] = cs
		} else {
			index[cs.Code] = len(spec.Categories)
			spec.Categories = append(spec.Categories, cs)
		}
	}
	aliases := make([]string, 0, len(ext.AlternativeCodes))
	for alias := range ext.AlternativeCodes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		code := ext.AlternativeCodes[alias]
		i, ok := index[c.canonicalCode(code)]
		if !ok {
			return nil, &UnknownCategoryError{Categorization: c.name, Code: code}
		}
		spec.Categories[i].AlternativeCodes = append(spec.Categories[i].AlternativeCodes, alias)
	}
	for _, cset := range ext.Children {
		i, ok := index[c.canonicalCode(cset.Parent)]
		if !ok {
			return nil, &UnknownCategoryError{Categorization: c.name, Code: cset.Parent}
		}
		spec.Categories[i].Children = append(spec.Categories[i].Children,
			append([]string(nil), cset.Children...))
	}

	return FromSpec(spec)
}

// canonicalCode resolves an alias to the primary code where possible; codes
// only introduced by the extension are returned unchanged.
func (c *Categorization) canonicalCode(codeOrAlias string) string {
	if cat, ok := c.byKey[codeOrAlias]; ok {
		return cat.Code()
	}
	return codeOrAlias
}
