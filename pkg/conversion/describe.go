package conversion

import (
	"fmt"
	"sort"
	"strings"
)

// Describe renders a detailed human-readable description of the conversion
// rules as markdown, grouped by mapping cardinality, ending with the
// categories each side leaves unmapped.
func (c *Conversion) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Mapping between %s and %s\n\n", c.catA.Name(), c.catB.Name())

	writeRule := func(rule *Rule) {
		for _, code := range rule.codesA {
			cat, err := c.catA.Lookup(code)
			if err == nil {
				fmt.Fprintf(&sb, "<%s> %s\n", c.catA.Name(), cat)
			}
		}
		for _, code := range rule.codesB {
			cat, err := c.catB.Lookup(code)
			if err == nil {
				fmt.Fprintf(&sb, "<%s> %s\n", c.catB.Name(), cat)
			}
		}
		if rule.IsRestricted() {
			names := make([]string, 0, len(rule.aux))
			for name := range rule.aux {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				codes := make([]string, 0, len(rule.aux[name]))
				for code := range rule.aux[name] {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				fmt.Fprintf(&sb, "only for %s in %s\n", name, strings.Join(codes, ", "))
			}
		}
		if rule.comment != "" {
			fmt.Fprintf(&sb, "comment: %s\n", rule.comment)
		}
		sb.WriteString("\n")
	}

	sections := []struct {
		title string
		match func(*Rule) bool
	}{
		{"## Simple direct mappings\n\n", func(r *Rule) bool {
			return len(r.codesA) == 1 && len(r.codesB) == 1
		}},
		{fmt.Sprintf("## One-to-many mappings - one %s to many %s\n\n", c.catA.Name(), c.catB.Name()), func(r *Rule) bool {
			return len(r.codesA) == 1 && len(r.codesB) != 1
		}},
		{fmt.Sprintf("## Many-to-one mappings - many %s to one %s\n\n", c.catA.Name(), c.catB.Name()), func(r *Rule) bool {
			return len(r.codesA) != 1 && len(r.codesB) == 1
		}},
		{"## Many-to-many mappings\n\n", func(r *Rule) bool {
			return len(r.codesA) != 1 && len(r.codesB) != 1
		}},
	}
	for _, section := range sections {
		sb.WriteString(section.title)
		for _, rule := range c.rules {
			if section.match(rule) {
				writeRule(rule)
			}
		}
	}

	sb.WriteString("## Unmapped categories\n\n")
	for _, side := range []Side{SideA, SideB} {
		fmt.Fprintf(&sb, "### %s\n", c.Categorization(side).Name())
		unmapped := c.FindUnmapped(side)
		lines := make([]string, len(unmapped))
		for i, cat := range unmapped {
			lines[i] = cat.String()
		}
		sort.Strings(lines)
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
