package categories

import (
	"fmt"
	"strings"
)

// UnknownCategoryError is returned when a code or alias does not resolve in a
// categorization. It is recoverable: callers like FindCode treat it as "no
// match" and continue.
type UnknownCategoryError struct {
	Categorization string
	Code           string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q in categorization %q", e.Code, e.Categorization)
}

// DefinitionError is returned when a taxonomy or conversion definition is
// malformed: alias collisions, dangling child references, cycles in the
// child-set graph, or unresolvable rule categories. It carries every problem
// found, not just the first, so batch errors can be fixed in one pass.
type DefinitionError struct {
	Categorization string
	Problems       []string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition of %q: %s",
		e.Categorization, strings.Join(e.Problems, "; "))
}

// LevelAmbiguity describes one category whose level depends on the traversal
// path taken from the top of the hierarchy.
type LevelAmbiguity struct {
	Code   string
	Levels []int
}

// AmbiguousLevelError is returned when a hierarchical categorization contains
// categories reachable from the top through paths of different length, so a
// single-valued level cannot be assigned. Shortest-path levels are still
// available through Level; the ambiguity is reported, not silently resolved.
type AmbiguousLevelError struct {
	Categorization string
	Ambiguities    []LevelAmbiguity
}

func (e *AmbiguousLevelError) Error() string {
	parts := make([]string, len(e.Ambiguities))
	for i, a := range e.Ambiguities {
		parts[i] = fmt.Sprintf("%q (levels %v)", a.Code, a.Levels)
	}
	return fmt.Sprintf("ambiguous levels in categorization %q: %s",
		e.Categorization, strings.Join(parts, ", "))
}
