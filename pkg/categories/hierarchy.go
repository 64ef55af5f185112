package categories

import (
	"fmt"
	"sort"
)

// resolveHierarchy canonicalizes all child-set references, builds the parent
// relation, rejects dangling references and cycles, and precomputes levels.
// It returns the definition problems found.
func (c *Categorization) resolveHierarchy() []string {
	var problems []string
	c.parents = make(map[string][]string)

	for _, code := range c.order {
		cat := c.byKey[code]
		for i, set := range cat.childSets {
			for j, childKey := range set {
				child, ok := c.byKey[childKey]
				if !ok {
					problems = append(problems, fmt.Sprintf(
						"category %q references unknown child %q", code, childKey))
					continue
				}
				// store canonical codes so alias references collapse
				cat.childSets[i][j] = child.Code()
			}
		}
	}
	if len(problems) > 0 {
		return problems
	}

	for _, code := range c.order {
		seen := make(map[string]bool)
		for _, set := range c.byKey[code].childSets {
			for _, child := range set {
				if !seen[child] {
					seen[child] = true
					c.parents[child] = append(c.parents[child], code)
				}
			}
		}
	}

	if cycles := c.findCycles(); len(cycles) > 0 {
		problems = append(problems, cycles...)
	}
	return problems
}

// findCycles runs an explicit stack-based depth-first traversal over the
// child-set graph, carrying a "currently visiting" marker. A code encountered
// while still on the DFS stack closes a cycle.
func (c *Categorization) findCycles() []string {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(c.order))
	var problems []string

	type frame struct {
		code string
		next int // index into the flattened child list
	}
	for _, start := range c.order {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{code: start}}
		state[start] = onStack
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := c.childUnion(top.code)
			if top.next >= len(children) {
				state[top.code] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch state[child] {
			case unvisited:
				state[child] = onStack
				stack = append(stack, frame{code: child})
			case onStack:
				problems = append(problems, fmt.Sprintf(
					"cycle in child-set graph: %q is reachable from itself via %q", child, top.code))
			}
		}
	}
	return problems
}

// childUnion returns the deduplicated union of all child-sets of a category,
// in declaration order.
func (c *Categorization) childUnion(code string) []string {
	cat := c.byKey[code]
	if cat == nil || len(cat.childSets) == 0 {
		return nil
	}
	var union []string
	seen := make(map[string]bool)
	for _, set := range cat.childSets {
		for _, child := range set {
			if !seen[child] {
				seen[child] = true
				union = append(union, child)
			}
		}
	}
	return union
}

func (c *Categorization) notHierarchicalError() error {
	return fmt.Errorf("categorization %q is not hierarchical", c.name)
}

// Parents returns all categories that list the given code in at least one of
// their child-sets, in declaration order.
func (c *Categorization) Parents(codeOrAlias string) ([]*Category, error) {
	if !c.hierarchical {
		return nil, c.notHierarchicalError()
	}
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	parents := c.parents[cat.Code()]
	out := make([]*Category, len(parents))
	for i, p := range parents {
		out[i] = c.byKey[p]
	}
	return out, nil
}

// Children returns the alternative child-sets of the given category, each set
// resolved to categories, order preserved.
func (c *Categorization) Children(codeOrAlias string) ([][]*Category, error) {
	if !c.hierarchical {
		return nil, c.notHierarchicalError()
	}
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	out := make([][]*Category, len(cat.childSets))
	for i, set := range cat.childSets {
		resolved := make([]*Category, len(set))
		for j, child := range set {
			resolved[j] = c.byKey[child]
		}
		out[i] = resolved
	}
	return out, nil
}

// Descendants returns the transitive closure of the category's children over
// the union of all child-sets, excluding the category itself.
func (c *Categorization) Descendants(codeOrAlias string) ([]*Category, error) {
	if !c.hierarchical {
		return nil, c.notHierarchicalError()
	}
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	return c.collectTransitive(cat.Code(), c.childUnion), nil
}

// Ancestors returns all categories from which the given category is reachable
// via any chain of child-set memberships.
func (c *Categorization) Ancestors(codeOrAlias string) ([]*Category, error) {
	if !c.hierarchical {
		return nil, c.notHierarchicalError()
	}
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	return c.collectTransitive(cat.Code(), func(code string) []string {
		return c.parents[code]
	}), nil
}

func (c *Categorization) collectTransitive(start string, next func(string) []string) []*Category {
	var out []*Category
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]
		for _, n := range next(code) {
			if !seen[n] {
				seen[n] = true
				out = append(out, c.byKey[n])
				queue = append(queue, n)
			}
		}
	}
	return out
}

// IsLeaf reports whether the category has no child-sets.
func (c *Categorization) IsLeaf(codeOrAlias string) (bool, error) {
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return false, err
	}
	return cat.IsLeaf(), nil
}

// LeafSet returns the canonical codes of all leaf categories below the given
// category, the category itself if it is a leaf, union over all alternative
// child-sets. For flat categorizations the category itself is returned.
func (c *Categorization) LeafSet(codeOrAlias string) (map[string]bool, error) {
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	leaves := make(map[string]bool)
	if !c.hierarchical || cat.IsLeaf() {
		leaves[cat.Code()] = true
		return leaves, nil
	}
	descendants, err := c.Descendants(cat.Code())
	if err != nil {
		return nil, err
	}
	for _, d := range descendants {
		if d.IsLeaf() {
			leaves[d.Code()] = true
		}
	}
	return leaves, nil
}

// LeafChildren returns, per alternative child-set, the leaf categories the
// child-set expands to.
func (c *Categorization) LeafChildren(codeOrAlias string) ([][]*Category, error) {
	sets, err := c.Children(codeOrAlias)
	if err != nil {
		return nil, err
	}
	out := make([][]*Category, len(sets))
	for i, set := range sets {
		leaves := make(map[string]bool)
		for _, member := range set {
			memberLeaves, err := c.LeafSet(member.Code())
			if err != nil {
				return nil, err
			}
			for code := range memberLeaves {
				leaves[code] = true
			}
		}
		codes := make([]string, 0, len(leaves))
		for code := range leaves {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		resolved := make([]*Category, len(codes))
		for j, code := range codes {
			resolved[j] = c.byKey[code]
		}
		out[i] = resolved
	}
	return out, nil
}

// topLevelCodes returns the roots for level computation: the canonical top
// level category if designated, otherwise every category without parents.
func (c *Categorization) topLevelCodes() []string {
	if c.canonicalTop != "" {
		if top, ok := c.byKey[c.canonicalTop]; ok {
			return []string{top.Code()}
		}
	}
	var roots []string
	for _, code := range c.order {
		if len(c.parents[code]) == 0 {
			roots = append(roots, code)
		}
	}
	return roots
}

// computePathLevels fills in, for every reachable category, the shortest and
// longest path level from the top of the hierarchy. Roots have level 1. Run
// once at construction; the categorization is immutable afterwards.
func (c *Categorization) computePathLevels() {
	shortest := make(map[string]int)
	longest := make(map[string]int)
	roots := c.topLevelCodes()

	queue := append([]string(nil), roots...)
	for _, r := range roots {
		shortest[r] = 1
	}
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]
		for _, child := range c.childUnion(code) {
			if _, seen := shortest[child]; !seen {
				shortest[child] = shortest[code] + 1
				queue = append(queue, child)
			}
		}
	}

	// Longest path per node over the reachable DAG, relaxed in topological
	// order. Cycles were rejected at construction.
	indeg := make(map[string]int)
	for code := range shortest {
		for _, child := range c.childUnion(code) {
			indeg[child]++
		}
	}
	var topo []string
	for _, r := range roots {
		if indeg[r] == 0 {
			topo = append(topo, r)
			longest[r] = 1
		}
	}
	for i := 0; i < len(topo); i++ {
		code := topo[i]
		for _, child := range c.childUnion(code) {
			if longest[child] < longest[code]+1 {
				longest[child] = longest[code] + 1
			}
			indeg[child]--
			if indeg[child] == 0 {
				topo = append(topo, child)
			}
		}
	}
	c.levelShortest = shortest
	c.levelLongest = longest
}

// Level returns the level of the category: 1 for the top of the hierarchy,
// 1 + the shortest path from the top otherwise.
//
// If the category can be reached from the top through paths of different
// length, Level returns an *AmbiguousLevelError instead of silently picking
// one; use CheckLevels to validate the whole categorization at once.
func (c *Categorization) Level(codeOrAlias string) (int, error) {
	if !c.hierarchical {
		return 0, c.notHierarchicalError()
	}
	cat, err := c.Lookup(codeOrAlias)
	if err != nil {
		return 0, err
	}
	code := cat.Code()
	lvl, reachable := c.levelShortest[code]
	if !reachable {
		return 0, fmt.Errorf("%q is not a transitive child of the top level of categorization %q",
			code, c.name)
	}
	if c.levelLongest[code] != lvl {
		return 0, &AmbiguousLevelError{
			Categorization: c.name,
			Ambiguities:    []LevelAmbiguity{{Code: code, Levels: []int{lvl, c.levelLongest[code]}}},
		}
	}
	return lvl, nil
}

// CheckLevels validates that every reachable category has a single-valued
// level. It returns an *AmbiguousLevelError listing all divergent categories,
// or nil if levels are consistent.
func (c *Categorization) CheckLevels() error {
	if !c.hierarchical {
		return c.notHierarchicalError()
	}
	var ambiguities []LevelAmbiguity
	for _, code := range c.order {
		short, reachable := c.levelShortest[code]
		if reachable && c.levelLongest[code] != short {
			ambiguities = append(ambiguities, LevelAmbiguity{
				Code:   code,
				Levels: []int{short, c.levelLongest[code]},
			})
		}
	}
	if len(ambiguities) > 0 {
		return &AmbiguousLevelError{Categorization: c.name, Ambiguities: ambiguities}
	}
	return nil
}
