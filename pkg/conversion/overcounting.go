package conversion

import (
	"fmt"
	"sort"
)

// OvercountingProblem reports a pair of rules whose expanded leaf coverage on
// one side overlaps, so combining both rules would double-count the listed
// leaf categories. This is a diagnostic for human review, not an automatic
// rejection: depending on the data at hand, only one of the rules may ever
// be selected.
type OvercountingProblem struct {
	Side  Side
	RuleA int // index into Rules()
	RuleB int
	// Leaves are the sorted canonical codes of the overlapping leaf
	// categories.
	Leaves []string
}

func (p OvercountingProblem) String() string {
	return fmt.Sprintf("rules %d and %d overlap on side %s in leaf categories %v",
		p.RuleA, p.RuleB, p.Side, p.Leaves)
}

// FindOvercountingProblems analyses the rule set for double counting on the
// given side. Every category a rule references is expanded to the leaf
// categories below it (the category itself when it is a leaf or the side is
// not hierarchical); two rules conflict when their leaf coverage intersects,
// unless disjoint restrictions on a shared auxiliary categorization make the
// rules mutually exclusive. The conversion is never modified.
func (c *Conversion) FindOvercountingProblems(side Side) ([]OvercountingProblem, error) {
	cat := c.Categorization(side)
	if cat.Hierarchical() && !cat.TotalSum() {
		return nil, fmt.Errorf(
			"overcounting analysis of %q needs total_sum: without it the sum of a set of children is not specified to equal the parent",
			cat.Name())
	}

	covers := make([]map[string]bool, len(c.rules))
	for i, rule := range c.rules {
		cover := make(map[string]bool)
		for code := range rule.factors(side) {
			leaves, err := cat.LeafSet(code)
			if err != nil {
				return nil, fmt.Errorf("rule at line %d: %w", rule.line, err)
			}
			for leaf := range leaves {
				cover[leaf] = true
			}
		}
		covers[i] = cover
	}

	var problems []OvercountingProblem
	for i := range c.rules {
		for j := i + 1; j < len(c.rules); j++ {
			if mutuallyExclusive(c.rules[i], c.rules[j]) {
				continue
			}
			overlap := intersection(covers[i], covers[j])
			if len(overlap) == 0 {
				continue
			}
			sort.Strings(overlap)
			problems = append(problems, OvercountingProblem{
				Side:   side,
				RuleA:  i,
				RuleB:  j,
				Leaves: overlap,
			})
		}
	}
	return problems, nil
}

func intersection(a, b map[string]bool) []string {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var out []string
	for code := range small {
		if large[code] {
			out = append(out, code)
		}
	}
	return out
}
