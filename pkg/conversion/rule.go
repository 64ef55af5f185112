package conversion

import "sort"

// Rule is one row of a conversion: a pair of signed category formulas, one
// per categorization, optionally restricted to auxiliary categories. Rules
// are immutable once their conversion is constructed. All codes held by a
// rule are canonical: aliases used in the definition are resolved during
// construction.
type Rule struct {
	factorsA map[string]int
	codesA   []string // order of first appearance
	factorsB map[string]int
	codesB   []string
	aux      map[string]map[string]bool // aux categorization name -> allowed codes
	comment  string
	line     int // source line in the definition file, 0 if not file-backed
}

// Factors returns the signed factors of the formula on the given side, keyed
// by canonical category code.
func (r *Rule) Factors(side Side) map[string]int {
	src := r.factorsA
	if side == SideB {
		src = r.factorsB
	}
	out := make(map[string]int, len(src))
	for code, factor := range src {
		out[code] = factor
	}
	return out
}

// Codes returns the canonical codes referenced by the formula on the given
// side, in order of first appearance.
func (r *Rule) Codes(side Side) []string {
	src := r.codesA
	if side == SideB {
		src = r.codesB
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func (r *Rule) factors(side Side) map[string]int {
	if side == SideB {
		return r.factorsB
	}
	return r.factorsA
}

// AuxiliaryCategories returns the restriction sets by auxiliary
// categorization name, each as a sorted list of canonical codes. Auxiliary
// categorizations without a restriction are absent.
func (r *Rule) AuxiliaryCategories() map[string][]string {
	out := make(map[string][]string, len(r.aux))
	for name, set := range r.aux {
		codes := make([]string, 0, len(set))
		for code := range set {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		out[name] = codes
	}
	return out
}

// Comment returns the free-text comment of the rule, or "".
func (r *Rule) Comment() string { return r.comment }

// Line returns the 1-based line of the rule in its definition file, or 0.
func (r *Rule) Line() int { return r.line }

// IsRestricted reports whether the rule only applies for specific auxiliary
// categories.
func (r *Rule) IsRestricted() bool {
	for _, set := range r.aux {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

// references reports whether the formula on the given side mentions the
// canonical code, with either sign.
func (r *Rule) references(side Side, canonicalCode string) bool {
	_, ok := r.factors(side)[canonicalCode]
	return ok
}

// reversed returns the rule with the two sides swapped.
func (r *Rule) reversed() *Rule {
	return &Rule{
		factorsA: r.factorsB,
		codesA:   r.codesB,
		factorsB: r.factorsA,
		codesB:   r.codesA,
		aux:      r.aux,
		comment:  r.comment,
		line:     r.line,
	}
}

// mutuallyExclusive reports whether the two rules can never apply to the same
// record: some auxiliary categorization is restricted in both rules and the
// restriction sets are disjoint.
func mutuallyExclusive(a, b *Rule) bool {
	for name, setA := range a.aux {
		setB, ok := b.aux[name]
		if !ok || len(setA) == 0 || len(setB) == 0 {
			continue
		}
		if disjoint(setA, setB) {
			return true
		}
	}
	return false
}

func disjoint(a, b map[string]bool) bool {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for code := range small {
		if large[code] {
			return false
		}
	}
	return true
}
