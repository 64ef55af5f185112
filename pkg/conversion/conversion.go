// Package conversion implements declared mappings between two
// categorizations: rules that express a category formula in one taxonomy as
// equivalent to a formula in another, optionally restricted to auxiliary
// categories, plus validation and overcounting diagnostics over rule sets.
package conversion

import (
	"fmt"
	"io"
	"time"

	"github.com/primap-community/climate-categories/internal/formula"
	"github.com/primap-community/climate-categories/pkg/categories"
)

// Side selects one of the two categorizations of a conversion.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "B"
	}
	return "A"
}

// Def is the parsed definition form of a conversion, as supplied by an
// external loader or by ReadDef. It references categorizations by name and
// keeps formulas as unparsed strings.
type Def struct {
	CategorizationA          string
	CategorizationB          string
	AuxiliaryCategorizations []string

	Comment     string
	References  string
	Institution string
	LastUpdate  string // ISO date
	Version     string

	Rows []RowSpec
}

// RowSpec is one unparsed rule row of a conversion definition.
type RowSpec struct {
	Line      int      // 1-based line in the definition file, 0 if not file-backed
	FormulaA  string   // formula over categorization A
	Auxiliary []string // one whitespace-separated list per auxiliary categorization
	FormulaB  string   // formula over categorization B
	Comment   string
}

// Conversion owns the two categorizations it converts between, the ordered
// auxiliary categorizations, and the ordered rules. Built once from a parsed
// definition; read-only thereafter.
type Conversion struct {
	catA     *categories.Categorization
	catB     *categories.Categorization
	auxNames []string
	aux      map[string]*categories.Categorization
	rules    []*Rule

	comment     string
	references  string
	institution string
	lastUpdate  time.Time
	version     string
}

// Resolve maps a categorization name to a loaded categorization. The
// process-wide registry's Get is the usual implementation.
type Resolve func(name string) (*categories.Categorization, error)

// New constructs a conversion from its definition, resolving the referenced
// categorizations and parsing all formulas.
//
// Every category referenced in any formula or auxiliary list must exist in
// the respective categorization; unresolvable codes across all rows are
// collected into a single *categories.DefinitionError so batch mistakes can
// be fixed in one pass. Malformed formulas surface as *FormulaSyntaxError
// identifying the offending row.
func New(def *Def, resolve Resolve) (*Conversion, error) {
	catA, err := resolve(def.CategorizationA)
	if err != nil {
		return nil, fmt.Errorf("categorization A: %w", err)
	}
	catB, err := resolve(def.CategorizationB)
	if err != nil {
		return nil, fmt.Errorf("categorization B: %w", err)
	}
	c := &Conversion{
		catA:        catA,
		catB:        catB,
		auxNames:    append([]string(nil), def.AuxiliaryCategorizations...),
		aux:         make(map[string]*categories.Categorization, len(def.AuxiliaryCategorizations)),
		comment:     def.Comment,
		references:  def.References,
		institution: def.Institution,
		version:     def.Version,
	}
	for _, name := range c.auxNames {
		auxCat, err := resolve(name)
		if err != nil {
			return nil, fmt.Errorf("auxiliary categorization %q: %w", name, err)
		}
		c.aux[name] = auxCat
	}
	if def.LastUpdate != "" {
		t, err := time.Parse("2006-01-02", def.LastUpdate)
		if err != nil {
			return nil, fmt.Errorf("invalid last_update %q: must be an ISO date", def.LastUpdate)
		}
		c.lastUpdate = t
	}

	var unresolved []string
	for _, row := range def.Rows {
		rule, problems, err := c.hydrateRow(row)
		if err != nil {
			return nil, err
		}
		if len(problems) > 0 {
			unresolved = append(unresolved, problems...)
			continue
		}
		c.rules = append(c.rules, rule)
	}
	if len(unresolved) > 0 {
		return nil, &categories.DefinitionError{
			Categorization: c.Name(),
			Problems:       unresolved,
		}
	}
	return c, nil
}

// hydrateRow parses one definition row into a rule. Unresolvable codes are
// returned as problems rather than an error so the caller can collect them
// across all rows.
func (c *Conversion) hydrateRow(row RowSpec) (*Rule, []string, error) {
	if len(row.Auxiliary) != len(c.auxNames) {
		return nil, nil, fmt.Errorf(
			"line %d: %d auxiliary columns given, %d auxiliary categorizations declared",
			row.Line, len(row.Auxiliary), len(c.auxNames))
	}

	rule := &Rule{
		aux:     make(map[string]map[string]bool),
		comment: row.Comment,
		line:    row.Line,
	}
	var problems []string

	hydrateFormula := func(input string, cat *categories.Categorization) (map[string]int, []string, error) {
		terms, err := formula.Parse(input)
		if err != nil {
			return nil, nil, syntaxError(row.Line, input, err)
		}
		factors := make(map[string]int, len(terms))
		var order []string
		for _, term := range terms {
			resolved, err := cat.Lookup(term.Code)
			if err != nil {
				problems = append(problems, fmt.Sprintf(
					"line %d: category %q is not in categorization %q", row.Line, term.Code, cat.Name()))
				continue
			}
			canonical := resolved.Code()
			if _, ok := factors[canonical]; !ok {
				order = append(order, canonical)
			}
			factors[canonical] += term.Factor
		}
		return factors, order, nil
	}

	var err error
	rule.factorsA, rule.codesA, err = hydrateFormula(row.FormulaA, c.catA)
	if err != nil {
		return nil, nil, err
	}
	rule.factorsB, rule.codesB, err = hydrateFormula(row.FormulaB, c.catB)
	if err != nil {
		return nil, nil, err
	}

	for i, name := range c.auxNames {
		codes, err := formula.ParseTokenList(row.Auxiliary[i])
		if err != nil {
			return nil, nil, syntaxError(row.Line, row.Auxiliary[i], err)
		}
		if len(codes) == 0 {
			continue // unrestricted for this auxiliary categorization
		}
		set := make(map[string]bool, len(codes))
		for _, code := range codes {
			resolved, err := c.aux[name].Lookup(code)
			if err != nil {
				problems = append(problems, fmt.Sprintf(
					"line %d: auxiliary category %q is not in categorization %q", row.Line, code, name))
				continue
			}
			set[resolved.Code()] = true
		}
		rule.aux[name] = set
	}
	return rule, problems, nil
}

func syntaxError(line int, input string, err error) error {
	if se, ok := err.(*formula.SyntaxError); ok {
		return &FormulaSyntaxError{Line: line, Formula: input, Pos: se.Pos, Msg: se.Msg}
	}
	return &FormulaSyntaxError{Line: line, Formula: input, Msg: err.Error()}
}

// Load reads a conversion definition file and constructs the conversion
// against the process-wide categorization registry.
func Load(r io.Reader) (*Conversion, error) {
	def, err := ReadDef(r)
	if err != nil {
		return nil, err
	}
	return New(def, categories.Get)
}

// Name identifies the conversion by the two categorization names.
func (c *Conversion) Name() string {
	return c.catA.Name() + "<->" + c.catB.Name()
}

// CategorizationA returns the first categorization.
func (c *Conversion) CategorizationA() *categories.Categorization { return c.catA }

// CategorizationB returns the second categorization.
func (c *Conversion) CategorizationB() *categories.Categorization { return c.catB }

// Categorization returns the categorization of the given side.
func (c *Conversion) Categorization(side Side) *categories.Categorization {
	if side == SideB {
		return c.catB
	}
	return c.catA
}

// AuxiliaryCategorizations returns the auxiliary categorization names in
// declaration order.
func (c *Conversion) AuxiliaryCategorizations() []string {
	out := make([]string, len(c.auxNames))
	copy(out, c.auxNames)
	return out
}

// Rules returns all rules in declaration order.
func (c *Conversion) Rules() []*Rule {
	out := make([]*Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Comment returns the free-text notes of the conversion, or "".
func (c *Conversion) Comment() string { return c.comment }

// References returns the citable reference(s), or "".
func (c *Conversion) References() string { return c.references }

// Institution returns where the conversion originates, or "".
func (c *Conversion) Institution() string { return c.institution }

// LastUpdate returns the date of the last change; the zero time if unknown.
func (c *Conversion) LastUpdate() time.Time { return c.lastUpdate }

// Version returns the version string, or "".
func (c *Conversion) Version() string { return c.version }

// RulesFor returns the rules whose formula on the given side references the
// category, with either sign, preserving declaration order.
func (c *Conversion) RulesFor(side Side, codeOrAlias string) ([]*Rule, error) {
	cat, err := c.Categorization(side).Lookup(codeOrAlias)
	if err != nil {
		return nil, err
	}
	var out []*Rule
	for _, rule := range c.rules {
		if rule.references(side, cat.Code()) {
			out = append(out, rule)
		}
	}
	return out, nil
}

// FindUnmapped returns the categories of the given side that no rule's
// formula references on that side, in declaration order. Used to report
// incomplete coverage of a conversion.
func (c *Conversion) FindUnmapped(side Side) []*categories.Category {
	mapped := make(map[string]bool)
	for _, rule := range c.rules {
		for code := range rule.factors(side) {
			mapped[code] = true
		}
	}
	var out []*categories.Category
	cat := c.Categorization(side)
	for _, code := range cat.Keys() {
		if !mapped[code] {
			unmappedCat, err := cat.Lookup(code)
			if err != nil {
				continue // cannot happen: Keys only yields valid codes
			}
			out = append(out, unmappedCat)
		}
	}
	return out
}

// Reversed returns the conversion with categorization A and B swapped. The
// rules are shared views; the original is not modified.
func (c *Conversion) Reversed() *Conversion {
	rev := &Conversion{
		catA:        c.catB,
		catB:        c.catA,
		auxNames:    c.auxNames,
		aux:         c.aux,
		comment:     c.comment,
		references:  c.references,
		institution: c.institution,
		lastUpdate:  c.lastUpdate,
		version:     c.version,
	}
	rev.rules = make([]*Rule, len(c.rules))
	for i, rule := range c.rules {
		rev.rules[i] = rule.reversed()
	}
	return rev
}
