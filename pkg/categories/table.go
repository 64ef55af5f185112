package categories

// TableRow is one row of the tabular projection of a categorization. Level is
// nil for flat categorizations and for categories without a consistent level.
type TableRow struct {
	Code  string
	Title string
	Level *int
}

// TableRows returns the tabular projection (code, title, level) for every
// category in declaration order. The table itself is a concern of downstream
// tooling; the core only supplies the rows.
func (c *Categorization) TableRows() []TableRow {
	rows := make([]TableRow, 0, len(c.order))
	for _, code := range c.order {
		row := TableRow{Code: code, Title: c.byKey[code].title}
		if c.hierarchical {
			if lvl, err := c.Level(code); err == nil {
				row.Level = &lvl
			}
		}
		rows = append(rows, row)
	}
	return rows
}
