package conversion

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Conversion definitions are stored as comma-separated files without cell
// quoting: a comma inside a cell is escaped with a backslash, a literal
// backslash doubles itself, and everything else passes through untouched
// (quoting of category codes belongs to the formula grammar, not to the
// table layer).
//
// The file starts with metadata lines of the form "# key: value", followed
// by a header row naming categorization A, the auxiliary categorizations in
// order, and categorization B. Each data row carries the A formula, one
// whitespace-separated auxiliary restriction list per auxiliary column, the
// B formula, and optionally one extra trailing cell with a free-text
// comment.

var defMetaKeys = map[string]bool{
	"comment": true, "references": true, "institution": true,
	"last_update": true, "version": true,
}

// ReadDef parses a conversion definition file.
func ReadDef(r io.Reader) (*Def, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	def := &Def{}
	line := 0
	headerSeen := false
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if headerSeen {
				return nil, fmt.Errorf("line %d: metadata must precede the header row", line)
			}
			if err := parseMetaLine(def, text, line); err != nil {
				return nil, err
			}
			continue
		}

		cells, err := splitCells(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !headerSeen {
			if len(cells) < 2 {
				return nil, fmt.Errorf(
					"line %d: header must name at least two categorizations", line)
			}
			def.CategorizationA = cells[0]
			def.CategorizationB = cells[len(cells)-1]
			def.AuxiliaryCategorizations = append([]string(nil), cells[1:len(cells)-1]...)
			headerSeen = true
			continue
		}

		nAux := len(def.AuxiliaryCategorizations)
		row := RowSpec{Line: line}
		switch len(cells) {
		case nAux + 2:
			// no comment cell
		case nAux + 3:
			row.Comment = cells[nAux+2]
		default:
			return nil, fmt.Errorf("line %d: expected %d or %d cells, got %d",
				line, nAux+2, nAux+3, len(cells))
		}
		row.FormulaA = cells[0]
		row.Auxiliary = append([]string(nil), cells[1:nAux+1]...)
		row.FormulaB = cells[nAux+1]
		def.Rows = append(def.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversion definition: %w", err)
	}
	if !headerSeen {
		return nil, fmt.Errorf("conversion definition misses the header row")
	}
	return def, nil
}

func parseMetaLine(def *Def, text string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(text, "#"))
	key, value, found := strings.Cut(body, ":")
	if !found {
		return fmt.Errorf("line %d: metadata line must have the form '# key: value'", line)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !defMetaKeys[key] {
		return fmt.Errorf("line %d: unknown metadata key %q", line, key)
	}
	switch key {
	case "comment":
		def.Comment = value
	case "references":
		def.References = value
	case "institution":
		def.Institution = value
	case "last_update":
		def.LastUpdate = value
	case "version":
		def.Version = value
	}
	return nil
}

// splitCells splits one row on unescaped commas. "\," yields a literal comma
// within a cell, "\\" a literal backslash; any other escape is kept verbatim
// for the formula layer.
func splitCells(text string) ([]string, error) {
	var cells []string
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if i+1 >= len(text) {
				return nil, fmt.Errorf("dangling escape character at end of row")
			}
			next := text[i+1]
			if next != ',' && next != '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteByte(next)
			i++
		case ',':
			cells = append(cells, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(text[i])
		}
	}
	cells = append(cells, strings.TrimSpace(sb.String()))
	return cells, nil
}
