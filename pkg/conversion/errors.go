package conversion

import "fmt"

// FormulaSyntaxError reports a malformed formula or auxiliary list in a
// conversion definition, attributed to the offending row.
type FormulaSyntaxError struct {
	Line    int // 1-based line in the definition file, 0 if not file-backed
	Formula string
	Pos     int // byte offset within the formula
	Msg     string
}

func (e *FormulaSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: could not parse %q: %s at position %d",
			e.Line, e.Formula, e.Msg, e.Pos)
	}
	return fmt.Sprintf("could not parse %q: %s at position %d", e.Formula, e.Msg, e.Pos)
}
