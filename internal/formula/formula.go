// Package formula parses the small arithmetic grammar used by conversion
// rules: category codes combined with + and -. Bare codes may contain
// letters, digits and dots; anything else must be double-quoted, with
// backslash escaping inside the quotes. The same token grammar, without
// operators, is used for whitespace-separated auxiliary category lists.
package formula

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports malformed formula or token-list input.
type SyntaxError struct {
	Input string
	Pos   int // byte offset of the offending position
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("could not parse %q: %s at position %d", e.Input, e.Msg, e.Pos)
}

// Term is one signed category reference of a formula. Factor accumulates when
// the same code appears several times, so "A + A" yields a single term with
// factor 2 and "-A+B - A" yields A with factor -2.
type Term struct {
	Code   string
	Factor int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) errf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: l.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) eof() bool {
	l.skipSpace()
	return l.pos >= len(l.input)
}

// operator consumes a + or - if one is next; ok reports whether it did.
func (l *lexer) operator() (factor int, ok bool) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return 0, false
	}
	switch l.input[l.pos] {
	case '+':
		l.pos++
		return 1, true
	case '-':
		l.pos++
		return -1, true
	}
	return 0, false
}

func isBareRune(r rune) bool {
	return r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// token consumes one category code: either a bare alphanumeric-and-dot token
// or a double-quoted string with backslash escapes.
func (l *lexer) token() (string, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return "", l.errf(l.pos, "expected a category code")
	}
	if l.input[l.pos] == '"' {
		return l.quoted()
	}
	start := l.pos
	for l.pos < len(l.input) && isBareRune(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos == start {
		return "", l.errf(start, "expected a category code, found %q", l.input[l.pos])
	}
	return l.input[start:l.pos], nil
}

func (l *lexer) quoted() (string, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			if l.pos+1 >= len(l.input) {
				return "", l.errf(l.pos, "dangling escape character")
			}
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case '"':
			l.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(l.input[l.pos])
			l.pos++
		}
	}
	return "", l.errf(start, "unbalanced quotes")
}

// Parse parses a formula into its accumulated terms, keeping the order of
// first appearance. The leading operator is optional; a bare first term is
// implicitly positive.
func Parse(input string) ([]Term, error) {
	l := &lexer{input: input}

	if l.eof() {
		return nil, l.errf(l.pos, "expected a category code")
	}

	var terms []Term
	index := make(map[string]int)

	factor, _ := l.operator()
	if factor == 0 {
		factor = 1
	}
	for {
		code, err := l.token()
		if err != nil {
			return nil, err
		}
		if i, ok := index[code]; ok {
			terms[i].Factor += factor
		} else {
			index[code] = len(terms)
			terms = append(terms, Term{Code: code, Factor: factor})
		}

		if l.eof() {
			return terms, nil
		}
		var ok bool
		factor, ok = l.operator()
		if !ok {
			return nil, l.errf(l.pos, "expected + or -, found %q", l.input[l.pos])
		}
	}
}

// ParseTokenList parses a whitespace-separated list of category codes, as
// used for auxiliary-category restrictions. Operators are not allowed and
// duplicate codes are deduplicated; the order of first appearance is kept.
// An empty list is valid and yields no codes.
func ParseTokenList(input string) ([]string, error) {
	l := &lexer{input: input}
	var codes []string
	seen := make(map[string]bool)
	for !l.eof() {
		code, err := l.token()
		if err != nil {
			return nil, err
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes, nil
}
