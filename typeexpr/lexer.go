package typeexpr

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokPipe
	tokLBrack
	tokRBrack
	tokLAngle
	tokRAngle
	tokComma
	tokLParen
	tokRParen
	tokQuestion
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of expression",
	tokName:     "type name",
	tokPipe:     "'|'",
	tokLBrack:   "'['",
	tokRBrack:   "']'",
	tokLAngle:   "'<'",
	tokRAngle:   "'>'",
	tokComma:    "','",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokQuestion: "'?'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// SyntaxError reports a malformed type expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("typeexpr: %s at offset %d in %q", e.Msg, e.Offset, e.Expr)
}

// lex splits the expression into tokens. Names may contain namespace
// separators (\ . / ::) so fully-qualified names stay a single token.
func lex(expr string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(expr); {
		r, size := utf8.DecodeRuneInString(expr[i:])

		switch {
		case unicode.IsSpace(r):
			i += size
			continue
		case r == '|':
			tokens = append(tokens, token{kind: tokPipe, text: "|", pos: i})
		case r == '[':
			tokens = append(tokens, token{kind: tokLBrack, text: "[", pos: i})
		case r == ']':
			tokens = append(tokens, token{kind: tokRBrack, text: "]", pos: i})
		case r == '<':
			tokens = append(tokens, token{kind: tokLAngle, text: "<", pos: i})
		case r == '>':
			tokens = append(tokens, token{kind: tokRAngle, text: ">", pos: i})
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
		case r == '?':
			tokens = append(tokens, token{kind: tokQuestion, text: "?", pos: i})
		case isNameStart(r):
			start := i
			for i < len(expr) {
				r, size := utf8.DecodeRuneInString(expr[i:])
				if !isNamePart(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, token{kind: tokName, text: expr[start:i], pos: start})
			continue
		default:
			return nil, &SyntaxError{Expr: expr, Offset: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}

		i += size
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(expr)})
	return tokens, nil
}

func isNameStart(r rune) bool {
	return r == '_' || r == '\\' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	switch r {
	case '_', '\\', '.', ':', '/', '-':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
