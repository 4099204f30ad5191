// Package sig implements the signature/type grammar used in endpoint
// request/response declarations, plus the Go-style parameter and return
// list grammar attached to methods. It scans raw strings and is independent
// of the main tokenizer.
package sig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shibukawa/simal/ast"
)

// Sentinel errors
var (
	ErrEmptySignature  = errors.New("empty signature")
	ErrExpectedIdent   = errors.New("expected identifier")
	ErrExpectedToken   = errors.New("expected token")
	ErrTrailingContent = errors.New("unexpected trailing content")
	ErrUnclosedGroup   = errors.New("unclosed group")
	ErrUnclosedShape   = errors.New("unclosed object shape")
)

// ParseSignature parses a type signature string into a *ast.TypeExpr or, for
// parenthesized input, a *ast.TupleSig. On any grammar violation it returns
// an error; callers are expected to keep the original raw string instead of
// propagating the failure.
func ParseSignature(text string) (ast.Signature, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptySignature
	}

	s := &scanner{text: trimmed}
	s.skipSpace()
	if s.peek() == '(' {
		return s.parseTuple()
	}

	expr, err := s.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if !s.atEnd() {
		return nil, fmt.Errorf("%w at position %d: %q", ErrTrailingContent, s.pos, s.text[s.pos:])
	}
	return expr, nil
}

// TryParseSignature parses text and returns nil when it does not conform to
// the grammar. The raw string fallback is the caller's responsibility.
func TryParseSignature(text string) ast.Signature {
	signature, err := ParseSignature(text)
	if err != nil {
		return nil
	}
	return signature
}

// scanner is a character-level cursor over the signature text.
type scanner struct {
	text string
	pos  int
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.text)
}

// peek returns the current byte, or 0 at end of input
func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) advance() byte {
	ch := s.peek()
	if ch != 0 {
		s.pos++
	}
	return ch
}

func (s *scanner) skipSpace() {
	for !s.atEnd() && isSpace(s.text[s.pos]) {
		s.pos++
	}
}

func (s *scanner) parseIdent() (string, error) {
	s.skipSpace()
	start := s.pos
	for !s.atEnd() && isIdentChar(s.text[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", fmt.Errorf("%w at position %d in %q", ErrExpectedIdent, s.pos, s.text)
	}
	return s.text[start:s.pos], nil
}

func (s *scanner) parseTuple() (*ast.TupleSig, error) {
	s.skipSpace()
	if s.advance() != '(' {
		return nil, fmt.Errorf("%w: '('", ErrExpectedToken)
	}

	var params []*ast.TypeField
	for {
		s.skipSpace()
		if s.peek() == ')' || s.atEnd() {
			break
		}
		param, err := s.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		s.skipSpace()
		if s.peek() == ',' {
			s.advance()
		}
	}

	if s.advance() != ')' {
		return nil, fmt.Errorf("%w: ')' at end of tuple", ErrExpectedToken)
	}
	s.skipSpace()
	if !s.atEnd() {
		return nil, fmt.Errorf("%w after tuple: %q", ErrTrailingContent, s.text[s.pos:])
	}
	return &ast.TupleSig{Params: params}, nil
}

// parseParam accepts "name: TypeExpr" and the bare "name Type" form.
func (s *scanner) parseParam() (*ast.TypeField, error) {
	name, err := s.parseIdent()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if s.peek() == ':' {
		s.advance()
		expr, err := s.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return &ast.TypeField{Name: name, Type: expr}, nil
	}

	typeName, err := s.parseIdent()
	if err != nil {
		return nil, err
	}
	return &ast.TypeField{Name: name, Type: &ast.TypeExpr{Base: typeName}}, nil
}

// parseTypeExpr parses ident generic_suffix* object_shape? '?'?
func (s *scanner) parseTypeExpr() (*ast.TypeExpr, error) {
	s.skipSpace()
	base, err := s.parseIdent()
	if err != nil {
		return nil, err
	}

	// generic suffixes attach verbatim to the base, whitespace normalized
	for {
		s.skipSpace()
		switch s.peek() {
		case '<':
			suffix, err := s.parseBalanced('<', '>')
			if err != nil {
				return nil, err
			}
			base += suffix
			continue
		case '[':
			suffix, err := s.parseBalanced('[', ']')
			if err != nil {
				return nil, err
			}
			base += suffix
			continue
		}
		break
	}

	s.skipSpace()
	var fields []*ast.TypeField
	if s.peek() == '{' {
		fields, err = s.parseObjectFields()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
	}

	optional := false
	if s.peek() == '?' {
		s.advance()
		optional = true
	}
	return &ast.TypeExpr{Base: base, Fields: fields, Optional: optional}, nil
}

// parseObjectFields parses { field (, field)* } where a field is
// "name: TypeExpr" or the bare "name Type ?" form.
func (s *scanner) parseObjectFields() ([]*ast.TypeField, error) {
	if s.advance() != '{' {
		return nil, fmt.Errorf("%w: '{'", ErrExpectedToken)
	}

	fields := make([]*ast.TypeField, 0, 4)
	for {
		s.skipSpace()
		if s.peek() == '}' {
			s.advance()
			break
		}
		if s.atEnd() {
			return nil, fmt.Errorf("%w in %q", ErrUnclosedShape, s.text)
		}

		name, err := s.parseIdent()
		if err != nil {
			return nil, err
		}
		s.skipSpace()

		var expr *ast.TypeExpr
		if s.peek() == ':' {
			s.advance()
			expr, err = s.parseTypeExpr()
			if err != nil {
				return nil, err
			}
		} else {
			typeName, err := s.parseIdent()
			if err != nil {
				return nil, err
			}
			optional := false
			s.skipSpace()
			if s.peek() == '?' {
				s.advance()
				optional = true
			}
			expr = &ast.TypeExpr{Base: typeName, Optional: optional}
		}
		fields = append(fields, &ast.TypeField{Name: name, Type: expr})

		s.skipSpace()
		if s.peek() == ',' {
			s.advance()
		}
	}
	return fields, nil
}

// parseBalanced consumes a balanced open..close group including the
// delimiters and returns it with interior whitespace normalized.
func (s *scanner) parseBalanced(open, close byte) (string, error) {
	s.skipSpace()
	if s.peek() != open {
		return "", nil
	}
	start := s.pos
	depth := 0
	for !s.atEnd() {
		ch := s.advance()
		if ch == open {
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				break
			}
		}
	}
	if depth != 0 {
		return "", fmt.Errorf("%w %c%c in %q", ErrUnclosedGroup, open, close, s.text)
	}
	return compactGroupSpace(s.text[start:s.pos]), nil
}

var (
	afterOpenSpace   = regexp.MustCompile(`([<\[])\s+`)
	beforeCloseSpace = regexp.MustCompile(`\s+([>\]])`)
	aroundCommaSpace = regexp.MustCompile(`\s*,\s*`)
)

// compactGroupSpace normalizes "map < int , Todo >" style spacing inside a
// generic suffix to "map<int, Todo>".
func compactGroupSpace(group string) string {
	group = afterOpenSpace.ReplaceAllString(group, "$1")
	group = beforeCloseSpace.ReplaceAllString(group, "$1")
	group = aroundCommaSpace.ReplaceAllString(group, ", ")
	return group
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
