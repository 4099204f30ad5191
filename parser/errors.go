package parser

import (
	"errors"
	"fmt"

	"github.com/shibukawa/simal/tokenizer"
)

// Sentinel errors for structural parse failures
var (
	ErrMissingSystem      = errors.New("expected 'system' at start of input")
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrUnexpectedEOF      = errors.New("unexpected end of input")
	ErrUnclosedAnnotation = errors.New("unclosed annotation")
	ErrUnclosedParams     = errors.New("unclosed parameter list")
)

// ParseError is a structural parse failure with the offending position and
// an expected-vs-actual token description. A structural failure is fatal
// for the whole parse: no partial tree is returned.
type ParseError struct {
	Pos      tokenizer.Position
	Expected string
	Got      string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%v: expected %s, got %s at line %d, column %d",
			e.Err, e.Expected, e.Got, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%v at line %d, column %d", e.Err, e.Pos.Line, e.Pos.Column)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(err error, tok tokenizer.Token, expected string) *ParseError {
	got := tok.Type.String()
	if tok.Value != "" {
		got = fmt.Sprintf("%s (%q)", got, tok.Value)
	}
	return &ParseError{Pos: tok.Position, Expected: expected, Got: got, Err: err}
}
