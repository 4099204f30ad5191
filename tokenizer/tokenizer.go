package tokenizer

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses the Go 1.24 iterator pattern. Lexing never fails:
// unrecognized characters are emitted as one-character IDENT tokens, so
// there is no error channel.
type TokenIterator iter.Seq[Token]

// SimlTokenizer is a tokenizer that returns an iterator
type SimlTokenizer struct {
	input string
}

// NewSimlTokenizer creates a new SimlTokenizer
func NewSimlTokenizer(input string) *SimlTokenizer {
	return &SimlTokenizer{input: input}
}

// Tokens returns an iterator of tokens, ending with an EOF token
func (t *SimlTokenizer) Tokens() TokenIterator {
	return func(yield func(Token) bool) {
		tk := &tokenizer{
			input:  t.input,
			line:   1,
			column: 1,
		}

		for {
			token := tk.nextToken()
			if !yield(token) {
				return
			}
			if token.Type == EOF {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice
func (t *SimlTokenizer) AllTokens() []Token {
	tokens := make([]Token, 0, 64)
	for token := range t.Tokens() {
		tokens = append(tokens, token)
	}
	return tokens
}

// Tokenize is a convenience wrapper returning the full token slice
func Tokenize(input string) []Token {
	return NewSimlTokenizer(input).AllTokens()
}

// Internal tokenizer implementation
type tokenizer struct {
	input  string
	pos    int
	line   int
	column int
}

// nextToken gets the next token
func (t *tokenizer) nextToken() Token {
	for {
		ch := t.current()
		switch {
		case ch == 0:
			return Token{Type: EOF, Value: "", Position: t.position()}
		case ch == '\n':
			token := Token{Type: NEWLINE, Value: "\n", Position: t.position()}
			t.advance()
			return token
		case ch == ' ' || ch == '\t' || ch == '\r':
			t.advance()
			continue
		case ch == '<' && t.peek() == '<':
			return t.readHeredoc()
		case ch == '{':
			return t.readSingle(LBRACE)
		case ch == '}':
			return t.readSingle(RBRACE)
		case ch == '[':
			return t.readSingle(LBRACK)
		case ch == ']':
			return t.readSingle(RBRACK)
		case ch == '(':
			return t.readSingle(LPAREN)
		case ch == ')':
			return t.readSingle(RPAREN)
		case ch == ':':
			return t.readSingle(COLON)
		case ch == ',':
			return t.readSingle(COMMA)
		case ch == '@':
			return t.readSingle(AT)
		case ch == '-' && t.peek() == '>':
			token := Token{Type: ARROW, Value: "->", Position: t.position()}
			t.advance()
			t.advance()
			return token
		case ch == '\'' || ch == '"':
			return t.readString(ch)
		case isIdentStart(ch):
			return t.readIdent()
		case unicode.IsDigit(ch):
			return t.readNumberRun()
		default:
			// fallback: any other character becomes a one-character IDENT
			token := Token{Type: IDENT, Value: string(ch), Position: t.position()}
			t.advance()
			return token
		}
	}
}

func (t *tokenizer) position() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.pos}
}

// current returns the rune at the cursor, or 0 at end of input
func (t *tokenizer) current() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos:])
	return r
}

// peek looks ahead at the rune after the current one
func (t *tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(t.input[t.pos:])
	if t.pos+size >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos+size:])
	return r
}

// advance moves the cursor past the current rune
func (t *tokenizer) advance() {
	if t.pos >= len(t.input) {
		return
	}
	r, size := utf8.DecodeRuneInString(t.input[t.pos:])
	t.pos += size
	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

func (t *tokenizer) readSingle(tokenType TokenType) Token {
	token := Token{Type: tokenType, Value: string(t.current()), Position: t.position()}
	t.advance()
	return token
}

// readString reads a quoted literal with the quotes stripped, no escape processing
func (t *tokenizer) readString(delimiter rune) Token {
	start := t.position()
	t.advance() // opening quote

	var builder strings.Builder
	for {
		ch := t.current()
		if ch == 0 || ch == delimiter {
			break
		}
		builder.WriteRune(ch)
		t.advance()
	}
	if t.current() == delimiter {
		t.advance() // closing quote
	}

	return Token{Type: STRING, Value: builder.String(), Position: start}
}

// readIdent reads identifiers and bare words
func (t *tokenizer) readIdent() Token {
	start := t.position()
	from := t.pos
	for isIdentPart(t.current()) {
		t.advance()
	}
	return Token{Type: IDENT, Value: t.input[from:t.pos], Position: start}
}

// readNumberRun reads a digit-led run up to the next whitespace or structural character
func (t *tokenizer) readNumberRun() Token {
	start := t.position()
	from := t.pos
	for {
		ch := t.current()
		if ch == 0 || unicode.IsSpace(ch) || isStructural(ch) {
			break
		}
		t.advance()
	}
	return Token{Type: IDENT, Value: t.input[from:t.pos], Position: start}
}

// readHeredoc folds a <<LABEL multi-line literal into one STRING token.
// If the terminating label line is never found, collection extends to end
// of input without raising an error.
func (t *tokenizer) readHeredoc() Token {
	start := t.position()
	t.advance() // <
	t.advance() // <

	// label: non-whitespace run after <<
	from := t.pos
	for {
		ch := t.current()
		if ch == 0 || unicode.IsSpace(ch) {
			break
		}
		t.advance()
	}
	label := strings.TrimSpace(t.input[from:t.pos])

	// skip the rest of the line after LABEL
	for t.current() != 0 && t.current() != '\n' {
		t.advance()
	}
	if t.current() == '\n' {
		t.advance()
	}

	// collect raw lines until a line whose stripped text equals the label
	var rawLines []string
	for t.pos < len(t.input) {
		lineFrom := t.pos
		for t.current() != 0 && t.current() != '\n' {
			t.advance()
		}
		line := t.input[lineFrom:t.pos]
		if t.current() == '\n' {
			t.advance()
		}
		if strings.TrimSpace(line) == label {
			break
		}
		rawLines = append(rawLines, line)
	}

	return Token{Type: STRING, Value: dedent(rawLines), Position: start}
}

// dedent drops leading/trailing blank lines, then strips the minimal leading
// whitespace width among the remaining non-blank lines from every line.
func dedent(lines []string) string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}

	indent := -1
	for _, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		if stripped == "" {
			continue
		}
		width := len(line) - len(stripped)
		if indent < 0 || width < indent {
			indent = width
		}
	}
	if indent < 0 {
		indent = 0
	}

	dedented := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= indent {
			dedented[i] = line[indent:]
		} else {
			dedented[i] = ""
		}
	}
	return strings.Join(dedented, "\n")
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9') ||
		ch == '.' || ch == '/' || ch == '-' || ch == '\''
}

func isStructural(ch rune) bool {
	switch ch {
	case '{', '}', '[', ']', '(', ')', ':', ',':
		return true
	}
	return false
}
