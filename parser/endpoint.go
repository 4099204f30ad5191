package parser

import (
	"strings"

	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/tokenizer"
)

var httpVerbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// punctuation that attaches to the previous token with no space
const stickLeftChars = ")]},:;?"

// punctuation that attaches to the following token with no space
const stickRightChars = "([{/."

// compactTokenValues joins token values into one line without extra spaces
// around punctuation, reconstructing e.g.
// "GET /users/{id} -> JSON{user: User}[...]" from its tokens. Tokens that
// were adjacent in the source stay adjacent.
func compactTokenValues(tokens []tokenizer.Token) string {
	var b strings.Builder
	for i := range tokens {
		if i > 0 && !sticksTo(&tokens[i-1], &tokens[i]) {
			b.WriteString(" ")
		}
		b.WriteString(tokens[i].Value)
	}
	return strings.TrimSpace(b.String())
}

func sticksTo(prev, next *tokenizer.Token) bool {
	if next.Position.Offset > 0 &&
		next.Position.Offset == prev.Position.Offset+len(prev.Value) {
		return true
	}
	if next.Value != "" && strings.ContainsRune(stickLeftChars, rune(next.Value[0])) {
		return true
	}
	return prev.Value != "" &&
		strings.ContainsRune(stickRightChars, rune(prev.Value[len(prev.Value)-1]))
}

// adjacentInSource reports whether next begins at the byte right after prev
// ends, with no whitespace in between.
func adjacentInSource(prev, next tokenizer.Token) bool {
	return next.Position.Offset > 0 &&
		next.Position.Offset == prev.Position.Offset+len(prev.Value)
}

// collectEndpointTokens gathers the token run of one endpoint line: stop at
// a comma or newline outside any ()/{}/[] nesting, or at the closing ']'
// of the endpoints list. The separator itself is left for the caller.
func (p *Parser) collectEndpointTokens() []tokenizer.Token {
	var tokens []tokenizer.Token
	depth := 0

	for {
		tok := p.peek(0)
		switch tok.Type {
		case tokenizer.EOF:
			return tokens

		case tokenizer.LBRACK, tokenizer.LPAREN, tokenizer.LBRACE:
			depth++

		case tokenizer.RBRACK, tokenizer.RPAREN, tokenizer.RBRACE:
			if depth > 0 {
				depth--
				break
			}
			if tok.Type == tokenizer.RBRACK {
				return tokens // the endpoints list is closing
			}
			// an unmatched ')' or '}' at top level is consumed as content

		case tokenizer.COMMA, tokenizer.NEWLINE:
			if depth == 0 {
				return tokens
			}
		}

		tokens = append(tokens, tok)
		p.pos++
	}
}

// parseEndpointTokens interprets one collected token run as an HTTP or RPC
// endpoint. It is total over its input: the run always yields an Endpoint.
func parseEndpointTokens(tokens []tokenizer.Token, anns []*ast.Annotation) *ast.Endpoint {
	c := &endpointCursor{tokens: tokens}
	raw := compactTokenValues(tokens)

	c.skipNewlines()
	if first := c.peek(0); first.Type == tokenizer.IDENT && httpVerbs[first.Value] {
		return c.parseHTTP(raw, anns)
	}
	return c.parseRPC(raw, anns)
}

// endpointCursor is a local cursor over one bounded endpoint token run.
type endpointCursor struct {
	tokens []tokenizer.Token
	pos    int
}

func (c *endpointCursor) peek(offset int) tokenizer.Token {
	if i := c.pos + offset; i < len(c.tokens) {
		return c.tokens[i]
	}
	return tokenizer.Token{Type: tokenizer.EOF}
}

func (c *endpointCursor) advance() tokenizer.Token {
	t := c.peek(0)
	if c.pos < len(c.tokens) {
		c.pos++
	}
	return t
}

func (c *endpointCursor) skipNewlines() {
	for c.pos < len(c.tokens) && c.tokens[c.pos].Type == tokenizer.NEWLINE {
		c.pos++
	}
}

func (c *endpointCursor) parseHTTP(raw string, anns []*ast.Annotation) *ast.Endpoint {
	methodTok := c.advance()
	method := methodTok.Value
	c.skipNewlines()

	// the request body starts at the identifier JSON or a free-standing
	// '{'; everything before that is the path. A '{' glued to the previous
	// token is a path placeholder, not a body.
	var pathTokens, bodyTokens []tokenizer.Token
	seenBody := false
	prev := methodTok
	for c.peek(0).Type != tokenizer.ARROW && c.peek(0).Type != tokenizer.EOF {
		t := c.peek(0)
		if !seenBody && ((t.Type == tokenizer.IDENT && t.Value == "JSON") ||
			(t.Type == tokenizer.LBRACE && !adjacentInSource(prev, t))) {
			seenBody = true
		}
		if seenBody {
			bodyTokens = append(bodyTokens, t)
		} else {
			pathTokens = append(pathTokens, t)
		}
		prev = c.advance()
	}

	if c.peek(0).Type == tokenizer.ARROW {
		c.advance()
	}
	c.skipNewlines()
	respTokens := c.collectResponseRun()

	return &ast.Endpoint{
		Style:       "http",
		Method:      method,
		Path:        compactTokenValues(pathTokens),
		Request:     compactTokenValues(bodyTokens),
		Response:    compactTokenValues(respTokens),
		Annotations: anns,
		Attributes:  c.parseBracketAttrs(),
		Raw:         raw,
	}
}

func (c *endpointCursor) parseRPC(raw string, anns []*ast.Annotation) *ast.Endpoint {
	name := ""
	if c.peek(0).Type == tokenizer.IDENT {
		name = c.advance().Value
	}
	c.skipNewlines()

	var reqTokens []tokenizer.Token
	if c.peek(0).Type == tokenizer.LPAREN {
		c.advance()
		reqTokens = c.collectParenGroup()
	}
	request := strings.TrimSpace(compactTokenValues(reqTokens))

	c.skipNewlines()
	if c.peek(0).Type == tokenizer.ARROW {
		c.advance()
	}
	c.skipNewlines()

	// a parenthesized response stays wrapped, marking a tuple
	var respTokens []tokenizer.Token
	wrapped := false
	if c.peek(0).Type == tokenizer.LPAREN {
		c.advance()
		wrapped = true
		respTokens = c.collectParenGroup()
	} else {
		respTokens = c.collectResponseRun()
	}
	response := strings.TrimSpace(compactTokenValues(respTokens))
	if wrapped {
		response = "(" + response + ")"
	}

	return &ast.Endpoint{
		Style:       "grpc",
		Name:        name,
		Request:     request,
		Response:    response,
		Annotations: anns,
		Attributes:  c.parseBracketAttrs(),
		Raw:         raw,
	}
}

// collectResponseRun collects the response signature: everything up to a
// '[' at zero nesting over ()[]{}  (the start of the attribute list) or
// the end of the run. A nested '[' belongs to the signature itself.
func (c *endpointCursor) collectResponseRun() []tokenizer.Token {
	var out []tokenizer.Token
	depth := 0
	for {
		t := c.peek(0)
		switch t.Type {
		case tokenizer.EOF:
			return out
		case tokenizer.LBRACK:
			if depth == 0 {
				return out
			}
			depth++
		case tokenizer.LPAREN, tokenizer.LBRACE:
			depth++
		case tokenizer.RBRACK, tokenizer.RPAREN, tokenizer.RBRACE:
			if depth > 0 {
				depth--
			}
		}
		out = append(out, c.advance())
	}
}

// collectParenGroup collects a nesting-aware ( ... ) group whose opening
// paren is already consumed, returning the inner tokens.
func (c *endpointCursor) collectParenGroup() []tokenizer.Token {
	var inner []tokenizer.Token
	depth := 1
	for depth > 0 && c.peek(0).Type != tokenizer.EOF {
		t := c.advance()
		switch t.Type {
		case tokenizer.LPAREN:
			depth++
		case tokenizer.RPAREN:
			depth--
			if depth == 0 {
				return inner
			}
		}
		inner = append(inner, t)
	}
	return inner
}

// parseBracketAttrs parses a trailing [key: value, ...] metadata list into
// an ordered map of scalars. The colon splits each entry once; entries
// without a key are dropped.
func (c *endpointCursor) parseBracketAttrs() *ast.Map {
	attrs := ast.NewMap()
	c.skipNewlines()
	if c.peek(0).Type != tokenizer.LBRACK {
		return attrs
	}
	c.advance()

	var keyParts, valParts []string
	readingKey := true
	store := func() {
		key := strings.TrimSpace(strings.Join(keyParts, " "))
		val := strings.TrimSpace(strings.Join(valParts, " "))
		if key != "" {
			attrs.Set(key, ast.Scalar(val))
		}
		keyParts, valParts = nil, nil
		readingKey = true
	}

	for c.peek(0).Type != tokenizer.EOF && c.peek(0).Type != tokenizer.RBRACK {
		t := c.advance()
		switch {
		case t.Type == tokenizer.COLON && readingKey:
			readingKey = false
		case t.Type == tokenizer.COMMA:
			store()
		case readingKey:
			keyParts = append(keyParts, t.Value)
		default:
			valParts = append(valParts, t.Value)
		}
	}
	if c.peek(0).Type == tokenizer.RBRACK {
		c.advance()
	}
	store()
	return attrs
}
