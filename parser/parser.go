package parser

import (
	"strings"

	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/tokenizer"
)

// Parse parses SIML source text into a System tree and runs the enrichment
// pass over it. A structural failure returns a *ParseError and no tree.
func Parse(input string) (*ast.System, error) {
	return ParseWithOptions(input, DefaultOptions())
}

// ParseWithOptions is Parse with an explicit parser configuration.
func ParseWithOptions(input string, opts Options) (*ast.System, error) {
	system, err := ParseTree(input, opts)
	if err != nil {
		return nil, err
	}
	Enrich(system)
	return system, nil
}

// ParseTree builds the raw tree without filling derived endpoint and method
// fields.
func ParseTree(input string, opts Options) (*ast.System, error) {
	p := newParser(tokenizer.Tokenize(input), opts)
	return p.parseSystem()
}

// Parser is a single pass over an immutable token buffer. It holds only the
// cursor position and configuration, so a nested instance over a bounded
// sub-slice never interacts with its parent.
type Parser struct {
	tokens []tokenizer.Token
	pos    int
	opts   Options
}

func newParser(tokens []tokenizer.Token, opts Options) *Parser {
	return &Parser{tokens: tokens, opts: opts}
}

func (p *Parser) peek(offset int) tokenizer.Token {
	if i := p.pos + offset; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) eat(tt tokenizer.TokenType) (tokenizer.Token, error) {
	tok := p.peek(0)
	if tok.Type != tt {
		return tok, newParseError(ErrUnexpectedToken, tok, "'"+tt.String()+"'")
	}
	p.pos++
	return tok, nil
}

func (p *Parser) maybeEat(tt tokenizer.TokenType) bool {
	if p.peek(0).Type == tt {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) skipNewlines() {
	for p.peek(0).Type == tokenizer.NEWLINE {
		p.pos++
	}
}

func (p *Parser) putAttr(attrs *ast.AttributeSet, attr *ast.Attribute) {
	attrs.Put(attr, p.opts.MergeDuplicateAttrs)
}

// joinSourceText reassembles a token run into text, inserting one space
// only where the tokens were separated in the source. String tokens lose
// their source length when lexed, so a gap is assumed around them.
func joinSourceText(tokens []tokenizer.Token) string {
	var b strings.Builder
	prevEnd := -1
	for _, tok := range tokens {
		if prevEnd >= 0 && tok.Position.Offset > prevEnd {
			b.WriteString(" ")
		}
		b.WriteString(tok.Value)
		prevEnd = tok.Position.Offset + len(tok.Value)
	}
	return strings.TrimSpace(b.String())
}

func (p *Parser) parseSystem() (*ast.System, error) {
	p.skipNewlines()
	if first := p.peek(0); first.Type != tokenizer.IDENT || first.Value != "system" {
		return nil, newParseError(ErrMissingSystem, first, "'system'")
	}
	p.pos++
	if _, err := p.eat(tokenizer.LBRACE); err != nil {
		return nil, err
	}

	system := ast.NewSystem()

	for p.peek(0).Type != tokenizer.RBRACE {
		p.skipNewlines()
		if p.peek(0).Type == tokenizer.RBRACE {
			break
		}
		if p.peek(0).Type == tokenizer.EOF {
			return nil, newParseError(ErrUnexpectedEOF, p.peek(0), "'}' closing system body")
		}

		// leading annotations belong to a following service declaration,
		// otherwise they attach to the attribute
		anns, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()

		if t := p.peek(0); t.Type == tokenizer.IDENT && t.Value == "service" {
			service, err := p.parseService(anns)
			if err != nil {
				return nil, err
			}
			system.Services = append(system.Services, service)
			continue
		}

		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		if len(anns) > 0 {
			attr.Annotations = append(anns, attr.Annotations...)
		}
		p.putAttr(system.Attributes, attr)
	}

	if _, err := p.eat(tokenizer.RBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	return system, nil
}

func (p *Parser) parseService(leading []*ast.Annotation) (*ast.Service, error) {
	p.pos++ // 'service'
	nameTok, err := p.eat(tokenizer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(tokenizer.LBRACE); err != nil {
		return nil, err
	}

	service := ast.NewService(nameTok.Value)
	service.Annotations = leading

	for p.peek(0).Type != tokenizer.RBRACE {
		p.skipNewlines()
		if p.peek(0).Type == tokenizer.RBRACE {
			break
		}
		if p.peek(0).Type == tokenizer.EOF {
			return nil, newParseError(ErrUnexpectedEOF, p.peek(0), "'}' closing service "+nameTok.Value)
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		p.putAttr(service.Attributes, attr)
	}

	if _, err := p.eat(tokenizer.RBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	return service, nil
}

// parseAnnotations consumes a run of @Name(args) annotations. A stray '@'
// not followed by an identifier is left unconsumed for the caller to treat
// as ordinary content.
func (p *Parser) parseAnnotations() ([]*ast.Annotation, error) {
	var anns []*ast.Annotation
	p.skipNewlines()

	for p.peek(0).Type == tokenizer.AT && p.peek(1).Type == tokenizer.IDENT {
		p.pos++ // '@'
		name := p.peek(0).Value
		p.pos++

		var args []string
		if p.maybeEat(tokenizer.LPAREN) {
			groups, err := p.parseAnnotationArgs(name)
			if err != nil {
				return nil, err
			}
			args = groups
		}

		p.skipNewlines()
		anns = append(anns, &ast.Annotation{Name: name, Args: args})
	}
	return anns, nil
}

// parseAnnotationArgs collects argument groups split on top-level commas,
// respecting nested parentheses. The opening '(' is already consumed.
func (p *Parser) parseAnnotationArgs(name string) ([]string, error) {
	var (
		groups []string
		cur    []tokenizer.Token
	)
	flush := func() {
		if arg := joinSourceText(cur); arg != "" {
			groups = append(groups, arg)
		}
		cur = nil
	}

	depth := 1
	for depth > 0 {
		t := p.peek(0)
		switch {
		case t.Type == tokenizer.EOF || t.Type == tokenizer.NEWLINE:
			return nil, newParseError(ErrUnclosedAnnotation, t, "')' closing @"+name)
		case t.Type == tokenizer.LPAREN:
			depth++
			cur = append(cur, t)
			p.pos++
		case t.Type == tokenizer.RPAREN:
			depth--
			p.pos++
			if depth > 0 {
				cur = append(cur, t)
			}
		case t.Type == tokenizer.COMMA && depth == 1:
			flush()
			p.pos++
		default:
			cur = append(cur, t)
			p.pos++
		}
	}
	flush()
	return groups, nil
}

func (p *Parser) parseAttribute() (*ast.Attribute, error) {
	p.skipNewlines()
	anns, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}

	keyTok, err := p.eat(tokenizer.IDENT)
	if err != nil {
		return nil, err
	}
	key := keyTok.Value

	p.skipNewlines()

	colonConsumed := p.maybeEat(tokenizer.COLON)
	if !colonConsumed && p.peek(0).Type == tokenizer.NEWLINE {
		// tolerate the colon starting the next line
		p.skipNewlines()
		colonConsumed = p.maybeEat(tokenizer.COLON)
	}

	if colonConsumed {
		p.skipNewlines()
	} else {
		t := p.peek(0)
		// component-like entry without a colon: "kind Name { ... }"
		if t.Type == tokenizer.IDENT && p.peek(1).Type == tokenizer.LBRACE {
			block, err := p.parseComponentBlock(key, anns)
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			return &ast.Attribute{Key: key, Value: block, Annotations: anns}, nil
		}
		if t.Type != tokenizer.LBRACE && t.Type != tokenizer.LBRACK {
			return nil, newParseError(ErrUnexpectedToken, t, "':' after attribute '"+key+"'")
		}
	}

	value, err := p.parseAttributeValue(key)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	return &ast.Attribute{Key: key, Value: value, Annotations: anns}, nil
}

func (p *Parser) parseAttributeValue(key string) (ast.Node, error) {
	switch t := p.peek(0); {
	case t.Type == tokenizer.LBRACE:
		return p.parseMap()
	case t.Type == tokenizer.LBRACK && !p.bracketValueIsLiteral():
		return p.parseList(key)
	case t.Type == tokenizer.STRING:
		p.pos++
		return ast.Scalar(t.Value), nil
	default:
		return p.parseScalarRun(), nil
	}
}

// parseScalarRun consumes tokens until a newline or closing brace/bracket
// at zero nesting over ()[]{}  so that nested delimiters inside the value
// (e.g. a meta[...] fragment) keep their closers.
func (p *Parser) parseScalarRun() ast.Scalar {
	var (
		run     []tokenizer.Token
		bracket int
		paren   int
		brace   int
	)
	for {
		tok := p.peek(0)
		if tok.Type == tokenizer.EOF {
			break
		}
		nested := bracket > 0 || paren > 0 || brace > 0
		if !nested && (tok.Type == tokenizer.NEWLINE ||
			tok.Type == tokenizer.RBRACE || tok.Type == tokenizer.RBRACK) {
			break
		}

		switch tok.Type {
		case tokenizer.LBRACK:
			bracket++
		case tokenizer.RBRACK:
			if bracket > 0 {
				bracket--
			}
		case tokenizer.LPAREN:
			paren++
		case tokenizer.RPAREN:
			if paren > 0 {
				paren--
			}
		case tokenizer.LBRACE:
			brace++
		case tokenizer.RBRACE:
			if brace > 0 {
				brace--
			}
		}

		run = append(run, tok)
		p.pos++
	}
	return ast.Scalar(joinSourceText(run))
}

const rawLinesKey = "__raw__"

func (p *Parser) parseMap() (ast.Node, error) {
	if _, err := p.eat(tokenizer.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()

	obj := ast.NewMap()
	consumeRawLine := func() {
		line := joinSourceText(p.collectTokensUntil(tokenizer.NEWLINE, tokenizer.RBRACE))
		if line == "" {
			return
		}
		var raw ast.List
		if existing, ok := obj.Get(rawLinesKey); ok {
			raw = existing.(ast.List)
		}
		obj.Set(rawLinesKey, append(raw, ast.Scalar(line)))
	}

	for p.peek(0).Type != tokenizer.RBRACE {
		p.skipNewlines()
		if p.peek(0).Type == tokenizer.RBRACE {
			break
		}
		if p.peek(0).Type == tokenizer.EOF {
			return nil, newParseError(ErrUnexpectedEOF, p.peek(0), "'}' closing map")
		}

		// a stray '@' not followed by an identifier makes the rest of the
		// line raw text
		if p.peek(0).Type == tokenizer.AT && p.peek(1).Type != tokenizer.IDENT {
			consumeRawLine()
			continue
		}

		entryAnns, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}

		// tolerate lines that cannot start a key
		keyTok := p.peek(0)
		if keyTok.Type != tokenizer.IDENT && keyTok.Type != tokenizer.STRING {
			consumeRawLine()
			continue
		}
		p.pos++
		key := keyTok.Value

		var value ast.Node
		if p.maybeEat(tokenizer.COLON) {
			p.skipNewlines()
			value, err = p.parseMapValue(key)
			if err != nil {
				return nil, err
			}
		} else {
			// no colon after the key: the remainder of the line, or a
			// following balanced {...} block collected whole, is a raw scalar
			value = p.parseColonlessValue()
		}

		p.skipNewlines()
		if p.maybeEat(tokenizer.COMMA) {
			p.skipNewlines()
		}

		if len(entryAnns) > 0 {
			obj.Set(key, &ast.Attribute{Key: key, Value: value, Annotations: entryAnns})
		} else {
			obj.Set(key, value)
		}
	}

	if _, err := p.eat(tokenizer.RBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()

	// a map holding only raw lines collapses to one joined string
	if obj.Len() == 1 {
		if raw, ok := obj.Get(rawLinesKey); ok {
			lines := raw.(ast.List)
			parts := make([]string, len(lines))
			for i, line := range lines {
				parts[i] = line.String()
			}
			return ast.Scalar(strings.Join(parts, "\n")), nil
		}
	}
	return obj, nil
}

func (p *Parser) parseMapValue(key string) (ast.Node, error) {
	switch t := p.peek(0); {
	case t.Type == tokenizer.LBRACE:
		return p.parseMap()
	case t.Type == tokenizer.LBRACK && !p.bracketValueIsLiteral():
		return p.parseList(key)
	case t.Type == tokenizer.STRING:
		p.pos++
		return ast.Scalar(t.Value), nil
	default:
		run := p.collectTokensUntil(tokenizer.NEWLINE, tokenizer.RBRACE, tokenizer.RBRACK)
		return ast.Scalar(joinSourceText(run)), nil
	}
}

func (p *Parser) parseColonlessValue() ast.Scalar {
	if p.peek(0).Type == tokenizer.LBRACE {
		// collect balanced braces whole so the value is not cut at the
		// first newline
		var (
			run   []tokenizer.Token
			depth int
		)
		for {
			tok := p.peek(0)
			if tok.Type == tokenizer.EOF {
				break
			}
			switch tok.Type {
			case tokenizer.LBRACE:
				depth++
			case tokenizer.RBRACE:
				depth--
			}
			run = append(run, tok)
			p.pos++
			if depth == 0 && tok.Type == tokenizer.RBRACE {
				break
			}
		}
		return ast.Scalar(joinSourceText(run))
	}
	return ast.Scalar(joinSourceText(
		p.collectTokensUntil(tokenizer.NEWLINE, tokenizer.RBRACE, tokenizer.RBRACK)))
}

// parseList dispatches on the attribute name that introduced the list:
// methods, fields, and endpoints elements get their own grammars,
// components elements parse as blocks, everything else is a nested map or
// a scalar run.
func (p *Parser) parseList(context string) (ast.List, error) {
	if _, err := p.eat(tokenizer.LBRACK); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var items ast.List

	for p.peek(0).Type != tokenizer.RBRACK {
		p.skipNewlines()
		if p.peek(0).Type == tokenizer.RBRACK {
			break
		}
		if p.peek(0).Type == tokenizer.EOF {
			return nil, newParseError(ErrUnexpectedEOF, p.peek(0), "']' closing list")
		}

		anns, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}

		switch {
		case context == "methods":
			method, err := p.parseMethod(anns)
			if err != nil {
				return nil, err
			}
			items = append(items, method)

		case context == "fields":
			field, err := p.parseField(anns)
			if err != nil {
				return nil, err
			}
			items = append(items, field)

		case context == "endpoints":
			tokens := p.collectEndpointTokens()
			if len(tokens) > 0 {
				items = append(items, parseEndpointTokens(tokens, anns))
			}

		case context == "components" &&
			p.peek(0).Type == tokenizer.IDENT &&
			p.peek(1).Type == tokenizer.IDENT &&
			p.peek(2).Type == tokenizer.LBRACE:
			kind := p.peek(0).Value
			p.pos++
			block, err := p.parseComponentBlock(kind, anns)
			if err != nil {
				return nil, err
			}
			items = append(items, block)

		case p.peek(0).Type == tokenizer.LBRACE:
			value, err := p.parseMap()
			if err != nil {
				return nil, err
			}
			if len(anns) > 0 {
				// keep annotations like @DELETED attached to the element
				items = append(items, &ast.Attribute{Value: value, Annotations: anns})
			} else {
				items = append(items, value)
			}

		default:
			if scalar := p.parseListScalar(); scalar != "" {
				items = append(items, scalar)
			}
		}

		p.maybeEat(tokenizer.COMMA)
		p.skipNewlines()
	}

	if _, err := p.eat(tokenizer.RBRACK); err != nil {
		return nil, err
	}
	p.skipNewlines()
	return items, nil
}

// parseListScalar consumes one generic list element up to a top-level comma
// or newline, or the closing bracket of this list.
func (p *Parser) parseListScalar() ast.Scalar {
	var (
		run     []tokenizer.Token
		bracket int
		paren   int
		brace   int
	)
loop:
	for {
		tok := p.peek(0)
		if tok.Type == tokenizer.EOF {
			break
		}

		switch tok.Type {
		case tokenizer.LBRACK:
			bracket++
		case tokenizer.RBRACK:
			if bracket > 0 {
				bracket--
			} else if paren == 0 && brace == 0 {
				break loop // end of this list
			}
		case tokenizer.LPAREN:
			paren++
		case tokenizer.RPAREN:
			if paren > 0 {
				paren--
			}
		case tokenizer.LBRACE:
			brace++
		case tokenizer.RBRACE:
			if brace > 0 {
				brace--
			}
		}

		if bracket == 0 && paren == 0 && brace == 0 &&
			(tok.Type == tokenizer.COMMA || tok.Type == tokenizer.NEWLINE) {
			break
		}

		run = append(run, tok)
		p.pos++
	}
	return ast.Scalar(joinSourceText(run))
}

// parseField parses one element of a fields: [ ... ] list:
// visibility? name (':' type-run)?
func (p *Parser) parseField(anns []*ast.Annotation) (*ast.Field, error) {
	p.skipNewlines()

	visibility := ""
	if t := p.peek(0); t.Type == tokenizer.IDENT &&
		(t.Value == "+" || t.Value == "-" || t.Value == "#") {
		visibility = t.Value
		p.pos++
	}

	nameTok, err := p.eat(tokenizer.IDENT)
	if err != nil {
		return nil, err
	}

	p.maybeEat(tokenizer.COLON)

	typeRun := p.collectTokensUntil(tokenizer.COMMA, tokenizer.NEWLINE, tokenizer.RBRACK)
	p.skipNewlines()

	return &ast.Field{
		Name:        nameTok.Value,
		FieldType:   joinSourceText(typeRun),
		Visibility:  visibility,
		Annotations: anns,
		Attributes:  ast.NewAttributeSet(),
	}, nil
}

// parseMethod parses one element of a methods: [ ... ] list:
// visibility? name '(' raw-params ')' '->' raw-returns ('{' attribute* '}')?
// A body is isolated into a bounded token sub-slice and parsed by a nested
// parser instance.
func (p *Parser) parseMethod(anns []*ast.Annotation) (*ast.Method, error) {
	p.skipNewlines()

	visibility := ""
	if t := p.peek(0); t.Type == tokenizer.IDENT &&
		(t.Value == "+" || t.Value == "-" || t.Value == "#") {
		visibility = t.Value
		p.pos++
	}

	nameTok, err := p.eat(tokenizer.IDENT)
	if err != nil {
		return nil, err
	}
	name := nameTok.Value

	if _, err := p.eat(tokenizer.LPAREN); err != nil {
		return nil, err
	}
	var paramRun []tokenizer.Token
	depth := 1
	for depth > 0 {
		t := p.peek(0)
		switch t.Type {
		case tokenizer.EOF:
			return nil, newParseError(ErrUnclosedParams, t, "')' closing parameters of "+name)
		case tokenizer.LPAREN:
			depth++
			paramRun = append(paramRun, t)
			p.pos++
		case tokenizer.RPAREN:
			depth--
			p.pos++
			if depth > 0 {
				paramRun = append(paramRun, t)
			}
		default:
			paramRun = append(paramRun, t)
			p.pos++
		}
	}
	params := joinSourceText(paramRun)

	p.skipNewlines()
	if _, err := p.eat(tokenizer.ARROW); err != nil {
		return nil, err
	}
	p.skipNewlines()

	returns := joinSourceText(p.collectTokensUntil(
		tokenizer.LBRACE, tokenizer.COMMA, tokenizer.RBRACK, tokenizer.NEWLINE))

	method := &ast.Method{
		Name:        name,
		Visibility:  visibility,
		Params:      params,
		Returns:     returns,
		Annotations: anns,
		Attributes:  ast.NewAttributeSet(),
	}

	p.skipNewlines()
	if p.peek(0).Type != tokenizer.LBRACE {
		return method, nil // header-only method
	}

	body, err := p.collectBalancedBody(name)
	if err != nil {
		return nil, err
	}
	if err := p.parseMethodBody(method, body); err != nil {
		return nil, err
	}
	return method, nil
}

// collectBalancedBody consumes one balanced '{' ... '}' group and returns
// the tokens strictly inside it.
func (p *Parser) collectBalancedBody(name string) ([]tokenizer.Token, error) {
	p.pos++ // '{'
	start := p.pos
	depth := 1
	for depth > 0 {
		t := p.peek(0)
		switch t.Type {
		case tokenizer.EOF:
			return nil, newParseError(ErrUnexpectedEOF, t, "'}' closing body of "+name)
		case tokenizer.LBRACE:
			depth++
		case tokenizer.RBRACE:
			depth--
		}
		p.pos++
	}
	return p.tokens[start : p.pos-1], nil
}

func (p *Parser) parseMethodBody(method *ast.Method, body []tokenizer.Token) error {
	eof := tokenizer.Token{Type: tokenizer.EOF, Position: p.peek(0).Position}
	sub := newParser(append(append([]tokenizer.Token{}, body...), eof), p.opts)
	for {
		sub.skipNewlines()
		if sub.peek(0).Type == tokenizer.EOF {
			return nil
		}
		attr, err := sub.parseAttribute()
		if err != nil {
			return err
		}
		p.putAttr(method.Attributes, attr)
	}
}

// parseComponentBlock parses "Name { ... }" after the kind identifier has
// been consumed, collecting annotations written just inside the block onto
// the block itself.
func (p *Parser) parseComponentBlock(kind string, leading []*ast.Annotation) (*ast.Block, error) {
	nameTok, err := p.eat(tokenizer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(tokenizer.LBRACE); err != nil {
		return nil, err
	}

	inner, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}

	block := ast.NewBlock(kind, nameTok.Value)
	block.Annotations = append(leading, inner...)

	for p.peek(0).Type != tokenizer.RBRACE {
		p.skipNewlines()
		if p.peek(0).Type == tokenizer.RBRACE {
			break
		}
		if p.peek(0).Type == tokenizer.EOF {
			return nil, newParseError(ErrUnexpectedEOF, p.peek(0), "'}' closing "+kind+" "+nameTok.Value)
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		p.putAttr(block.Attributes, attr)
	}

	if _, err := p.eat(tokenizer.RBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	return block, nil
}

// collectTokensUntil gathers tokens up to the first terminator seen at
// top-level nesting over ()[]{} and <> (angle depth is tracked through
// '<'/'>' identifier tokens).
func (p *Parser) collectTokensUntil(terminators ...tokenizer.TokenType) []tokenizer.Token {
	var (
		run     []tokenizer.Token
		bracket int
		paren   int
		brace   int
		angle   int
	)
	isTerminator := func(tt tokenizer.TokenType) bool {
		for _, term := range terminators {
			if tt == term {
				return true
			}
		}
		return false
	}

	for {
		tok := p.peek(0)
		if tok.Type == tokenizer.EOF {
			break
		}
		if isTerminator(tok.Type) && bracket == 0 && paren == 0 && brace == 0 && angle == 0 {
			break
		}

		run = append(run, tok)
		p.pos++

		switch {
		case tok.Type == tokenizer.LBRACK:
			bracket++
		case tok.Type == tokenizer.RBRACK && bracket > 0:
			bracket--
		case tok.Type == tokenizer.LPAREN:
			paren++
		case tok.Type == tokenizer.RPAREN && paren > 0:
			paren--
		case tok.Type == tokenizer.LBRACE:
			brace++
		case tok.Type == tokenizer.RBRACE && brace > 0:
			brace--
		case tok.Type == tokenizer.IDENT && tok.Value == "<":
			angle++
		case tok.Type == tokenizer.IDENT && tok.Value == ">" && angle > 0:
			angle--
		}
	}
	return run
}

// bracketValueIsLiteral looks ahead from a '[' to decide whether it opens a
// genuine list or a bracketed literal scalar. The scan runs to the matching
// close bracket; the bracket is a literal only when the very next token,
// with no intervening newline, continues the value.
func (p *Parser) bracketValueIsLiteral() bool {
	idx := p.pos
	depth := 0

	for idx < len(p.tokens) {
		tok := p.tokens[idx]
		switch tok.Type {
		case tokenizer.LBRACK:
			depth++
		case tokenizer.RBRACK:
			depth--
			if depth == 0 {
				idx++
				sawNewline := false
				for idx < len(p.tokens) && p.tokens[idx].Type == tokenizer.NEWLINE {
					sawNewline = true
					idx++
				}
				if idx >= len(p.tokens) || sawNewline {
					return false
				}
				switch p.tokens[idx].Type {
				case tokenizer.COMMA, tokenizer.RBRACE, tokenizer.RBRACK, tokenizer.EOF:
					return false
				}
				return true
			}
		case tokenizer.EOF:
			return false
		}
		idx++
	}
	return false
}
