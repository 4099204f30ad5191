package tokenizer

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	IDENT
	STRING  // quoted text or a folded heredoc literal
	LBRACE  // {
	RBRACE  // }
	LBRACK  // [
	RBRACK  // ]
	LPAREN  // (
	RPAREN  // )
	COLON   // :
	COMMA   // ,
	ARROW   // ->
	AT      // @
	NEWLINE // significant line break
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case STRING:
		return "STRING"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LBRACK:
		return "LBRACK"
	case RBRACK:
		return "RBRACK"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case COLON:
		return "COLON"
	case COMMA:
		return "COMMA"
	case ARROW:
		return "ARROW"
	case AT:
		return "AT"
	case NEWLINE:
		return "NEWLINE"
	default:
		return "UNKNOWN"
	}
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}
