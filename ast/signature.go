package ast

import "strings"

// Signature is the result of the signature/type grammar: either a single
// *TypeExpr or a parenthesized *TupleSig.
type Signature interface {
	Node
	signature()
}

// TypeExpr is a parsed type reference like str, User, map<int, Todo>, or an
// inline object shape Name{...}, optionally marked trailing-optional.
type TypeExpr struct {
	Base     string
	Fields   []*TypeField // object shape for {...}, else nil
	Optional bool         // trailing '?'
}

func (t *TypeExpr) Type() NodeType { return TYPE_EXPR }

func (t *TypeExpr) signature() {}

func (t *TypeExpr) String() string {
	var builder strings.Builder
	builder.WriteString(t.Base)
	if t.Fields != nil {
		builder.WriteString("{")
		for i, field := range t.Fields {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(field.String())
		}
		builder.WriteString("}")
	}
	if t.Optional {
		builder.WriteString("?")
	}
	return builder.String()
}

// TypeField is a named, typed member of an object shape or tuple.
type TypeField struct {
	Name string
	Type *TypeExpr
}

func (f *TypeField) String() string {
	return f.Name + ": " + f.Type.String()
}

// TupleSig is a parenthesized, comma-separated parameter list such as
// (user: User?, error: str?).
type TupleSig struct {
	Params []*TypeField
}

func (t *TupleSig) Type() NodeType { return TUPLE_SIG }

func (t *TupleSig) signature() {}

func (t *TupleSig) String() string {
	parts := make([]string, len(t.Params))
	for i, param := range t.Params {
		parts[i] = param.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Param is a flattened parameter descriptor derived from signatures and
// Go-style parameter lists by the enrichment pass.
type Param struct {
	Name     string   `json:"name"`
	TypeName string   `json:"type"`
	Optional bool     `json:"optional"`
	Fields   []*Param `json:"fields,omitempty"`
}
