// Package ast defines the SIML syntax tree: a closed union of node kinds
// produced by the structural parser and consumed by the JSON exporters.
package ast

// NodeType represents the type of AST node
type NodeType int

const (
	ANNOTATION NodeType = iota
	ATTRIBUTE
	FIELD
	METHOD
	BLOCK
	SERVICE
	SYSTEM
	ENDPOINT

	// Attribute value variants
	SCALAR
	MAP
	LIST

	// Signature grammar results
	TYPE_EXPR
	TUPLE_SIG
)

// String returns string representation of NodeType
func (n NodeType) String() string {
	switch n {
	case ANNOTATION:
		return "Annotation"
	case ATTRIBUTE:
		return "Attribute"
	case FIELD:
		return "Field"
	case METHOD:
		return "Method"
	case BLOCK:
		return "Block"
	case SERVICE:
		return "Service"
	case SYSTEM:
		return "System"
	case ENDPOINT:
		return "Endpoint"
	case SCALAR:
		return "Scalar"
	case MAP:
		return "Map"
	case LIST:
		return "List"
	case TYPE_EXPR:
		return "TypeExpr"
	case TUPLE_SIG:
		return "TupleSig"
	default:
		return "Unknown"
	}
}

// Node is the interface implemented by every AST node kind. Consumers
// dispatch with a type switch over the concrete kinds; NodeType exists for
// serialization tags and diagnostics.
type Node interface {
	Type() NodeType
	String() string
}
