package sig

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/simal/ast"
)

func TestParseSignatureTypeExpr(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		base     string
		optional bool
		fields   int
	}{
		{name: "plain type", input: "str", base: "str"},
		{name: "optional type", input: "str?", base: "str", optional: true},
		{name: "named type", input: "User", base: "User"},
		{name: "object shape", input: "JSON{uuid: str?, error: str?}", base: "JSON", fields: 2},
		{
			name:     "optional object shape",
			input:    "User{name: str, email: str, verified: bool}?",
			base:     "User",
			optional: true,
			fields:   3,
		},
		{name: "generic suffix", input: "map<int, Todo>", base: "map<int, Todo>"},
		{name: "slice suffix", input: "list[Todo]", base: "list[Todo]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature, err := ParseSignature(tt.input)
			assert.NoError(t, err)

			expr, ok := signature.(*ast.TypeExpr)
			assert.True(t, ok)
			assert.Equal(t, tt.base, expr.Base)
			assert.Equal(t, tt.optional, expr.Optional)
			assert.Equal(t, tt.fields, len(expr.Fields))
		})
	}
}

func TestParseSignatureGenericWhitespace(t *testing.T) {
	signature, err := ParseSignature("map < int , Todo >")
	assert.NoError(t, err)

	expr := signature.(*ast.TypeExpr)
	assert.Equal(t, "map<int, Todo>", expr.Base)
}

func TestParseSignatureTuple(t *testing.T) {
	signature, err := ParseSignature("(user: User{name: str, email: str}?, error: str?)")
	assert.NoError(t, err)

	tuple, ok := signature.(*ast.TupleSig)
	assert.True(t, ok)
	assert.Equal(t, 2, len(tuple.Params))

	user := tuple.Params[0]
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, "User", user.Type.Base)
	assert.True(t, user.Type.Optional)
	assert.Equal(t, 2, len(user.Type.Fields))
	assert.Equal(t, "name", user.Type.Fields[0].Name)
	assert.Equal(t, "str", user.Type.Fields[0].Type.Base)

	errParam := tuple.Params[1]
	assert.Equal(t, "error", errParam.Name)
	assert.Equal(t, "str", errParam.Type.Base)
	assert.True(t, errParam.Type.Optional)
}

func TestParseSignatureBareFieldForm(t *testing.T) {
	signature, err := ParseSignature("GetUserRequest{uuid str}")
	assert.NoError(t, err)

	expr := signature.(*ast.TypeExpr)
	assert.Equal(t, 1, len(expr.Fields))
	assert.Equal(t, "uuid", expr.Fields[0].Name)
	assert.Equal(t, "str", expr.Fields[0].Type.Base)
}

func TestParseSignatureNestedShape(t *testing.T) {
	signature, err := ParseSignature("Resp{user: User{id: str, name: str}, error: str?}")
	assert.NoError(t, err)

	expr := signature.(*ast.TypeExpr)
	assert.Equal(t, 2, len(expr.Fields))
	assert.Equal(t, 2, len(expr.Fields[0].Type.Fields))
}

func TestParseSignatureErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "   "},
		{name: "trailing content", input: "User extra"},
		{name: "unclosed shape", input: "User{name: str"},
		{name: "unclosed tuple", input: "(user: User"},
		{name: "leading punctuation", input: ": str"},
		{name: "path not a type", input: "/users/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSignature(tt.input)
			assert.Error(t, err)
			assert.Zero(t, TryParseSignature(tt.input))
		})
	}
}
