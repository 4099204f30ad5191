package intermediate

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/parser"
)

const roundTripSource = `system {
  name: todo-app
  version: 2.1
  description: "Todo: the app"
  tags: [web, backend]

  @AUTH(jwt)
  service UserService {
    lang: go
    api: [
      {
        style: http
        endpoints: [
          GET /users/{id} -> JSON{user: User, error: str?} [auth: required, timeout: 30s],
          POST /users JSON{name: str} -> JSON{user: User}
        ]
      }
    ]
    methods: [
      +create_user(name: str, email: str) -> (user: User, error: str?) {
        algo: bcrypt
      },
      @DEPRECATED(use v2)
      -hash(input: str) -> str
    ]
    fields: [
      +id uuid,
      -password_hash str
    ]
    components: [
      database UserRepo {
        engine: postgres-12
      }
    ]
  }
}`

func TestRoundTripStable(t *testing.T) {
	system, err := parser.ParseTree(roundTripSource, parser.DefaultOptions())
	assert.NoError(t, err)

	first, err := Encode(system)
	assert.NoError(t, err)

	decoded, err := Decode(first)
	assert.NoError(t, err)

	second, err := Encode(decoded)
	assert.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRoundTripStructure(t *testing.T) {
	system, err := parser.ParseTree(roundTripSource, parser.DefaultOptions())
	assert.NoError(t, err)

	data, err := Encode(system)
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)

	assert.Equal(t, "system", decoded.Kind)
	assert.Equal(t, 1, len(decoded.Services))

	svc := decoded.Services[0]
	assert.Equal(t, "UserService", svc.Name)
	assert.Equal(t, 1, len(svc.Annotations))
	assert.Equal(t, "AUTH", svc.Annotations[0].Name)
	assert.Equal(t, []string{"jwt"}, svc.Annotations[0].Args)

	// attribute order survives
	assert.Equal(t, []string{"lang", "api", "methods", "fields", "components"}, svc.Attributes.Keys())

	name, ok := decoded.Attributes.Get("name")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("todo-app"), name.Value.(ast.Scalar))

	desc, ok := decoded.Attributes.Get("description")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("Todo: the app"), desc.Value.(ast.Scalar))

	tags, ok := decoded.Attributes.Get("tags")
	assert.True(t, ok)
	list, ok := tags.Value.(ast.List)
	assert.True(t, ok)
	assert.Equal(t, 2, len(list))
	assert.Equal(t, ast.Scalar("web"), list[0].(ast.Scalar))
}

func TestRoundTripEndpoint(t *testing.T) {
	system, err := parser.ParseTree(roundTripSource, parser.DefaultOptions())
	assert.NoError(t, err)

	data, err := Encode(system)
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)

	api, ok := decoded.Services[0].Attributes.Get("api")
	assert.True(t, ok)
	apiList, ok := api.Value.(ast.List)
	assert.True(t, ok)
	apiMap, ok := apiList[0].(*ast.Map)
	assert.True(t, ok)
	endpointsNode, ok := apiMap.Get("endpoints")
	assert.True(t, ok)
	endpoints, ok := endpointsNode.(ast.List)
	assert.True(t, ok)
	assert.Equal(t, 2, len(endpoints))

	get, ok := endpoints[0].(*ast.Endpoint)
	assert.True(t, ok)
	assert.Equal(t, "http", get.Style)
	assert.Equal(t, "GET", get.Method)
	assert.Equal(t, "/users/{id}", get.Path)
	assert.Equal(t, "JSON{user: User, error: str?}", get.Response)
	assert.Equal(t, []string{"auth", "timeout"}, get.Attributes.Keys())

	// derived fields stay empty until enrichment runs again
	assert.Zero(t, get.ResponseParsed)
	assert.Equal(t, 0, len(get.Outputs))

	parser.Enrich(decoded)
	assert.NotZero(t, get.ResponseParsed)
	assert.Equal(t, 2, len(get.Outputs))
}

func TestRoundTripMethodsAndFields(t *testing.T) {
	system, err := parser.ParseTree(roundTripSource, parser.DefaultOptions())
	assert.NoError(t, err)

	data, err := Encode(system)
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)
	svc := decoded.Services[0]

	methodsAttr, ok := svc.Attributes.Get("methods")
	assert.True(t, ok)
	methods, ok := methodsAttr.Value.(ast.List)
	assert.True(t, ok)
	assert.Equal(t, 2, len(methods))

	create, ok := methods[0].(*ast.Method)
	assert.True(t, ok)
	assert.Equal(t, "create_user", create.Name)
	assert.Equal(t, "+", create.Visibility)
	assert.Equal(t, "name: str, email: str", create.Params)
	assert.Equal(t, "(user: User, error: str?)", create.Returns)
	algo, ok := create.Attributes.Get("algo")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("bcrypt"), algo.Value.(ast.Scalar))

	hash, ok := methods[1].(*ast.Method)
	assert.True(t, ok)
	assert.Equal(t, 1, len(hash.Annotations))
	assert.Equal(t, "DEPRECATED", hash.Annotations[0].Name)

	fieldsAttr, ok := svc.Attributes.Get("fields")
	assert.True(t, ok)
	fields, ok := fieldsAttr.Value.(ast.List)
	assert.True(t, ok)
	id, ok := fields[0].(*ast.Field)
	assert.True(t, ok)
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "uuid", id.FieldType)
	assert.Equal(t, "+", id.Visibility)

	componentsAttr, ok := svc.Attributes.Get("components")
	assert.True(t, ok)
	components, ok := componentsAttr.Value.(ast.List)
	assert.True(t, ok)
	repo, ok := components[0].(*ast.Block)
	assert.True(t, ok)
	assert.Equal(t, "database", repo.Kind)
	assert.Equal(t, "UserRepo", repo.Name)
}

func TestEncodeTaggedShape(t *testing.T) {
	system, err := parser.ParseTree(`system {
  name: demo
}`, parser.DefaultOptions())
	assert.NoError(t, err)

	data, err := Encode(system)
	assert.NoError(t, err)

	var raw map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, `"System"`, string(raw["__type__"]))

	var attrs []map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(raw["attributes"], &attrs))
	assert.Equal(t, 1, len(attrs))
	assert.Equal(t, `"Attribute"`, string(attrs[0]["__type__"]))
	assert.Equal(t, `"name"`, string(attrs[0]["key"]))
	assert.Equal(t, `"demo"`, string(attrs[0]["value"]))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a system", `{"__type__": "Service", "kind": "service", "name": "x"}`},
		{"unknown tag", `{"__type__": "Widget"}`},
		{"bare number", `42`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, err := Decode([]byte(tt.input))
			assert.Error(t, err)
			assert.Zero(t, system)
		})
	}
}
