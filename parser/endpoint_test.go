package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/simal/ast"
)

func parseSingleEndpoint(t *testing.T, line string) *ast.Endpoint {
	t.Helper()
	input := `system {
  service api_service {
    api: [
      {
        endpoints: [
          ` + line + `
        ]
      }
    ]
  }
}`
	system, err := Parse(input)
	assert.NoError(t, err)

	attr, ok := system.Services[0].Attributes.Get("api")
	assert.True(t, ok)
	m := attr.Value.(ast.List)[0].(*ast.Map)
	endpoints, _ := m.Get("endpoints")
	list := endpoints.(ast.List)
	assert.Equal(t, 1, len(list))
	return list[0].(*ast.Endpoint)
}

func TestHTTPEndpoint(t *testing.T) {
	line := "GET /users/{id} -> JSON{user: User, error: str?} [auth: required, timeout: 30]"
	ep := parseSingleEndpoint(t, line)

	assert.Equal(t, "http", ep.Style)
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/users/{id}", ep.Path)
	assert.Equal(t, "", ep.Request)
	assert.Equal(t, "JSON{user: User, error: str?}", ep.Response)
	assert.Equal(t, line, ep.Raw)

	auth, ok := ep.Attributes.Get("auth")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("required"), auth.(ast.Scalar))

	timeout, ok := ep.Attributes.Get("timeout")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("30"), timeout.(ast.Scalar))
}

func TestHTTPEndpointWithBody(t *testing.T) {
	ep := parseSingleEndpoint(t, "POST /users JSON{name: str, email: str} -> JSON{user: User}")

	assert.Equal(t, "http", ep.Style)
	assert.Equal(t, "POST", ep.Method)
	assert.Equal(t, "/users", ep.Path)
	assert.Equal(t, "JSON{name: str, email: str}", ep.Request)
	assert.Equal(t, "JSON{user: User}", ep.Response)
}

func TestHTTPEndpointPlaceholderPathWithBody(t *testing.T) {
	ep := parseSingleEndpoint(t, "PUT /items/{id} {qty: int} -> OK")

	assert.Equal(t, "http", ep.Style)
	assert.Equal(t, "PUT", ep.Method)
	assert.Equal(t, "/items/{id}", ep.Path)
	assert.Equal(t, "{qty: int}", ep.Request)
	assert.Equal(t, "OK", ep.Response)
}

func TestHTTPEndpointBareBraceBody(t *testing.T) {
	ep := parseSingleEndpoint(t, "POST /orders {sku: str, qty: int} -> JSON{order: Order}")

	assert.Equal(t, "/orders", ep.Path)
	assert.Equal(t, "{sku: str, qty: int}", ep.Request)
	assert.Equal(t, "JSON{order: Order}", ep.Response)
}

func TestEndpointVerbDispatch(t *testing.T) {
	verbs := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	for _, verb := range verbs {
		t.Run(verb, func(t *testing.T) {
			ep := parseSingleEndpoint(t, verb+" /things -> str")
			assert.Equal(t, "http", ep.Style)
			assert.Equal(t, verb, ep.Method)
			assert.Equal(t, "/things", ep.Path)
		})
	}
}

func TestRPCEndpoint(t *testing.T) {
	line := "GetUser(GetUserRequest{uuid str}) -> (user: User, error: str?) [timeout: 5]"
	ep := parseSingleEndpoint(t, line)

	assert.Equal(t, "grpc", ep.Style)
	assert.Equal(t, "GetUser", ep.Name)
	assert.Equal(t, "", ep.Method)
	assert.Equal(t, "GetUserRequest{uuid str}", ep.Request)
	assert.Equal(t, "(user: User, error: str?)", ep.Response)
	assert.Equal(t, line, ep.Raw)

	timeout, ok := ep.Attributes.Get("timeout")
	assert.True(t, ok)
	assert.Equal(t, ast.Scalar("5"), timeout.(ast.Scalar))
}

func TestRPCEndpointBareResponse(t *testing.T) {
	ep := parseSingleEndpoint(t, "Ping(Empty) -> Pong")

	assert.Equal(t, "grpc", ep.Style)
	assert.Equal(t, "Ping", ep.Name)
	assert.Equal(t, "Empty", ep.Request)
	assert.Equal(t, "Pong", ep.Response)
	assert.Equal(t, 0, ep.Attributes.Len())
}

func TestMultipleEndpointsPerLineAndComma(t *testing.T) {
	input := `system {
  service api_service {
    api: [
      {
        endpoints: [
          GET /users -> JSON{users: list[User]},
          POST /users JSON{name: str} -> JSON{user: User}
        ]
      }
    ]
  }
}`
	system, err := Parse(input)
	assert.NoError(t, err)

	attr, _ := system.Services[0].Attributes.Get("api")
	m := attr.Value.(ast.List)[0].(*ast.Map)
	endpoints, _ := m.Get("endpoints")
	list := endpoints.(ast.List)
	assert.Equal(t, 2, len(list))

	first := list[0].(*ast.Endpoint)
	assert.Equal(t, "GET", first.Method)
	assert.Equal(t, "JSON{users: list[User]}", first.Response)

	second := list[1].(*ast.Endpoint)
	assert.Equal(t, "POST", second.Method)
	assert.Equal(t, "JSON{name: str}", second.Request)
}

func TestEndpointAnnotations(t *testing.T) {
	input := `system {
  service api_service {
    api: [
      {
        endpoints: [
          @DEPRECATED(use v2)
          GET /v1/users -> str
        ]
      }
    ]
  }
}`
	system, err := Parse(input)
	assert.NoError(t, err)

	attr, _ := system.Services[0].Attributes.Get("api")
	m := attr.Value.(ast.List)[0].(*ast.Map)
	endpoints, _ := m.Get("endpoints")
	ep := endpoints.(ast.List)[0].(*ast.Endpoint)

	assert.Equal(t, 1, len(ep.Annotations))
	assert.Equal(t, "DEPRECATED", ep.Annotations[0].Name)
	assert.Equal(t, []string{"use v2"}, ep.Annotations[0].Args)
}
