package intermediate

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/parser"
)

const simpleSource = `system {
  name: todo-app

  @AUTH(jwt)
  service UserService {
    lang: go
    methods: [
      +create_user(name: str) -> User,
      -hash(input: str) -> str {
        algo: bcrypt
      }
    ]
    fields: [
      +id uuid,
      -password str
    ]
    components: [
      database UserRepo {
        engine: postgres-12
      }
    ]
  }
}`

func parseSimpleFixture(t *testing.T) *ast.System {
	t.Helper()
	system, err := parser.Parse(simpleSource)
	assert.NoError(t, err)
	return system
}

func getObject(t *testing.T, o *orderedObject, key string) *orderedObject {
	t.Helper()
	for i, k := range o.keys {
		if k == key {
			child, ok := o.values[i].(*orderedObject)
			assert.True(t, ok)
			return child
		}
	}
	t.Fatalf("key %q not found", key)
	return nil
}

func getValue(t *testing.T, o *orderedObject, key string) any {
	t.Helper()
	for i, k := range o.keys {
		if k == key {
			return o.values[i]
		}
	}
	t.Fatalf("key %q not found", key)
	return nil
}

func TestSimpleSystemShape(t *testing.T) {
	system := parseSimpleFixture(t)
	out := systemToSimple(system, SimpleOptions{})

	assert.Equal(t, []string{"kind", "name", "services"}, out.keys)
	assert.Equal(t, "system", getValue(t, out, "kind"))
	assert.Equal(t, "todo-app", getValue(t, out, "name"))

	svc := getObject(t, getObject(t, out, "services"), "UserService")
	assert.Equal(t,
		[]string{"kind", "name", "annotations", "lang", "methods", "fields", "components"},
		svc.keys)
	assert.Equal(t, []string{"AUTH(jwt)"}, getValue(t, svc, "annotations").([]string))

	methods := getObject(t, svc, "methods")
	assert.Equal(t, []string{"create_user", "hash"}, methods.keys)

	create := getObject(t, methods, "create_user")
	assert.Equal(t, []string{"params", "returns", "visibility"}, create.keys)
	assert.Equal(t, "name: str", getValue(t, create, "params"))
	assert.Equal(t, "User", getValue(t, create, "returns"))
	assert.Equal(t, "+", getValue(t, create, "visibility"))

	hash := getObject(t, methods, "hash")
	meta := getObject(t, hash, "meta")
	assert.Equal(t, "bcrypt", getValue(t, meta, "algo"))

	fields := getObject(t, svc, "fields")
	assert.Equal(t, []string{"id", "password"}, fields.keys)
	id := getObject(t, fields, "id")
	assert.Equal(t, "uuid", getValue(t, id, "type"))
	assert.Equal(t, "+", getValue(t, id, "visibility"))
}

func TestSimpleComponentsStayList(t *testing.T) {
	system := parseSimpleFixture(t)
	out := systemToSimple(system, SimpleOptions{})
	svc := getObject(t, getObject(t, out, "services"), "UserService")

	components, ok := getValue(t, svc, "components").([]any)
	assert.True(t, ok)
	assert.Equal(t, 1, len(components))

	repo, ok := components[0].(*orderedObject)
	assert.True(t, ok)
	assert.Equal(t, "database", getValue(t, repo, "kind"))
	assert.Equal(t, "UserRepo", getValue(t, repo, "name"))
	assert.Equal(t, "postgres-12", getValue(t, repo, "engine"))
}

func TestMaxSimplifyCollapse(t *testing.T) {
	system := parseSimpleFixture(t)
	out := systemToSimple(system, SimpleOptions{MaxSimplify: true})
	svc := getObject(t, getObject(t, out, "services"), "UserService")

	methods := getObject(t, svc, "methods")
	// signature-only method collapses to a bare string
	assert.Equal(t, "+create_user(name: str) -> User", getValue(t, methods, "create_user"))

	// extra metadata keeps the object form, attributes lifted beside def
	hash := getObject(t, methods, "hash")
	assert.Equal(t, []string{"def", "algo"}, hash.keys)
	assert.Equal(t, "-hash(input: str) -> str", getValue(t, hash, "def"))
	assert.Equal(t, "bcrypt", getValue(t, hash, "algo"))

	// visibility folds into the field key, type-only fields become strings
	fields := getObject(t, svc, "fields")
	assert.Equal(t, []string{"+id", "-password"}, fields.keys)
	assert.Equal(t, "uuid", getValue(t, fields, "+id"))
	assert.Equal(t, "str", getValue(t, fields, "-password"))
}

func parseSimpleEndpoint(t *testing.T, line string) *ast.Endpoint {
	t.Helper()
	system, err := parser.Parse(`system {
  service api_service {
    api: [
      {
        endpoints: [
          ` + line + `
        ]
      }
    ]
  }
}`)
	assert.NoError(t, err)
	attr, ok := system.Services[0].Attributes.Get("api")
	assert.True(t, ok)
	m := attr.Value.(ast.List)[0].(*ast.Map)
	endpoints, _ := m.Get("endpoints")
	return endpoints.(ast.List)[0].(*ast.Endpoint)
}

func TestSimpleEndpoint(t *testing.T) {
	ep := parseSimpleEndpoint(t,
		"GET /users/{id} -> JSON{user: User, error: str?} [auth: required, timeout: 30s]")
	d, ok := endpointToSimple(ep, SimpleOptions{}).(*orderedObject)
	assert.True(t, ok)

	assert.Equal(t,
		[]string{"style", "method", "path", "response", "attrs", "inputs", "outputs"},
		d.keys)
	assert.Equal(t, "http", getValue(t, d, "style"))
	assert.Equal(t, "GET", getValue(t, d, "method"))
	assert.Equal(t, "/users/{id}", getValue(t, d, "path"))
	assert.Equal(t, "JSON{user: User, error: str?}", getValue(t, d, "response"))

	attrs := getObject(t, d, "attrs")
	assert.Equal(t, "required", getValue(t, attrs, "auth"))
	assert.Equal(t, "30s", getValue(t, attrs, "timeout"))

	inputs, ok := getValue(t, d, "inputs").([]*ast.Param)
	assert.True(t, ok)
	assert.Equal(t, 1, len(inputs))
	assert.Equal(t, "id", inputs[0].Name)

	outputs, ok := getValue(t, d, "outputs").([]*ast.Param)
	assert.True(t, ok)
	assert.Equal(t, 2, len(outputs))
	assert.Equal(t, "user", outputs[0].Name)
	assert.True(t, outputs[1].Optional)
}

func TestMaxSimplifyEndpointCollapse(t *testing.T) {
	line := "GET /users/{id} -> JSON{user: User} [auth: required]"
	ep := parseSimpleEndpoint(t, line)

	// every attribute already lives inside the bracket section of the def,
	// so the whole endpoint collapses to the raw line
	def, ok := endpointToSimple(ep, SimpleOptions{MaxSimplify: true}).(string)
	assert.True(t, ok)
	assert.Equal(t, line, def)
}

func TestMaxSimplifyEndpointExtraAttrs(t *testing.T) {
	attrs := ast.NewMap()
	attrs.Set("auth", ast.Scalar("required"))
	attrs.Set("retries", ast.Scalar("3"))
	ep := &ast.Endpoint{
		Style:      "http",
		Method:     "GET",
		Path:       "/ping",
		Response:   "Pong",
		Attributes: attrs,
		Raw:        "GET /ping -> Pong [auth: required]",
	}

	d, ok := endpointToSimple(ep, SimpleOptions{MaxSimplify: true}).(*orderedObject)
	assert.True(t, ok)
	assert.Equal(t, []string{"def", "retries"}, d.keys)
	assert.Equal(t, "3", getValue(t, d, "retries"))
}

func TestEndpointSignatureFallback(t *testing.T) {
	http := &ast.Endpoint{Style: "http", Method: "GET", Path: "/ping", Response: "Pong"}
	assert.Equal(t, "GET /ping -> Pong", endpointSignature(http))

	rpc := &ast.Endpoint{Style: "grpc", Name: "Ping", Request: "Empty", Response: "Pong"}
	assert.Equal(t, "Ping (Empty) -> Pong", endpointSignature(rpc))

	trailing := &ast.Endpoint{Raw: "  GET /x -> Y,  "}
	assert.Equal(t, "GET /x -> Y", endpointSignature(trailing))
}

func TestExtractBracketAttrKeys(t *testing.T) {
	keys := extractBracketAttrKeys("GET /u JSON{a: b} -> X [auth: required, timeout: 30s, flag]")
	assert.True(t, keys["auth"])
	assert.True(t, keys["timeout"])
	assert.True(t, keys["flag"])
	// the JSON shape uses braces, not brackets, so its keys never leak in
	assert.False(t, keys["a"])

	assert.Equal(t, 0, len(extractBracketAttrKeys("GET /u -> X")))
}

func TestEncodeSimpleJSON(t *testing.T) {
	system, err := parser.Parse(`system {
  name: demo
  service Svc {
    lang: go
  }
}`)
	assert.NoError(t, err)

	data, err := EncodeSimple(system, SimpleOptions{})
	assert.NoError(t, err)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "system", got["kind"])
	assert.Equal(t, "demo", got["name"])
	services, ok := got["services"].(map[string]any)
	assert.True(t, ok)
	svc, ok := services["Svc"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "go", svc["lang"])
}
