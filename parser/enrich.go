package parser

import (
	"regexp"

	"github.com/shibukawa/simal/ast"
	"github.com/shibukawa/simal/sig"
)

// Enrich fills every derived endpoint and method field of the tree. It is
// a pure post-pass: it never re-lexes and mutates nothing but the derived
// fields, exactly once per node.
func Enrich(system *ast.System) {
	EnrichEndpoints(system)
	EnrichMethods(system)
}

var pathPlaceholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// EnrichEndpoints walks each service's api attribute and fills the parsed
// signature forms and structured input/output descriptors of its endpoints.
// An unparsable signature leaves the parsed form nil; only the raw text
// remains.
func EnrichEndpoints(system *ast.System) {
	for _, service := range system.Services {
		apiAttr, ok := service.Attributes.Get("api")
		if !ok {
			continue
		}
		apiList, ok := apiAttr.Value.(ast.List)
		if !ok {
			continue
		}

		for _, item := range apiList {
			// unwrap annotated api entries like @DELETED { ... }
			if attr, ok := item.(*ast.Attribute); ok {
				item = attr.Value
			}
			apiMap, ok := item.(*ast.Map)
			if !ok {
				continue
			}
			endpoints, ok := apiMap.Get("endpoints")
			if !ok {
				continue
			}
			endpointList, ok := endpoints.(ast.List)
			if !ok {
				continue
			}
			for _, node := range endpointList {
				if ep, ok := node.(*ast.Endpoint); ok {
					enrichEndpoint(ep)
				}
			}
		}
	}
}

func enrichEndpoint(ep *ast.Endpoint) {
	ep.RequestParsed = sig.TryParseSignature(ep.Request)
	ep.ResponseParsed = sig.TryParseSignature(ep.Response)

	switch ep.Style {
	case "http":
		ep.InputParams = parseHTTPPathInputs(ep.Path)
		if ep.RequestParsed != nil {
			ep.Inputs = append(ep.Inputs, signatureToParams(ep.RequestParsed)...)
		} else {
			for _, f := range ep.InputParams {
				ep.Inputs = append(ep.Inputs, &ast.Param{
					Name:     f.Name,
					TypeName: f.Type.Base,
					Optional: f.Type.Optional,
				})
			}
		}
	case "grpc":
		if expr, ok := ep.RequestParsed.(*ast.TypeExpr); ok && len(expr.Fields) > 0 {
			ep.Inputs = signatureToParams(ep.RequestParsed)
		}
	}

	if ep.ResponseParsed != nil {
		ep.OutputParams = signatureFields(ep.ResponseParsed)
		ep.Outputs = signatureToParams(ep.ResponseParsed)
	}
}

// parseHTTPPathInputs derives one string-typed field per {placeholder} in
// an HTTP path.
func parseHTTPPathInputs(path string) []*ast.TypeField {
	var fields []*ast.TypeField
	for _, m := range pathPlaceholderPattern.FindAllStringSubmatch(path, -1) {
		fields = append(fields, &ast.TypeField{
			Name: m[1],
			Type: &ast.TypeExpr{Base: "str"},
		})
	}
	return fields
}

// signatureFields returns the named fields of a parsed signature: tuple
// params, or the object-shape fields of a type expression.
func signatureFields(parsed ast.Signature) []*ast.TypeField {
	switch s := parsed.(type) {
	case *ast.TupleSig:
		return s.Params
	case *ast.TypeExpr:
		return s.Fields
	}
	return nil
}

// signatureToParams flattens a parsed signature into structured parameter
// descriptors. A shapeless type expression becomes one unnamed descriptor.
func signatureToParams(parsed ast.Signature) []*ast.Param {
	switch s := parsed.(type) {
	case *ast.TupleSig:
		return typeFieldsToParams(s.Params)
	case *ast.TypeExpr:
		if len(s.Fields) > 0 {
			return typeFieldsToParams(s.Fields)
		}
		return []*ast.Param{{TypeName: s.Base, Optional: s.Optional}}
	}
	return nil
}

func typeFieldsToParams(fields []*ast.TypeField) []*ast.Param {
	params := make([]*ast.Param, 0, len(fields))
	for _, f := range fields {
		param := &ast.Param{
			Name:     f.Name,
			TypeName: f.Type.Base,
			Optional: f.Type.Optional,
		}
		if len(f.Type.Fields) > 0 {
			param.Fields = typeFieldsToParams(f.Type.Fields)
		}
		params = append(params, param)
	}
	return params
}

// EnrichMethods walks the whole tree and fills method Inputs and Outputs
// from the raw parameter and return strings.
func EnrichMethods(system *ast.System) {
	walkNode(system)
}

func walkNode(node ast.Node) {
	switch n := node.(type) {
	case nil:
		return
	case *ast.Method:
		n.Inputs = sig.ParseParamList(n.Params)
		n.Outputs = sig.ParseReturns(n.Returns)
		walkAttributes(n.Attributes)
	case *ast.System:
		walkAttributes(n.Attributes)
		for _, service := range n.Services {
			walkNode(service)
		}
	case *ast.Service:
		walkAttributes(n.Attributes)
	case *ast.Block:
		walkAttributes(n.Attributes)
	case *ast.Field:
		walkAttributes(n.Attributes)
	case *ast.Attribute:
		walkNode(n.Value)
	case ast.List:
		for _, item := range n {
			walkNode(item)
		}
	case *ast.Map:
		for _, entry := range n.Entries() {
			walkNode(entry.Value)
		}
	}
}

func walkAttributes(attrs *ast.AttributeSet) {
	if attrs == nil {
		return
	}
	for _, attr := range attrs.All() {
		walkNode(attr)
	}
}
