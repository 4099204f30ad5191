package intermediate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shibukawa/simal/ast"
)

// SimpleOptions controls the simplified JSON form.
type SimpleOptions struct {
	// MaxSimplify collapses methods, fields, and endpoints into signature
	// strings wherever no extra metadata would be lost.
	MaxSimplify bool
}

var bracketAttrsPattern = regexp.MustCompile(`\[([^\]]*)\]`)

// EncodeSimple converts a System into the simplified JSON form. The result
// is meant for human or LLM consumption and cannot be decoded back.
func EncodeSimple(system *ast.System, opts SimpleOptions) ([]byte, error) {
	return json.Marshal(systemToSimple(system, opts))
}

// EncodeSimpleIndent is EncodeSimple with two-space indentation.
func EncodeSimpleIndent(system *ast.System, opts SimpleOptions) ([]byte, error) {
	return json.MarshalIndent(systemToSimple(system, opts), "", "  ")
}

func systemToSimple(system *ast.System, opts SimpleOptions) *orderedObject {
	out := blockToSimple(&system.Block, opts)
	svcDict := newOrderedObject()
	for _, s := range system.Services {
		svcDict.set(s.Name, blockToSimple(&s.Block, opts))
	}
	out.set("services", svcDict)
	return out
}

// orderedObject is a JSON object that marshals its keys in insertion order.
type orderedObject struct {
	keys   []string
	values []any
}

func newOrderedObject() *orderedObject {
	return &orderedObject{}
}

func (o *orderedObject) set(key string, value any) {
	for i, k := range o.keys {
		if k == key {
			o.values[i] = value
			return
		}
	}
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *orderedObject) update(other *orderedObject) {
	for i, k := range other.keys {
		o.set(k, other.values[i])
	}
}

func (o *orderedObject) onlyKey(key string) bool {
	return len(o.keys) == 1 && o.keys[0] == key
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func annotationToSimple(a *ast.Annotation) string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(a.Args, ", "))
}

func annotationsToSimple(anns []*ast.Annotation) []string {
	out := make([]string, 0, len(anns))
	for _, a := range anns {
		out = append(out, annotationToSimple(a))
	}
	return out
}

func methodSignature(m *ast.Method) string {
	return strings.TrimSpace(fmt.Sprintf("%s%s(%s) -> %s", m.Visibility, m.Name, m.Params, m.Returns))
}

// endpointSignature prefers the original source line; the reconstruction is
// a fallback for endpoints built programmatically.
func endpointSignature(e *ast.Endpoint) string {
	if e.Raw != "" {
		return strings.TrimRight(strings.TrimSpace(e.Raw), ",")
	}

	var parts []string
	if e.Style == "http" {
		if e.Method != "" {
			parts = append(parts, e.Method)
		}
		if e.Path != "" {
			parts = append(parts, e.Path)
		}
		if e.Request != "" {
			parts = append(parts, e.Request)
		}
	} else {
		if e.Name != "" {
			parts = append(parts, e.Name)
		}
		if e.Request != "" {
			parts = append(parts, "("+e.Request+")")
		}
	}
	if e.Response != "" {
		parts = append(parts, "->", e.Response)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// extractBracketAttrKeys collects attribute keys that appear inside [...]
// sections of an endpoint definition, so that max-simplify does not emit
// them a second time outside the def string. Best effort: values may hold
// commas or colons, but only the keys matter here.
func extractBracketAttrKeys(definition string) map[string]bool {
	keys := make(map[string]bool)
	for _, match := range bracketAttrsPattern.FindAllStringSubmatch(definition, -1) {
		for _, part := range strings.Split(match[1], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := part
			if idx := strings.Index(part, ":"); idx >= 0 {
				key = strings.TrimSpace(part[:idx])
			}
			if key != "" {
				keys[key] = true
			}
		}
	}
	return keys
}

func methodToSimple(m *ast.Method, opts SimpleOptions) any {
	if !opts.MaxSimplify {
		d := newOrderedObject()
		d.set("params", m.Params)
		d.set("returns", m.Returns)
		if m.Visibility != "" {
			d.set("visibility", m.Visibility)
		}
		if len(m.Annotations) > 0 {
			d.set("annotations", annotationsToSimple(m.Annotations))
		}
		if m.Attributes.Len() > 0 {
			d.set("meta", attrsToSimple(m.Attributes, opts))
		}
		return d
	}

	sig := methodSignature(m)
	out := newOrderedObject()
	out.set("def", sig)
	if len(m.Annotations) > 0 {
		out.set("annotations", annotationsToSimple(m.Annotations))
	}
	if m.Attributes.Len() > 0 {
		out.update(attrsToSimple(m.Attributes, opts))
	}
	if out.onlyKey("def") {
		return sig
	}
	return out
}

func fieldToSimple(f *ast.Field, opts SimpleOptions) any {
	if !opts.MaxSimplify {
		d := newOrderedObject()
		d.set("type", f.FieldType)
		if f.Visibility != "" {
			d.set("visibility", f.Visibility)
		}
		if len(f.Annotations) > 0 {
			d.set("annotations", annotationsToSimple(f.Annotations))
		}
		if f.Attributes.Len() > 0 {
			d.set("meta", attrsToSimple(f.Attributes, opts))
		}
		return d
	}

	out := newOrderedObject()
	out.set("type", f.FieldType)
	if len(f.Annotations) > 0 {
		out.set("annotations", annotationsToSimple(f.Annotations))
	}
	if f.Attributes.Len() > 0 {
		out.set("meta", attrsToSimple(f.Attributes, opts))
	}
	if out.onlyKey("type") {
		return f.FieldType
	}
	return out
}

// fieldKey folds the visibility marker into the key under max-simplify.
func fieldKey(f *ast.Field, opts SimpleOptions) string {
	if opts.MaxSimplify && f.Visibility != "" {
		return f.Visibility + f.Name
	}
	return f.Name
}

func endpointToSimple(e *ast.Endpoint, opts SimpleOptions) any {
	if opts.MaxSimplify {
		definition := endpointSignature(e)
		d := newOrderedObject()
		d.set("def", definition)
		if e.Attributes != nil && e.Attributes.Len() > 0 {
			bracketKeys := extractBracketAttrKeys(definition)
			for _, entry := range e.Attributes.Entries() {
				if !bracketKeys[entry.Key] {
					d.set(entry.Key, simpleValue(entry.Value, entry.Key, opts))
				}
			}
		}
		if len(e.Annotations) > 0 {
			d.set("annotations", annotationsToSimple(e.Annotations))
		}
		if d.onlyKey("def") {
			return definition
		}
		return d
	}

	d := newOrderedObject()
	d.set("style", e.Style)
	if e.Name != "" {
		d.set("name", e.Name)
	}
	if e.Method != "" {
		d.set("method", e.Method)
	}
	if e.Path != "" {
		d.set("path", e.Path)
	}
	if e.Request != "" {
		d.set("request", e.Request)
	}
	if e.Response != "" {
		d.set("response", e.Response)
	}
	if e.Attributes != nil && e.Attributes.Len() > 0 {
		d.set("attrs", simpleValue(e.Attributes, "", opts))
	}
	if len(e.Annotations) > 0 {
		d.set("annotations", annotationsToSimple(e.Annotations))
	}
	if len(e.Inputs) > 0 {
		d.set("inputs", e.Inputs)
	}
	if len(e.Outputs) > 0 {
		d.set("outputs", e.Outputs)
	}
	return d
}

// attrsToSimple drops the Attribute wrapper and simplifies each value with
// its own key as context.
func attrsToSimple(attrs *ast.AttributeSet, opts SimpleOptions) *orderedObject {
	out := newOrderedObject()
	for _, attr := range attrs.All() {
		out.set(attr.Key, simpleValue(attr.Value, attr.Key, opts))
	}
	return out
}

// componentsToSimple keeps components as a list of block dicts so kind and
// name do not appear twice, once as a key and once inside the object.
func componentsToSimple(comps ast.List, opts SimpleOptions) []any {
	out := make([]any, 0, len(comps))
	for _, c := range comps {
		if block, ok := c.(*ast.Block); ok {
			out = append(out, blockToSimple(block, opts))
		} else {
			out = append(out, simpleValue(c, "", opts))
		}
	}
	return out
}

func listToSimple(list ast.List, context string, opts SimpleOptions) any {
	if context == "components" {
		return componentsToSimple(list, opts)
	}

	hasMethod, hasField := false, false
	for _, item := range list {
		switch item.(type) {
		case *ast.Method:
			hasMethod = true
		case *ast.Field:
			hasField = true
		}
	}

	if hasMethod {
		out := newOrderedObject()
		for _, item := range list {
			if m, ok := item.(*ast.Method); ok {
				out.set(m.Name, methodToSimple(m, opts))
			}
		}
		return out
	}
	if hasField {
		out := newOrderedObject()
		for _, item := range list {
			if f, ok := item.(*ast.Field); ok {
				out.set(fieldKey(f, opts), fieldToSimple(f, opts))
			}
		}
		return out
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		out = append(out, simpleValue(item, "", opts))
	}
	return out
}

func simpleValue(node ast.Node, context string, opts SimpleOptions) any {
	switch n := node.(type) {
	case nil:
		return nil
	case *ast.System:
		return systemToSimple(n, opts)
	case *ast.Service:
		return blockToSimple(&n.Block, opts)
	case *ast.Block:
		return blockToSimple(n, opts)
	case *ast.Method:
		return methodToSimple(n, opts)
	case *ast.Field:
		return fieldToSimple(n, opts)
	case *ast.Endpoint:
		return endpointToSimple(n, opts)
	case *ast.Attribute:
		return simpleValue(n.Value, context, opts)
	case *ast.Annotation:
		return annotationToSimple(n)
	case ast.List:
		return listToSimple(n, context, opts)
	case *ast.Map:
		out := newOrderedObject()
		for _, entry := range n.Entries() {
			out.set(entry.Key, simpleValue(entry.Value, entry.Key, opts))
		}
		return out
	case ast.Scalar:
		return string(n)
	default:
		return node.String()
	}
}

// blockToSimple flattens a block: no type tag, attribute values inlined at
// the top level.
func blockToSimple(b *ast.Block, opts SimpleOptions) *orderedObject {
	out := newOrderedObject()
	if b.Kind != "" {
		out.set("kind", b.Kind)
	}
	if b.Name != "" {
		out.set("name", b.Name)
	}
	if len(b.Annotations) > 0 {
		out.set("annotations", annotationsToSimple(b.Annotations))
	}
	out.update(attrsToSimple(b.Attributes, opts))
	return out
}
