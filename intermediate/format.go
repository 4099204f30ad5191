// Package intermediate converts parsed trees to and from their JSON
// representations: a fully tagged form that round-trips every node kind,
// and a simplified form for human or LLM consumption that cannot be
// converted back.
package intermediate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shibukawa/simal/ast"
)

// Sentinel errors for decoding failures
var (
	ErrUnknownNodeTag = errors.New("unknown node type tag")
	ErrInvalidFormat  = errors.New("invalid intermediate format")
)

// Tagged JSON shapes. Attribute containers and maps are encoded as ordered
// arrays so that insertion order survives the round trip; derived endpoint
// and method fields are recomputable and are not stored.
type taggedAnnotation struct {
	Type string   `json:"__type__"`
	Name string   `json:"name"`
	Args []string `json:"args"`
}

type taggedAttribute struct {
	Type        string             `json:"__type__"`
	Key         string             `json:"key"`
	Value       json.RawMessage    `json:"value"`
	Annotations []taggedAnnotation `json:"annotations"`
}

type taggedField struct {
	Type        string             `json:"__type__"`
	Name        string             `json:"name"`
	FieldType   string             `json:"type"`
	Visibility  string             `json:"visibility"`
	Annotations []taggedAnnotation `json:"annotations"`
	Attributes  []taggedAttribute  `json:"attributes"`
}

type taggedMethod struct {
	Type        string             `json:"__type__"`
	Name        string             `json:"name"`
	Visibility  string             `json:"visibility"`
	Params      string             `json:"params"`
	Returns     string             `json:"returns"`
	Annotations []taggedAnnotation `json:"annotations"`
	Attributes  []taggedAttribute  `json:"attributes"`
}

type taggedBlock struct {
	Type        string             `json:"__type__"`
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Annotations []taggedAnnotation `json:"annotations"`
	Attributes  []taggedAttribute  `json:"attributes"`
	Services    []json.RawMessage  `json:"services,omitempty"`
}

type taggedEndpoint struct {
	Type        string             `json:"__type__"`
	Style       string             `json:"style"`
	Name        string             `json:"name"`
	Method      string             `json:"method"`
	Path        string             `json:"path"`
	Request     string             `json:"request"`
	Response    string             `json:"response"`
	Annotations []taggedAnnotation `json:"annotations"`
	Attributes  json.RawMessage    `json:"attributes"`
	Raw         string             `json:"raw"`
}

type taggedMapEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type taggedMap struct {
	Type    string           `json:"__type__"`
	Entries []taggedMapEntry `json:"entries"`
}

// Encode converts a System into the tagged JSON form.
func Encode(system *ast.System) ([]byte, error) {
	return encodeNode(system)
}

// EncodeIndent is Encode with two-space indentation.
func EncodeIndent(system *ast.System) ([]byte, error) {
	raw, err := encodeNode(system)
	if err != nil {
		return nil, err
	}
	var buf json.RawMessage = raw
	return json.MarshalIndent(buf, "", "  ")
}

// Decode reconstructs a System from the tagged JSON form. Derived fields
// are left empty; run the enrichment pass to fill them again.
func Decode(data []byte) (*ast.System, error) {
	node, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	system, ok := node.(*ast.System)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not a System", ErrInvalidFormat)
	}
	return system, nil
}

func encodeAnnotations(anns []*ast.Annotation) []taggedAnnotation {
	out := make([]taggedAnnotation, 0, len(anns))
	for _, a := range anns {
		out = append(out, taggedAnnotation{Type: "Annotation", Name: a.Name, Args: a.Args})
	}
	return out
}

func encodeAttributeSet(attrs *ast.AttributeSet) ([]taggedAttribute, error) {
	out := make([]taggedAttribute, 0, attrs.Len())
	for _, attr := range attrs.All() {
		encoded, err := encodeAttribute(attr)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func encodeAttribute(attr *ast.Attribute) (taggedAttribute, error) {
	value, err := encodeNode(attr.Value)
	if err != nil {
		return taggedAttribute{}, err
	}
	return taggedAttribute{
		Type:        "Attribute",
		Key:         attr.Key,
		Value:       value,
		Annotations: encodeAnnotations(attr.Annotations),
	}, nil
}

func encodeNode(node ast.Node) (json.RawMessage, error) {
	switch n := node.(type) {
	case nil:
		return json.RawMessage("null"), nil

	case ast.Scalar:
		return json.Marshal(string(n))

	case ast.List:
		items := make([]json.RawMessage, 0, len(n))
		for _, item := range n {
			encoded, err := encodeNode(item)
			if err != nil {
				return nil, err
			}
			items = append(items, encoded)
		}
		return json.Marshal(items)

	case *ast.Map:
		entries := make([]taggedMapEntry, 0, n.Len())
		for _, entry := range n.Entries() {
			value, err := encodeNode(entry.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, taggedMapEntry{Key: entry.Key, Value: value})
		}
		return json.Marshal(taggedMap{Type: "Map", Entries: entries})

	case *ast.Annotation:
		return json.Marshal(taggedAnnotation{Type: "Annotation", Name: n.Name, Args: n.Args})

	case *ast.Attribute:
		encoded, err := encodeAttribute(n)
		if err != nil {
			return nil, err
		}
		return json.Marshal(encoded)

	case *ast.Field:
		attrs, err := encodeAttributeSet(n.Attributes)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedField{
			Type:        "Field",
			Name:        n.Name,
			FieldType:   n.FieldType,
			Visibility:  n.Visibility,
			Annotations: encodeAnnotations(n.Annotations),
			Attributes:  attrs,
		})

	case *ast.Method:
		attrs, err := encodeAttributeSet(n.Attributes)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedMethod{
			Type:        "Method",
			Name:        n.Name,
			Visibility:  n.Visibility,
			Params:      n.Params,
			Returns:     n.Returns,
			Annotations: encodeAnnotations(n.Annotations),
			Attributes:  attrs,
		})

	case *ast.Endpoint:
		endpointAttrs := n.Attributes
		if endpointAttrs == nil {
			endpointAttrs = ast.NewMap()
		}
		attrs, err := encodeNode(endpointAttrs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedEndpoint{
			Type:        "Endpoint",
			Style:       n.Style,
			Name:        n.Name,
			Method:      n.Method,
			Path:        n.Path,
			Request:     n.Request,
			Response:    n.Response,
			Annotations: encodeAnnotations(n.Annotations),
			Attributes:  attrs,
			Raw:         n.Raw,
		})

	case *ast.System:
		block, err := encodeBlock(&n.Block, "System")
		if err != nil {
			return nil, err
		}
		for _, service := range n.Services {
			encoded, err := encodeNode(service)
			if err != nil {
				return nil, err
			}
			block.Services = append(block.Services, encoded)
		}
		if block.Services == nil {
			block.Services = []json.RawMessage{}
		}
		return json.Marshal(block)

	case *ast.Service:
		block, err := encodeBlock(&n.Block, "Service")
		if err != nil {
			return nil, err
		}
		return json.Marshal(block)

	case *ast.Block:
		block, err := encodeBlock(n, "Block")
		if err != nil {
			return nil, err
		}
		return json.Marshal(block)

	default:
		return nil, fmt.Errorf("%w: cannot encode %T", ErrInvalidFormat, node)
	}
}

func encodeBlock(b *ast.Block, tag string) (*taggedBlock, error) {
	attrs, err := encodeAttributeSet(b.Attributes)
	if err != nil {
		return nil, err
	}
	return &taggedBlock{
		Type:        tag,
		Kind:        b.Kind,
		Name:        b.Name,
		Annotations: encodeAnnotations(b.Annotations),
		Attributes:  attrs,
	}, nil
}

func decodeAnnotations(tagged []taggedAnnotation) []*ast.Annotation {
	if len(tagged) == 0 {
		return nil
	}
	out := make([]*ast.Annotation, 0, len(tagged))
	for _, a := range tagged {
		out = append(out, &ast.Annotation{Name: a.Name, Args: a.Args})
	}
	return out
}

func decodeAttribute(tagged taggedAttribute) (*ast.Attribute, error) {
	var value ast.Node
	if len(tagged.Value) > 0 {
		var err error
		value, err = decodeValue(tagged.Value)
		if err != nil {
			return nil, err
		}
	}
	return &ast.Attribute{
		Key:         tagged.Key,
		Value:       value,
		Annotations: decodeAnnotations(tagged.Annotations),
	}, nil
}

func decodeAttributeSet(tagged []taggedAttribute) (*ast.AttributeSet, error) {
	attrs := ast.NewAttributeSet()
	for _, t := range tagged {
		attr, err := decodeAttribute(t)
		if err != nil {
			return nil, err
		}
		attrs.Put(attr, false)
	}
	return attrs, nil
}

// decodeValue dispatches on the first JSON byte: arrays are lists, strings
// are scalars, and objects carry a __type__ discriminator.
func decodeValue(data json.RawMessage) (ast.Node, error) {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidFormat)
	}

	switch trimmed[0] {
	case 'n': // null
		return nil, nil

	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return ast.Scalar(s), nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		list := make(ast.List, 0, len(items))
		for _, item := range items {
			node, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, node)
		}
		return list, nil

	case '{':
		return decodeTagged(trimmed)

	default:
		return nil, fmt.Errorf("%w: unexpected value %q", ErrInvalidFormat, string(trimmed))
	}
}

func decodeTagged(data json.RawMessage) (ast.Node, error) {
	var probe struct {
		Type string `json:"__type__"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case "Map":
		var t taggedMap
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		m := ast.NewMap()
		for _, entry := range t.Entries {
			value, err := decodeValue(entry.Value)
			if err != nil {
				return nil, err
			}
			m.Set(entry.Key, value)
		}
		return m, nil

	case "Annotation":
		var t taggedAnnotation
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &ast.Annotation{Name: t.Name, Args: t.Args}, nil

	case "Attribute":
		var t taggedAttribute
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return decodeAttribute(t)

	case "Field":
		var t taggedField
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		attrs, err := decodeAttributeSet(t.Attributes)
		if err != nil {
			return nil, err
		}
		return &ast.Field{
			Name:        t.Name,
			FieldType:   t.FieldType,
			Visibility:  t.Visibility,
			Annotations: decodeAnnotations(t.Annotations),
			Attributes:  attrs,
		}, nil

	case "Method":
		var t taggedMethod
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		attrs, err := decodeAttributeSet(t.Attributes)
		if err != nil {
			return nil, err
		}
		return &ast.Method{
			Name:        t.Name,
			Visibility:  t.Visibility,
			Params:      t.Params,
			Returns:     t.Returns,
			Annotations: decodeAnnotations(t.Annotations),
			Attributes:  attrs,
		}, nil

	case "Endpoint":
		var t taggedEndpoint
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		attrs := ast.NewMap()
		if len(t.Attributes) > 0 {
			attrsNode, err := decodeValue(t.Attributes)
			if err != nil {
				return nil, err
			}
			if m, ok := attrsNode.(*ast.Map); ok {
				attrs = m
			}
		}
		return &ast.Endpoint{
			Style:       t.Style,
			Name:        t.Name,
			Method:      t.Method,
			Path:        t.Path,
			Request:     t.Request,
			Response:    t.Response,
			Annotations: decodeAnnotations(t.Annotations),
			Attributes:  attrs,
			Raw:         t.Raw,
		}, nil

	case "Block", "Service", "System":
		var t taggedBlock
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		attrs, err := decodeAttributeSet(t.Attributes)
		if err != nil {
			return nil, err
		}
		block := ast.Block{
			Kind:        t.Kind,
			Name:        t.Name,
			Annotations: decodeAnnotations(t.Annotations),
			Attributes:  attrs,
		}
		switch probe.Type {
		case "Service":
			return &ast.Service{Block: block}, nil
		case "System":
			system := &ast.System{Block: block}
			for _, raw := range t.Services {
				node, err := decodeValue(raw)
				if err != nil {
					return nil, err
				}
				service, ok := node.(*ast.Service)
				if !ok {
					return nil, fmt.Errorf("%w: system service is not a Service", ErrInvalidFormat)
				}
				system.Services = append(system.Services, service)
			}
			return system, nil
		default:
			return &block, nil
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeTag, probe.Type)
	}
}

func trimLeadingSpace(data []byte) []byte {
	for len(data) > 0 {
		switch data[0] {
		case ' ', '\t', '\n', '\r':
			data = data[1:]
		default:
			return data
		}
	}
	return data
}
