package ast

import "strings"

// Annotation is @Name(arg1, arg2) metadata attached to a declaration or value.
type Annotation struct {
	Name string
	Args []string
}

func (a *Annotation) Type() NodeType { return ANNOTATION }

func (a *Annotation) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Name + "(" + strings.Join(a.Args, ", ") + ")"
}

// Attribute is one key/value entry of a block, method, or field body.
// In a list context an Attribute may wrap an annotated element, in which
// case Key is empty.
type Attribute struct {
	Key         string
	Value       Node
	Annotations []*Annotation
}

func (a *Attribute) Type() NodeType { return ATTRIBUTE }

func (a *Attribute) String() string {
	return a.Key + ": " + a.Value.String()
}

// Field is a typed field declaration. The type is kept as the raw source
// run; the signature grammar is never applied at this layer.
type Field struct {
	Name        string
	FieldType   string
	Visibility  string // "+", "-", "#", or empty, as in UML
	Annotations []*Annotation
	Attributes  *AttributeSet
}

func (f *Field) Type() NodeType { return FIELD }

func (f *Field) String() string {
	return f.Visibility + f.Name + ": " + f.FieldType
}

// Method is a method declaration with Go-style raw parameter and return
// strings. Inputs and Outputs are derived parameter descriptors filled
// exactly once by the enrichment pass.
type Method struct {
	Name        string
	Visibility  string
	Params      string // raw "(...)" content
	Returns     string // raw single-type or tuple "(...)" return
	Annotations []*Annotation
	Attributes  *AttributeSet

	// derived
	Inputs  []*Param
	Outputs []*Param
}

func (m *Method) Type() NodeType { return METHOD }

func (m *Method) String() string {
	return m.Visibility + m.Name + "(" + m.Params + ") -> " + m.Returns
}

// Block is a named component body: kind, optional name, and an ordered
// attribute set. Service and System are Block variants.
type Block struct {
	Kind        string
	Name        string
	Annotations []*Annotation
	Attributes  *AttributeSet
}

func NewBlock(kind, name string) *Block {
	return &Block{Kind: kind, Name: name, Attributes: NewAttributeSet()}
}

func (b *Block) Type() NodeType { return BLOCK }

func (b *Block) String() string {
	if b.Name == "" {
		return b.Kind
	}
	return b.Kind + " " + b.Name
}

// Service is a service block inside a system.
type Service struct {
	Block
}

func NewService(name string) *Service {
	return &Service{Block: Block{Kind: "service", Name: name, Attributes: NewAttributeSet()}}
}

func (s *Service) Type() NodeType { return SERVICE }

// System is the root node, owning an ordered list of services.
type System struct {
	Block
	Services []*Service
}

func NewSystem() *System {
	return &System{Block: Block{Kind: "system", Attributes: NewAttributeSet()}}
}

func (s *System) Type() NodeType { return SYSTEM }

// Endpoint is one parsed API endpoint line. Style is "http" for verb-led
// lines and "grpc" for everything else. Raw preserves the original line.
// The *Parsed and Inputs/Outputs fields are derived and filled exactly once
// by the enrichment pass; when a signature does not parse they stay nil and
// only the raw Request/Response text is available.
type Endpoint struct {
	Style       string
	Name        string
	Method      string
	Path        string
	Request     string
	Response    string
	Annotations []*Annotation
	Attributes  *Map // ordered string -> Scalar metadata from a trailing [...] list
	Raw         string

	// derived
	RequestParsed  Signature
	ResponseParsed Signature
	InputParams    []*TypeField
	OutputParams   []*TypeField
	Inputs         []*Param
	Outputs        []*Param
}

func (e *Endpoint) Type() NodeType { return ENDPOINT }

func (e *Endpoint) String() string { return e.Raw }

// AttributeSet is the ordered attribute container of Block, Method, and
// Field bodies. It never holds two entries for one key: Put either merges
// or replaces on collision, depending on the parser's policy.
type AttributeSet struct {
	entries []*Attribute
	index   map[string]int
}

// NewAttributeSet creates an empty attribute set
func NewAttributeSet() *AttributeSet {
	return &AttributeSet{index: make(map[string]int)}
}

// Put stores attr under its key. On collision the merge flag selects the
// duplicate-key merge rule; with merge off the new attribute replaces the
// old one. Both keep the original insertion position.
func (s *AttributeSet) Put(attr *Attribute, merge bool) {
	i, exists := s.index[attr.Key]
	if !exists {
		s.index[attr.Key] = len(s.entries)
		s.entries = append(s.entries, attr)
		return
	}
	if merge {
		s.entries[i] = mergeAttributes(s.entries[i], attr)
	} else {
		s.entries[i] = attr
	}
}

// Get returns the attribute stored under key
func (s *AttributeSet) Get(key string) (*Attribute, bool) {
	if i, ok := s.index[key]; ok {
		return s.entries[i], true
	}
	return nil, false
}

// Keys returns the attribute keys in insertion order
func (s *AttributeSet) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, attr := range s.entries {
		keys[i] = attr.Key
	}
	return keys
}

// All returns the attributes in insertion order
func (s *AttributeSet) All() []*Attribute {
	return s.entries
}

// Len returns the number of attributes
func (s *AttributeSet) Len() int {
	return len(s.entries)
}

// mergeAttributes applies the duplicate-key merge rule:
//   - list + list: concatenation preserving order
//   - map + map: shallow merge, the later value wins per key
//   - any other pairing: the later value replaces entirely
//
// Annotations from both occurrences concatenate in every case.
func mergeAttributes(existing, next *Attribute) *Attribute {
	annotations := make([]*Annotation, 0, len(existing.Annotations)+len(next.Annotations))
	annotations = append(annotations, existing.Annotations...)
	annotations = append(annotations, next.Annotations...)

	if existingList, ok := existing.Value.(List); ok {
		if nextList, ok := next.Value.(List); ok {
			merged := make(List, 0, len(existingList)+len(nextList))
			merged = append(merged, existingList...)
			merged = append(merged, nextList...)
			return &Attribute{Key: existing.Key, Value: merged, Annotations: annotations}
		}
	}
	if existingMap, ok := existing.Value.(*Map); ok {
		if nextMap, ok := next.Value.(*Map); ok {
			merged := NewMap()
			for _, entry := range existingMap.Entries() {
				merged.Set(entry.Key, entry.Value)
			}
			for _, entry := range nextMap.Entries() {
				merged.Set(entry.Key, entry.Value)
			}
			return &Attribute{Key: existing.Key, Value: merged, Annotations: annotations}
		}
	}
	return &Attribute{Key: existing.Key, Value: next.Value, Annotations: annotations}
}
