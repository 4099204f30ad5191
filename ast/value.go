package ast

import "strings"

// Scalar is a plain string value.
type Scalar string

func (s Scalar) Type() NodeType { return SCALAR }

func (s Scalar) String() string { return string(s) }

// MapEntry is one key/value pair of an ordered Map.
type MapEntry struct {
	Key   string
	Value Node
}

// Map is a string-keyed container that preserves insertion order.
type Map struct {
	entries []MapEntry
	index   map[string]int
}

// NewMap creates an empty ordered map
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

func (m *Map) Type() NodeType { return MAP }

func (m *Map) String() string {
	var builder strings.Builder
	builder.WriteString("{")
	for i, entry := range m.entries {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(entry.Key)
		builder.WriteString(": ")
		builder.WriteString(entry.Value.String())
	}
	builder.WriteString("}")
	return builder.String()
}

// Set inserts or overwrites a key. An overwrite keeps the original position.
func (m *Map) Set(key string, value Node) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Get returns the value for key
func (m *Map) Get(key string) (Node, bool) {
	if i, ok := m.index[key]; ok {
		return m.entries[i].Value, true
	}
	return nil, false
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, entry := range m.entries {
		keys[i] = entry.Key
	}
	return keys
}

// Entries returns the entries in insertion order
func (m *Map) Entries() []MapEntry {
	return m.entries
}

// Len returns the number of entries
func (m *Map) Len() int {
	return len(m.entries)
}

// List is an ordered sequence of values.
type List []Node

func (l List) Type() NodeType { return LIST }

func (l List) String() string {
	parts := make([]string, len(l))
	for i, item := range l {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
