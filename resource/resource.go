// Package resource holds the parsed, immutable form of localization resource files.
//
// A resource file contains message definitions for exactly one locale. Parsing turns the
// raw bytes into a *Text which is never mutated afterwards: reloading a file produces a new
// *Text that replaces the old one wholesale. Because a Text is immutable it can be shared by
// the asset store and any number of locale bundles without copying or re-parsing.
//
// Supported formats:
//   - Fluent syntax (.ftl): messages, terms, attributes, placeables and select expressions
//   - TOML (.toml), YAML (.yaml, .yml) and JSON (.json) documents whose string values are
//     Fluent patterns
//
// Parsing never fails outright. Malformed entries are skipped and reported as ParseError
// values next to a best-effort Text.
//
// Example (.ftl):
//
//	-brand = Localekit
//	title = Welcome to { -brand }
//	    .tooltip = Open the { -brand } dashboard
//	items = { $count ->
//	    [one] One item
//	   *[other] { $count } items
//	}
package resource

// Text is the parsed content of one resource file.
type Text struct {
	path    string
	entries []*Message
	index   map[string]*Message
}

// NewText builds a Text from already parsed entries. The entries slice is owned by the
// returned Text and must not be modified afterwards. When the same key appears more than once
// the first occurrence is what Lookup returns; Entries still lists every occurrence.
func NewText(path string, entries []*Message) *Text {
	t := &Text{
		path:    path,
		entries: entries,
		index:   make(map[string]*Message, len(entries)),
	}
	for _, e := range entries {
		if _, exists := t.index[e.Key()]; !exists {
			t.index[e.Key()] = e
		}
	}
	return t
}

// Path returns the path the text was parsed from.
func (t *Text) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Entries returns every message and term in file order. Callers must not modify the slice.
func (t *Text) Entries() []*Message {
	if t == nil {
		return nil
	}
	return t.entries
}

// Len returns the number of entries.
func (t *Text) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Lookup returns the entry stored under key. Terms are keyed with their leading dash.
func (t *Text) Lookup(key string) (*Message, bool) {
	if t == nil {
		return nil, false
	}
	m, ok := t.index[key]
	return m, ok
}

// Message is a single message or term definition.
type Message struct {
	ID         string
	Term       bool
	Value      *Pattern
	Attributes []*Attribute
	Line       int
}

// Attribute is a named sub-value of a message.
type Attribute struct {
	Name  string
	Value *Pattern
}

// Key returns the identifier used to store the entry in a bundle. Terms live in their own
// namespace, so their key carries the leading dash.
func (m *Message) Key() string {
	if m.Term {
		return "-" + m.ID
	}
	return m.ID
}

// Attribute returns the pattern of the named attribute.
func (m *Message) Attribute(name string) (*Pattern, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// AttributeNames lists the attribute names in definition order.
func (m *Message) AttributeNames() []string {
	names := make([]string, 0, len(m.Attributes))
	for _, a := range m.Attributes {
		names = append(names, a.Name)
	}
	return names
}
