package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ParseTOML parses a TOML resource document.
//
//	title = "Welcome"
//
//	[login]
//	value = "Log in"
//	attributes = { tooltip = "Sign in with { -brand }" }
func ParseTOML(path string, data []byte) (*Text, []ParseError) {
	var doc map[string]interface{}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		line := 0
		var perr toml.ParseError
		if errors.As(err, &perr) {
			line = perr.Position.Line
		}
		return NewText(path, nil), []ParseError{{Path: path, Line: line, Message: err.Error()}}
	}
	return fromDocument(path, doc)
}

// ParseYAML parses a YAML resource document.
func ParseYAML(path string, data []byte) (*Text, []ParseError) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return NewText(path, nil), []ParseError{{Path: path, Message: err.Error()}}
	}
	return fromDocument(path, doc)
}

// ParseJSON parses a JSON resource document.
func ParseJSON(path string, data []byte) (*Text, []ParseError) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		line := 0
		var serr *json.SyntaxError
		if errors.As(err, &serr) {
			line = bytes.Count(data[:serr.Offset], []byte("\n")) + 1
		}
		return NewText(path, nil), []ParseError{{Path: path, Line: line, Message: err.Error()}}
	}
	return fromDocument(path, doc)
}

// fromDocument converts a decoded document into entries sorted by key.
func fromDocument(path string, doc map[string]interface{}) (*Text, []ParseError) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		entries []*Message
		errs    []ParseError
	)
	for _, key := range keys {
		msg, err := documentEntry(key, doc[key])
		if err != nil {
			errs = append(errs, ParseError{Path: path, Message: fmt.Sprintf("%s: %v", key, err)})
			continue
		}
		entries = append(entries, msg)
	}
	return NewText(path, entries), errs
}

func documentEntry(key string, raw interface{}) (*Message, error) {
	id := strings.TrimPrefix(key, "-")
	msg := &Message{ID: id, Term: strings.HasPrefix(key, "-")}
	if !IsIdentifier(id) {
		return nil, fmt.Errorf("invalid identifier")
	}

	switch v := raw.(type) {
	case string:
		pattern, err := ParsePattern(v)
		if err != nil {
			return nil, err
		}
		msg.Value = pattern

	case map[string]interface{}, map[interface{}]interface{}:
		table := stringKeys(v)
		if value, ok := table["value"]; ok {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("value must be a string")
			}
			pattern, err := ParsePattern(s)
			if err != nil {
				return nil, err
			}
			msg.Value = pattern
		}
		if rawAttrs, ok := table["attributes"]; ok {
			attrs := stringKeys(rawAttrs)
			if attrs == nil {
				return nil, fmt.Errorf("attributes must be a table")
			}
			names := make([]string, 0, len(attrs))
			for name := range attrs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				s, ok := attrs[name].(string)
				if !ok || !IsIdentifier(name) {
					return nil, fmt.Errorf("invalid attribute %q", name)
				}
				pattern, err := ParsePattern(s)
				if err != nil {
					return nil, fmt.Errorf("attribute %s: %w", name, err)
				}
				msg.Attributes = append(msg.Attributes, &Attribute{Name: name, Value: pattern})
			}
		}

	default:
		return nil, fmt.Errorf("unsupported value of type %T", raw)
	}

	if msg.Value == nil && (msg.Term || len(msg.Attributes) == 0) {
		return nil, fmt.Errorf("entry has no value")
	}
	return msg, nil
}

func stringKeys(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}
