package resource

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Parser turns the raw bytes of a resource file into a Text.
type Parser interface {
	Parse(path string, data []byte) (*Text, []ParseError)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(path string, data []byte) (*Text, []ParseError)

// Parse calls f(path, data).
func (f ParserFunc) Parse(path string, data []byte) (*Text, []ParseError) {
	return f(path, data)
}

// Registry selects a Parser by file extension.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(".ftl", ParserFunc(ParseFTL))
	r.Register(".toml", ParserFunc(ParseTOML))
	r.Register(".yaml", ParserFunc(ParseYAML))
	r.Register(".yml", ParserFunc(ParseYAML))
	r.Register(".json", ParserFunc(ParseJSON))
	return r
}

// Register associates ext (with or without the leading dot) with p, replacing any previous
// parser for that extension.
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[normalizeExt(ext)] = p
}

// Supports reports whether a parser is registered for the extension of path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Parse parses data with the parser registered for path's extension. An unsupported
// extension yields an empty Text and one ParseError.
func (r *Registry) Parse(path string, data []byte) (*Text, []ParseError) {
	p, ok := r.lookup(path)
	if !ok {
		return NewText(path, nil), []ParseError{{Path: path, Message: "no parser registered for extension " + quote(filepath.Ext(path))}}
	}
	return p.Parse(path, data)
}

func (r *Registry) lookup(path string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalizeExt(filepath.Ext(path))]
	return p, ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
