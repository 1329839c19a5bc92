package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MockSource implements Source in memory for testing
type MockSource struct {
	mu     sync.RWMutex
	files  map[string][]byte
	dirs   map[string]bool
	fail   map[string]error
	reads  map[string]int
	closed bool
	closes int
}

// NewMockSource creates a new mock source for testing
func NewMockSource() *MockSource {
	return &MockSource{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		fail:  make(map[string]error),
		reads: make(map[string]int),
	}
}

// Put stores a file, creating its parent directories.
func (m *MockSource) Put(path string, data string) {
	path = cleanDir(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(data)
	for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
		m.dirs[dir] = true
	}
}

// Mkdir creates an empty directory.
func (m *MockSource) Mkdir(dir string) {
	dir = cleanDir(dir)
	m.mu.Lock()
	defer m.mu.Unlock()
	for ; dir != ""; dir = parentDir(dir) {
		m.dirs[dir] = true
	}
}

// Delete removes a file.
func (m *MockSource) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, cleanDir(path))
}

// FailReads makes GetReader return err for path until cleared with a nil error.
func (m *MockSource) FailReads(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, cleanDir(path))
		return
	}
	m.fail[cleanDir(path)] = err
}

// Reads returns how many times path was opened.
func (m *MockSource) Reads(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads[cleanDir(path)]
}

func (m *MockSource) ListFiles(ctx context.Context, dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrSourceClosed
	}

	dir = cleanDir(dir)
	if dir != "" && !m.dirs[dir] {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}
	prefix := dirPrefix(dir)
	files := make([]string, 0)
	for path := range m.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *MockSource) ListDirs(ctx context.Context, dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrSourceClosed
	}

	dir = cleanDir(dir)
	if dir != "" && !m.dirs[dir] {
		return nil, fmt.Errorf("directory %q: %w", dir, ErrNotFound)
	}
	var dirs []string
	for d := range m.dirs {
		if parentDir(d) == dir {
			dirs = append(dirs, d[len(dirPrefix(dir)):])
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (m *MockSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	path = cleanDir(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrSourceClosed
	}
	m.reads[path]++
	if err := m.fail[path]; err != nil {
		return nil, err
	}
	if data, exists := m.files[path]; exists {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil, fmt.Errorf("file %q: %w", path, ErrNotFound)
}

func (m *MockSource) Exists(ctx context.Context, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[cleanDir(path)]
	return exists
}

func (m *MockSource) GetInfo() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"type":    "mock",
		"files":   len(m.files),
		"backend": "MockSource",
	}
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.closes++
	m.mu.Unlock()
	return nil
}

// Closes reports how many times Close was called.
func (m *MockSource) Closes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closes
}

func parentDir(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}
