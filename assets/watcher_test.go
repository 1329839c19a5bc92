package assets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// eventLog accumulates drained events so assertions can poll for them.
type eventLog struct {
	mu     sync.Mutex
	server *Server
	seen   []Event
}

func (l *eventLog) has(kind EventKind, path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, l.server.Drain()...)
	for _, e := range l.seen {
		if e.Kind == kind && e.Path == path {
			return true
		}
	}
	return false
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "en/main.ftl", "hello = Hello")

	s, _ := newTestServer(t, NewLocal(root))
	_, err := s.LoadFolder(context.Background(), "en")
	require.NoError(t, err)
	s.Wait()
	s.Drain()

	w, err := NewWatcher(s, root, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	events := &eventLog{server: s}

	writeFile(t, root, "en/main.ftl", "hello = Hello again")
	require.Eventually(t, func() bool { return events.has(Modified, "en/main.ftl") },
		5*time.Second, 20*time.Millisecond)

	writeFile(t, root, "en/extra.ftl", "extra = Extra")
	require.Eventually(t, func() bool { return events.has(Created, "en/extra.ftl") },
		5*time.Second, 20*time.Millisecond)

	writeFile(t, root, "fr/main.ftl", "hello = Bonjour")
	require.Eventually(t, func() bool { return events.has(Created, "fr/main.ftl") },
		5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(root, "en", "extra.ftl")))
	require.Eventually(t, func() bool { return events.has(Removed, "en/extra.ftl") },
		5*time.Second, 20*time.Millisecond)

	_, ok := s.Handle("en/extra.ftl")
	assert.True(t, ok)
}
