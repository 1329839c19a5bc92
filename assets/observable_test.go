package assets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdsmith18542/localekit/observability"
)

type storageCall struct {
	operation string
	kind      string
	success   bool
}

type recordingObserver struct {
	mu      sync.Mutex
	storage []storageCall
	loads   []string
}

func (r *recordingObserver) OnTranslationStart(context.Context, string, string) {}
func (r *recordingObserver) OnTranslationEnd(context.Context, string, string, time.Duration) {
}
func (r *recordingObserver) OnMissingMessage(context.Context, string, string)    {}
func (r *recordingObserver) OnLanguageChange(context.Context, []string)          {}
func (r *recordingObserver) OnLanguageReady(context.Context, []string, bool)     {}
func (r *recordingObserver) OnAssetLoad(_ context.Context, path string, _ int, _ int, _ time.Duration, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, path)
}
func (r *recordingObserver) OnStorageOperation(_ context.Context, operation string, kind string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = append(r.storage, storageCall{operation: operation, kind: kind, success: success})
}

func useObserver(t *testing.T) *recordingObserver {
	t.Helper()
	rec := &recordingObserver{}
	observability.SetObserver(rec)
	t.Cleanup(func() { observability.SetObserver(nil) })
	return rec
}

func TestObservableSource(t *testing.T) {
	rec := useObserver(t)
	ctx := context.Background()

	mock := NewMockSource()
	mock.Put("en/main.ftl", "a = A")
	src := NewObservableSource(mock, "mock")
	assert.Same(t, mock, src.Unwrap())

	_, err := src.ListFiles(ctx, "en")
	require.NoError(t, err)
	_, err = src.ListFiles(ctx, "xx")
	require.Error(t, err)
	assert.True(t, src.Exists(ctx, "en/main.ftl"))
	assert.Equal(t, "mock", src.GetInfo()["type"])

	assert.Equal(t, []storageCall{
		{operation: "list_files", kind: "mock", success: true},
		{operation: "list_files", kind: "mock", success: false},
		{operation: "exists", kind: "mock", success: true},
	}, rec.storage)
}

func TestServer_ReportsAssetLoads(t *testing.T) {
	rec := useObserver(t)

	mock := NewMockSource()
	mock.Put("en/main.ftl", "a = A")
	s, _ := newTestServer(t, mock)

	_, err := s.LoadFolder(context.Background(), "en")
	require.NoError(t, err)
	s.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"en/main.ftl"}, rec.loads)
}
