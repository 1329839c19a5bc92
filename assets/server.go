package assets

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kdsmith18542/localekit/logger"
	"github.com/kdsmith18542/localekit/observability"
	"github.com/kdsmith18542/localekit/resource"
)

const defaultWorkers = 8

// Server loads and parses resource files from a Source. Reads run on a worker pool; their
// completion is reported as events that the owner drains once per tick. Parsed texts stay in
// the store until the file is forgotten, so switching back to a language reuses them.
type Server struct {
	src     Source
	parsers *resource.Registry
	log     *zap.Logger
	workers int
	pool    *ants.Pool
	wg      sync.WaitGroup

	mu      sync.Mutex
	nextID  uint64
	handles map[string]Handle
	paths   map[Handle]string
	texts   map[Handle]*resource.Text
	gen     map[Handle]uint64
	loading map[Handle]bool
	events  []Event
	closed  bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for load and parse diagnostics.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithWorkers sets the number of concurrent file loads.
func WithWorkers(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewServer creates a server reading from src and parsing with parsers.
func NewServer(src Source, parsers *resource.Registry, opts ...ServerOption) (*Server, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}
	if parsers == nil {
		parsers = resource.NewRegistry()
	}

	s := &Server{
		src:     src,
		parsers: parsers,
		workers: defaultWorkers,
		handles: make(map[string]Handle),
		paths:   make(map[Handle]string),
		texts:   make(map[Handle]*resource.Text),
		gen:     make(map[Handle]uint64),
		loading: make(map[Handle]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("assets")
	}

	pool, err := ants.NewPool(s.workers, ants.WithPanicHandler(func(p any) {
		s.log.Error("resource load panicked", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create loader pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Source returns the backend the server reads from.
func (s *Server) Source() Source {
	return s.src
}

// Supports reports whether a parser exists for path.
func (s *Server) Supports(path string) bool {
	return s.parsers.Supports(path)
}

// LoadFolder returns handles for every supported file below dir, sorted by path. Files whose
// content is already stored are available through Get immediately; the others are read in
// the background and announced with a Created event.
func (s *Server) LoadFolder(ctx context.Context, dir string) ([]Handle, error) {
	if s.isClosed() {
		return nil, ErrSourceClosed
	}

	files, err := s.src.ListFiles(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder %q: %w", dir, err)
	}
	sort.Strings(files)

	handles := make([]Handle, 0, len(files))
	for _, path := range files {
		if !s.parsers.Supports(path) {
			s.log.Debug("skipping unsupported file", zap.String("path", path))
			continue
		}

		s.mu.Lock()
		h := s.handleLocked(path)
		_, stored := s.texts[h]
		start := !stored && !s.loading[h]
		s.mu.Unlock()

		if start {
			s.load(ctx, h, path, Created)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Get returns the parsed content of h, if loaded.
func (s *Server) Get(h Handle) (*resource.Text, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[h]
	return text, ok
}

// Path returns the path h was allocated for.
func (s *Server) Path(h Handle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[h]
	return path, ok
}

// Handle returns the handle allocated for path.
func (s *Server) Handle(path string) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[cleanDir(path)]
	return h, ok
}

// Discover announces a new file: a Discovered event is queued right away and the content
// follows with a Created event. A path whose content is already stored is reloaded instead.
func (s *Server) Discover(ctx context.Context, path string) {
	path = cleanDir(path)
	if s.isClosed() || !s.parsers.Supports(path) {
		return
	}

	s.mu.Lock()
	h := s.handleLocked(path)
	if _, stored := s.texts[h]; stored {
		s.mu.Unlock()
		s.Reload(ctx, path)
		return
	}
	s.events = append(s.events, Event{Kind: Discovered, Handle: h, Path: path})
	s.mu.Unlock()

	s.load(ctx, h, path, Created)
}

// Reload re-reads a known file and queues a Modified event. Unknown paths are discovered.
func (s *Server) Reload(ctx context.Context, path string) {
	path = cleanDir(path)
	if s.isClosed() || !s.parsers.Supports(path) {
		return
	}

	s.mu.Lock()
	h, known := s.handles[path]
	_, stored := s.texts[h]
	s.mu.Unlock()

	if !known || !stored {
		s.Discover(ctx, path)
		return
	}
	s.load(ctx, h, path, Modified)
}

// Forget drops the stored content of path and queues a Removed event. The handle stays
// allocated, so a file that reappears gets the same handle back.
func (s *Server) Forget(path string) {
	path = cleanDir(path)
	s.mu.Lock()
	defer s.mu.Unlock()

	h, known := s.handles[path]
	if !known {
		return
	}
	// Invalidate reads still in flight.
	s.gen[h]++
	delete(s.loading, h)
	delete(s.texts, h)
	s.events = append(s.events, Event{Kind: Removed, Handle: h, Path: path})
}

// Drain returns and clears the queued events in the order they happened.
func (s *Server) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// Pending reports how many reads are still in flight.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loading)
}

// Wait blocks until every read started so far has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close waits for in-flight reads, stops the pool and closes the source.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	s.pool.Release()
	return s.src.Close()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleLocked(path string) Handle {
	if h, ok := s.handles[path]; ok {
		return h
	}
	s.nextID++
	h := Handle{id: s.nextID}
	s.handles[path] = h
	s.paths[h] = path
	return h
}

// load schedules a read of path. Only the newest read of a handle is kept.
func (s *Server) load(ctx context.Context, h Handle, path string, kind EventKind) {
	s.mu.Lock()
	s.gen[h]++
	gen := s.gen[h]
	s.loading[h] = true
	s.mu.Unlock()

	// The caller's context only scopes the request that triggered the load.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	task := func() {
		defer s.wg.Done()
		s.read(ctx, h, path, gen, kind)
	}
	if err := s.pool.Submit(task); err != nil {
		s.log.Warn("loader pool unavailable, reading inline", zap.String("path", path), zap.Error(err))
		task()
	}
}

func (s *Server) read(ctx context.Context, h Handle, path string, gen uint64, kind EventKind) {
	start := time.Now()

	text, parseErrors, err := s.readText(ctx, path)
	if err != nil {
		s.log.Error("failed to read resource", zap.String("path", path), zap.Error(err))
		text = resource.NewText(path, nil)
	}
	for _, perr := range parseErrors {
		s.log.Warn("resource parse error",
			zap.String("path", path),
			zap.Int("line", perr.Line),
			zap.String("error", perr.Message),
		)
	}
	observability.GetObserver().OnAssetLoad(ctx, path, text.Len(), len(parseErrors), time.Since(start), err == nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[h] != gen {
		// A newer read or a Forget superseded this one.
		return
	}
	delete(s.loading, h)
	s.texts[h] = text
	s.events = append(s.events, Event{Kind: kind, Handle: h, Path: path})
}

func (s *Server) readText(ctx context.Context, path string) (*resource.Text, []resource.ParseError, error) {
	reader, err := s.src.GetReader(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	text, parseErrors := s.parsers.Parse(path, data)
	return text, parseErrors, nil
}
