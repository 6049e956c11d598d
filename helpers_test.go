package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

// testLogger records messages so tests can assert on warnings and errors.
type testLogger struct {
	mutex    sync.Mutex
	messages []string
}

func (l *testLogger) record(level, message string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.messages = append(l.messages, level+": "+message)
}

func (l *testLogger) Print(message string)   { l.record("PRINT", message) }
func (l *testLogger) Trace(message string)   { l.record("TRACE", message) }
func (l *testLogger) Debug(message string)   { l.record("DEBUG", message) }
func (l *testLogger) Info(message string)    { l.record("INFO", message) }
func (l *testLogger) Warning(message string) { l.record("WARNING", message) }
func (l *testLogger) Error(message string)   { l.record("ERROR", message) }
func (l *testLogger) Fatal(message string)   { l.record("FATAL", message) }

func (l *testLogger) Messages() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.messages...)
}

var _ logger.Logger = (*testLogger)(nil)

// fakeHost stands in for the Wails runtime.
type fakeHost struct {
	mutex      sync.Mutex
	displays   []Display
	displayErr error
	width      int
	height     int
	shown      int
	centered   int
	opened     []string
	handlers   map[string]func(optionalData ...interface{})
	cancelled  []string
	logLevels  []logger.LogLevel
}

func newFakeHost(displays ...Display) *fakeHost {
	return &fakeHost{
		displays: displays,
		handlers: make(map[string]func(optionalData ...interface{})),
	}
}

func (h *fakeHost) Displays(ctx context.Context) ([]Display, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.displays, h.displayErr
}

func (h *fakeHost) SetSize(ctx context.Context, width, height int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.width, h.height = width, height
}

func (h *fakeHost) Size(ctx context.Context) (int, int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.width, h.height
}

func (h *fakeHost) Center(ctx context.Context) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.centered++
}

func (h *fakeHost) Show(ctx context.Context) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.shown++
}

func (h *fakeHost) OpenURL(ctx context.Context, url string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.opened = append(h.opened, url)
}

func (h *fakeHost) On(ctx context.Context, event string, callback func(optionalData ...interface{})) func() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.handlers[event] = callback
	return func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()
		h.cancelled = append(h.cancelled, event)
	}
}

func (h *fakeHost) SetLogLevel(ctx context.Context, level logger.LogLevel) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.logLevels = append(h.logLevels, level)
}

// userResize simulates the user dragging the window and the frontend
// emitting the resize event.
func (h *fakeHost) userResize(width, height int) {
	h.mutex.Lock()
	h.width, h.height = width, height
	handler := h.handlers[EventWindowResized]
	h.mutex.Unlock()
	if handler != nil {
		handler()
	}
}

func (h *fakeHost) emit(event string) {
	h.mutex.Lock()
	handler := h.handlers[event]
	h.mutex.Unlock()
	if handler != nil {
		handler()
	}
}

func (h *fakeHost) showCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.shown
}

// memorySizeStore is an in-memory sizeStore.
type memorySizeStore struct {
	mutex   sync.Mutex
	size    *WindowSize
	getErr  error
	setErr  error
	inserts int
	writes  []WindowSize
}

func (s *memorySizeStore) GetSize(display DisplayBounds) (WindowSize, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.getErr != nil {
		return WindowSize{}, s.getErr
	}
	if s.size == nil {
		size := DefaultSize(display, DefaultSizeRatio)
		s.size = &size
		s.inserts++
	}
	return *s.size, nil
}

func (s *memorySizeStore) SetSize(width, height int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	size := WindowSize{Width: width, Height: height}
	s.size = &size
	s.writes = append(s.writes, size)
	return nil
}

func (s *memorySizeStore) Compact() error { return nil }

func (s *memorySizeStore) current() *WindowSize {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.size == nil {
		return nil
	}
	size := *s.size
	return &size
}

var errStorage = errors.New("disk unavailable")

// openTestDatastore opens a datastore in a fresh temporary directory.
func openTestDatastore(t *testing.T) *Datastore {
	t.Helper()
	db, err := OpenDatastore(filepath.Join(t.TempDir(), "data", SizeDBFile), DatastoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestQueue returns a queue that never compacts during a test.
func newTestQueue(t *testing.T, store sizeStore, log logger.Logger) *persistQueue {
	t.Helper()
	q := newPersistQueue(store, log, time.Hour)
	t.Cleanup(q.Close)
	return q
}

func flushQueue(t *testing.T, q *persistQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx), "persist queue did not flush")
}

func primary(width, height int) Display {
	return Display{Bounds: DisplayBounds{Width: width, Height: height}, Primary: true}
}

func containsMessage(messages []string, prefix string) bool {
	for _, m := range messages {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func sizeString(s WindowSize) string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
