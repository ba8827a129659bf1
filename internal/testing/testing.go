// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Event is one call recorded by [RecordingNotifier].
type Event struct {
	Kind  string
	Value any
}

// RecordingNotifier is a test double for the playback and download notifiers.
// It records every event in order and is safe for concurrent use.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
	signal chan struct{}
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{signal: make(chan struct{}, 1)}
}

func (n *RecordingNotifier) record(kind string, value any) {
	n.mu.Lock()
	n.events = append(n.events, Event{Kind: kind, Value: value})
	n.mu.Unlock()

	select {
	case n.signal <- struct{}{}:
	default:
	}
}

func (n *RecordingNotifier) SetSlider(duration float64) { n.record("set_slider", duration) }
func (n *RecordingNotifier) SongPosition(pos float64) { n.record("song_pos", pos) }
func (n *RecordingNotifier) UpdateImage(path string) { n.record("update_image", path) }
func (n *RecordingNotifier) SongNotFound(name string) { n.record("song_not_found", name) }
func (n *RecordingNotifier) ResetGUI() { n.record("reset_gui", nil) }
func (n *RecordingNotifier) AreWe(reply string) { n.record("are_we", reply) }
func (n *RecordingNotifier) Normalize() { n.record("normalize", nil) }
func (n *RecordingNotifier) DataInfo(text string) { n.record("data_info", text) }
func (n *RecordingNotifier) Controls(action string) { n.record("controls", action) }
func (n *RecordingNotifier) FileDownloaded(ok bool, path, reason string) {
	n.record("file_is_downloaded", Download{OK: ok, Path: path, Reason: reason})
}

// Download is the recorded value of a file_is_downloaded event.
type Download struct {
	OK     bool
	Path   string
	Reason string
}

// Events returns a copy of everything recorded so far.
func (n *RecordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Event, len(n.events))
	copy(out, n.events)
	return out
}

// Kinds returns the recorded event kinds in order.
func (n *RecordingNotifier) Kinds() []string {
	events := n.Events()
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Count returns how many events of kind were recorded.
func (n *RecordingNotifier) Count(kind string) int {
	count := 0
	for _, e := range n.Events() {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

// Last returns the most recent event of kind.
func (n *RecordingNotifier) Last(kind string) (Event, bool) {
	events := n.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i], true
		}
	}
	return Event{}, false
}

// Reset discards recorded events.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	n.events = nil
	n.mu.Unlock()
}

// WaitFor blocks until an event of kind has been recorded or the timeout passes.
func (n *RecordingNotifier) WaitFor(kind string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if n.Count(kind) > 0 {
			return true
		}
		select {
		case <-n.signal:
		case <-deadline:
			return n.Count(kind) > 0
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper returns a canned HTTP response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// MustWriteFile writes content to path, creating parent directories, and returns path.
func MustWriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %v: %s", timeout, msg)
	}
}
