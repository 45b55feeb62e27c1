// Package testing provides test utilities and helpers for code built on a
// depository.Depository.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/depository"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireValue fails the test immediately if the value at path is missing
// or differs from want.
func RequireValue(t *testing.T, d *depository.Depository, path string, want any) {
	t.Helper()
	got, ok := d.Get(path)
	if !ok {
		t.Fatalf("expected value at %q, got none", path)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value at %q mismatch (-want +got):\n%s", path, diff)
	}
}

// RequireAbsent fails the test immediately if anything is stored at path.
func RequireAbsent(t *testing.T, d *depository.Depository, path string) {
	t.Helper()
	if got, ok := d.Get(path); ok {
		t.Fatalf("expected nothing at %q, got %v", path, got)
	}
}

// Recorder collects the notifications delivered to its watcher.
type Recorder struct {
	mu            sync.Mutex
	notifications []depository.Notification
	watcher       *depository.Watcher
}

// NewRecorder creates a Recorder. Register it with Watch.
func NewRecorder(name string) *Recorder {
	r := &Recorder{}
	r.watcher = depository.NewWatcher(name, func(_ context.Context, n depository.Notification) {
		r.mu.Lock()
		r.notifications = append(r.notifications, n)
		r.mu.Unlock()
	})
	return r
}

// Watcher returns the handle to register with Depository.Watch.
func (r *Recorder) Watcher() *depository.Watcher {
	return r.watcher
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []depository.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]depository.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Count returns the number of notifications recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}

// Reset discards everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}

// NewTestFeed creates a sync-mode feed writing to path of d, fed from the
// returned channel.
func NewTestFeed(t *testing.T, d *depository.Depository, path string) (*depository.Feed, chan<- []byte) {
	t.Helper()
	ch := make(chan []byte, 10)
	f := d.Feed(path, depository.NewSyncChannelSource(ch)).SyncMode()
	return f, ch
}
