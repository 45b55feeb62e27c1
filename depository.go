package depository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Depository is an in-memory tree of values addressed by dot paths, with
// filters that can veto or rewrite changes and watchers that observe them.
//
// All methods are safe for concurrent use. Writes are serialized; filters run
// while the write lock is held and watchers run afterwards, in commit order,
// on a separate goroutine.
type Depository struct {
	id         string
	mu         sync.RWMutex
	tree       tree
	registry   *registry
	tetchy     bool
	metrics    MetricsProvider
	dispatcher *dispatcher
}

// New creates a Depository holding an empty map.
func New() *Depository {
	return NewWithRoot(map[string]any{})
}

// NewWithRoot creates a Depository holding a deep copy of root.
func NewWithRoot(root any) *Depository {
	d := &Depository{
		id:       uuid.NewString(),
		tree:     tree{root: clone(root)},
		registry: newRegistry(),
		metrics:  NoOpMetricsProvider{},
	}
	d.dispatcher = newDispatcher(d.fire)
	return d
}

// SyncMode queues watcher notifications until Flush is called instead of
// running them on a background goroutine. Intended for tests.
// Must be called before the Depository is used.
func (d *Depository) SyncMode() *Depository {
	d.dispatcher.manual = true
	return d
}

// Metrics sets a metrics provider. Must be called before the Depository is used.
func (d *Depository) Metrics(provider MetricsProvider) *Depository {
	if provider == nil {
		provider = NoOpMetricsProvider{}
	}
	d.metrics = provider
	return d
}

// ID returns the unique identifier of the Depository, used to tag events.
func (d *Depository) ID() string {
	return d.id
}

// Get returns a deep copy of the value at path. The boolean is false when
// nothing is stored there or the path is invalid.
func (d *Depository) Get(path string) (any, bool) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.read(segs)
}

// Set stores a deep copy of value at path, creating intermediate containers
// as needed. Typed slices and string-keyed maps are stored as []any and
// map[string]any. It reports whether anything was committed. A rejected
// change returns false and, in tetchy mode, a *RejectError.
func (d *Depository) Set(ctx context.Context, path string, value any) (bool, error) {
	return d.apply(ctx, change{path: path, value: value})
}

// Delete removes the value at path. Deleting the root leaves an empty map.
// Deleting a path that does not exist commits nothing and is not an error.
func (d *Depository) Delete(ctx context.Context, path string) (bool, error) {
	return d.apply(ctx, change{path: path, delete: true})
}

func (d *Depository) apply(ctx context.Context, c change) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.applyChange(ctx, c)
	d.dispatcher.enqueue(out.tasks)
	return out.committed, err
}

// update reads the node at path, derives the next value from it and sets it,
// all under one lock.
func (d *Depository) update(ctx context.Context, path string, next func(current any, found bool) (any, error)) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current, found := d.tree.read(segs)
	value, err := next(current, found)
	if err != nil {
		return false, err
	}
	out, err := d.applyChange(ctx, change{path: path, value: value})
	d.dispatcher.enqueue(out.tasks)
	return out.committed, err
}

// AddFilter registers f at path. Filters at the same path run in the order
// they were added; filters at shallower paths run first.
func (d *Depository) AddFilter(path string, f *Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry.addFilter(path, f)
}

// RemoveFilter unregisters every registration of f at path.
func (d *Depository) RemoveFilter(path string, f *Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry.removeFilter(path, f)
}

// Watch registers w at path. It is notified of every committed change at
// path or anywhere below it.
func (d *Depository) Watch(path string, w *Watcher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry.watch(path, w)
}

// RemoveWatcher unregisters every registration of w at path. Notifications
// already queued are still delivered.
func (d *Depository) RemoveWatcher(path string, w *Watcher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry.removeWatcher(path, w)
}

// SetTetchy controls whether rejected changes are returned as errors.
func (d *Depository) SetTetchy(tetchy bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tetchy = tetchy
}

// Tetchy reports whether rejected changes are returned as errors.
func (d *Depository) Tetchy() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tetchy
}

// Flush delivers queued notifications. In sync mode it runs them on the
// calling goroutine; otherwise it waits until the background dispatcher is
// idle. It must not be called from inside a watcher.
func (d *Depository) Flush() {
	d.dispatcher.flush()
}

// Pending returns the number of notifications waiting to be delivered.
func (d *Depository) Pending() int {
	return d.dispatcher.pending()
}

func (d *Depository) fire(t task) {
	defer func() {
		if r := recover(); r != nil {
			capitan.Emit(t.ctx, WatcherPanicked,
				KeyStore.Field(d.id),
				KeyPath.Field(t.n.Key),
				KeyWatcher.Field(t.watcher.Name()),
				KeyError.Field(fmt.Sprint(r)),
			)
		}
	}()
	t.watcher.fn(t.ctx, t.n)
	d.metrics.OnNotify(t.n.Key)
}
