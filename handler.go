package depository

import "context"

// FilterContext describes a pending change as seen from one handler path.
type FilterContext struct {
	// ProvidedKey is the path being changed.
	ProvidedKey string

	// ProvidedValue is the pending value, after earlier overrides.
	ProvidedValue any

	// Key is the absolute path the filter is registered at.
	Key string

	// KeySuffix is ProvidedKey relative to Key, or "." when they are equal.
	KeySuffix string

	// CurrentValue is a copy of the node at Key before the change.
	CurrentValue any

	// ProposedValue is what the node at Key would hold after the change.
	ProposedValue any

	// DeleteKey is set when the change deletes ProvidedKey.
	DeleteKey bool
}

// env exposes the context under the field names used by expression filters.
func (fc FilterContext) env() map[string]any {
	return map[string]any{
		"provided_key":   fc.ProvidedKey,
		"provided_value": fc.ProvidedValue,
		"key":            fc.Key,
		"key_suffix":     fc.KeySuffix,
		"current_value":  fc.CurrentValue,
		"proposed_value": fc.ProposedValue,
		"delete_key":     fc.DeleteKey,
	}
}

// FilterFunc inspects a pending change and decides what happens to it.
// Filters run synchronously while the store is locked and must not call
// back into the Depository.
type FilterFunc func(ctx context.Context, fc FilterContext) FilterResult

// Filter is a registered filter. Its pointer is its identity: RemoveFilter
// removes the exact handle that was added.
type Filter struct {
	name string
	fn   FilterFunc
}

// NewFilter creates a named filter handle.
func NewFilter(name string, fn FilterFunc) *Filter {
	return &Filter{name: name, fn: fn}
}

// Name returns the name the filter was created with.
func (f *Filter) Name() string { return f.name }

// Notification is the snapshot handed to a watcher after a commit.
type Notification struct {
	// ProvidedKey is the path that was changed.
	ProvidedKey string

	// ProvidedValue is the value that was committed, nil for deletes.
	ProvidedValue any

	// Key is the absolute path the watcher is registered at.
	Key string

	// KeySuffix is ProvidedKey relative to Key, or "." when they are equal.
	KeySuffix string

	// Value is a copy of the node at Key right after the commit.
	Value any
}

// WatchFunc receives a notification after a change has been committed.
type WatchFunc func(ctx context.Context, n Notification)

// Watcher is a registered watcher. Its pointer is its identity.
type Watcher struct {
	name string
	fn   WatchFunc
}

// NewWatcher creates a named watcher handle.
func NewWatcher(name string, fn WatchFunc) *Watcher {
	return &Watcher{name: name, fn: fn}
}

// Name returns the name the watcher was created with.
func (w *Watcher) Name() string { return w.name }
