package depository

import "sync"

// history keeps the last limit values added to it. A nil history keeps
// nothing, which is how a Feed without error history is represented.
type history[T any] struct {
	mu     sync.Mutex
	limit  int
	values []T
}

func newHistory[T any](limit int) *history[T] {
	if limit <= 0 {
		return nil
	}
	return &history[T]{limit: limit, values: make([]T, 0, limit)}
}

func (h *history[T]) add(v T) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.values) == h.limit {
		n := copy(h.values, h.values[1:])
		h.values = h.values[:n]
	}
	h.values = append(h.values, v)
}

func (h *history[T]) reset() {
	if h == nil {
		return
	}
	h.mu.Lock()
	clear(h.values)
	h.values = h.values[:0]
	h.mu.Unlock()
}

// snapshot returns a copy of the values, oldest first, or nil when empty.
func (h *history[T]) snapshot() []T {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.values) == 0 {
		return nil
	}
	return append([]T(nil), h.values...)
}
