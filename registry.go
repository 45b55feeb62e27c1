package depository

import "slices"

// handlerNode is one level of a path's ancestor chain that has handlers.
type handlerNode struct {
	key      string
	suffix   string
	depth    int
	filters  []*Filter
	watchers []*Watcher
}

// registry maps exact paths to their filters and watchers.
type registry struct {
	filters  map[string][]*Filter
	watchers map[string][]*Watcher
}

func newRegistry() *registry {
	return &registry{
		filters:  make(map[string][]*Filter),
		watchers: make(map[string][]*Watcher),
	}
}

func (r *registry) addFilter(path string, f *Filter) {
	r.filters[path] = append(r.filters[path], f)
}

func (r *registry) watch(path string, w *Watcher) {
	r.watchers[path] = append(r.watchers[path], w)
}

func (r *registry) removeFilter(path string, f *Filter) {
	r.filters[path] = removeAll(r.filters[path], f)
	if len(r.filters[path]) == 0 {
		delete(r.filters, path)
	}
}

func (r *registry) removeWatcher(path string, w *Watcher) {
	r.watchers[path] = removeAll(r.watchers[path], w)
	if len(r.watchers[path]) == 0 {
		delete(r.watchers, path)
	}
}

// handlerNodes returns the handler levels for segs, least specific first.
// The slices are copies, so later registrations do not affect them.
func (r *registry) handlerNodes(segs []string) []handlerNode {
	var nodes []handlerNode
	for i := 0; i <= len(segs); i++ {
		key := ancestorKey(segs, i)
		filters, watchers := r.filters[key], r.watchers[key]
		if len(filters) == 0 && len(watchers) == 0 {
			continue
		}
		nodes = append(nodes, handlerNode{
			key:      key,
			suffix:   suffixKey(segs, i),
			depth:    i,
			filters:  slices.Clone(filters),
			watchers: slices.Clone(watchers),
		})
	}
	return nodes
}

func removeAll[T comparable](list []T, target T) []T {
	return slices.DeleteFunc(list, func(v T) bool { return v == target })
}
