// Package zookeeper provides a depository.Source for the children of a
// ZooKeeper node using the native Watch API. Each child's name is a key and
// its data is the value, so a node with children reads as one subtree.
package zookeeper

import (
	"context"
	"errors"
	"sync"

	"github.com/go-zookeeper/zk"
	"github.com/zoobzio/depository"
)

// Source watches the children of a ZooKeeper node.
type Source struct {
	conn *zk.Conn
	path string
}

// Option configures a Source.
type Option func(*Source)

// New creates a Source for the children of the node at path.
func New(conn *zk.Conn, path string, opts ...Option) *Source {
	s := &Source{
		conn: conn,
		path: path,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the children as a JSON document immediately, then again when a
// child is added, removed or rewritten. If the parent does not exist yet the
// first document is delayed until it is created.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		for {
			data, events, err := s.snapshot()
			if errors.Is(err, zk.ErrNoNode) {
				exists, _, created, err := s.conn.ExistsW(s.path)
				if err != nil {
					return
				}
				if !exists {
					select {
					case <-ctx.Done():
						return
					case <-created:
					}
				}
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			select {
			case out <- data:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-events:
			}
		}
	}()

	return out, nil
}

// snapshot reads the children with watches set on the child list and on each
// child. The returned channel fires on the first of those events.
func (s *Source) snapshot() ([]byte, <-chan struct{}, error) {
	names, _, childEvents, err := s.conn.ChildrenW(s.path)
	if err != nil {
		return nil, nil, err
	}

	watches := []<-chan zk.Event{childEvents}
	flat := make(map[string][]byte, len(names))
	for _, name := range names {
		data, _, ev, err := s.conn.GetW(s.path + "/" + name)
		if errors.Is(err, zk.ErrNoNode) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		flat[name] = data
		watches = append(watches, ev)
	}

	data, err := depository.MarshalFlat(flat, "/")
	if err != nil {
		return nil, nil, err
	}
	return data, fanIn(watches), nil
}

func fanIn(watches []<-chan zk.Event) <-chan struct{} {
	fired := make(chan struct{})
	var once sync.Once
	for _, w := range watches {
		go func(w <-chan zk.Event) {
			if _, ok := <-w; ok {
				once.Do(func() { close(fired) })
			}
		}(w)
	}
	return fired
}

var _ depository.Source = (*Source)(nil)
