// Package nats provides a depository.Source for a NATS KV bucket using the
// native Watch API. Each key is a dot path, so the watched keys assemble into
// one subtree.
package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/zoobzio/depository"
)

// Source watches the keys of a NATS KV bucket that match a pattern.
type Source struct {
	kv      jetstream.KeyValue
	pattern string
	trim    string
}

// Option configures a Source.
type Option func(*Source)

// WithTrimPrefix removes prefix from every key before it becomes a path.
func WithTrimPrefix(prefix string) Option {
	return func(s *Source) {
		s.trim = prefix
	}
}

// New creates a Source for the keys matching pattern, such as "app.>".
// Use ">" to watch the whole bucket.
func New(kv jetstream.KeyValue, pattern string, opts ...Option) *Source {
	s := &Source{
		kv:      kv,
		pattern: pattern,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the matching keys as a JSON document once the initial values
// have been replayed, then again on every put, delete or purge.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := s.kv.Watch(ctx, s.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", s.pattern, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Stop() //nolint:errcheck // Best effort on shutdown

		entries := make(map[string][]byte)
		replayed := false

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values
				if entry == nil {
					replayed = true
				} else {
					key := strings.TrimPrefix(entry.Key(), s.trim)
					switch entry.Operation() {
					case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
						delete(entries, key)
					default:
						entries[key] = entry.Value()
					}
					if !replayed {
						continue
					}
				}

				data, err := depository.MarshalFlat(entries, ".")
				if err != nil {
					continue
				}
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var _ depository.Source = (*Source)(nil)
