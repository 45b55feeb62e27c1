// Package firestore provides a depository.Source for Firestore documents
// using realtime listeners. The document's fields become the subtree.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/zoobzio/depository"
)

// Source watches a Firestore document for changes using realtime listeners.
type Source struct {
	client     *firestore.Client
	collection string
	document   string
	field      string
}

// Option configures a Source.
type Option func(*Source)

// WithField emits only the named top-level field instead of the whole
// document.
func WithField(field string) Option {
	return func(s *Source) {
		s.field = field
	}
}

// New creates a Source for the given Firestore document.
func New(client *firestore.Client, collection, document string, opts ...Option) *Source {
	s := &Source{
		client:     client,
		collection: collection,
		document:   document,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the document's data as JSON on every snapshot. Nothing is
// emitted until the document exists; deleting it afterwards emits {}.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	docRef := s.client.Collection(s.collection).Doc(s.document)

	out := make(chan []byte)

	go func() {
		defer close(out)

		snapshots := docRef.Snapshots(ctx)
		defer snapshots.Stop()

		seen := false
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			var value []byte
			if snap.Exists() {
				value, err = s.encode(snap.Data())
				if err != nil {
					continue
				}
				seen = true
			} else {
				if !seen {
					continue
				}
				value = []byte("{}")
			}

			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Source) encode(data map[string]any) ([]byte, error) {
	var v any = data
	if s.field != "" {
		v = data[s.field]
	}
	value, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s/%s: %w", s.collection, s.document, err)
	}
	return value, nil
}

var _ depository.Source = (*Source)(nil)
