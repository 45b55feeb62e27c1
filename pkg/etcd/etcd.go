// Package etcd provides a depository.Source for an etcd key prefix using the
// native Watch API. Keys below the prefix become paths split on "/".
package etcd

import (
	"context"
	"fmt"
	"strings"

	"github.com/zoobzio/depository"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Source watches every key under an etcd prefix.
type Source struct {
	client *clientv3.Client
	prefix string
}

// Option configures a Source.
type Option func(*Source)

// New creates a Source for the keys under prefix, such as "/app/".
func New(client *clientv3.Client, prefix string, opts ...Option) *Source {
	s := &Source{
		client: client,
		prefix: prefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the prefix as a JSON document immediately, then again after
// every watch response that carries events. Deleted keys drop out of the
// next document.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	initial, rev, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		watchChan := s.client.Watch(ctx, s.prefix, clientv3.WithPrefix(), clientv3.WithRev(rev+1))

		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-watchChan:
				if !ok {
					return
				}
				if resp.Err() != nil || len(resp.Events) == 0 {
					continue
				}

				data, _, err := s.snapshot(ctx)
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

func (s *Source) snapshot(ctx context.Context) ([]byte, int64, error) {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get %s: %w", s.prefix, err)
	}

	flat := make(map[string][]byte, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		flat[strings.TrimPrefix(string(kv.Key), s.prefix)] = kv.Value
	}
	data, err := depository.MarshalFlat(flat, "/")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build tree from %s: %w", s.prefix, err)
	}
	return data, resp.Header.Revision, nil
}

var _ depository.Source = (*Source)(nil)
