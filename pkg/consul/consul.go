// Package consul provides a depository.Source for a Consul KV prefix using
// blocking queries. Keys below the prefix become paths split on "/", so a
// whole folder of keys feeds one subtree of a Depository.
package consul

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/zoobzio/depository"
)

// Source watches every key under a Consul KV prefix.
type Source struct {
	client     *api.Client
	prefix     string
	datacenter string
}

// Option configures a Source.
type Option func(*Source)

// WithDatacenter queries the given datacenter instead of the agent's own.
func WithDatacenter(dc string) Option {
	return func(s *Source) {
		s.datacenter = dc
	}
}

// New creates a Source for the keys under prefix, such as "service/flags/".
func New(client *api.Client, prefix string, opts ...Option) *Source {
	s := &Source{
		client: client,
		prefix: prefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the prefix as a JSON document immediately, then again each
// time any key under it changes. An empty prefix emits {}.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	kv := s.client.KV()

	pairs, meta, err := kv.List(s.prefix, s.queryOptions(ctx, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.prefix, err)
	}
	initial, err := s.snapshot(pairs)
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

		lastIndex := meta.LastIndex
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			pairs, meta, err := kv.List(s.prefix, s.queryOptions(ctx, lastIndex))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			// A lower index means the raft log was reset; start over.
			if meta.LastIndex < lastIndex {
				lastIndex = 0
				continue
			}
			if meta.LastIndex == lastIndex {
				continue
			}
			lastIndex = meta.LastIndex

			data, err := s.snapshot(pairs)
			if err != nil {
				continue
			}
			select {
			case out <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Source) queryOptions(ctx context.Context, waitIndex uint64) *api.QueryOptions {
	opts := &api.QueryOptions{
		Datacenter: s.datacenter,
		WaitIndex:  waitIndex,
	}
	return opts.WithContext(ctx)
}

func (s *Source) snapshot(pairs api.KVPairs) ([]byte, error) {
	flat := make(map[string][]byte, len(pairs))
	for _, p := range pairs {
		flat[strings.TrimPrefix(p.Key, s.prefix)] = p.Value
	}
	data, err := depository.MarshalFlat(flat, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to build tree from %s: %w", s.prefix, err)
	}
	return data, nil
}

var _ depository.Source = (*Source)(nil)
