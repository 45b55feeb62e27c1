// Package redis provides a depository.Source for a Redis hash using
// keyspace notifications. Hash fields are dot paths, so one hash holds a
// whole subtree.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/depository"
)

// Source watches a Redis hash for changes using keyspace notifications.
// Requires Redis to have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
//
// Or in redis.conf:
//
//	notify-keyspace-events KEA
type Source struct {
	client *redis.Client
	key    string
	db     int
}

// Option configures a Source.
type Option func(*Source)

// WithDB sets the database number used in the keyspace channel. Defaults to 0.
func WithDB(db int) Option {
	return func(s *Source) {
		s.db = db
	}
}

// New creates a Source for the hash stored at key.
func New(client *redis.Client, key string, opts ...Option) *Source {
	s := &Source{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the hash as a JSON document immediately, then again after any
// command that writes or removes it. A missing hash emits {}.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	channel := fmt.Sprintf("__keyspace@%d__:%s", s.db, s.key)
	pubsub := s.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		initial, err := s.snapshot(ctx)
		if err != nil {
			return
		}
		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				switch msg.Payload {
				case "hset", "hdel", "hincrby", "hincrbyfloat", "del", "expired", "rename_to":
				default:
					continue
				}

				data, err := s.snapshot(ctx)
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

func (s *Source) snapshot(ctx context.Context) ([]byte, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash %s: %w", s.key, err)
	}

	flat := make(map[string][]byte, len(fields))
	for k, v := range fields {
		flat[k] = []byte(v)
	}
	return depository.MarshalFlat(flat, ".")
}

var _ depository.Source = (*Source)(nil)
