// Package postgres provides a depository.Source for a PostgreSQL key/value
// table using LISTEN/NOTIFY. Keys are dot paths, so the whole table reads as
// one subtree.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/depository"
)

// Source watches a PostgreSQL key/value table using LISTEN/NOTIFY.
// Requires a trigger on the table that notifies the channel on every write:
//
//	CREATE OR REPLACE FUNCTION notify_config_change() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('config_changed', COALESCE(NEW.key, OLD.key));
//	    RETURN NULL;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER config_change_trigger
//	    AFTER INSERT OR UPDATE OR DELETE ON config
//	    FOR EACH ROW EXECUTE FUNCTION notify_config_change();
type Source struct {
	pool    *pgxpool.Pool
	channel string
	table   string
}

// Option configures a Source.
type Option func(*Source)

// WithTable sets the table to read key/value rows from.
// Defaults to "config".
func WithTable(table string) Option {
	return func(s *Source) {
		s.table = table
	}
}

// New creates a Source that refetches the table whenever channel is notified.
// The channel should match the one used in pg_notify.
func New(pool *pgxpool.Pool, channel string, opts ...Option) *Source {
	s := &Source{
		pool:    pool,
		channel: channel,
		table:   "config",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the table as a JSON document immediately, then again after
// each notification.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize())
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", s.channel, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

		initial, err := s.snapshot(ctx)
		if err != nil {
			return
		}
		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
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
	}()

	return out, nil
}

func (s *Source) snapshot(ctx context.Context) ([]byte, error) {
	query := fmt.Sprintf("SELECT key, value FROM %s", pgx.Identifier{s.table}.Sanitize())
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}

	flat := make(map[string][]byte)
	var (
		key   string
		value []byte
	)
	_, err = pgx.ForEachRow(rows, []any{&key, &value}, func() error {
		flat[key] = value
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
	}
	return depository.MarshalFlat(flat, ".")
}

var _ depository.Source = (*Source)(nil)
