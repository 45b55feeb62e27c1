// Package depository provides an in-memory tree of values addressed by dot
// paths, with filters that guard changes and watchers that observe them.
//
// The core type is Depository. Values are JSON-like: maps keyed by string,
// []any and scalars. Every value going in or coming out is deep-copied, so
// callers never share memory with the tree.
//
// # Paths
//
// A path is a sequence of segments joined by ".", such as "services.api.port".
// A segment of digits indexes an array. The single path "." addresses the
// whole tree. Writing below a missing node creates it: a map when the next
// segment is a name, an array when it is an index.
//
//	store := depository.New()
//	store.Set(ctx, "services.api.hosts.0", "10.0.0.1")
//	hosts, _ := store.Get("services.api.hosts") // []any{"10.0.0.1"}
//
// # Filters
//
// A filter registered at a path sees every change at or below it, before the
// change is written. Filters run least specific first, and in registration
// order at the same path. Each returns a FilterResult:
//
//   - Allow: pass the change to the next filter
//   - Reject: abort the change
//   - Override: replace the pending value, optionally at another path
//   - DeleteOverride: turn the change into a delete, or a delete into a set
//
// An override that names another path redirects the change there; the filters
// of the new path run from the level below the redirecting filter.
// Expression filters can be built from expr-lang source with NewExprFilter.
//
// # Watchers
//
// A watcher registered at a path is notified after every committed change at
// or below it, with a copy of its own node. Notifications are delivered in
// commit order on a background goroutine, after the call that caused them
// has returned. SyncMode and Flush make delivery deterministic in tests.
//
// # Tetchy mode
//
// By default a rejected change returns (false, nil). With SetTetchy(true) it
// returns a *RejectError naming the filter and the context it was given.
//
// # Feeds
//
// A Feed binds a Source, such as a file or channel, to a path. Each emission
// is decoded and written with Set, so external data passes the same filters
// and reaches the same watchers as local changes. A Feed tracks one of four
// states:
//
//   - Loading: no data yet
//   - Healthy: the last emission was applied
//   - Degraded: the last emission failed, the previous value is kept
//   - Empty: the initial emission failed
//
// # Example
//
//	store := depository.New()
//
//	limit, _ := depository.NewExprFilter("rollout", `delete_key || provided_value <= 100`)
//	store.AddFilter("flags.rollout", limit)
//
//	store.Watch("flags", depository.NewWatcher("log", func(ctx context.Context, n depository.Notification) {
//	    log.Printf("%s changed: %v", n.ProvidedKey, n.Value)
//	}))
//
//	feed := store.Feed("flags", depository.NewFileSource("flags.yaml")).
//	    Codec(depository.YAMLCodec{})
//	if err := feed.Start(ctx); err != nil {
//	    log.Printf("initial flags failed: %v", err)
//	}
package depository
