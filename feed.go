package depository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for feed processing.
const DefaultDebounce = 100 * time.Millisecond

// Feed keeps a path of a Depository in step with an external Source. Each
// emission is decoded and written with Set, so it passes through the same
// filters and reaches the same watchers as any other change. A rejected or
// failed update leaves the previous value in place.
type Feed struct {
	store          *Depository
	path           string
	source         Source
	debounce       time.Duration
	startupTimeout time.Duration
	syncMode       bool
	clock          clockz.Clock
	codec          Codec
	onStop         func(State)

	state        atomic.Int32
	applied      atomic.Bool
	lastError    atomic.Pointer[error]
	errorHistory *history[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan []byte
}

// Feed creates a Feed that writes the data emitted by source to path.
// Configure it with the chainable methods, then call Start.
//
// Example:
//
//	feed := store.Feed("flags", depository.NewFileSource("flags.yaml")).
//	    Codec(depository.YAMLCodec{}).
//	    Debounce(200 * time.Millisecond)
//
//	if err := feed.Start(ctx); err != nil {
//	    log.Printf("initial flags failed: %v", err)
//	}
func (d *Depository) Feed(path string, source Source) *Feed {
	f := &Feed{
		store:    d,
		path:     path,
		source:   source,
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
		codec:    JSONCodec{},
	}
	f.state.Store(int32(StateLoading))
	return f
}

// Debounce sets the debounce duration for change processing.
// Changes arriving within this duration are coalesced into a single update.
// Default: 100ms. Must be called before Start().
func (f *Feed) Debounce(d time.Duration) *Feed {
	f.debounce = d
	return f
}

// SyncMode enables synchronous processing for testing.
// In sync mode only the initial value is processed by Start; call Process
// for each later value. Must be called before Start().
func (f *Feed) SyncMode() *Feed {
	f.syncMode = true
	return f
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (f *Feed) Clock(clock clockz.Clock) *Feed {
	f.clock = clock
	return f
}

// Codec sets the codec for decoding source data.
// Default: JSONCodec. Must be called before Start().
func (f *Feed) Codec(codec Codec) *Feed {
	f.codec = codec
	return f
}

// StartupTimeout sets the maximum duration to wait for the initial value
// from the source. Default: no timeout. Must be called before Start().
func (f *Feed) StartupTimeout(d time.Duration) *Feed {
	f.startupTimeout = d
	return f
}

// OnStop sets a callback invoked with the final state when the feed stops
// watching. Must be called before Start().
func (f *Feed) OnStop(fn func(State)) *Feed {
	f.onStop = fn
	return f
}

// ErrorHistorySize sets the number of recent errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (f *Feed) ErrorHistorySize(n int) *Feed {
	f.errorHistory = newHistory[error](n)
	return f
}

// Path returns the path the feed writes to.
func (f *Feed) Path() string {
	return f.path
}

// State returns the current state of the feed.
func (f *Feed) State() State {
	return State(f.state.Load())
}

// LastError returns the last error encountered, or nil after a success.
func (f *Feed) LastError() error {
	ptr := f.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the errors since the last success, oldest first.
// Returns nil if error history is not enabled.
func (f *Feed) ErrorHistory() []error {
	return f.errorHistory.snapshot()
}

// Start begins watching the source. It blocks until the first value is
// processed (success or failure), then continues watching asynchronously.
// If the initial value fails, Start returns the error but keeps watching.
//
// Start can only be called once. Later calls return ErrFeedStarted.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrFeedStarted
	}
	f.started = true
	f.mu.Unlock()

	capitan.Emit(ctx, FeedStarted,
		KeyStore.Field(f.store.id),
		KeyPath.Field(f.path),
		KeyDebounce.Field(f.debounce),
	)

	changes, err := f.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}

	startupCtx := ctx
	if f.startupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = f.clock.WithTimeout(ctx, f.startupTimeout)
		defer cancel()
	}

	var initialErr error
	select {
	case <-startupCtx.Done():
		if f.startupTimeout > 0 && errors.Is(startupCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("startup timeout: source did not emit initial value within %v", f.startupTimeout)
		}
		return startupCtx.Err()
	case raw, ok := <-changes:
		if !ok {
			return fmt.Errorf("source closed before emitting initial value")
		}
		f.received(ctx)
		initialErr = f.process(ctx, raw)
	}

	if f.syncMode {
		f.changes = changes
		return initialErr
	}

	go f.watch(ctx, changes)

	return initialErr
}

// Process reads and processes the next value from the source.
// Only available in sync mode. Returns false if no value is available or the
// channel is closed.
func (f *Feed) Process(ctx context.Context) bool {
	if !f.syncMode {
		return false
	}

	select {
	case raw, ok := <-f.changes:
		if !ok {
			return false
		}
		f.received(ctx)
		_ = f.process(ctx, raw) //nolint:errcheck // Errors stored via fail
		return true
	default:
		return false
	}
}

func (f *Feed) received(ctx context.Context) {
	capitan.Emit(ctx, FeedChangeReceived,
		KeyStore.Field(f.store.id),
		KeyPath.Field(f.path),
	)
	f.store.metrics.OnChangeReceived()
}

// process decodes raw and writes it to the store.
func (f *Feed) process(ctx context.Context, raw []byte) error {
	start := f.clock.Now()
	oldState := f.State()

	value, err := f.codec.Decode(raw)
	if err != nil {
		f.fail(ctx, oldState, err)
		capitan.Emit(ctx, FeedDecodeFailed,
			KeyStore.Field(f.store.id),
			KeyPath.Field(f.path),
			KeyError.Field(err.Error()),
		)
		f.store.metrics.OnProcessFailure("decode", f.clock.Since(start))
		return fmt.Errorf("decode failed: %w", err)
	}

	ok, err := f.store.Set(ctx, f.path, value)
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s", ErrRejected, f.path)
	}
	if err != nil {
		f.fail(ctx, oldState, err)
		capitan.Emit(ctx, FeedApplyFailed,
			KeyStore.Field(f.store.id),
			KeyPath.Field(f.path),
			KeyError.Field(err.Error()),
		)
		f.store.metrics.OnProcessFailure("apply", f.clock.Since(start))
		return fmt.Errorf("apply failed: %w", err)
	}

	f.applied.Store(true)
	f.lastError.Store(nil)
	f.errorHistory.reset()
	f.transitionState(ctx, oldState, StateHealthy)
	capitan.Emit(ctx, FeedApplySucceeded,
		KeyStore.Field(f.store.id),
		KeyPath.Field(f.path),
	)
	f.store.metrics.OnProcessSuccess(f.clock.Since(start))

	return nil
}

func (f *Feed) fail(ctx context.Context, oldState State, err error) {
	e := err
	f.lastError.Store(&e)
	f.errorHistory.add(err)
	f.transitionState(ctx, oldState, f.failureState())
}

// failureState is Empty until the first successful apply, Degraded after.
func (f *Feed) failureState() State {
	if !f.applied.Load() {
		return StateEmpty
	}
	return StateDegraded
}

func (f *Feed) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	f.state.Store(int32(newState))
	capitan.Emit(ctx, FeedStateChanged,
		KeyStore.Field(f.store.id),
		KeyPath.Field(f.path),
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	f.store.metrics.OnStateChange(oldState, newState)
}

// watch processes changes from the source with debouncing.
func (f *Feed) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		final := f.State()
		capitan.Emit(ctx, FeedStopped,
			KeyStore.Field(f.store.id),
			KeyPath.Field(f.path),
			KeyState.Field(final.String()),
		)
		if f.onStop != nil {
			f.onStop(final)
		}
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = f.process(ctx, pending) //nolint:errcheck // Errors stored via fail
				}
				return
			}

			f.received(ctx)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = f.clock.NewTimer(f.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(f.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = f.process(ctx, pending) //nolint:errcheck // Errors stored via fail
				hasPending = false
			}
		}
	}
}
