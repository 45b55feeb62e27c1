package depository

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on store and feed events.
type MetricsProvider interface {
	// OnCommit is called when a change is written to the tree.
	OnCommit(path string, deleted bool)

	// OnReject is called when a filter rejects a change to path.
	OnReject(path string)

	// OnRedirect is called when a filter redirects a change.
	OnRedirect(from, to string)

	// OnNotify is called after a watcher registered at key has run.
	OnNotify(key string)

	// OnStateChange is called when a feed transitions between states.
	OnStateChange(from, to State)

	// OnProcessSuccess is called when a feed has applied a change.
	OnProcessSuccess(duration time.Duration)

	// OnProcessFailure is called when a feed fails to apply a change.
	// Stage is "decode" or "apply".
	OnProcessFailure(stage string, duration time.Duration)

	// OnChangeReceived is called when a feed receives raw data from its source.
	OnChangeReceived()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnCommit(_ string, _ bool)                  {}
func (NoOpMetricsProvider) OnReject(_ string)                          {}
func (NoOpMetricsProvider) OnRedirect(_, _ string)                     {}
func (NoOpMetricsProvider) OnNotify(_ string)                          {}
func (NoOpMetricsProvider) OnStateChange(_, _ State)                   {}
func (NoOpMetricsProvider) OnProcessSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnProcessFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnChangeReceived()                          {}
