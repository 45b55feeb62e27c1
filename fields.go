package depository

import "github.com/zoobzio/capitan"

// Field keys for Depository events.
var (
	// KeyStore is the ID of the Depository that emitted the event.
	KeyStore = capitan.NewStringKey("store")

	// KeyPath is the path a change was applied to.
	KeyPath = capitan.NewStringKey("path")

	// KeyTarget is the path a change was redirected to.
	KeyTarget = capitan.NewStringKey("target")

	// KeyOperation is "set" or "delete".
	KeyOperation = capitan.NewStringKey("operation")

	// KeyFilter is the name of the filter involved.
	KeyFilter = capitan.NewStringKey("filter")

	// KeyWatcher is the name of the watcher involved.
	KeyWatcher = capitan.NewStringKey("watcher")

	// KeyWatchers is the number of notifications queued by a commit.
	KeyWatchers = capitan.NewIntKey("watchers")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyState is the current state of a Feed.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyDebounce is the configured debounce duration of a Feed.
	KeyDebounce = capitan.NewDurationKey("debounce")
)
