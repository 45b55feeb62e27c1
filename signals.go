package depository

import "github.com/zoobzio/capitan"

// Change pipeline signals.
var (
	// ChangeCommitted is emitted when a set or delete is written to the tree.
	ChangeCommitted = capitan.NewSignal(
		"depository.change.committed",
		"Change committed to the tree",
	)

	// ChangeRejected is emitted when a filter rejects a change.
	ChangeRejected = capitan.NewSignal(
		"depository.change.rejected",
		"Change rejected by filter",
	)

	// ChangeRedirected is emitted when a filter redirects a change to another path.
	ChangeRedirected = capitan.NewSignal(
		"depository.change.redirected",
		"Change redirected by filter",
	)

	// ChangeConflicted is emitted when a write cannot descend through an existing value.
	ChangeConflicted = capitan.NewSignal(
		"depository.change.conflicted",
		"Change conflicts with existing value",
	)

	// FilterFailed is emitted when an expression filter cannot be evaluated.
	FilterFailed = capitan.NewSignal(
		"depository.filter.failed",
		"Filter evaluation failed",
	)

	// WatcherPanicked is emitted when a watcher panics while handling a notification.
	WatcherPanicked = capitan.NewSignal(
		"depository.watcher.panicked",
		"Watcher panicked",
	)
)

// Feed lifecycle signals.
var (
	// FeedStarted is emitted when a Feed begins watching its source.
	FeedStarted = capitan.NewSignal(
		"depository.feed.started",
		"Feed watching started",
	)

	// FeedStopped is emitted when a Feed stops watching its source.
	FeedStopped = capitan.NewSignal(
		"depository.feed.stopped",
		"Feed watching stopped",
	)

	// FeedStateChanged is emitted when a Feed transitions between states.
	FeedStateChanged = capitan.NewSignal(
		"depository.feed.state.changed",
		"Feed state transition",
	)

	// FeedChangeReceived is emitted when raw data is received from the source.
	FeedChangeReceived = capitan.NewSignal(
		"depository.feed.change.received",
		"Raw change received from source",
	)

	// FeedDecodeFailed is emitted when raw data cannot be decoded.
	FeedDecodeFailed = capitan.NewSignal(
		"depository.feed.decode.failed",
		"Decoding source data failed",
	)

	// FeedApplyFailed is emitted when decoded data is rejected or cannot be stored.
	FeedApplyFailed = capitan.NewSignal(
		"depository.feed.apply.failed",
		"Applying source data failed",
	)

	// FeedApplySucceeded is emitted when decoded data is stored.
	FeedApplySucceeded = capitan.NewSignal(
		"depository.feed.apply.succeeded",
		"Source data applied successfully",
	)
)
