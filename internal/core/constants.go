package core

import "time"

// Full sync paging
const (
	// FullSyncPageSize is the fixed page size used when walking the remote
	// bookmark list with offset paging.
	FullSyncPageSize = 50
)

// Creation readiness polling
const (
	// DefaultPollInterval is the wait between readiness probes after a
	// remote-side bookmark creation.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxPollAttempts caps the number of probes; past the ceiling
	// the poller stops silently and a manual refresh picks the record up.
	DefaultMaxPollAttempts = 30
)

// Article content handling
const (
	// DefaultResourceTimeout is the per-image fetch timeout while inlining.
	DefaultResourceTimeout = 10 * time.Second
	// MaxInlineImageSize bounds images converted to data URIs. 2MB
	MaxInlineImageSize = 2 * 1024 * 1024
)

// Page snapshot defaults
const (
	// DefaultSnapshotTimeout is the per-page deadline for navigation,
	// rendering, and capture.
	DefaultSnapshotTimeout = 35 * time.Second
	// snapshotSettleDelay lets late JS run after network idle before the
	// DOM is captured.
	snapshotSettleDelay = 500 * time.Millisecond
)
