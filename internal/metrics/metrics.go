// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Balance scanner metrics
	IncBalanceCheckRun(status string) // status: "completed", "failed", "locked"
	ObserveBalanceCheckDuration(duration time.Duration)
	AddBalanceCheckCandidates(n int)
	IncLowBalanceAlert(status string) // status: "sent", "failed"

	// Dispatcher metrics
	IncEmailDispatch(status string) // status: "sent", "failed", "rejected"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
