package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	BalanceChecksCompleted uint64
	BalanceChecksFailed    uint64
	BalanceChecksLocked    uint64

	BalanceCheckDurationCount   uint64
	BalanceCheckDurationTotalNs int64
	BalanceCheckCandidates      uint64

	LowBalanceAlertsSent   uint64
	LowBalanceAlertsFailed uint64

	EmailsSent     uint64
	EmailsFailed   uint64
	EmailsRejected uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is used directly in tests.
type InMemoryRecorder struct {
	balanceChecksCompleted uint64
	balanceChecksFailed    uint64
	balanceChecksLocked    uint64

	balanceCheckDurationCount   uint64
	balanceCheckDurationTotalNs int64
	balanceCheckCandidates      uint64

	lowBalanceAlertsSent   uint64
	lowBalanceAlertsFailed uint64

	emailsSent     uint64
	emailsFailed   uint64
	emailsRejected uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		BalanceChecksCompleted:      atomic.LoadUint64(&m.balanceChecksCompleted),
		BalanceChecksFailed:         atomic.LoadUint64(&m.balanceChecksFailed),
		BalanceChecksLocked:         atomic.LoadUint64(&m.balanceChecksLocked),
		BalanceCheckDurationCount:   atomic.LoadUint64(&m.balanceCheckDurationCount),
		BalanceCheckDurationTotalNs: atomic.LoadInt64(&m.balanceCheckDurationTotalNs),
		BalanceCheckCandidates:      atomic.LoadUint64(&m.balanceCheckCandidates),
		LowBalanceAlertsSent:        atomic.LoadUint64(&m.lowBalanceAlertsSent),
		LowBalanceAlertsFailed:      atomic.LoadUint64(&m.lowBalanceAlertsFailed),
		EmailsSent:                  atomic.LoadUint64(&m.emailsSent),
		EmailsFailed:                atomic.LoadUint64(&m.emailsFailed),
		EmailsRejected:              atomic.LoadUint64(&m.emailsRejected),
	}
}

// IncBalanceCheckRun increments the run counter for status.
func (m *InMemoryRecorder) IncBalanceCheckRun(status string) {
	switch status {
	case "completed":
		atomic.AddUint64(&m.balanceChecksCompleted, 1)
	case "failed":
		atomic.AddUint64(&m.balanceChecksFailed, 1)
	case "locked":
		atomic.AddUint64(&m.balanceChecksLocked, 1)
	}
}

// ObserveBalanceCheckDuration records how long a run took.
func (m *InMemoryRecorder) ObserveBalanceCheckDuration(duration time.Duration) {
	atomic.AddUint64(&m.balanceCheckDurationCount, 1)
	atomic.AddInt64(&m.balanceCheckDurationTotalNs, duration.Nanoseconds())
}

// AddBalanceCheckCandidates adds to the candidate counter.
func (m *InMemoryRecorder) AddBalanceCheckCandidates(n int) {
	if n > 0 {
		atomic.AddUint64(&m.balanceCheckCandidates, uint64(n))
	}
}

// IncLowBalanceAlert increments the alert counter for status.
func (m *InMemoryRecorder) IncLowBalanceAlert(status string) {
	switch status {
	case "sent":
		atomic.AddUint64(&m.lowBalanceAlertsSent, 1)
	case "failed":
		atomic.AddUint64(&m.lowBalanceAlertsFailed, 1)
	}
}

// IncEmailDispatch increments the dispatcher counter for status.
func (m *InMemoryRecorder) IncEmailDispatch(status string) {
	switch status {
	case "sent":
		atomic.AddUint64(&m.emailsSent, 1)
	case "failed":
		atomic.AddUint64(&m.emailsFailed, 1)
	case "rejected":
		atomic.AddUint64(&m.emailsRejected, 1)
	}
}
