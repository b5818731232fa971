package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncBalanceCheckRun is a no-op.
func (n *NoopRecorder) IncBalanceCheckRun(status string) {}

// ObserveBalanceCheckDuration is a no-op.
func (n *NoopRecorder) ObserveBalanceCheckDuration(duration time.Duration) {}

// AddBalanceCheckCandidates is a no-op.
func (n *NoopRecorder) AddBalanceCheckCandidates(count int) {}

// IncLowBalanceAlert is a no-op.
func (n *NoopRecorder) IncLowBalanceAlert(status string) {}

// IncEmailDispatch is a no-op.
func (n *NoopRecorder) IncEmailDispatch(status string) {}
