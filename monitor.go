package paralleljob

import (
	"context"
	"time"

	"github.com/xraph/paralleljob/ext"
	"github.com/xraph/paralleljob/id"
	"github.com/xraph/paralleljob/job"
)

// extMonitor bridges job.Monitor notifications to the extension registry.
// The job package stays free of an ext dependency this way.
//
// Monitor callbacks originate on worker goroutines with no request
// context, so hooks receive context.Background().
type extMonitor struct {
	registry *ext.Registry
}

var _ job.Monitor = (*extMonitor)(nil)

func (m *extMonitor) WorkerStarted(jobID id.JobID, active int) {
	m.registry.EmitWorkerStarted(context.Background(), jobID, active)
}

func (m *extMonitor) WorkerRetired(jobID id.JobID, active int) {
	m.registry.EmitWorkerRetired(context.Background(), jobID, active)
}

func (m *extMonitor) ConcurrencyIncreased(jobID id.JobID, posted int) {
	m.registry.EmitConcurrencyIncreased(context.Background(), jobID, posted)
}

func (m *extMonitor) JobCanceled(jobID id.JobID) {
	m.registry.EmitJobCanceled(context.Background(), jobID)
}

func (m *extMonitor) JobCompleted(jobID id.JobID, elapsed time.Duration) {
	m.registry.EmitJobCompleted(context.Background(), jobID, elapsed)
}
