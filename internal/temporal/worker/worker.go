package worker

import (
	activity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/temporal/activities"
	"github.com/homwrkk/IUI/internal/temporal/workflows"
)

// Worker wraps a Temporal worker
type Worker struct {
	temporalWorker worker.Worker
	taskQueue      string
}

// NewWorker creates a worker that runs membership event workflows on taskQueue.
func NewWorker(temporalClient client.Client, taskQueue string, acts *activities.Activities) *Worker {
	w := worker.New(temporalClient, taskQueue, worker.Options{})
	Register(w, acts)

	logger.Log.Info("temporal worker created", "task_queue", taskQueue)

	return &Worker{
		temporalWorker: w,
		taskQueue:      taskQueue,
	}
}

// Registry is the subset of worker.Worker used for registration, also satisfied by the test suite
// environment.
type Registry interface {
	RegisterWorkflow(w interface{})
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

func Register(r Registry, acts *activities.Activities) {
	r.RegisterWorkflow(workflows.MembershipEventWorkflow)
	r.RegisterActivityWithOptions(acts.ProcessMembershipEvent, activity.RegisterOptions{
		Name: activities.ProcessMembershipEventName,
	})
}

// Run blocks until interruptCh is closed or receives.
func (w *Worker) Run(interruptCh <-chan interface{}) error {
	logger.Log.Info("running temporal worker", "task_queue", w.taskQueue)
	return w.temporalWorker.Run(interruptCh)
}
