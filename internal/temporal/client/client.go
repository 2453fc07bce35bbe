package client

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/homwrkk/IUI/internal/temporal/workflows"
)

func NewClient(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    logger.NewTemporalLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}

// WorkflowStarter is the part of client.Client the dispatcher needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// EventDispatcher hands verified webhook events to MembershipEventWorkflow.
type EventDispatcher struct {
	starter   WorkflowStarter
	taskQueue string
}

func NewEventDispatcher(starter WorkflowStarter, taskQueue string) *EventDispatcher {
	return &EventDispatcher{starter: starter, taskQueue: taskQueue}
}

// Dispatch starts one workflow per event id. A redelivery while the workflow runs or after it
// completed is a no-op; a redelivery after it failed starts a fresh run.
func (d *EventDispatcher) Dispatch(ctx context.Context, event subscription.Event) error {
	options := client.StartWorkflowOptions{
		ID:                    workflows.WorkflowID(event.ID),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}

	run, err := d.starter.ExecuteWorkflow(ctx, options, workflows.MembershipEventWorkflow, workflows.MembershipEventWorkflowInput{
		Event: event,
	})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			logger.Log.Info("membership event workflow already exists", "event_id", event.ID)
			return nil
		}
		return fmt.Errorf("failed to start workflow for event %s: %w", event.ID, err)
	}

	logger.Log.Info("membership event workflow started",
		"event_id", event.ID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
