package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/homwrkk/IUI/internal/temporal/activities"
)

type MembershipEventWorkflowInput struct {
	Event subscription.Event
}

type MembershipEventWorkflowOutput struct {
	EventID     string
	EventType   string
	ProcessedAt time.Time
}

// WorkflowID keys the workflow on the Stripe event id so redelivered webhooks start at most one
// execution.
func WorkflowID(eventID string) string {
	return "membership-event-" + eventID
}

func MembershipEventWorkflow(ctx workflow.Context, input MembershipEventWorkflowInput) (*MembershipEventWorkflowOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting membership event workflow",
		"eventID", input.Event.ID,
		"eventType", input.Event.Type)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	activityCtx := workflow.WithActivityOptions(ctx, activityOptions)

	err := workflow.ExecuteActivity(activityCtx, activities.ProcessMembershipEventName, activities.ProcessMembershipEventInput{
		Event: input.Event,
	}).Get(activityCtx, nil)
	if err != nil {
		logger.Error("Membership event processing failed", "eventID", input.Event.ID, "error", err)
		return nil, fmt.Errorf("processing event %s failed: %w", input.Event.ID, err)
	}

	logger.Info("Membership event processed", "eventID", input.Event.ID)
	return &MembershipEventWorkflowOutput{
		EventID:     input.Event.ID,
		EventType:   input.Event.Type,
		ProcessedAt: workflow.Now(ctx),
	}, nil
}
