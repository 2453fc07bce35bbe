package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/subscription"
)

const ProcessMembershipEventName = "ProcessMembershipEvent"

// EventProcessor applies a verified webhook event to membership state.
type EventProcessor interface {
	Process(ctx context.Context, event subscription.Event) error
}

type Activities struct {
	processor EventProcessor
}

func NewActivities(processor EventProcessor) *Activities {
	return &Activities{processor: processor}
}

type ProcessMembershipEventInput struct {
	Event subscription.Event
}

// ProcessMembershipEvent runs the processor for one event. Catalog validation failures are
// returned as non-retryable since redelivering the same payload cannot fix them.
func (a *Activities) ProcessMembershipEvent(ctx context.Context, input ProcessMembershipEventInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Processing membership event",
		"eventID", input.Event.ID,
		"eventType", input.Event.Type,
		"attempt", activity.GetInfo(ctx).Attempt)

	err := a.processor.Process(ctx, input.Event)
	if err == nil {
		return nil
	}

	if errors.Is(err, membership.ErrUnknownTier) || errors.Is(err, membership.ErrUnhandledCycle) {
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidCatalogEntry", err)
	}
	return err
}
