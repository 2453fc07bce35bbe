package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/homwrkk/IUI/internal/temporal/activities"
	"github.com/homwrkk/IUI/internal/temporal/workflows"
)

type countingProcessor struct {
	calls int
}

func (p *countingProcessor) Process(ctx context.Context, event subscription.Event) error {
	p.calls++
	return nil
}

func TestRegisterWiresWorkflowAndActivity(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	p := &countingProcessor{}
	Register(env, activities.NewActivities(p))

	env.ExecuteWorkflow(workflows.MembershipEventWorkflow, workflows.MembershipEventWorkflowInput{
		Event: subscription.Event{ID: "evt_1", Type: subscription.EventInvoicePaid},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, 1, p.calls)
}
