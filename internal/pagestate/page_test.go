package pagestate

import (
	"testing"
	"time"

	"github.com/homwrkk/IUI/internal/membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownTier(t *testing.T) {
	_, err := New("gold", time.Second)
	assert.ErrorIs(t, err, membership.ErrUnknownTier)

	p, err := New("", time.Second)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, membership.CycleMonthly, p.View().BillingCycle)
}

func TestSelectTier(t *testing.T) {
	t.Run("non-member can pick any tier", func(t *testing.T) {
		p, err := New("", time.Minute)
		require.NoError(t, err)
		defer p.Close()

		require.NoError(t, p.SelectTier("basic"))
		v := p.View()
		assert.True(t, v.ModalOpen)
		assert.Equal(t, membership.TierBasic, v.SelectedTier)
		assert.Empty(t, v.Toasts)
	})

	t.Run("upgrade opens the modal", func(t *testing.T) {
		p, err := New("premium", time.Minute)
		require.NoError(t, err)
		defer p.Close()

		require.NoError(t, p.SelectTier("VIP"))
		assert.True(t, p.View().ModalOpen)
	})

	for _, target := range []string{"premium", "basic"} {
		t.Run("rejects "+target+" from premium", func(t *testing.T) {
			p, err := New("premium", time.Minute)
			require.NoError(t, err)
			defer p.Close()

			assert.ErrorIs(t, p.SelectTier(target), ErrNotAnUpgrade)
			v := p.View()
			assert.False(t, v.ModalOpen)
			assert.Empty(t, v.SelectedTier)
			require.Len(t, v.Toasts, 1)
			assert.Equal(t, ToastError, v.Toasts[0].Kind)
			assert.Equal(t, "You are already a Premium member", v.Toasts[0].Message)
		})
	}

	t.Run("unknown tier", func(t *testing.T) {
		p, err := New("", time.Minute)
		require.NoError(t, err)
		defer p.Close()

		assert.ErrorIs(t, p.SelectTier("gold"), membership.ErrUnknownTier)
		assert.False(t, p.View().ModalOpen)
		assert.Len(t, p.Toasts(), 1)
	})
}

func TestSetCycleAndCloseModal(t *testing.T) {
	p, err := New("", time.Minute)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SetCycle("annual"))
	assert.ErrorIs(t, p.SetCycle("weekly"), membership.ErrUnhandledCycle)
	assert.Equal(t, membership.CycleAnnual, p.View().BillingCycle)

	require.NoError(t, p.SelectTier("vip"))
	p.CloseModal()
	v := p.View()
	assert.False(t, v.ModalOpen)
	assert.Empty(t, v.SelectedTier)
	assert.Equal(t, membership.CycleAnnual, v.BillingCycle)
}

func TestCompletePayment(t *testing.T) {
	p, err := New("basic", time.Minute)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.CompletePayment()
	assert.ErrorIs(t, err, ErrNoSelection)

	require.NoError(t, p.SelectTier("premium"))
	tier, err := p.CompletePayment()
	require.NoError(t, err)
	assert.Equal(t, membership.TierPremium, tier)

	v := p.View()
	assert.Equal(t, membership.TierPremium, v.CurrentTier)
	assert.False(t, v.ModalOpen)
	require.Len(t, v.Toasts, 1)
	assert.Equal(t, ToastSuccess, v.Toasts[0].Kind)
	assert.Equal(t, "Welcome to Premium!", v.Toasts[0].Message)

	assert.ErrorIs(t, p.SelectTier("premium"), ErrNotAnUpgrade)
}

func TestToastsExpire(t *testing.T) {
	p, err := New("", 20*time.Millisecond)
	require.NoError(t, err)
	defer p.Close()

	id := p.Notify(ToastInfo, "Saved")
	require.NotEmpty(t, id)
	assert.Len(t, p.Toasts(), 1)

	assert.Eventually(t, func() bool { return len(p.Toasts()) == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, p.Dismiss(id))
}

func TestDismiss(t *testing.T) {
	p, err := New("", time.Minute)
	require.NoError(t, err)
	defer p.Close()

	first := p.Notify(ToastInfo, "one")
	second := p.Notify(ToastInfo, "two")
	assert.NotEqual(t, first, second)

	assert.True(t, p.Dismiss(first))
	toasts := p.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "two", toasts[0].Message)
}

func TestToastsReturnsCopy(t *testing.T) {
	p, err := New("", time.Minute)
	require.NoError(t, err)
	defer p.Close()

	p.Notify(ToastInfo, "original")
	toasts := p.Toasts()
	toasts[0].Message = "mutated"
	assert.Equal(t, "original", p.Toasts()[0].Message)
}

func TestCloseStopsTimers(t *testing.T) {
	p, err := New("", 50*time.Millisecond)
	require.NoError(t, err)

	p.Notify(ToastInfo, "kept")
	p.Close()
	assert.Empty(t, p.Notify(ToastInfo, "refused"))

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, p.Toasts(), 1)
}
