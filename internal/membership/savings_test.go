package membership

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSavings(t *testing.T) {
	tests := []struct {
		tier       Tier
		amount     string
		percentage int
	}{
		{TierBasic, "9.89", 17},
		{TierPremium, "19.89", 17},
		{TierVIP, "49.89", 17},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			s, err := CalculateSavings(tt.tier)
			require.NoError(t, err)
			assert.True(t, s.Amount.Equal(decimal.RequireFromString(tt.amount)), "amount = %s", s.Amount)
			assert.Equal(t, tt.percentage, s.Percentage)
		})
	}

	_, err := CalculateSavings(Tier("gold"))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestSavingsFor(t *testing.T) {
	d := decimal.RequireFromString

	t.Run("annual priced higher is not clamped", func(t *testing.T) {
		s, err := savingsFor(TierBasic, d("10"), d("150"))
		require.NoError(t, err)
		assert.True(t, s.Amount.Equal(d("-30")), "amount = %s", s.Amount)
		assert.Equal(t, -25, s.Percentage)
	})

	t.Run("no discount", func(t *testing.T) {
		s, err := savingsFor(TierBasic, d("10"), d("120"))
		require.NoError(t, err)
		assert.True(t, s.Amount.IsZero())
		assert.Equal(t, 0, s.Percentage)
	})

	t.Run("percentage rounds half up", func(t *testing.T) {
		// 12 × 10 = 120; saving 3 is exactly 2.5%.
		s, err := savingsFor(TierBasic, d("10"), d("117"))
		require.NoError(t, err)
		assert.Equal(t, 3, s.Percentage)
	})

	t.Run("zero monthly price", func(t *testing.T) {
		_, err := savingsFor(TierPremium, decimal.Zero, d("10"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDivisionByZero)

		var dz *DivisionByZeroError
		require.ErrorAs(t, err, &dz)
		assert.Equal(t, TierPremium, dz.Tier)
	})
}

func TestEffectiveMonthlyRate(t *testing.T) {
	twelve := decimal.NewFromInt(12)
	for _, tier := range ListTiers() {
		t.Run(string(tier), func(t *testing.T) {
			monthly, err := PriceFor(tier, CycleMonthly)
			require.NoError(t, err)
			rate, err := EffectiveMonthlyRate(tier, CycleMonthly)
			require.NoError(t, err)
			assert.True(t, rate.Equal(monthly))

			annual, err := PriceFor(tier, CycleAnnual)
			require.NoError(t, err)
			rate, err = EffectiveMonthlyRate(tier, CycleAnnual)
			require.NoError(t, err)
			assert.True(t, rate.Equal(annual.Div(twelve)), "rate = %s", rate)
			assert.True(t, rate.LessThan(monthly))
		})
	}

	rate, err := EffectiveMonthlyRate(TierBasic, CycleAnnual)
	require.NoError(t, err)
	assert.Equal(t, "4.17", rate.StringFixed(CurrencyPlaces))

	_, err = EffectiveMonthlyRate(TierBasic, BillingCycle("weekly"))
	assert.ErrorIs(t, err, ErrUnhandledCycle)
}
