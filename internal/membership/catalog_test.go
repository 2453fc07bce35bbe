package membership

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition(t *testing.T) {
	for _, tier := range ListTiers() {
		t.Run(string(tier), func(t *testing.T) {
			def, err := Definition(tier)
			require.NoError(t, err)
			assert.Equal(t, tier, def.Name)
			assert.NotEmpty(t, def.DisplayName)
			assert.NotEmpty(t, def.Description)
			assert.NotEmpty(t, def.Benefits)
			assert.NotEmpty(t, def.Color)
			assert.True(t, def.Price.Monthly.IsPositive())
			assert.True(t, def.Price.Annual.IsPositive())
		})
	}

	t.Run("unknown tier", func(t *testing.T) {
		_, err := Definition(Tier("gold"))
		assert.ErrorIs(t, err, ErrUnknownTier)
	})

	t.Run("callers cannot mutate the catalog", func(t *testing.T) {
		def, err := Definition(TierPremium)
		require.NoError(t, err)
		def.Benefits[0] = "tampered"
		def.DisplayName = "tampered"

		again, err := Definition(TierPremium)
		require.NoError(t, err)
		assert.Equal(t, "Everything in Basic", again.Benefits[0])
		assert.Equal(t, "Premium", again.DisplayName)
	})
}

func TestPriceFor(t *testing.T) {
	tests := []struct {
		tier    Tier
		monthly string
		annual  string
	}{
		{TierBasic, "4.99", "49.99"},
		{TierPremium, "9.99", "99.99"},
		{TierVIP, "24.99", "249.99"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			monthly, err := PriceFor(tt.tier, CycleMonthly)
			require.NoError(t, err)
			assert.True(t, monthly.Equal(decimal.RequireFromString(tt.monthly)), "monthly = %s", monthly)

			annual, err := PriceFor(tt.tier, CycleAnnual)
			require.NoError(t, err)
			assert.True(t, annual.Equal(decimal.RequireFromString(tt.annual)), "annual = %s", annual)
		})
	}

	_, err := PriceFor(TierBasic, BillingCycle("weekly"))
	assert.ErrorIs(t, err, ErrUnhandledCycle)

	_, err = PriceFor(Tier("gold"), CycleMonthly)
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestProjections(t *testing.T) {
	name, err := DisplayName(TierVIP)
	require.NoError(t, err)
	assert.Equal(t, "VIP", name)

	desc, err := Description(TierBasic)
	require.NoError(t, err)
	assert.Equal(t, MustDefinition(TierBasic).Description, desc)

	benefits, err := Benefits(TierPremium)
	require.NoError(t, err)
	assert.Equal(t, "Everything in Basic", benefits[0])
	assert.Equal(t, MustDefinition(TierPremium).Benefits, benefits)

	vip, err := Benefits(TierVIP)
	require.NoError(t, err)
	assert.Equal(t, "Everything in Premium", vip[0])

	_, err = DisplayName(Tier("gold"))
	assert.ErrorIs(t, err, ErrUnknownTier)
	_, err = Description(Tier("gold"))
	assert.ErrorIs(t, err, ErrUnknownTier)
	_, err = Benefits(Tier("gold"))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestMustDefinitionPanicsOnUnknownTier(t *testing.T) {
	assert.Panics(t, func() { MustDefinition(Tier("gold")) })
}

func TestAccessorsAreIdempotent(t *testing.T) {
	for _, tier := range ListTiers() {
		first, err := Definition(tier)
		require.NoError(t, err)
		second, err := Definition(tier)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		s1, err := CalculateSavings(tier)
		require.NoError(t, err)
		s2, err := CalculateSavings(tier)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	}
}

func TestValidateCatalog(t *testing.T) {
	require.NoError(t, validateCatalog(catalog))

	t.Run("missing tier", func(t *testing.T) {
		defs := map[Tier]TierDefinition{
			TierBasic:   catalog[TierBasic],
			TierPremium: catalog[TierPremium],
		}
		assert.ErrorContains(t, validateCatalog(defs), "3")
	})

	t.Run("mismatched name", func(t *testing.T) {
		defs := map[Tier]TierDefinition{
			TierBasic:   catalog[TierBasic],
			TierPremium: catalog[TierBasic],
			TierVIP:     catalog[TierVIP],
		}
		assert.ErrorContains(t, validateCatalog(defs), "named")
	})

	t.Run("unknown key", func(t *testing.T) {
		defs := map[Tier]TierDefinition{
			TierBasic:   catalog[TierBasic],
			TierPremium: catalog[TierPremium],
			"gold":      catalog[TierVIP],
		}
		assert.ErrorContains(t, validateCatalog(defs), "missing tier")
	})
}

func TestConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tier := range ListTiers() {
				_, _ = Definition(tier)
				_, _ = Benefits(tier)
				_, _ = CalculateSavings(tier)
				_, _ = EffectiveMonthlyRate(tier, CycleAnnual)
				_, _ = NextTier(tier)
			}
		}()
	}
	wg.Wait()
}
