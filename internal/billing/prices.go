package billing

import (
	"fmt"
	"sync"

	"github.com/homwrkk/IUI/internal/membership"
	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// CentsFromDecimal converts a currency amount to Stripe's smallest unit. Sub-cent amounts are
// rejected rather than rounded.
func CentsFromDecimal(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(centsPerUnit)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", amount)
	}
	return cents.IntPart(), nil
}

type priceKey struct {
	tier  membership.Tier
	cycle membership.BillingCycle
}

// PriceRegistry maps catalog entries to the Stripe prices created for them. It is filled by
// SyncStripeCatalog and read by checkout and webhook handling.
type PriceRegistry struct {
	mu      sync.RWMutex
	prices  map[priceKey]string
	byPrice map[string]priceKey
}

func NewPriceRegistry() *PriceRegistry {
	return &PriceRegistry{
		prices:  make(map[priceKey]string),
		byPrice: make(map[string]priceKey),
	}
}

func (r *PriceRegistry) SetPrice(tier membership.Tier, cycle membership.BillingCycle, priceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := priceKey{tier: tier, cycle: cycle}
	if old, ok := r.prices[key]; ok {
		delete(r.byPrice, old)
	}
	r.prices[key] = priceID
	r.byPrice[priceID] = key
}

func (r *PriceRegistry) Price(tier membership.Tier, cycle membership.BillingCycle) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.prices[priceKey{tier: tier, cycle: cycle}]
	return id, ok
}

// Resolve finds the catalog entry a Stripe price was created for.
func (r *PriceRegistry) Resolve(priceID string) (membership.Tier, membership.BillingCycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byPrice[priceID]
	return key.tier, key.cycle, ok
}

// Complete reports whether every tier and cycle has a price.
func (r *PriceRegistry) Complete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range membership.ListTiers() {
		for _, c := range membership.BillingCycles() {
			if _, ok := r.prices[priceKey{tier: t, cycle: c}]; !ok {
				return false
			}
		}
	}
	return true
}
