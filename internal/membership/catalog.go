// Package membership holds the membership tier catalog and the billing arithmetic derived from it.
// The catalog is built once at package init and never mutated; every function here is a pure read
// and is safe for concurrent use.
package membership

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the unit every catalog price is expressed in.
const Currency = "usd"

// Price holds the configured amount for each billing cycle.
type Price struct {
	Monthly decimal.Decimal
	Annual  decimal.Decimal
}

// TierDefinition describes a tier for display and billing.
type TierDefinition struct {
	Name        Tier
	DisplayName string
	Description string
	Price       Price
	Benefits    []string
	// Color is a UI token passed through untouched.
	Color string
}

var catalog = map[Tier]TierDefinition{
	TierBasic: {
		Name:        TierBasic,
		DisplayName: "Basic",
		Description: "Support the community and unlock member perks",
		Price: Price{
			Monthly: decimal.RequireFromString("4.99"),
			Annual:  decimal.RequireFromString("49.99"),
		},
		Benefits: []string{
			"Ad-free browsing",
			"Member badge on your profile",
			"Access to member-only posts",
			"Monthly member newsletter",
			"Early access to announcements",
		},
		Color: "blue",
	},
	TierPremium: {
		Name:        TierPremium,
		DisplayName: "Premium",
		Description: "More content, more access, faster help",
		Price: Price{
			Monthly: decimal.RequireFromString("9.99"),
			Annual:  decimal.RequireFromString("99.99"),
		},
		Benefits: []string{
			"Everything in Basic",
			"Exclusive premium content",
			"Priority support",
			"Monthly community Q&A sessions",
			"Premium role in community chat",
		},
		Color: "purple",
	},
	TierVIP: {
		Name:        TierVIP,
		DisplayName: "VIP",
		Description: "The complete experience for our biggest supporters",
		Price: Price{
			Monthly: decimal.RequireFromString("24.99"),
			Annual:  decimal.RequireFromString("249.99"),
		},
		Benefits: []string{
			"Everything in Premium",
			"Monthly 1-on-1 call",
			"Behind-the-scenes content",
			"Your name in the credits",
			"Discounts on exclusive merchandise",
		},
		Color: "gold",
	},
}

func init() {
	if err := validateCatalog(catalog); err != nil {
		panic(err)
	}
}

// validateCatalog checks that defs has exactly one well-formed entry per tier.
func validateCatalog(defs map[Tier]TierDefinition) error {
	if len(defs) != len(tierOrder) {
		return fmt.Errorf("catalog has %d entries, want %d", len(defs), len(tierOrder))
	}
	for _, t := range tierOrder {
		def, ok := defs[t]
		if !ok {
			return fmt.Errorf("catalog is missing tier %q", t)
		}
		if def.Name != t {
			return fmt.Errorf("catalog entry %q is named %q", t, def.Name)
		}
		if def.Price.Monthly.IsNegative() || def.Price.Annual.IsNegative() {
			return fmt.Errorf("catalog entry %q has a negative price", t)
		}
	}
	return nil
}

// Definition returns the catalog entry for t. The returned value is a copy.
func Definition(t Tier) (TierDefinition, error) {
	def, ok := catalog[t]
	if !ok {
		return TierDefinition{}, &UnknownTierError{Value: string(t)}
	}
	def.Benefits = append([]string(nil), def.Benefits...)
	return def, nil
}

// MustDefinition is Definition for tier constants known at compile time.
func MustDefinition(t Tier) TierDefinition {
	def, err := Definition(t)
	if err != nil {
		panic(err)
	}
	return def
}

// PriceFor returns the configured price of t for cycle c.
func PriceFor(t Tier, c BillingCycle) (decimal.Decimal, error) {
	def, ok := catalog[t]
	if !ok {
		return decimal.Decimal{}, &UnknownTierError{Value: string(t)}
	}
	switch c {
	case CycleMonthly:
		return def.Price.Monthly, nil
	case CycleAnnual:
		return def.Price.Annual, nil
	}
	return decimal.Decimal{}, &UnhandledCycleError{Value: string(c)}
}

func DisplayName(t Tier) (string, error) {
	def, ok := catalog[t]
	if !ok {
		return "", &UnknownTierError{Value: string(t)}
	}
	return def.DisplayName, nil
}

func Description(t Tier) (string, error) {
	def, ok := catalog[t]
	if !ok {
		return "", &UnknownTierError{Value: string(t)}
	}
	return def.Description, nil
}

// Benefits returns the benefit list of t in declared order.
func Benefits(t Tier) ([]string, error) {
	def, ok := catalog[t]
	if !ok {
		return nil, &UnknownTierError{Value: string(t)}
	}
	return append([]string(nil), def.Benefits...), nil
}
