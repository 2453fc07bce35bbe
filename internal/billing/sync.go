package billing

import (
	"context"
	"fmt"

	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/membership"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v84"
)

// SyncStripeCatalog makes sure Stripe has one product per tier and one recurring price per
// billing cycle matching the catalog amounts, then records the ids in the price registry.
// Existing objects are matched by metadata; a price whose amount no longer matches the catalog is
// left alone and a new one is created.
func (b *Billing) SyncStripeCatalog(ctx context.Context) error {
	products, err := b.listActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	prices, err := b.listActivePrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list prices: %w", err)
	}

	for _, tier := range membership.ListTiers() {
		if err := b.syncTier(ctx, tier, products, prices); err != nil {
			return fmt.Errorf("failed to sync tier %s: %w", tier, err)
		}
	}

	return nil
}

func (b *Billing) listActiveProducts(ctx context.Context) ([]*stripe.Product, error) {
	var products []*stripe.Product
	for p, err := range b.sc.V1Products.List(ctx, &stripe.ProductListParams{Active: stripe.Bool(true)}) {
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (b *Billing) listActivePrices(ctx context.Context) ([]*stripe.Price, error) {
	var prices []*stripe.Price
	for p, err := range b.sc.V1Prices.List(ctx, &stripe.PriceListParams{Active: stripe.Bool(true)}) {
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func (b *Billing) syncTier(ctx context.Context, tier membership.Tier, products []*stripe.Product, prices []*stripe.Price) error {
	def, err := membership.Definition(tier)
	if err != nil {
		return err
	}

	productID := findProduct(products, tier)
	if productID == "" {
		productID, err = b.createProduct(ctx, def)
		if err != nil {
			return err
		}
	}

	for _, cycle := range membership.BillingCycles() {
		amount, err := membership.PriceFor(tier, cycle)
		if err != nil {
			return err
		}
		cents, err := CentsFromDecimal(amount)
		if err != nil {
			return fmt.Errorf("%s price: %w", cycle, err)
		}

		priceID := findPrice(prices, productID, cycle, cents)
		if priceID == "" {
			priceID, err = b.createPrice(ctx, tier, cycle, productID, cents)
			if err != nil {
				return err
			}
		}
		b.prices.SetPrice(tier, cycle, priceID)

		log.Info().
			Str("tier", string(tier)).
			Str("billing_cycle", string(cycle)).
			Str("product_id", productID).
			Str("price_id", priceID).
			Int64("unit_amount", cents).
			Msg("Stripe price synced")
	}

	return nil
}

func findProduct(products []*stripe.Product, tier membership.Tier) string {
	for _, p := range products {
		if p.Metadata[config.StripeMetadataTier] == string(tier) {
			return p.ID
		}
	}
	return ""
}

func findPrice(prices []*stripe.Price, productID string, cycle membership.BillingCycle, cents int64) string {
	for _, p := range prices {
		if p.Product == nil || p.Product.ID != productID {
			continue
		}
		if p.Metadata[config.StripeMetadataBillingCycle] != string(cycle) {
			continue
		}
		if p.UnitAmount != cents || p.Currency != stripe.Currency(membership.Currency) {
			continue
		}
		if p.Recurring == nil || p.Recurring.Interval != recurringInterval(cycle) {
			continue
		}
		return p.ID
	}
	return ""
}

func recurringInterval(cycle membership.BillingCycle) stripe.PriceRecurringInterval {
	if cycle == membership.CycleAnnual {
		return stripe.PriceRecurringIntervalYear
	}
	return stripe.PriceRecurringIntervalMonth
}

func (b *Billing) createProduct(ctx context.Context, def membership.TierDefinition) (string, error) {
	params := &stripe.ProductCreateParams{
		Name:        stripe.String(fmt.Sprintf("%s Membership", def.DisplayName)),
		Description: stripe.String(def.Description),
		Metadata: map[string]string{
			config.StripeMetadataTier: string(def.Name),
		},
	}
	product, err := b.sc.V1Products.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	log.Info().Str("tier", string(def.Name)).Str("product_id", product.ID).Msg("Stripe product created")
	return product.ID, nil
}

func (b *Billing) createPrice(ctx context.Context, tier membership.Tier, cycle membership.BillingCycle, productID string, cents int64) (string, error) {
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(membership.Currency),
		UnitAmount: stripe.Int64(cents),
		Recurring: &stripe.PriceCreateRecurringParams{
			Interval: stripe.String(string(recurringInterval(cycle))),
		},
		Metadata: map[string]string{
			config.StripeMetadataTier:         string(tier),
			config.StripeMetadataBillingCycle: string(cycle),
		},
	}
	price, err := b.sc.V1Prices.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create %s price: %w", cycle, err)
	}
	return price.ID, nil
}
