package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/membership"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

var ErrPriceNotSynced = errors.New("stripe price not synced")

type Billing struct {
	sc            *stripe.Client
	webhookSecret string
	prices        *PriceRegistry
}

func NewBilling(cfg *config.Config) *Billing {
	return &Billing{
		sc:            stripe.NewClient(cfg.StripeSecretKey),
		webhookSecret: cfg.StripeWebhookSecret,
		prices:        NewPriceRegistry(),
	}
}

func (b *Billing) Prices() *PriceRegistry {
	return b.prices
}

func (b *Billing) CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{config.StripeMetadataUserID: userID},
	}
	return b.sc.V1Customers.Create(ctx, params)
}

// CreateSubscriptionCheckout starts a hosted checkout for tier billed every cycle. The tier and
// cycle are stamped on the subscription metadata so webhooks can map it back to the catalog.
func (b *Billing) CreateSubscriptionCheckout(ctx context.Context, customerID string, tier membership.Tier, cycle membership.BillingCycle, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	priceID, ok := b.prices.Price(tier, cycle)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPriceNotSynced, tier, cycle)
	}

	metadata := map[string]string{
		config.StripeMetadataTier:         string(tier),
		config.StripeMetadataBillingCycle: string(cycle),
	}
	params := &stripe.CheckoutSessionCreateParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata:   metadata,
	}
	return b.sc.V1CheckoutSessions.Create(ctx, params)
}

func (b *Billing) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return b.sc.V1Subscriptions.Retrieve(ctx, subscriptionID, &stripe.SubscriptionRetrieveParams{})
}

// CancelSubscription stops renewal; the membership stays active until the period ends.
func (b *Billing) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	return b.sc.V1Subscriptions.Update(ctx, subscriptionID, params)
}

func (b *Billing) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return &event, nil
}

// CancelSubscriptionNow ends a subscription immediately. Used when a member moves to a new
// subscription after an upgrade.
func (b *Billing) CancelSubscriptionNow(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return b.sc.V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{
		Prorate: stripe.Bool(true),
	})
}
