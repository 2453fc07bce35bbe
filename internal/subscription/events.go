package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/stripe/stripe-go/v84"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is the serialisable subset of a verified webhook event.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventFromStripe copies the fields the processor needs out of a verified Stripe event.
func EventFromStripe(e *stripe.Event) Event {
	var data json.RawMessage
	if e.Data != nil {
		data = e.Data.Raw
	}
	return Event{ID: e.ID, Type: string(e.Type), Data: data}
}

// Handles reports whether the processor acts on events of this type.
func Handles(eventType string) bool {
	switch eventType {
	case EventCheckoutCompleted, EventInvoicePaid, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// Store is the persistence the processor writes membership changes to.
type Store interface {
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.User, error)
	UpdateMembership(ctx context.Context, stripeCustomerID string, change models.MembershipChange) error
	ResetBillingPeriod(ctx context.Context, stripeCustomerID string, periodStart, periodEnd time.Time) error
	SetCancelAtPeriodEnd(ctx context.Context, stripeCustomerID string, cancel bool) error
	ClearMembership(ctx context.Context, stripeCustomerID string) error
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Transactor runs fn against a Store whose writes commit together when fn returns nil and are
// discarded otherwise.
type Transactor func(ctx context.Context, fn func(ctx context.Context, store Store) error) error

// TxFunc adapts a repository method that hands fn a transaction-bound copy of the repository.
func TxFunc[S Store](runInTx func(ctx context.Context, fn func(ctx context.Context, repo S) error) error) Transactor {
	return func(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
		return runInTx(ctx, func(ctx context.Context, repo S) error {
			return fn(ctx, repo)
		})
	}
}

// PriceResolver maps a Stripe price back to a catalog entry.
type PriceResolver interface {
	Resolve(priceID string) (membership.Tier, membership.BillingCycle, bool)
}

type EventProcessor struct {
	transact Transactor
	gateway  Gateway
	prices   PriceResolver
}

func NewEventProcessor(transact Transactor, gateway Gateway, prices PriceResolver) *EventProcessor {
	return &EventProcessor{transact: transact, gateway: gateway, prices: prices}
}

// Process applies an event once. The event id is recorded in the same transaction as the
// membership writes, so a failed or interrupted apply leaves nothing behind and the next delivery
// retries it.
func (p *EventProcessor) Process(ctx context.Context, event Event) error {
	if !Handles(event.Type) {
		return nil
	}

	return p.transact(ctx, func(ctx context.Context, store Store) error {
		fresh, err := store.MarkEventProcessed(ctx, event.ID, event.Type)
		if err != nil {
			return fmt.Errorf("failed to record event %s: %w", event.ID, err)
		}
		if !fresh {
			logger.Log.Info("skipping duplicate webhook event", "event_id", event.ID, "event_type", event.Type)
			return nil
		}
		return p.apply(ctx, store, event)
	})
}

func (p *EventProcessor) apply(ctx context.Context, store Store, event Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return p.handleCheckoutCompleted(ctx, store, event)
	case EventInvoicePaid:
		return p.handleInvoicePaid(ctx, store, event)
	case EventSubscriptionUpdated:
		return p.handleSubscriptionUpdated(ctx, store, event)
	case EventSubscriptionDeleted:
		return p.handleSubscriptionDeleted(ctx, store, event)
	}
	return nil
}

func (p *EventProcessor) handleCheckoutCompleted(ctx context.Context, store Store, event Event) error {
	session, err := parseEventData[checkoutSession](event)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if session.Subscription == "" {
		return nil
	}

	sub, err := p.gateway.GetSubscription(ctx, session.Subscription)
	if err != nil {
		return fmt.Errorf("failed to retrieve subscription %s: %w", session.Subscription, err)
	}

	tier, cycle, err := p.catalogEntry(sub)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", session.Subscription, err)
	}

	periodStart, periodEnd, err := subscriptionPeriod(sub)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", session.Subscription, err)
	}

	usr, err := store.GetByStripeCustomerID(ctx, session.Customer)
	if err != nil {
		return fmt.Errorf("failed to find user for customer %s: %w", session.Customer, err)
	}
	if usr.HasMembership() {
		if current, err := membership.ParseTier(*usr.MembershipTier); err != nil || !membership.IsValidUpgrade(current, tier) {
			logger.Log.Warn("recording paid membership that is not an upgrade",
				"customer", session.Customer, "from", *usr.MembershipTier, "to", tier)
		}
	}

	// The replaced subscription must be gone before the new one is recorded, otherwise the
	// member keeps paying for both.
	if previousSub := deref(usr.StripeSubscriptionID); previousSub != "" && previousSub != session.Subscription {
		if err := p.cancelReplaced(ctx, previousSub); err != nil {
			return fmt.Errorf("failed to cancel replaced subscription %s for customer %s: %w", previousSub, session.Customer, err)
		}
	}

	change := models.MembershipChange{
		Tier:                 string(tier),
		BillingCycle:         string(cycle),
		StripeSubscriptionID: session.Subscription,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
	}
	if err := store.UpdateMembership(ctx, session.Customer, change); err != nil {
		return fmt.Errorf("failed to update membership for customer %s: %w", session.Customer, err)
	}

	logger.Log.Info("membership started",
		"customer", session.Customer, "tier", tier, "billing_cycle", cycle, "subscription", session.Subscription)
	return nil
}

// cancelReplaced ends a superseded subscription immediately. A retried event finds it already
// canceled and moves on.
func (p *EventProcessor) cancelReplaced(ctx context.Context, subscriptionID string) error {
	sub, err := p.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status == stripe.SubscriptionStatusCanceled {
		return nil
	}
	if _, err := p.gateway.CancelSubscriptionNow(ctx, subscriptionID); err != nil {
		return err
	}
	logger.Log.Info("cancelled replaced subscription", "subscription", subscriptionID)
	return nil
}

func (p *EventProcessor) handleInvoicePaid(ctx context.Context, store Store, event Event) error {
	invoice, err := parseEventData[invoiceEvent](event)
	if err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	subscriptionID := invoice.subscriptionID()
	if subscriptionID == "" || invoice.BillingReason == "subscription_create" {
		return nil
	}

	current, err := currentSubscriber(ctx, store, invoice.Customer, subscriptionID)
	if err != nil || current == nil {
		return err
	}

	sub, err := p.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}

	periodStart, periodEnd, err := subscriptionPeriod(sub)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", subscriptionID, err)
	}

	if err := store.ResetBillingPeriod(ctx, invoice.Customer, periodStart, periodEnd); err != nil {
		return fmt.Errorf("failed to reset billing period for customer %s: %w", invoice.Customer, err)
	}

	logger.Log.Info("membership renewed", "customer", invoice.Customer, "period_start", periodStart, "period_end", periodEnd)
	return nil
}

func (p *EventProcessor) handleSubscriptionUpdated(ctx context.Context, store Store, event Event) error {
	sub, err := parseEventData[subscriptionEvent](event)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	current, err := currentSubscriber(ctx, store, sub.Customer, sub.ID)
	if err != nil || current == nil {
		return err
	}

	if err := store.SetCancelAtPeriodEnd(ctx, sub.Customer, sub.CancelAtPeriodEnd); err != nil {
		return fmt.Errorf("failed to update cancellation for customer %s: %w", sub.Customer, err)
	}
	return nil
}

func (p *EventProcessor) handleSubscriptionDeleted(ctx context.Context, store Store, event Event) error {
	sub, err := parseEventData[subscriptionEvent](event)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	current, err := currentSubscriber(ctx, store, sub.Customer, sub.ID)
	if err != nil || current == nil {
		return err
	}

	if err := store.ClearMembership(ctx, sub.Customer); err != nil {
		return fmt.Errorf("failed to clear membership for customer %s: %w", sub.Customer, err)
	}

	logger.Log.Info("membership ended", "customer", sub.Customer, "subscription", sub.ID)
	return nil
}

// currentSubscriber returns the customer's user when subscriptionID is their active
// subscription, or nil when the event is about one they have since replaced.
func currentSubscriber(ctx context.Context, store Store, customerID, subscriptionID string) (*models.User, error) {
	usr, err := store.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for customer %s: %w", customerID, err)
	}
	if deref(usr.StripeSubscriptionID) != subscriptionID {
		logger.Log.Info("ignoring event for replaced subscription", "customer", customerID, "subscription", subscriptionID)
		return nil, nil
	}
	return usr, nil
}

// catalogEntry reads tier and cycle from subscription metadata, falling back to the price
// registry. Both paths validate against the catalog.
func (p *EventProcessor) catalogEntry(sub *stripe.Subscription) (membership.Tier, membership.BillingCycle, error) {
	rawTier := sub.Metadata[config.StripeMetadataTier]
	rawCycle := sub.Metadata[config.StripeMetadataBillingCycle]
	if rawTier != "" && rawCycle != "" {
		tier, err := membership.ParseTier(rawTier)
		if err != nil {
			return "", "", err
		}
		cycle, err := membership.ParseBillingCycle(rawCycle)
		if err != nil {
			return "", "", err
		}
		return tier, cycle, nil
	}

	if p.prices != nil && sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		if tier, cycle, ok := p.prices.Resolve(sub.Items.Data[0].Price.ID); ok {
			return tier, cycle, nil
		}
	}
	return "", "", errors.New("no tier metadata and unknown price")
}

func subscriptionPeriod(sub *stripe.Subscription) (time.Time, time.Time, error) {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no subscription items found")
	}
	item := sub.Items.Data[0]
	return time.Unix(item.CurrentPeriodStart, 0).UTC(), time.Unix(item.CurrentPeriodEnd, 0).UTC(), nil
}

func parseEventData[T any](event Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type checkoutSession struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type invoiceEvent struct {
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	BillingReason string `json:"billing_reason"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID handles both the legacy top-level field and the newer parent details.
func (i *invoiceEvent) subscriptionID() string {
	if i.Subscription != "" {
		return i.Subscription
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return i.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

type subscriptionEvent struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}
