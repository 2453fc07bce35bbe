// Package subscription connects user membership records to the tier catalog and the payment
// gateway: it reads a member's status, starts upgrade checkouts and applies webhook events.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/stripe/stripe-go/v84"
)

var (
	ErrNoCustomer     = errors.New("user has no payment customer")
	ErrNoSubscription = errors.New("user has no active subscription")
	ErrNotAnUpgrade   = errors.New("target tier is not an upgrade")
	ErrMissingURLs    = errors.New("success and cancel URLs are required")
	// ErrInvalidMembership marks persisted membership state the catalog does not recognise.
	ErrInvalidMembership = errors.New("invalid persisted membership")
)

// Gateway is the part of the payment provider the membership flows need.
type Gateway interface {
	CreateSubscriptionCheckout(ctx context.Context, customerID string, tier membership.Tier, cycle membership.BillingCycle, successURL, cancelURL string) (*stripe.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscriptionNow(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

type Service struct {
	gateway Gateway
}

func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Status is a member's validated membership state.
type Status struct {
	Active             bool
	Tier               membership.Tier
	BillingCycle       membership.BillingCycle
	Definition         membership.TierDefinition
	NextTier           membership.Tier
	UpgradeOptions     []membership.Tier
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// Status validates the persisted tier and cycle of u against the catalog. A persisted value the
// catalog does not know is returned as an error; it is never mapped to a default tier.
func (s *Service) Status(u *models.User) (Status, error) {
	if !u.HasMembership() {
		return Status{UpgradeOptions: membership.ListTiers()}, nil
	}

	tier, err := membership.ParseTier(*u.MembershipTier)
	if err != nil {
		return Status{}, fmt.Errorf("%w: user %s: %w", ErrInvalidMembership, u.ID, err)
	}

	var cycle membership.BillingCycle
	if u.BillingCycle != nil && *u.BillingCycle != "" {
		cycle, err = membership.ParseBillingCycle(*u.BillingCycle)
		if err != nil {
			return Status{}, fmt.Errorf("%w: user %s: %w", ErrInvalidMembership, u.ID, err)
		}
	}

	def, err := membership.Definition(tier)
	if err != nil {
		return Status{}, err
	}
	next, _ := membership.NextTier(tier)

	return Status{
		Active:             true,
		Tier:               tier,
		BillingCycle:       cycle,
		Definition:         def,
		NextTier:           next,
		UpgradeOptions:     membership.UpgradeOptions(tier),
		CurrentPeriodStart: u.CurrentPeriodStart,
		CurrentPeriodEnd:   u.CurrentPeriodEnd,
		CancelAtPeriodEnd:  u.CancelAtPeriodEnd,
	}, nil
}

type CheckoutRequest struct {
	Tier         string
	BillingCycle string
	SuccessURL   string
	CancelURL    string
}

// StartCheckout opens a payment session for the requested tier. Members may only move to a
// strictly higher tier.
func (s *Service) StartCheckout(ctx context.Context, u *models.User, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	tier, err := membership.ParseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	cycle, err := membership.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		return nil, err
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return nil, ErrMissingURLs
	}
	if u.StripeCustomerID == nil || *u.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	status, err := s.Status(u)
	if err != nil {
		return nil, err
	}
	if status.Active && !membership.IsValidUpgrade(status.Tier, tier) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNotAnUpgrade, status.Tier, tier)
	}

	session, err := s.gateway.CreateSubscriptionCheckout(ctx, *u.StripeCustomerID, tier, cycle, req.SuccessURL, req.CancelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session, nil
}

// Cancel stops renewal of the member's subscription at the end of the current period.
func (s *Service) Cancel(ctx context.Context, u *models.User) (*stripe.Subscription, error) {
	if u.StripeSubscriptionID == nil || *u.StripeSubscriptionID == "" {
		return nil, ErrNoSubscription
	}
	sub, err := s.gateway.CancelSubscription(ctx, *u.StripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel subscription %s: %w", *u.StripeSubscriptionID, err)
	}
	return sub, nil
}
