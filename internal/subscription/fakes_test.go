package subscription

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/stripe/stripe-go/v84"
)

var errNotFound = errors.New("not found")

type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	events map[string]string
	// failUpdate makes UpdateMembership fail once.
	failUpdate error
	// failCommit makes the next transaction roll back after fn succeeded.
	failCommit error
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*models.User), events: make(map[string]string)}
	for _, u := range users {
		s.users[*u.StripeCustomerID] = u
	}
	return s
}

func (s *fakeStore) GetByStripeCustomerID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) UpdateMembership(ctx context.Context, id string, change models.MembershipChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		err := s.failUpdate
		s.failUpdate = nil
		return err
	}
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	u.MembershipTier = &change.Tier
	u.BillingCycle = &change.BillingCycle
	u.StripeSubscriptionID = &change.StripeSubscriptionID
	u.CurrentPeriodStart = &change.PeriodStart
	u.CurrentPeriodEnd = &change.PeriodEnd
	u.CancelAtPeriodEnd = false
	return nil
}

func (s *fakeStore) ResetBillingPeriod(ctx context.Context, id string, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	u.CurrentPeriodStart = &start
	u.CurrentPeriodEnd = &end
	return nil
}

func (s *fakeStore) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	u.CancelAtPeriodEnd = cancel
	return nil
}

func (s *fakeStore) ClearMembership(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	u.MembershipTier = nil
	u.BillingCycle = nil
	u.StripeSubscriptionID = nil
	u.CurrentPeriodStart = nil
	u.CurrentPeriodEnd = nil
	u.CancelAtPeriodEnd = false
	return nil
}

func (s *fakeStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; ok {
		return false, nil
	}
	s.events[eventID] = eventType
	return true, nil
}

// RunInTx snapshots the store and restores it when fn or the commit fails.
func (s *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repo *fakeStore) error) error {
	s.mu.Lock()
	users := make(map[string]models.User, len(s.users))
	for id, u := range s.users {
		users[id] = *u
	}
	events := make(map[string]string, len(s.events))
	for id, typ := range s.events {
		events[id] = typ
	}
	s.mu.Unlock()

	err := fn(ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && s.failCommit != nil {
		err = s.failCommit
		s.failCommit = nil
	}
	if err != nil {
		for id, u := range users {
			*s.users[id] = u
		}
		s.events = events
	}
	return err
}

func (s *fakeStore) processed(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok
}

func (s *fakeStore) user(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

type checkoutCall struct {
	customerID string
	tier       membership.Tier
	cycle      membership.BillingCycle
}

type fakeGateway struct {
	mu            sync.Mutex
	subscriptions map[string]*stripe.Subscription
	checkouts     []checkoutCall
	cancelled     []string
	cancelledNow  []string
	err           error
	// cancelNowErr makes CancelSubscriptionNow fail until cleared.
	cancelNowErr error
}

func newFakeGateway(subs ...*stripe.Subscription) *fakeGateway {
	g := &fakeGateway{subscriptions: make(map[string]*stripe.Subscription)}
	for _, s := range subs {
		g.subscriptions[s.ID] = s
	}
	return g
}

func (g *fakeGateway) CreateSubscriptionCheckout(ctx context.Context, customerID string, tier membership.Tier, cycle membership.BillingCycle, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.checkouts = append(g.checkouts, checkoutCall{customerID: customerID, tier: tier, cycle: cycle})
	return &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

func (g *fakeGateway) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sub, ok := g.subscriptions[id]
	if !ok {
		return nil, errNotFound
	}
	return sub, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.cancelled = append(g.cancelled, id)
	return &stripe.Subscription{ID: id, CancelAtPeriodEnd: true}, nil
}

func (g *fakeGateway) CancelSubscriptionNow(ctx context.Context, id string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelNowErr != nil {
		return nil, g.cancelNowErr
	}
	g.cancelledNow = append(g.cancelledNow, id)
	if sub, ok := g.subscriptions[id]; ok {
		sub.Status = stripe.SubscriptionStatusCanceled
	}
	return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusCanceled}, nil
}

func (g *fakeGateway) setCancelNowErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelNowErr = err
}

func (g *fakeGateway) cancelledNowIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.cancelledNow...)
}

func newProcessor(store *fakeStore, gw Gateway, prices PriceResolver) *EventProcessor {
	return NewEventProcessor(TxFunc(store.RunInTx), gw, prices)
}

func strPtr(s string) *string { return &s }

func member(customerID, tier, cycle, subscriptionID string) *models.User {
	u := &models.User{ID: "user_" + customerID, StripeCustomerID: strPtr(customerID)}
	if tier != "" {
		u.MembershipTier = strPtr(tier)
	}
	if cycle != "" {
		u.BillingCycle = strPtr(cycle)
	}
	if subscriptionID != "" {
		u.StripeSubscriptionID = strPtr(subscriptionID)
	}
	return u
}

func subscription(id, tier, cycle, priceID string, start, end time.Time) *stripe.Subscription {
	meta := map[string]string{}
	if tier != "" {
		meta["tier"] = tier
	}
	if cycle != "" {
		meta["billing_cycle"] = cycle
	}
	return &stripe.Subscription{
		ID:       id,
		Status:   stripe.SubscriptionStatusActive,
		Metadata: meta,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price:              &stripe.Price{ID: priceID},
				CurrentPeriodStart: start.Unix(),
				CurrentPeriodEnd:   end.Unix(),
			}},
		},
	}
}
