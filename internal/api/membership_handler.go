package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/homwrkk/IUI/internal/billing"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/metrics"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/homwrkk/IUI/internal/user"
	"github.com/stripe/stripe-go/v84"
)

// MembershipService is the member-facing part of subscription.Service.
type MembershipService interface {
	Status(u *models.User) (subscription.Status, error)
	StartCheckout(ctx context.Context, u *models.User, req subscription.CheckoutRequest) (*stripe.CheckoutSession, error)
	Cancel(ctx context.Context, u *models.User) (*stripe.Subscription, error)
}

type MembershipHandler struct {
	subscriptions MembershipService
	metrics       *metrics.Metrics
}

func NewMembershipHandler(subscriptions MembershipService, m *metrics.Metrics) *MembershipHandler {
	return &MembershipHandler{subscriptions: subscriptions, metrics: m}
}

type CreateCheckoutRequest struct {
	Tier         string `json:"tier"`
	BillingCycle string `json:"billing_cycle"`
	SuccessURL   string `json:"success_url"`
	CancelURL    string `json:"cancel_url"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type MembershipStatusResponse struct {
	Active             bool       `json:"active"`
	Tier               string     `json:"tier,omitempty"`
	BillingCycle       string     `json:"billing_cycle,omitempty"`
	DisplayName        string     `json:"display_name,omitempty"`
	Description        string     `json:"description,omitempty"`
	Benefits           []string   `json:"benefits,omitempty"`
	Color              string     `json:"color,omitempty"`
	NextTier           string     `json:"next_tier,omitempty"`
	UpgradeOptions     []string   `json:"upgrade_options"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

type CancelResponse struct {
	Message           string `json:"message"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

func (h *MembershipHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		return
	}

	status, err := h.subscriptions.Status(dbUser)
	if err != nil {
		logging.EnrichError(r.Context(), err, "membership_status")
		logger.Log.Error("failed to read membership status", "user_id", dbUser.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "invalid_membership", "membership record could not be read")
		return
	}
	logging.EnrichMembership(r.Context(), string(status.Tier), string(status.BillingCycle))

	resp := MembershipStatusResponse{
		Active:             status.Active,
		Tier:               string(status.Tier),
		BillingCycle:       string(status.BillingCycle),
		NextTier:           string(status.NextTier),
		UpgradeOptions:     tierStrings(status.UpgradeOptions),
		CurrentPeriodStart: status.CurrentPeriodStart,
		CurrentPeriodEnd:   status.CurrentPeriodEnd,
		CancelAtPeriodEnd:  status.CancelAtPeriodEnd,
	}
	if status.Active {
		resp.DisplayName = status.Definition.DisplayName
		resp.Description = status.Definition.Description
		resp.Benefits = status.Definition.Benefits
		resp.Color = status.Definition.Color
	}
	writeJSON(w, resp)
}

func (h *MembershipHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		return
	}

	var req CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	logging.EnrichCheckout(r.Context(), req.Tier, "")

	session, err := h.subscriptions.StartCheckout(r.Context(), dbUser, subscription.CheckoutRequest{
		Tier:         req.Tier,
		BillingCycle: req.BillingCycle,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
	})
	if err != nil {
		status, code := checkoutErrorStatus(err)
		outcome, message := metrics.OutcomeRejected, err.Error()
		// Server-side failures can carry gateway and database details; those stay in the logs.
		if status >= http.StatusInternalServerError {
			outcome, message = metrics.OutcomeError, "failed to create checkout session"
			logger.Log.Error("failed to create checkout session", "user_id", dbUser.ID, "error", err)
		}
		h.metrics.RecordCheckout(checkoutLabels(req, outcome))
		logging.EnrichError(r.Context(), err, "checkout")
		writeError(w, status, code, message)
		return
	}

	h.metrics.RecordCheckout(checkoutLabels(req, metrics.OutcomeSuccess))
	logging.EnrichCheckout(r.Context(), req.Tier, session.ID)
	writeJSON(w, CreateCheckoutResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	})
}

// checkoutErrorStatus maps checkout failures to a status code and machine readable code.
// ErrInvalidMembership is checked first because it wraps the same catalog errors a bad request
// produces.
func checkoutErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, subscription.ErrInvalidMembership):
		return http.StatusInternalServerError, "invalid_membership"
	case errors.Is(err, membership.ErrUnknownTier):
		return http.StatusBadRequest, "unknown_tier"
	case errors.Is(err, membership.ErrUnhandledCycle):
		return http.StatusBadRequest, "unknown_billing_cycle"
	case errors.Is(err, subscription.ErrMissingURLs):
		return http.StatusBadRequest, "missing_urls"
	case errors.Is(err, subscription.ErrNoCustomer):
		return http.StatusBadRequest, "no_customer"
	case errors.Is(err, subscription.ErrNotAnUpgrade):
		return http.StatusConflict, "not_an_upgrade"
	case errors.Is(err, billing.ErrPriceNotSynced):
		return http.StatusServiceUnavailable, "price_not_synced"
	default:
		return http.StatusInternalServerError, "checkout_failed"
	}
}

func (h *MembershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		return
	}

	sub, err := h.subscriptions.Cancel(r.Context(), dbUser)
	if err != nil {
		logging.EnrichError(r.Context(), err, "cancel")
		if errors.Is(err, subscription.ErrNoSubscription) {
			writeError(w, http.StatusBadRequest, "no_subscription", "no active subscription found")
			return
		}
		logger.Log.Error("failed to cancel subscription", "user_id", dbUser.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "cancel_failed", "failed to cancel subscription")
		return
	}

	h.metrics.RecordCancellation()
	writeJSON(w, CancelResponse{
		Message:           "Subscription cancelled",
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	})
}

// checkoutLabels keeps metric labels to catalog values.
func checkoutLabels(req CreateCheckoutRequest, outcome string) (string, string, string) {
	tier, cycle := "invalid", "invalid"
	if t, err := membership.ParseTier(req.Tier); err == nil {
		tier = string(t)
	}
	if c, err := membership.ParseBillingCycle(req.BillingCycle); err == nil {
		cycle = string(c)
	}
	return tier, cycle, outcome
}

func tierStrings(tiers []membership.Tier) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = string(t)
	}
	return out
}
