package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/membership"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/homwrkk/IUI/internal/pagestate"
	"github.com/homwrkk/IUI/internal/user"
)

type ToastResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PageResponse is the membership page state the frontend renders.
type PageResponse struct {
	CurrentTier  string          `json:"current_tier,omitempty"`
	SelectedTier string          `json:"selected_tier,omitempty"`
	BillingCycle string          `json:"billing_cycle"`
	ModalOpen    bool            `json:"modal_open"`
	Toasts       []ToastResponse `json:"toasts"`
}

type SelectTierRequest struct {
	Tier string `json:"tier"`
}

type SetCycleRequest struct {
	BillingCycle string `json:"billing_cycle"`
}

// PageHandler serves the per-user membership page state: tier selection, the payment modal and
// notifications.
type PageHandler struct {
	sessions *pagestate.Sessions
}

func NewPageHandler(sessions *pagestate.Sessions) *PageHandler {
	return &PageHandler{sessions: sessions}
}

func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSON(w, pageResponse(page.View()))
}

// SelectTier answers with the page state even when the selection is refused; the refusal is
// also shown as a toast.
func (h *PageHandler) SelectTier(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	var req SelectTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	status := http.StatusOK
	if err := page.SelectTier(req.Tier); err != nil {
		logging.EnrichError(r.Context(), err, "page_select")
		switch {
		case errors.Is(err, pagestate.ErrNotAnUpgrade):
			status = http.StatusConflict
		case errors.Is(err, membership.ErrUnknownTier):
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSONStatus(w, status, pageResponse(page.View()))
}

func (h *PageHandler) SetCycle(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	var req SetCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := page.SetCycle(req.BillingCycle); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_billing_cycle", err.Error())
		return
	}
	writeJSON(w, pageResponse(page.View()))
}

func (h *PageHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	page.CloseModal()
	writeJSON(w, pageResponse(page.View()))
}

// CompletePayment is called when checkout redirects back with success.
func (h *PageHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	tier, err := page.CompletePayment()
	if err != nil {
		writeError(w, http.StatusConflict, "no_selection", "no tier selected")
		return
	}
	logging.EnrichMembership(r.Context(), string(tier), string(page.View().BillingCycle))
	writeJSON(w, pageResponse(page.View()))
}

func (h *PageHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	if !page.Dismiss(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "toast_not_found", "toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset forgets the page so the next read starts from the persisted membership.
func (h *PageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		return
	}
	h.sessions.Reset(dbUser.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) page(w http.ResponseWriter, r *http.Request) (*pagestate.Page, bool) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		return nil, false
	}

	page, err := h.sessions.Get(dbUser.ID, persistedTier(dbUser))
	if err != nil {
		logging.EnrichError(r.Context(), err, "page_state")
		if errors.Is(err, pagestate.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
			return nil, false
		}
		logger.Log.Error("failed to build membership page", "user_id", dbUser.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "invalid_membership", "membership record could not be read")
		return nil, false
	}
	return page, true
}

func persistedTier(u *models.User) string {
	if u.MembershipTier == nil {
		return ""
	}
	return *u.MembershipTier
}

func pageResponse(v pagestate.View) PageResponse {
	toasts := make([]ToastResponse, len(v.Toasts))
	for i, t := range v.Toasts {
		toasts[i] = ToastResponse{ID: t.ID, Kind: string(t.Kind), Message: t.Message, CreatedAt: t.CreatedAt}
	}
	return PageResponse{
		CurrentTier:  string(v.CurrentTier),
		SelectedTier: string(v.SelectedTier),
		BillingCycle: string(v.BillingCycle),
		ModalOpen:    v.ModalOpen,
		Toasts:       toasts,
	}
}
