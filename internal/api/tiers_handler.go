package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/membership"
)

type TierPrices struct {
	Monthly string `json:"monthly"`
	Annual  string `json:"annual"`
}

type TierSavings struct {
	Amount     string `json:"amount"`
	Percentage int    `json:"percentage"`
}

// TierResponse is one card of the tier comparison page.
type TierResponse struct {
	ID                         string      `json:"id"`
	DisplayName                string      `json:"display_name"`
	Description                string      `json:"description"`
	Benefits                   []string    `json:"benefits"`
	Color                      string      `json:"color"`
	Currency                   string      `json:"currency"`
	Prices                     TierPrices  `json:"prices"`
	AnnualEffectiveMonthlyRate string      `json:"annual_effective_monthly_rate"`
	AnnualSavings              TierSavings `json:"annual_savings"`
	NextTier                   string      `json:"next_tier,omitempty"`
}

type TierHandler struct{}

func NewTierHandler() *TierHandler {
	return &TierHandler{}
}

func (h *TierHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := membership.ListTiers()
	cards := make([]TierResponse, 0, len(tiers))
	for _, t := range tiers {
		card, err := tierCard(t)
		if err != nil {
			logging.EnrichError(r.Context(), err, "tier_card")
			writeError(w, http.StatusInternalServerError, "catalog_error", "failed to build tier catalog")
			return
		}
		cards = append(cards, card)
	}

	writeJSON(w, cards)
}

func (h *TierHandler) GetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := membership.ParseTier(mux.Vars(r)["tier"])
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_tier", err.Error())
		return
	}

	card, err := tierCard(tier)
	if err != nil {
		logging.EnrichError(r.Context(), err, "tier_card")
		writeError(w, http.StatusInternalServerError, "catalog_error", "failed to build tier")
		return
	}
	writeJSON(w, card)
}

func tierCard(t membership.Tier) (TierResponse, error) {
	def, err := membership.Definition(t)
	if err != nil {
		return TierResponse{}, err
	}
	rate, err := membership.EffectiveMonthlyRate(t, membership.CycleAnnual)
	if err != nil {
		return TierResponse{}, err
	}
	savings, err := membership.CalculateSavings(t)
	if err != nil {
		return TierResponse{}, err
	}
	next, _ := membership.NextTier(t)

	return TierResponse{
		ID:          string(def.Name),
		DisplayName: def.DisplayName,
		Description: def.Description,
		Benefits:    def.Benefits,
		Color:       def.Color,
		Currency:    membership.Currency,
		Prices: TierPrices{
			Monthly: def.Price.Monthly.StringFixed(membership.CurrencyPlaces),
			Annual:  def.Price.Annual.StringFixed(membership.CurrencyPlaces),
		},
		AnnualEffectiveMonthlyRate: rate.Round(membership.CurrencyPlaces).StringFixed(membership.CurrencyPlaces),
		AnnualSavings: TierSavings{
			Amount:     savings.Amount.StringFixed(membership.CurrencyPlaces),
			Percentage: savings.Percentage,
		},
		NextTier: string(next),
	}, nil
}
