package membership

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of decimal places amounts are rounded to.
const CurrencyPlaces = 2

// RateDivisionPrecision is the number of fractional digits kept when normalising a price to a
// per-month rate.
const RateDivisionPrecision = 16

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Savings is what a member saves per year by paying annually instead of monthly.
type Savings struct {
	// Amount is 12 × monthly − annual, rounded half-up to cents. Negative when annual costs more.
	Amount decimal.Decimal
	// Percentage is Amount relative to 12 × monthly, rounded half-up to a whole number.
	Percentage int
}

// EffectiveMonthlyRate returns the price of c normalised to one month. The result is not rounded.
func EffectiveMonthlyRate(t Tier, c BillingCycle) (decimal.Decimal, error) {
	price, err := PriceFor(t, c)
	if err != nil {
		return decimal.Decimal{}, err
	}
	months, err := BillingPeriodMonths(c)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if months == 1 {
		return price, nil
	}
	return price.DivRound(decimal.NewFromInt(int64(months)), RateDivisionPrecision), nil
}

// CalculateSavings compares a year of monthly billing with one annual payment.
func CalculateSavings(t Tier) (Savings, error) {
	monthly, err := PriceFor(t, CycleMonthly)
	if err != nil {
		return Savings{}, err
	}
	annual, err := PriceFor(t, CycleAnnual)
	if err != nil {
		return Savings{}, err
	}
	return savingsFor(t, monthly, annual)
}

func savingsFor(t Tier, monthly, annual decimal.Decimal) (Savings, error) {
	yearly := monthly.Mul(monthsInYear)
	if yearly.IsZero() {
		return Savings{}, &DivisionByZeroError{Tier: t}
	}
	amount := yearly.Sub(annual)
	pct := amount.Div(yearly).Mul(hundred).Round(0)
	return Savings{
		Amount:     amount.Round(CurrencyPlaces),
		Percentage: int(pct.IntPart()),
	}, nil
}
