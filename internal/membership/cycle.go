package membership

import "strings"

// BillingCycle is the period a price applies to.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// ParseBillingCycle validates a raw billing cycle identifier.
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	if _, err := BillingPeriodMonths(c); err != nil {
		return "", &UnhandledCycleError{Value: s}
	}
	return c, nil
}

// BillingCycles returns the supported cycles, monthly first.
func BillingCycles() []BillingCycle {
	return []BillingCycle{CycleMonthly, CycleAnnual}
}

func (c BillingCycle) String() string {
	return string(c)
}

// BillingPeriodMonths returns the length of one billing period in months.
// A new cycle value must be added here explicitly; there is no fallback.
func BillingPeriodMonths(c BillingCycle) (int, error) {
	switch c {
	case CycleMonthly:
		return 1, nil
	case CycleAnnual:
		return 12, nil
	}
	return 0, &UnhandledCycleError{Value: string(c)}
}
