package membership

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTier    = errors.New("unknown tier")
	ErrUnhandledCycle = errors.New("unhandled billing cycle")
	ErrDivisionByZero = errors.New("division by zero")
)

// UnknownTierError is returned when a raw tier identifier does not match any catalog entry.
type UnknownTierError struct {
	Value string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown tier %q", e.Value)
}

func (e *UnknownTierError) Is(target error) bool {
	return target == ErrUnknownTier
}

// UnhandledCycleError is returned when a billing cycle has no period length mapping.
type UnhandledCycleError struct {
	Value string
}

func (e *UnhandledCycleError) Error() string {
	return fmt.Sprintf("unhandled billing cycle %q", e.Value)
}

func (e *UnhandledCycleError) Is(target error) bool {
	return target == ErrUnhandledCycle
}

// DivisionByZeroError is returned by CalculateSavings for a tier whose monthly price is zero.
type DivisionByZeroError struct {
	Tier Tier
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("savings for tier %q: yearly monthly-billed total is zero", e.Tier)
}

func (e *DivisionByZeroError) Is(target error) bool {
	return target == ErrDivisionByZero
}
