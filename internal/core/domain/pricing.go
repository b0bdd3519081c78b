package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingRule is one row of the per-minute price table, unique per
// (CallType, CallMode) pair. Immutable once fetched.
type PricingRule struct {
	CallType             CallType
	CallMode             CallMode
	PricePerMinute       decimal.Decimal
	MinimumChargeMinutes int
}

func (r PricingRule) Validate() error {
	if !r.CallType.Valid() {
		return fmt.Errorf("invalid call type %q", r.CallType)
	}
	if !r.CallMode.Valid() {
		return fmt.Errorf("invalid call mode %q", r.CallMode)
	}
	if r.PricePerMinute.IsNegative() {
		return fmt.Errorf("negative price per minute %s", r.PricePerMinute)
	}
	if r.MinimumChargeMinutes <= 0 {
		return fmt.Errorf("minimum charge minutes must be positive, got %d", r.MinimumChargeMinutes)
	}
	return nil
}

// RequiredReserve is the balance a caller must hold before a call under
// this rule may start.
func (r PricingRule) RequiredReserve() decimal.Decimal {
	return r.PricePerMinute.Mul(decimal.NewFromInt(int64(r.MinimumChargeMinutes)))
}

// BalanceCheckResult is the admission decision for a call start request.
// Shortfall is zero when admitted.
type BalanceCheckResult struct {
	Admitted        bool
	RequiredReserve decimal.Decimal
	Shortfall       decimal.Decimal
}
