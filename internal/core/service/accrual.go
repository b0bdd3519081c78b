package service

import (
	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// BilledMinutes applies the per-mode minimum-charge floor to the elapsed
// duration: max(ceil(elapsedSeconds/60), minimumChargeMinutes).
func BilledMinutes(elapsedSeconds int, rule domain.PricingRule) int {
	mins := (elapsedSeconds + 59) / 60
	if mins < rule.MinimumChargeMinutes {
		mins = rule.MinimumChargeMinutes
	}
	return mins
}

// AccruedCost is the cost of a session at the given elapsed duration.
// Recomputed from scratch on every tick rather than incremented, so the
// live display always matches the settlement formula exactly.
func AccruedCost(elapsedSeconds int, rule domain.PricingRule) decimal.Decimal {
	return rule.PricePerMinute.Mul(decimal.NewFromInt(int64(BilledMinutes(elapsedSeconds, rule))))
}
