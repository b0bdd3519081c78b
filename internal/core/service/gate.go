package service

import (
	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// EvaluateAdmission decides whether a call under the given rule may
// start with the given balance. Pure: no I/O, no side effects.
// Admitted iff balance covers pricePerMinute times minimumChargeMinutes;
// equality admits.
func EvaluateAdmission(balance decimal.Decimal, rule domain.PricingRule) domain.BalanceCheckResult {
	reserve := rule.RequiredReserve()
	shortfall := reserve.Sub(balance)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	return domain.BalanceCheckResult{
		Admitted:        balance.GreaterThanOrEqual(reserve),
		RequiredReserve: reserve,
		Shortfall:       shortfall,
	}
}
