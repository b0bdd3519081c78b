package port

import (
	"context"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// PricingSource fetches the current price list. Loaded once per process
// lifetime; the engine treats the result as read-only.
type PricingSource interface {
	FetchRules(ctx context.Context) ([]domain.PricingRule, error)
}
