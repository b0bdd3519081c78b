package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// BalanceSource reads the user's prepaid balance. The engine reads it
// once at call start and never maintains it.
type BalanceSource interface {
	Balance(ctx context.Context, userID domain.UserID) (decimal.Decimal, error)
}
