package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the final one-time cost computation for a session,
// produced exactly once when the session ends and handed to the billing
// collaborator. The engine never deducts balance itself.
type SettlementRecord struct {
	SessionID       SessionID
	UserID          UserID
	CallType        CallType
	CallMode        CallMode
	DurationMinutes int
	BilledMinutes   int
	Cost            decimal.Decimal
	StartedAt       time.Time
	EndedAt         time.Time
}
