package port

import (
	"context"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// SettlementSink receives the single settlement record a session emits
// when it ends. Persistence, history and balance deduction live behind it.
type SettlementSink interface {
	Record(ctx context.Context, rec domain.SettlementRecord) error
}
