package port

import (
	"context"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// SnapshotGateway pushes session snapshots to rendering observers.
type SnapshotGateway interface {
	Publish(ctx context.Context, snap domain.SessionSnapshot) error
}
