package port

import (
	"context"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// RoomProvisioner mints the room identifier and access token for a new
// session. Both are opaque to the engine and handed unmodified to
// VideoTransport.Connect.
type RoomProvisioner interface {
	Provision(ctx context.Context, userID domain.UserID, callType domain.CallType, callMode domain.CallMode) (room, accessToken string, err error)
}
