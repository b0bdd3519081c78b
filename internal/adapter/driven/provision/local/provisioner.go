// Package local mints room identifiers and access tokens in process,
// standing in for the media provider's provisioning API.
package local

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tolkvo/callengine/internal/core/domain"
)

type Provisioner struct {
	// baseURL, when set, prefixes the room identifier so the native
	// transport can dial it as a signaling endpoint
	baseURL string
}

func New(baseURL string) *Provisioner {
	return &Provisioner{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (p *Provisioner) Provision(ctx context.Context, userID domain.UserID, callType domain.CallType, callMode domain.CallMode) (string, string, error) {
	room := string(callType) + "-" + string(callMode) + "-" + uuid.NewString()
	if p.baseURL != "" {
		room = p.baseURL + "/" + room
	}
	return room, uuid.NewString(), nil
}
