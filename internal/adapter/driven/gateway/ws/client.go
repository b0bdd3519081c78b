package ws

import "github.com/tolkvo/callengine/internal/core/domain"

type Client interface {
	ID() string
	SendSnapshot(snap domain.SessionSnapshot) error
	Close() error
}
