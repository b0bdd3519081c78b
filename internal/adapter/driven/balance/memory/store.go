// Package memory is an in-process balance source, standing in for the
// account service. The engine only ever reads it at call start.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
)

type Store struct {
	mu           sync.RWMutex
	balances     map[domain.UserID]decimal.Decimal
	defaultValue decimal.Decimal
}

// NewStore returns a store that answers defaultBalance for unknown users.
func NewStore(defaultBalance decimal.Decimal) *Store {
	return &Store{
		balances:     make(map[domain.UserID]decimal.Decimal),
		defaultValue: defaultBalance,
	}
}

func (s *Store) SetBalance(userID domain.UserID, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = balance
}

func (s *Store) Balance(ctx context.Context, userID domain.UserID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[userID]; ok {
		return b, nil
	}
	return s.defaultValue, nil
}
