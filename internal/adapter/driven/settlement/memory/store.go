// Package memory keeps settlement records in process, newest first. It
// is the default sink when no external billing backend is wired in.
package memory

import (
	"context"
	"sync"

	"github.com/tolkvo/callengine/internal/core/domain"
)

type Store struct {
	mu      sync.RWMutex
	records []domain.SettlementRecord
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Record(ctx context.Context, rec domain.SettlementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]domain.SettlementRecord{rec}, s.records...)
	return nil
}

// History returns a copy, newest first.
func (s *Store) History() []domain.SettlementRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SettlementRecord, len(s.records))
	copy(out, s.records)
	return out
}
