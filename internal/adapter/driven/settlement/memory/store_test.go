package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkvo/callengine/internal/core/domain"
)

func TestStoreHistoryNewestFirst(t *testing.T) {
	s := NewStore()

	first := domain.SettlementRecord{SessionID: domain.NewSessionID(), BilledMinutes: 5, Cost: decimal.NewFromInt(10)}
	second := domain.SettlementRecord{SessionID: domain.NewSessionID(), BilledMinutes: 7, Cost: decimal.NewFromInt(14)}

	require.NoError(t, s.Record(context.Background(), first))
	require.NoError(t, s.Record(context.Background(), second))

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, second.SessionID, history[0].SessionID)
	assert.Equal(t, first.SessionID, history[1].SessionID)
}

func TestStoreHistoryIsACopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Record(context.Background(), domain.SettlementRecord{SessionID: domain.NewSessionID()}))

	history := s.History()
	require.NoError(t, s.Record(context.Background(), domain.SettlementRecord{SessionID: domain.NewSessionID()}))

	assert.Len(t, history, 1)
	assert.Len(t, s.History(), 2)
}
