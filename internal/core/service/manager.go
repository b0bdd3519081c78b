package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/port"
	"github.com/tolkvo/callengine/internal/metrics"
)

// CallManager is the admission gate and owner of live sessions: at most
// one per user, each discarded once terminal. A retry after a failed or
// ended call always constructs a fresh session.
type CallManager struct {
	catalog     *PricingCatalog
	balances    port.BalanceSource
	provisioner port.RoomProvisioner
	transports  port.TransportFactory
	sink        port.SettlementSink
	gateway     port.SnapshotGateway
	cfg         SessionConfig

	mu     sync.Mutex
	byUser map[domain.UserID]*CallSession
	byID   map[domain.SessionID]*CallSession
}

func NewCallManager(catalog *PricingCatalog, balances port.BalanceSource, provisioner port.RoomProvisioner,
	transports port.TransportFactory, sink port.SettlementSink, gateway port.SnapshotGateway, cfg SessionConfig) *CallManager {

	return &CallManager{
		catalog:     catalog,
		balances:    balances,
		provisioner: provisioner,
		transports:  transports,
		sink:        sink,
		gateway:     gateway,
		cfg:         cfg,
		byUser:      make(map[domain.UserID]*CallSession),
		byID:        make(map[domain.SessionID]*CallSession),
	}
}

// Start runs the full admission path: price lookup, balance gate, room
// provisioning, session construction. Denials return
// *domain.AdmissionDeniedError and create no session.
func (m *CallManager) Start(ctx context.Context, userID domain.UserID, callType domain.CallType, callMode domain.CallMode) (*CallSession, error) {
	if !callType.Valid() {
		return nil, fmt.Errorf("invalid call type %q", callType)
	}
	if !callMode.Valid() {
		return nil, fmt.Errorf("invalid call mode %q", callMode)
	}

	rule, err := m.catalog.Lookup(callType, callMode)
	if err != nil {
		return nil, err
	}

	// balance is read once, here; the settlement sink is the billing
	// authority for everything after admission
	balance, err := m.balances.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	result := EvaluateAdmission(balance, rule)
	if !result.Admitted {
		metrics.AdmissionsDenied.Inc()
		log.Info().Str("user_id", userID.String()).
			Str("shortfall", result.Shortfall.String()).
			Msg("call admission denied")
		return nil, &domain.AdmissionDeniedError{Result: result}
	}

	m.mu.Lock()
	if existing, ok := m.byUser[userID]; ok && !existing.Snapshot().Status.Terminal() {
		m.mu.Unlock()
		return nil, domain.ErrCallInProgress
	}
	m.mu.Unlock()

	room, token, err := m.provisioner.Provision(ctx, userID, callType, callMode)
	if err != nil {
		return nil, fmt.Errorf("provision room: %w", err)
	}

	sess := newCallSession(userID, rule, m.transports(), m.sink, m.gateway, m.cfg)

	m.mu.Lock()
	if existing, ok := m.byUser[userID]; ok && !existing.Snapshot().Status.Terminal() {
		m.mu.Unlock()
		return nil, domain.ErrCallInProgress
	}
	m.byUser[userID] = sess
	m.byID[sess.ID()] = sess
	m.mu.Unlock()

	metrics.ActiveCalls.Inc()
	metrics.CallsStarted.WithLabelValues(string(callType), string(callMode)).Inc()
	sess.begin(room, token)

	go func() {
		<-sess.Done()
		metrics.ActiveCalls.Dec()
		m.release(sess)
	}()

	log.Info().Str("session_id", sess.ID().String()).
		Str("call_type", string(callType)).Str("call_mode", string(callMode)).
		Str("room", room).Msg("call session started")
	return sess, nil
}

// Session returns the live session with the given id.
func (m *CallManager) Session(id domain.SessionID) (*CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// SessionForUser returns the user's live session, if any.
func (m *CallManager) SessionForUser(userID domain.UserID) (*CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Shutdown ends every live session and waits for each to settle.
func (m *CallManager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*CallSession, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.End()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return
		}
	}
}

func (m *CallManager) release(sess *CallSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUser[sess.UserID()] == sess {
		delete(m.byUser, sess.UserID())
	}
	delete(m.byID, sess.ID())
}
