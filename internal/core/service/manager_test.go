package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkvo/callengine/internal/adapter/driven/media/sim"
	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/port"
)

type fixedBalance struct {
	balance decimal.Decimal
}

func (f *fixedBalance) Balance(ctx context.Context, userID domain.UserID) (decimal.Decimal, error) {
	return f.balance, nil
}

type stubProvisioner struct{}

func (stubProvisioner) Provision(ctx context.Context, userID domain.UserID, callType domain.CallType, callMode domain.CallMode) (string, string, error) {
	return "room-" + string(callMode), "token", nil
}

func newTestManager(balance string, sink *captureSink) *CallManager {
	factory := port.TransportFactory(func() port.VideoTransport {
		return sim.New(sim.WithConnectDelay(5 * time.Millisecond))
	})
	b, _ := decimal.NewFromString(balance)
	return NewCallManager(
		NewPricingCatalog(testRules()),
		&fixedBalance{balance: b},
		stubProvisioner{},
		factory,
		sink,
		nil,
		fastConfig(),
	)
}

func TestManagerDeniesInsufficientBalance(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager("9", sink)

	_, err := m.Start(context.Background(), domain.NewUserID(), domain.CallTypeVideo, domain.ModeAI)
	var denied *domain.AdmissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.True(t, denied.Result.Shortfall.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 0, sink.count())
}

func TestManagerRejectsUnknownRule(t *testing.T) {
	m := newTestManager("100", &captureSink{})

	_, err := m.Start(context.Background(), domain.NewUserID(), domain.CallTypeVoice, domain.ModeSignLanguage)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestManagerOneLiveSessionPerUser(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager("100", sink)
	userID := domain.NewUserID()

	sess, err := m.Start(context.Background(), userID, domain.CallTypeVideo, domain.ModeAI)
	require.NoError(t, err)

	_, err = m.Start(context.Background(), userID, domain.CallTypeVoice, domain.ModeAI)
	assert.ErrorIs(t, err, domain.ErrCallInProgress)

	waitStatus(t, sess, domain.StatusActive)
	sess.End()
	<-sess.Done()

	// after the session is terminal a fresh start constructs a new one
	require.Eventually(t, func() bool {
		_, err := m.Start(context.Background(), userID, domain.CallTypeVoice, domain.ModeAI)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManagerSessionLookup(t *testing.T) {
	m := newTestManager("100", &captureSink{})
	userID := domain.NewUserID()

	sess, err := m.Start(context.Background(), userID, domain.CallTypeVideo, domain.ModeAI)
	require.NoError(t, err)

	got, err := m.Session(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	byUser, err := m.SessionForUser(userID)
	require.NoError(t, err)
	assert.Same(t, sess, byUser)

	_, err = m.Session(domain.NewSessionID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManagerShutdownSettlesLiveSessions(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager("100", sink)

	sess, err := m.Start(context.Background(), domain.NewUserID(), domain.CallTypeVideo, domain.ModeAI)
	require.NoError(t, err)
	waitStatus(t, sess, domain.StatusActive)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m.Shutdown(ctx)

	assert.Equal(t, domain.StatusEnded, sess.Snapshot().Status)
	assert.Equal(t, 1, sink.count())
}
