package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/port"
	"github.com/tolkvo/callengine/internal/metrics"
)

// SessionConfig holds the engine-enforced timeouts.
type SessionConfig struct {
	// ConnectTimeout bounds how long a transport may stay silent after
	// Connect before the session is failed. Not retried automatically.
	ConnectTimeout time.Duration

	// EndingTimeout bounds how long the session waits in Ending for the
	// transport to confirm disconnect before forcing Ended.
	EndingTimeout time.Duration
}

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultEndingTimeout  = 5 * time.Second
)

func (c SessionConfig) withDefaults() SessionConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.EndingTimeout <= 0 {
		c.EndingTimeout = DefaultEndingTimeout
	}
	return c
}

type eventKind int

const (
	evConnected eventKind = iota
	evConnectFailed
	evConnectTimeout
	evDisconnected
	evTrackAdded
	evTrackRemoved
	evEnd
	evEndingTimeout
	evSetAudio
	evSetVideo
	evSwitchCamera
)

type sessionEvent struct {
	kind          eventKind
	room          string
	err           error
	participantID string
	trackID       string
	enabled       bool
}

// CallSession is the single owner of one call's state. Transport
// callbacks, the per-second ticker and user actions all feed one event
// channel consumed by a single goroutine; nothing mutates session state
// outside that loop.
type CallSession struct {
	id       domain.SessionID
	userID   domain.UserID
	callType domain.CallType
	callMode domain.CallMode
	rule     domain.PricingRule
	room     string

	transport port.VideoTransport
	sink      port.SettlementSink
	gateway   port.SnapshotGateway
	cfg       SessionConfig
	log       zerolog.Logger

	events chan sessionEvent
	done   chan struct{}
	snap   atomic.Value // domain.SessionSnapshot

	// loop-owned, never touched outside run()
	status         domain.CallStatus
	startedAt      time.Time
	endedAt        time.Time
	elapsedSeconds int
	accruedCost    decimal.Decimal
	registry       *ParticipantRegistry
	ticker         *time.Ticker
	connectTimer   *time.Timer
	endingTimer    *time.Timer
	settled        bool
}

func newCallSession(userID domain.UserID, rule domain.PricingRule, transport port.VideoTransport,
	sink port.SettlementSink, gateway port.SnapshotGateway, cfg SessionConfig) *CallSession {

	id := domain.NewSessionID()
	s := &CallSession{
		id:          id,
		userID:      userID,
		callType:    rule.CallType,
		callMode:    rule.CallMode,
		rule:        rule,
		transport:   transport,
		sink:        sink,
		gateway:     gateway,
		cfg:         cfg.withDefaults(),
		log:         log.With().Str("session_id", id.String()).Str("user_id", userID.String()).Logger(),
		events:      make(chan sessionEvent, 64),
		done:        make(chan struct{}),
		status:      domain.StatusIdle,
		accruedCost: decimal.Zero,
		registry:    NewParticipantRegistry(),
	}
	s.storeSnapshot()
	return s
}

func (s *CallSession) ID() domain.SessionID      { return s.id }
func (s *CallSession) UserID() domain.UserID     { return s.userID }
func (s *CallSession) CallType() domain.CallType { return s.callType }
func (s *CallSession) CallMode() domain.CallMode { return s.callMode }

// Done is closed once the session reaches a terminal state and all its
// resources are released.
func (s *CallSession) Done() <-chan struct{} { return s.done }

// Snapshot returns the most recently published point-in-time copy.
func (s *CallSession) Snapshot() domain.SessionSnapshot {
	return s.snap.Load().(domain.SessionSnapshot)
}

// End requests an orderly shutdown. Safe to call repeatedly and from any
// state; never blocks waiting for the transport.
func (s *CallSession) End() {
	s.dispatch(sessionEvent{kind: evEnd})
}

func (s *CallSession) SetAudioEnabled(enabled bool) {
	s.dispatch(sessionEvent{kind: evSetAudio, enabled: enabled})
}

func (s *CallSession) SetVideoEnabled(enabled bool) {
	s.dispatch(sessionEvent{kind: evSetVideo, enabled: enabled})
}

func (s *CallSession) SwitchCamera() {
	s.dispatch(sessionEvent{kind: evSwitchCamera})
}

// begin moves Idle to Connecting and hands the opaque room/token pair to
// the transport. Called exactly once, by the manager.
func (s *CallSession) begin(room, accessToken string) {
	s.room = room
	s.status = domain.StatusConnecting
	s.publish()

	s.transport.SetHandler(&transportEvents{s})
	s.connectTimer = time.AfterFunc(s.cfg.ConnectTimeout, func() {
		s.dispatch(sessionEvent{kind: evConnectTimeout})
	})

	// the event channel is buffered, so callbacks arriving before the
	// loop starts are not lost
	s.transport.Connect(room, accessToken)
	go s.run()
}

func (s *CallSession) dispatch(ev sessionEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
		// terminal; late producers are dropped
	}
}

func (s *CallSession) run() {
	defer s.cleanup()
	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.C
		}
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-tick:
			s.handleTick()
		}
		if s.status.Terminal() {
			return
		}
	}
}

func (s *CallSession) handle(ev sessionEvent) {
	switch ev.kind {
	case evConnected:
		if s.status != domain.StatusConnecting {
			s.log.Debug().Str("status", string(s.status)).Msg("connected callback outside connecting, ignored")
			return
		}
		s.stopConnectTimer()
		if ev.room != "" {
			s.room = ev.room
		}
		s.status = domain.StatusActive
		s.startedAt = time.Now()
		s.accruedCost = AccruedCost(0, s.rule)
		s.ticker = time.NewTicker(time.Second)
		s.log.Info().Str("room", s.room).Msg("call active")
		s.publish()

	case evConnectFailed, evConnectTimeout:
		if s.status != domain.StatusConnecting {
			return
		}
		s.stopConnectTimer()
		s.status = domain.StatusFailed
		metrics.ConnectFailures.Inc()
		if ev.kind == evConnectTimeout {
			s.log.Warn().Dur("timeout", s.cfg.ConnectTimeout).Msg("transport never called back, failing session")
		} else {
			s.log.Warn().Err(ev.err).Msg("transport connect failed")
		}
		s.publish()

	case evDisconnected:
		switch s.status {
		case domain.StatusActive:
			// remote hangup or network loss: same settlement path as a
			// user-initiated end, because time was accrued
			s.stopTicker()
			s.status = domain.StatusEnding
			s.log.Info().Msg("unexpected disconnect while active")
			s.finish()
		case domain.StatusEnding:
			s.finish()
		default:
			s.log.Debug().Str("status", string(s.status)).Msg("disconnected callback ignored")
		}

	case evTrackAdded:
		if !s.acceptsTrackEvents() {
			s.log.Debug().Str("track_id", ev.trackID).Str("status", string(s.status)).Msg("stale track add ignored")
			return
		}
		s.registry.Add(ev.participantID, ev.trackID)
		s.publish()

	case evTrackRemoved:
		if !s.acceptsTrackEvents() {
			s.log.Debug().Str("track_id", ev.trackID).Str("status", string(s.status)).Msg("stale track remove ignored")
			return
		}
		s.registry.Remove(ev.trackID)
		s.publish()

	case evEnd:
		switch s.status {
		case domain.StatusActive:
			s.stopTicker()
			s.status = domain.StatusEnding
			s.transport.Disconnect()
			s.endingTimer = time.AfterFunc(s.cfg.EndingTimeout, func() {
				s.dispatch(sessionEvent{kind: evEndingTimeout})
			})
			s.log.Info().Msg("call ending")
			s.publish()
		case domain.StatusConnecting:
			// user aborts before the transport ever connected: no time
			// accrued, so no settlement
			s.stopConnectTimer()
			s.status = domain.StatusFailed
			s.transport.Disconnect()
			s.log.Info().Msg("call aborted while connecting")
			s.publish()
		default:
			// Ending/terminal: no-op
		}

	case evEndingTimeout:
		if s.status != domain.StatusEnding {
			return
		}
		s.log.Warn().Dur("timeout", s.cfg.EndingTimeout).Msg("disconnect unconfirmed, forcing ended")
		s.finish()

	case evSetAudio:
		if !s.status.Terminal() {
			s.transport.SetLocalAudioEnabled(ev.enabled)
		}
	case evSetVideo:
		if !s.status.Terminal() {
			s.transport.SetLocalVideoEnabled(ev.enabled)
		}
	case evSwitchCamera:
		if !s.status.Terminal() {
			s.transport.SwitchCamera()
		}
	}
}

func (s *CallSession) handleTick() {
	// ticks already queued when the ticker stops must not accrue
	if s.status != domain.StatusActive {
		return
	}
	s.elapsedSeconds++
	s.accruedCost = AccruedCost(s.elapsedSeconds, s.rule)
	s.publish()
}

// acceptsTrackEvents: every state except Idle and the terminals.
func (s *CallSession) acceptsTrackEvents() bool {
	switch s.status {
	case domain.StatusConnecting, domain.StatusActive, domain.StatusEnding:
		return true
	}
	return false
}

// finish moves Ending to Ended and emits the one settlement record.
func (s *CallSession) finish() {
	if s.endingTimer != nil {
		s.endingTimer.Stop()
		s.endingTimer = nil
	}
	s.status = domain.StatusEnded
	s.endedAt = time.Now()
	s.settle()
	s.log.Info().Int("elapsed_seconds", s.elapsedSeconds).Msg("call ended")
	s.publish()
}

func (s *CallSession) settle() {
	if s.settled {
		return
	}
	s.settled = true

	duration := (s.elapsedSeconds + 59) / 60
	billed := BilledMinutes(s.elapsedSeconds, s.rule)
	rec := domain.SettlementRecord{
		SessionID:       s.id,
		UserID:          s.userID,
		CallType:        s.callType,
		CallMode:        s.callMode,
		DurationMinutes: duration,
		BilledMinutes:   billed,
		Cost:            s.rule.PricePerMinute.Mul(decimal.NewFromInt(int64(billed))),
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
	}
	metrics.SettlementsTotal.Inc()
	metrics.BilledMinutesTotal.Add(float64(billed))
	if err := s.sink.Record(context.Background(), rec); err != nil {
		s.log.Error().Err(err).Msg("settlement sink rejected record")
	}
}

func (s *CallSession) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *CallSession) stopConnectTimer() {
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
}

// cleanup releases everything the session owns. Disconnect is idempotent
// per the transport contract, so calling it again here is safe.
func (s *CallSession) cleanup() {
	s.stopTicker()
	s.stopConnectTimer()
	if s.endingTimer != nil {
		s.endingTimer.Stop()
		s.endingTimer = nil
	}
	s.transport.Disconnect()
	s.storeSnapshot()
	close(s.done)
}

func (s *CallSession) buildSnapshot() domain.SessionSnapshot {
	return domain.SessionSnapshot{
		ID:             s.id,
		UserID:         s.userID,
		CallType:       s.callType,
		CallMode:       s.callMode,
		Status:         s.status,
		Room:           s.room,
		StartedAt:      s.startedAt,
		EndedAt:        s.endedAt,
		ElapsedSeconds: s.elapsedSeconds,
		AccruedCost:    s.accruedCost,
		Tracks:         s.registry.Snapshot(),
	}
}

func (s *CallSession) storeSnapshot() {
	s.snap.Store(s.buildSnapshot())
}

func (s *CallSession) publish() {
	snap := s.buildSnapshot()
	s.snap.Store(snap)
	if s.gateway != nil {
		if err := s.gateway.Publish(context.Background(), snap); err != nil {
			s.log.Warn().Err(err).Msg("failed to publish snapshot")
		}
	}
}

// transportEvents adapts transport callbacks into serialized events.
type transportEvents struct {
	s *CallSession
}

func (t *transportEvents) OnConnected(room string) {
	t.s.dispatch(sessionEvent{kind: evConnected, room: room})
}

func (t *transportEvents) OnConnectFailed(err error) {
	t.s.dispatch(sessionEvent{kind: evConnectFailed, err: err})
}

func (t *transportEvents) OnDisconnected() {
	t.s.dispatch(sessionEvent{kind: evDisconnected})
}

func (t *transportEvents) OnTrackAdded(participantID, trackID string) {
	t.s.dispatch(sessionEvent{kind: evTrackAdded, participantID: participantID, trackID: trackID})
}

func (t *transportEvents) OnTrackRemoved(participantID, trackID string) {
	t.s.dispatch(sessionEvent{kind: evTrackRemoved, participantID: participantID, trackID: trackID})
}
