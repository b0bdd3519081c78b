// Package sim is a simulated video transport for platforms where the
// native media stack is unavailable, and for deterministic tests. It
// satisfies the same contract as the pion adapter: a short artificial
// delay before the connected callback, and no participant-track events
// unless explicitly driven.
package sim

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/core/port"
)

const defaultConnectDelay = 150 * time.Millisecond

type Option func(*Transport)

// WithConnectDelay overrides the artificial connect delay.
func WithConnectDelay(d time.Duration) Option {
	return func(t *Transport) { t.delay = d }
}

// WithConnectError makes Connect report a failure instead of connecting.
func WithConnectError(err error) Option {
	return func(t *Transport) { t.connectErr = err }
}

// WithSilentConnect makes Connect never call back at all, for exercising
// the engine's connect timeout.
func WithSilentConnect() Option {
	return func(t *Transport) { t.silent = true }
}

type Transport struct {
	mu           sync.Mutex
	handler      port.TransportHandler
	delay        time.Duration
	connectErr   error
	silent       bool
	pending      *time.Timer
	connected    bool
	disconnected bool
	audioEnabled bool
	videoEnabled bool
	cameraFlips  int
}

func New(opts ...Option) *Transport {
	t := &Transport{
		delay:        defaultConnectDelay,
		audioEnabled: true,
		videoEnabled: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) SetHandler(h port.TransportHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

func (t *Transport) Connect(room, accessToken string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.silent || t.pending != nil || t.connected || t.disconnected {
		return
	}
	t.pending = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.pending = nil
		h := t.handler
		err := t.connectErr
		if t.disconnected {
			t.mu.Unlock()
			return
		}
		if err == nil {
			t.connected = true
		}
		t.mu.Unlock()

		if h == nil {
			return
		}
		if err != nil {
			h.OnConnectFailed(err)
			return
		}
		h.OnConnected(room)
	})
}

func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.disconnected {
		t.mu.Unlock()
		return
	}
	t.disconnected = true
	t.connected = false
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	h := t.handler
	t.mu.Unlock()

	if h != nil {
		h.OnDisconnected()
	}
}

func (t *Transport) SetLocalAudioEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.audioEnabled = enabled
}

func (t *Transport) SetLocalVideoEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.videoEnabled = enabled
}

func (t *Transport) SwitchCamera() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cameraFlips++
}

func (t *Transport) AudioEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.audioEnabled
}

func (t *Transport) VideoEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.videoEnabled
}

func (t *Transport) CameraFlips() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cameraFlips
}

// EmitTrackAdded injects a participant track event, as a harness stands
// in for remote participants joining.
func (t *Transport) EmitTrackAdded(participantID, trackID string) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h == nil {
		log.Warn().Str("track_id", trackID).Msg("sim transport has no handler, dropping track add")
		return
	}
	h.OnTrackAdded(participantID, trackID)
}

// EmitTrackRemoved injects the matching remove event.
func (t *Transport) EmitTrackRemoved(participantID, trackID string) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h == nil {
		return
	}
	h.OnTrackRemoved(participantID, trackID)
}

// EmitDisconnected simulates a remote hangup or network loss.
func (t *Transport) EmitDisconnected() {
	t.Disconnect()
}
