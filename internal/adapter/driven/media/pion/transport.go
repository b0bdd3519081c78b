// Package pion is the native video transport, a WebRTC client endpoint
// built on pion. The room identifier is the websocket signaling URL of
// the media provider and the access token rides in the Authorization
// header; both stay opaque to the engine.
package pion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/core/port"
)

const gatherWait = 500 * time.Millisecond

type signalMessage struct {
	Type    string `json:"type"` // offer | answer | candidate | control
	Payload string `json:"payload"`
}

type Transport struct {
	api *webrtc.API

	mu      sync.Mutex
	writeMu sync.Mutex
	handler port.TransportHandler
	pc      *webrtc.PeerConnection
	sig     *websocket.Conn
	closed  bool

	// exactly one of connected/failed per Connect, and one disconnect
	connectReported    bool
	connected          bool
	disconnectReported bool
}

func New() *Transport {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		panic(err)
	}
	return &Transport{api: webrtc.NewAPI(webrtc.WithMediaEngine(m))}
}

func (t *Transport) SetHandler(h port.TransportHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

func (t *Transport) Connect(room, accessToken string) {
	go t.connect(room, accessToken)
}

func (t *Transport) connect(room, accessToken string) {
	hdr := http.Header{}
	if accessToken != "" {
		hdr.Set("Authorization", "Bearer "+accessToken)
	}
	conn, _, err := websocket.DefaultDialer.Dial(room, hdr)
	if err != nil {
		t.reportConnectFailed(fmt.Errorf("dial signaling: %w", err))
		return
	}

	pc, err := t.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		conn.Close()
		t.reportConnectFailed(err)
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		pc.Close()
		return
	}
	t.sig = conn
	t.pc = pc
	t.mu.Unlock()

	// receive-only transceivers so the offer carries m=audio and m=video
	// sections even before any local capture exists
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			t.reportConnectFailed(err)
			t.Disconnect()
			return
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		candidateJSON, err := json.Marshal(c.ToJSON())
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal candidate")
			return
		}
		t.writeSignal(signalMessage{Type: "candidate", Payload: string(candidateJSON)})
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		participantID := remote.StreamID()
		trackID := remote.ID()
		log.Debug().Str("kind", remote.Kind().String()).Str("track_id", trackID).Msg("remote track added")
		if h := t.currentHandler(); h != nil {
			h.OnTrackAdded(participantID, trackID)
		}

		// drain RTP until the sender stops the track, which is the
		// remove signal for this trackID
		go func() {
			buf := make([]byte, 1500)
			for {
				if _, _, err := remote.Read(buf); err != nil {
					if !errors.Is(err, io.EOF) {
						log.Debug().Err(err).Str("track_id", trackID).Msg("remote track read ended")
					}
					if h := t.currentHandler(); h != nil {
						h.OnTrackRemoved(participantID, trackID)
					}
					return
				}
			}
		}()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateConnected:
			t.reportConnected(room)
		case webrtc.PeerConnectionStateFailed:
			t.reportConnectFailed(errors.New("peer connection failed"))
			t.reportDisconnected()
		case webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			t.reportDisconnected()
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.reportConnectFailed(err)
		t.Disconnect()
		return
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		t.reportConnectFailed(err)
		t.Disconnect()
		return
	}

	// wait briefly for gathering so the offer carries initial candidates
	select {
	case <-webrtc.GatheringCompletePromise(pc):
	case <-time.After(gatherWait):
	}

	t.writeSignal(signalMessage{Type: "offer", Payload: pc.LocalDescription().SDP})

	go t.readSignals(conn, pc)
}

func (t *Transport) readSignals(conn *websocket.Conn, pc *webrtc.PeerConnection) {
	for {
		var msg signalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				log.Warn().Err(err).Msg("signaling channel lost")
			}
			t.reportConnectFailed(fmt.Errorf("signaling lost: %w", err))
			t.reportDisconnected()
			return
		}

		switch msg.Type {
		case "answer":
			sdp := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.Payload}
			if err := pc.SetRemoteDescription(sdp); err != nil {
				log.Error().Err(err).Msg("failed to set remote description")
			}
		case "candidate":
			var candidate webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Payload), &candidate); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal candidate")
				continue
			}
			if err := pc.AddICECandidate(candidate); err != nil {
				log.Error().Err(err).Msg("failed to add candidate")
			}
		}
	}
}

func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	sig := t.sig
	pc := t.pc
	t.mu.Unlock()

	if sig != nil {
		sig.Close()
	}
	if pc != nil {
		pc.Close()
	}
	t.reportDisconnected()
}

// Local controls are relayed as fire-and-forget control frames over the
// signaling channel; there is no local capture pipeline in-process.

func (t *Transport) SetLocalAudioEnabled(enabled bool) {
	go t.writeControl("audio", enabled)
}

func (t *Transport) SetLocalVideoEnabled(enabled bool) {
	go t.writeControl("video", enabled)
}

func (t *Transport) SwitchCamera() {
	go t.writeSignal(signalMessage{Type: "control", Payload: "switch_camera"})
}

func (t *Transport) writeControl(kind string, enabled bool) {
	state := "off"
	if enabled {
		state = "on"
	}
	t.writeSignal(signalMessage{Type: "control", Payload: kind + "_" + state})
}

func (t *Transport) writeSignal(msg signalMessage) {
	t.mu.Lock()
	conn := t.sig
	closed := t.closed
	t.mu.Unlock()
	if conn == nil || closed {
		return
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("type", msg.Type).Msg("failed to write signal")
	}
}

func (t *Transport) currentHandler() port.TransportHandler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler
}

func (t *Transport) reportConnected(room string) {
	t.mu.Lock()
	if t.connectReported {
		t.mu.Unlock()
		return
	}
	t.connectReported = true
	t.connected = true
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.OnConnected(room)
	}
}

func (t *Transport) reportConnectFailed(err error) {
	t.mu.Lock()
	if t.connectReported {
		t.mu.Unlock()
		return
	}
	t.connectReported = true
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.OnConnectFailed(err)
	}
}

func (t *Transport) reportDisconnected() {
	t.mu.Lock()
	if t.disconnectReported {
		t.mu.Unlock()
		return
	}
	t.disconnectReported = true
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.OnDisconnected()
	}
}
