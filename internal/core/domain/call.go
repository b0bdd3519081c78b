package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

func (t CallType) Valid() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

type CallMode string

const (
	ModeAI               CallMode = "ai"
	ModeSignLanguage     CallMode = "sign_language"
	ModeHumanInterpreter CallMode = "human_interpreter"
)

func (m CallMode) Valid() bool {
	switch m {
	case ModeAI, ModeSignLanguage, ModeHumanInterpreter:
		return true
	}
	return false
}

// CallStatus is the lifecycle state of a call session.
type CallStatus string

const (
	StatusIdle       CallStatus = "idle"
	StatusConnecting CallStatus = "connecting"
	StatusActive     CallStatus = "active"
	StatusEnding     CallStatus = "ending"
	StatusEnded      CallStatus = "ended"
	StatusFailed     CallStatus = "failed"
)

// Terminal reports whether the session is finished and will never
// transition again.
func (s CallStatus) Terminal() bool {
	return s == StatusEnded || s == StatusFailed
}

// VideoTrack is one remote video stream. TrackID is unique for the
// track's lifetime; both identifiers are opaque transport values.
type VideoTrack struct {
	TrackID       string
	ParticipantID string
}

// SessionSnapshot is a point-in-time copy of a call session, safe to
// hand to rendering and billing observers while the session keeps moving.
type SessionSnapshot struct {
	ID             SessionID
	UserID         UserID
	CallType       CallType
	CallMode       CallMode
	Status         CallStatus
	Room           string
	StartedAt      time.Time
	EndedAt        time.Time
	ElapsedSeconds int
	AccruedCost    decimal.Decimal
	Tracks         []VideoTrack
}
