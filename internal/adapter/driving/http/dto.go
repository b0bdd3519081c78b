package http

import (
	"time"

	"github.com/tolkvo/callengine/internal/core/domain"
)

type pricingRuleDTO struct {
	CallType             string `json:"call_type"`
	CallMode             string `json:"call_mode"`
	PricePerMinute       string `json:"price_per_minute"`
	MinimumChargeMinutes int    `json:"minimum_charge_minutes"`
}

func toPricingRuleDTO(r domain.PricingRule) pricingRuleDTO {
	return pricingRuleDTO{
		CallType:             string(r.CallType),
		CallMode:             string(r.CallMode),
		PricePerMinute:       r.PricePerMinute.String(),
		MinimumChargeMinutes: r.MinimumChargeMinutes,
	}
}

type balanceCheckDTO struct {
	Admitted        bool   `json:"admitted"`
	RequiredReserve string `json:"required_reserve"`
	Shortfall       string `json:"shortfall"`
}

func toBalanceCheckDTO(r domain.BalanceCheckResult) balanceCheckDTO {
	return balanceCheckDTO{
		Admitted:        r.Admitted,
		RequiredReserve: r.RequiredReserve.String(),
		Shortfall:       r.Shortfall.String(),
	}
}

type videoTrackDTO struct {
	TrackID       string `json:"track_id"`
	ParticipantID string `json:"participant_id"`
}

type snapshotDTO struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CallType       string          `json:"call_type"`
	CallMode       string          `json:"call_mode"`
	Status         string          `json:"status"`
	Room           string          `json:"room"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	AccruedCost    string          `json:"accrued_cost"`
	Tracks         []videoTrackDTO `json:"tracks"`
}

func toSnapshotDTO(s domain.SessionSnapshot) snapshotDTO {
	dto := snapshotDTO{
		ID:             s.ID.String(),
		UserID:         s.UserID.String(),
		CallType:       string(s.CallType),
		CallMode:       string(s.CallMode),
		Status:         string(s.Status),
		Room:           s.Room,
		ElapsedSeconds: s.ElapsedSeconds,
		AccruedCost:    s.AccruedCost.String(),
		Tracks:         make([]videoTrackDTO, 0, len(s.Tracks)),
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		dto.StartedAt = &t
	}
	if !s.EndedAt.IsZero() {
		t := s.EndedAt
		dto.EndedAt = &t
	}
	for _, tr := range s.Tracks {
		dto.Tracks = append(dto.Tracks, videoTrackDTO{TrackID: tr.TrackID, ParticipantID: tr.ParticipantID})
	}
	return dto
}

type settlementDTO struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	CallType        string    `json:"call_type"`
	CallMode        string    `json:"call_mode"`
	DurationMinutes int       `json:"duration_minutes"`
	BilledMinutes   int       `json:"billed_minutes"`
	Cost            string    `json:"cost"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
}

func toSettlementDTO(r domain.SettlementRecord) settlementDTO {
	return settlementDTO{
		SessionID:       r.SessionID.String(),
		UserID:          r.UserID.String(),
		CallType:        string(r.CallType),
		CallMode:        string(r.CallMode),
		DurationMinutes: r.DurationMinutes,
		BilledMinutes:   r.BilledMinutes,
		Cost:            r.Cost.String(),
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
	}
}
