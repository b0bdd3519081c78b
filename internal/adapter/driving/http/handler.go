package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/adapter/driven/gateway/ws"
	settlement "github.com/tolkvo/callengine/internal/adapter/driven/settlement/memory"
	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/service"
)

type Handler struct {
	Manager *service.CallManager
	Catalog *service.PricingCatalog
	History *settlement.Store
	Hub     *ws.Hub
}

func NewHandler(manager *service.CallManager, catalog *service.PricingCatalog, history *settlement.Store, hub *ws.Hub) *Handler {
	return &Handler{
		Manager: manager,
		Catalog: catalog,
		History: history,
		Hub:     hub,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pricing", h.GetPricing)
		r.Get("/history", h.GetHistory)
		r.Post("/calls", h.StartCall)
		r.Route("/calls/{id}", func(r chi.Router) {
			r.Get("/", h.GetCall)
			r.Post("/end", h.EndCall)
			r.Post("/audio", h.SetAudio)
			r.Post("/video", h.SetVideo)
			r.Post("/camera", h.SwitchCamera)
		})
	})

	r.Get("/ws", h.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	rules := h.Catalog.Rules()
	dtos := make([]pricingRuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, toPricingRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records := h.History.History()
	dtos := make([]settlementDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toSettlementDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

type startCallRequest struct {
	UserID   string `json:"user_id"`
	CallType string `json:"call_type"`
	CallMode string `json:"call_mode"`
}

func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := domain.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	sess, err := h.Manager.Start(r.Context(), userID, domain.CallType(req.CallType), domain.CallMode(req.CallMode))
	if err != nil {
		var denied *domain.AdmissionDeniedError
		switch {
		case errors.As(err, &denied):
			writeJSON(w, http.StatusPaymentRequired, toBalanceCheckDTO(denied.Result))
		case errors.Is(err, domain.ErrRuleNotFound):
			writeError(w, http.StatusNotFound, "no pricing rule for this call type and mode")
		case errors.Is(err, domain.ErrCallInProgress):
			writeError(w, http.StatusConflict, "a call is already in progress")
		default:
			log.Error().Err(err).Msg("failed to start call")
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, toSnapshotDTO(sess.Snapshot()))
}

func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(sess.Snapshot()))
}

func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.End()
	writeJSON(w, http.StatusAccepted, toSnapshotDTO(sess.Snapshot()))
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) SetAudio(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(sess *service.CallSession, enabled bool) {
		sess.SetAudioEnabled(enabled)
	})
}

func (h *Handler) SetVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(sess *service.CallSession, enabled bool) {
		sess.SetVideoEnabled(enabled)
	})
}

func (h *Handler) SwitchCamera(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.SwitchCamera()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, apply func(*service.CallSession, bool)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	apply(sess, req.Enabled)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*service.CallSession, bool) {
	id, err := domain.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	sess, err := h.Manager.Session(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
