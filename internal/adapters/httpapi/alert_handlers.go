package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/asimaster/pricerank/internal/domain/alert"
)

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	alerts, err := s.alerts.ListByTenant(r.Context(), id, offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	alertID, err := strconv.Atoi(chi.URLParam(r, "alertID"))
	if err != nil || alertID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	if err := s.alerts.MarkRead(r.Context(), id, alertID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

type alertSettingRequest struct {
	Kind      string   `json:"kind"`
	Enabled   bool     `json:"enabled"`
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleUpsertAlertSetting(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req alertSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind := alert.Kind(req.Kind)
	if kind != alert.KindPriceUndercut && kind != alert.KindRankDrop {
		writeError(w, http.StatusBadRequest, "invalid alert kind")
		return
	}
	setting := &alert.Setting{
		TenantID:  id,
		Kind:      kind,
		Enabled:   req.Enabled,
		Threshold: req.Threshold,
	}
	if err := s.alertSettings.Upsert(r.Context(), setting); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

type pushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (s *Server) handleSavePushSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req pushSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}
	sub := &alert.PushSubscription{
		TenantID: id,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.subscriptions.Save(r.Context(), sub); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleDeletePushSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req pushUnsubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := s.subscriptions.DeleteByEndpoint(r.Context(), id, req.Endpoint); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
