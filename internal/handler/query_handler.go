package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/soslog/internal/middleware"
	"github.com/hitoshi/soslog/internal/model"
)

// statusResponse はダッシュボード向け緊急状態のレスポンス。
type statusResponse struct {
	Success bool                `json:"success"`
	Data    model.DerivedStatus `json:"data"`
}

// logsResponse は日次ログ参照のレスポンス。ログがない場合のみmessageを含む。
type logsResponse struct {
	Success bool              `json:"success"`
	Data    []json.RawMessage `json:"data"`
	Count   int               `json:"count"`
	Message string            `json:"message,omitempty"`
}

// ServerStatus はヘルスチェック。状態を読まずに常に応答する。
// GET /api/status
func (h *EventHandler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.ServerStatus())
}

// EmergencyStatus は当日のログから導出した緊急状態を返す。
// GET /api/emergency/status
func (h *EventHandler) EmergencyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		writeFailure(r, w, "Error obteniendo estado de emergencia", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Data:    status,
	})
}

// Logs は(type, date)の日次ログをそのまま返す。
// GET /api/logs/{type}/{date}
func (h *EventHandler) Logs(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "type")
	date := chi.URLParam(r, "date")

	page, err := h.service.Logs(r.Context(), category, date)
	if err != nil {
		writeFailure(r, w, "Error obteniendo logs", err)
		return
	}

	resp := logsResponse{
		Success: true,
		Data:    page.Records,
		Count:   page.Count,
	}
	if !page.Found {
		resp.Message = "No hay logs para esta fecha"
	}
	if resp.Data == nil {
		resp.Data = []json.RawMessage{}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
