package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/hitoshi/soslog/internal/event"
	"github.com/hitoshi/soslog/internal/middleware"
	"github.com/hitoshi/soslog/internal/model"
)

// jsonBodyLimit はJSONリクエストボディの上限（バイト）。
const jsonBodyLimit = 1 << 20

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	RecordEmergency(ctx context.Context, in event.EmergencyInput) (event.Receipt, error)
	RecordLocation(ctx context.Context, in event.LocationInput) (event.Receipt, error)
	RecordEvidence(ctx context.Context, in event.EvidenceInput, up *event.Upload) (event.EvidenceReceipt, error)
	RecordEducation(ctx context.Context, in event.EducationInput) (event.Receipt, error)
	RecordBatch(ctx context.Context, items []json.RawMessage) (event.BatchReceipt, error)
	// Status は当日のログから導出した緊急状態を返す。
	Status(ctx context.Context) (model.DerivedStatus, error)
	// Logs は(category, date)の日次ログを返す。
	Logs(ctx context.Context, category, date string) (event.LogPage, error)
	// ServerStatus は静的なヘルスチェック応答を返す。
	ServerStatus() model.ServerStatus
}

// EventHandler はイベント受信とダッシュボード向け参照のHTTPハンドラー。
type EventHandler struct {
	service       EventServiceInterface
	maxUploadSize int64
}

// NewEventHandler はEventHandlerを生成する。
// maxUploadSizeは証拠アップロードのボディ上限（バイト）。
func NewEventHandler(service EventServiceInterface, maxUploadSize int64) *EventHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 32 << 20
	}
	return &EventHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// recordResponse は記録操作の成功レスポンス。
type recordResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// evidenceResponse は証拠記録の成功レスポンス。ファイルがない場合fileIdはnull。
type evidenceResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	FileID    *string `json:"fileId"`
	Timestamp string  `json:"timestamp"`
}

// batchResponse はバッチ受信の成功レスポンス。
type batchResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Received   int    `json:"received"`
	Dispatched int    `json:"dispatched,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// RecordEmergency はSOSアラートを受信する。
// POST /api/emergency
func (h *EventHandler) RecordEmergency(w http.ResponseWriter, r *http.Request) {
	const failure = "Error procesando alerta SOS"

	var in event.EmergencyInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	receipt, err := h.service.RecordEmergency(r.Context(), in)
	if err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, recordResponse{
		Success:   true,
		Message:   "Alerta SOS recibida y procesada",
		Timestamp: receipt.Timestamp,
	})
}

// RecordLocation は位置情報の更新を受信する。
// POST /api/location
func (h *EventHandler) RecordLocation(w http.ResponseWriter, r *http.Request) {
	const failure = "Error procesando ubicación"

	var in event.LocationInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	receipt, err := h.service.RecordLocation(r.Context(), in)
	if err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, recordResponse{
		Success:   true,
		Message:   "Ubicación actualizada",
		Timestamp: receipt.Timestamp,
	})
}

// RecordEvidence は証拠ファイルとメタデータを受信する。
// POST /api/evidence
//
// multipart/form-dataの場合はパート"file"をファイル本体、その他のフィールドを
// メタデータとして扱う。それ以外のContent-TypeではボディをJSONのメタデータとして読む。
func (h *EventHandler) RecordEvidence(w http.ResponseWriter, r *http.Request) {
	const failure = "Error procesando archivo de evidencia"

	var (
		in event.EvidenceInput
		up *event.Upload
	)

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			writeFailure(r, w, failure, fmt.Errorf("multipartの解析に失敗: %w", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		in = evidenceInputFromForm(r.MultipartForm)

		file, header, err := r.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// ファイルなしでもメタデータは記録する
		case err != nil:
			writeFailure(r, w, failure, fmt.Errorf("ファイルパートの読み込みに失敗: %w", err))
			return
		default:
			defer file.Close()
			up = &event.Upload{Filename: header.Filename, Body: file}
		}
	} else if err := decodeJSONBody(w, r, &in); err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	receipt, err := h.service.RecordEvidence(r.Context(), in, up)
	if err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, evidenceResponse{
		Success:   true,
		Message:   "Archivo de evidencia recibido",
		FileID:    receipt.FileID,
		Timestamp: receipt.Timestamp,
	})
}

// RecordEducation は学習進捗を受信する。
// POST /api/education
func (h *EventHandler) RecordEducation(w http.ResponseWriter, r *http.Request) {
	const failure = "Error procesando progreso educativo"

	var in event.EducationInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	receipt, err := h.service.RecordEducation(r.Context(), in)
	if err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, recordResponse{
		Success:   true,
		Message:   "Progreso educativo guardado",
		Timestamp: receipt.Timestamp,
	})
}

// RecordBatch はイベントの配列を受信する。
// POST /api/batch
// ボディが配列でない場合は失敗として扱う。
func (h *EventHandler) RecordBatch(w http.ResponseWriter, r *http.Request) {
	const failure = "Error procesando datos en lote"

	var items []json.RawMessage
	if err := decodeJSONBody(w, r, &items); err != nil {
		writeFailure(r, w, failure, err)
		return
	}
	if items == nil {
		writeFailure(r, w, failure, errors.New("la carga del lote debe ser un arreglo"))
		return
	}

	receipt, err := h.service.RecordBatch(r.Context(), items)
	if err != nil {
		writeFailure(r, w, failure, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, batchResponse{
		Success:    true,
		Message:    fmt.Sprintf("Lote de %d elementos procesado", receipt.Received),
		Received:   receipt.Received,
		Dispatched: receipt.Dispatched,
		Skipped:    receipt.Skipped,
		Timestamp:  receipt.Timestamp,
	})
}

// decodeJSONBody はボディをvにデコードする。空のボディは空オブジェクトとして扱う。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, jsonBodyLimit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("JSONの解析に失敗: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// evidenceInputFromForm はmultipartのフィールドからメタデータを組み立てる。
// フォームの値はすべて文字列として記録し、送られなかったフィールドはnilのまま。
func evidenceInputFromForm(form *multipart.Form) event.EvidenceInput {
	return event.EvidenceInput{
		UserID:    formValue(form, "userId"),
		Type:      formValue(form, "type"),
		FileType:  formValue(form, "fileType"),
		FileName:  formValue(form, "fileName"),
		Timestamp: formValue(form, "timestamp"),
		Encrypted: formValue(form, "encrypted"),
	}
}

func formValue(form *multipart.Form, key string) json.RawMessage {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return event.Raw(values[0])
}

// writeFailure は失敗をログに記録し、統一フォーマットの500を返す。
func writeFailure(r *http.Request, w http.ResponseWriter, message string, err error) {
	slog.Error(message,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteFailure(w, message, err)
}
