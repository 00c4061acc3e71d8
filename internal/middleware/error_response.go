package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// FailureBody はAPIエラーレスポンスの統一フォーマット。
// messageは操作ごとの利用者向けメッセージ、errorは原因のエラーメッセージ。
type FailureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// WriteJSON はvをJSONとしてstatusCodeで書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスのエンコードに失敗しました", slog.String("error", err.Error()))
	}
}

// WriteFailure は500と統一エラーフォーマットを書き込む。
// 処理中の失敗はすべてこの形で応答し、400系は返さない。
func WriteFailure(w http.ResponseWriter, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, FailureBody{
		Success: false,
		Message: message,
		Error:   detail,
	})
}
