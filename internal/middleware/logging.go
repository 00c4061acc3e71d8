package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder はステータスコードと応答サイズを記録するResponseWriter。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はWriteHeader前に呼ばれた場合200として記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// logCategories はアクセスログにcategoryとして出すAPIパスの区分。
var logCategories = map[string]bool{
	"emergency": true,
	"location":  true,
	"evidence":  true,
	"education": true,
	"batch":     true,
}

// eventCategory は /api/<category>... または /api/logs/<category>/<date> から区分を取り出す。
// 該当しないパスでは空文字を返す。
func eventCategory(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return ""
	}
	rest = strings.TrimPrefix(rest, "logs/")
	head, _, _ := strings.Cut(rest, "/")
	if !logCategories[head] {
		return ""
	}
	return head
}

// NewLoggingMiddleware はSOSイベントAPIのアクセスログを出力するミドルウェアを返す。
// method、path、status、duration_ms、client、response_bytesに加え、
// イベント系のパスではcategory、本文のあるリクエストではrequest_bytesを出す。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
				slog.String("client", clientKey(r)),
				slog.Int("response_bytes", rec.bytes),
			}
			if c := eventCategory(r.URL.Path); c != "" {
				args = append(args, slog.String("category", c))
			}
			// 証拠ファイルのアップロードは大きくなりうるので本文サイズを残す
			if r.ContentLength > 0 {
				args = append(args, slog.Int64("request_bytes", r.ContentLength))
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				args = append(args, slog.String("request_id", id))
			}

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
