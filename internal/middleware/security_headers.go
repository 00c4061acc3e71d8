package middleware

import (
	"net/http"
	"strings"
)

// NewSecurityHeadersMiddleware はダッシュボードとイベントAPIに共通の応答ヘッダーを付与する。
// ダッシュボードは地図表示に端末の位置情報を使うためgeolocationを同一オリジンに許可する。
// /api/ の応答は利用者の位置や通報内容を含むため、中継キャッシュに残さない。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(self)")
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
