package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/soslog/internal/metrics"
	"github.com/hitoshi/soslog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// イベントサービス
	Service       EventServiceInterface
	MaxUploadSize int64

	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector

	// MetricsHandler が nil の場合 /metrics は公開しない。
	MetricsHandler http.Handler

	// 静的ファイル
	PublicDir string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → CORS → SecurityHeaders → RateLimit(/api のみ)
//
// OPTIONSプリフライトはルーティング前にCORSミドルウェアが204で応答する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	eventHandler := NewEventHandler(deps.Service, deps.MaxUploadSize)
	staticHandler := NewStaticHandler(deps.PublicDir)

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// イベント受信
		r.Post("/emergency", eventHandler.RecordEmergency)
		r.Post("/location", eventHandler.RecordLocation)
		r.Post("/evidence", eventHandler.RecordEvidence)
		r.Post("/education", eventHandler.RecordEducation)
		r.Post("/batch", eventHandler.RecordBatch)

		// 参照
		r.Get("/status", eventHandler.ServerStatus)
		r.Get("/emergency/status", eventHandler.EmergencyStatus)
		r.Get("/logs/{type}/{date}", eventHandler.Logs)
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/", staticHandler.Index)
	r.Get("/*", staticHandler.Files)

	return r
}
