package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/netutil"

	"github.com/hitoshi/soslog/internal/config"
	"github.com/hitoshi/soslog/internal/database"
	"github.com/hitoshi/soslog/internal/event"
	"github.com/hitoshi/soslog/internal/evidence"
	"github.com/hitoshi/soslog/internal/handler"
	"github.com/hitoshi/soslog/internal/logger"
	"github.com/hitoshi/soslog/internal/metrics"
	"github.com/hitoshi/soslog/internal/middleware"
	"github.com/hitoshi/soslog/internal/repository"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
// LOG_FILEが設定されていればローテーション付きのファイルにも出力する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogFile != "" {
		if w == nil {
			w = os.Stdout
		}
		logger.SetupDefault(logger.WithFile(w, cfg.LogFile))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		PrintUsage(w)
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = os.Getenv("SERVER_PORT")
		}
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("log_store", cfg.LogStore),
		slog.String("evidence_store", cfg.EvidenceStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandAlert:
		return runAlert(context.Background(), cfg, w, args[1:])
	default:
		return runServe(cfg)
	}
}

// server はrunServeが起動するHTTPハンドラーと、その後始末をまとめたもの。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	closers     []io.Closer
}

// Close は保持しているリソースを解放する。
func (s *server) Close() error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildServer は設定に従ってストレージとサービスを組み立て、ルーターを構築する。
func buildServer(cfg *config.Config) (*server, error) {
	srv := &server{}

	// 1. 日次ログのストレージ
	var repo repository.DayLogRepository
	switch cfg.LogStore {
	case config.LogStorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, version, err := database.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return nil, err
		}
		srv.closers = append(srv.closers, db)
		slog.Info("database connection established",
			slog.String("table", database.DayLogsTable),
			slog.Uint64("schema_version", uint64(version)),
		)
		repo = repository.NewPostgresDayLogRepo(db)
	default:
		repo = repository.NewFileDayLogRepo(cfg.DataDir)
	}

	// 2. 証拠ファイルのストレージ
	var store evidence.Store
	switch cfg.EvidenceStore {
	case config.EvidenceStoreMinio:
		ms, err := evidence.NewMinioStore(evidence.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			srv.Close()
			return nil, err
		}
		store = ms
	default:
		store = evidence.NewLocalStore(cfg.EvidenceDir)
	}

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 4. サービスとルーター
	svc := event.NewService(repo, store, collector, slog.Default(), event.Config{
		Location:      cfg.Location,
		BatchDispatch: cfg.BatchDispatch,
	})

	srv.rateLimiter = middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitPerMinute))
	srv.handler = handler.NewRouter(&handler.RouterDeps{
		Service:           svc,
		MaxUploadSize:     cfg.MaxUploadSize,
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       srv.rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		PublicDir:         cfg.PublicDir,
	})

	return srv, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	httpServer := &http.Server{
		Handler:      srv.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", ln.Addr().String()),
			slog.Int("max_connections", cfg.MaxConnections),
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.String("table", database.DayLogsTable),
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/status エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/api/status", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
