package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ログストアの種類。
const (
	LogStoreFile     = "file"
	LogStorePostgres = "postgres"
)

// 証拠ファイルストアの種類。
const (
	EvidenceStoreLocal = "local"
	EvidenceStoreMinio = "minio"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort     string
	MaxConnections int
	PublicDir      string

	// Storage
	DataDir     string
	LogStore    string
	DatabaseURL string
	Location    *time.Location

	// Evidence
	EvidenceDir    string
	EvidenceStore  string
	MaxUploadSize  int64
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Batch
	BatchDispatch bool

	// Rate Limit
	RateLimitPerMinute int

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogFile string

	// Client (alert サブコマンド)
	ServerURL string
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があり、選択したバックエンドが必要とする値が
// 欠けている場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// PORT（元の実装と同じ名前）を優先し、SERVER_PORTも受け付ける
	cfg.ServerPort = getEnvString("PORT", getEnvString("SERVER_PORT", "3000"))
	cfg.MaxConnections = getEnvInt("MAX_CONNECTIONS", 256)
	cfg.PublicDir = getEnvString("PUBLIC_DIR", "public")

	cfg.DataDir = getEnvString("DATA_DIR", "data")
	cfg.LogStore = strings.ToLower(getEnvString("LOG_STORE", LogStoreFile))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.EvidenceDir = getEnvString("EVIDENCE_DIR", "uploads/evidence")
	cfg.EvidenceStore = strings.ToLower(getEnvString("EVIDENCE_STORE", EvidenceStoreLocal))
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 32<<20)
	cfg.MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	cfg.MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.MinioBucket = getEnvString("MINIO_BUCKET", "evidence")
	cfg.MinioUseSSL = getEnvBool("MINIO_USE_SSL", false)

	cfg.BatchDispatch = getEnvBool("BATCH_DISPATCH", false)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 600)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.ServerURL = strings.TrimRight(getEnvString("SERVER_URL", "http://localhost:3000"), "/")

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	switch cfg.LogStore {
	case LogStoreFile:
	case LogStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LOG_STORE=%s", LogStorePostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported LOG_STORE %q (want %s or %s)", cfg.LogStore, LogStoreFile, LogStorePostgres)
	}

	switch cfg.EvidenceStore {
	case EvidenceStoreLocal:
	case EvidenceStoreMinio:
		if cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required when EVIDENCE_STORE=%s", EvidenceStoreMinio)
		}
	default:
		return nil, fmt.Errorf("unsupported EVIDENCE_STORE %q (want %s or %s)", cfg.EvidenceStore, EvidenceStoreLocal, EvidenceStoreMinio)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
