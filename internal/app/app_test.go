package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setTestEnv はファイルストレージで動く最小構成の環境変数を設定する。
func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("EVIDENCE_DIR", filepath.Join(dir, "evidence"))
	t.Setenv("PUBLIC_DIR", filepath.Join(dir, "public"))
	t.Setenv("LOG_STORE", "")
	t.Setenv("EVIDENCE_STORE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_FILE", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	return dir
}

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.LogStore != "file" {
		t.Errorf("LogStore = %q, want file", cfg.LogStore)
	}

	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_WithLogFile_WritesToFile(t *testing.T) {
	dir := setTestEnv(t)
	path := filepath.Join(dir, "soslog.log")
	t.Setenv("LOG_FILE", path)

	var buf bytes.Buffer
	if _, err := Init(&buf); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	slog.Default().Info("file test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file test") {
		t.Errorf("log file = %q", string(data))
	}
	if !strings.Contains(buf.String(), "file test") {
		t.Errorf("writer output = %q", buf.String())
	}
}

func TestInit_WithInvalidConfig_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("LOG_STORE", "postgres")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error when postgres store has no DATABASE_URL")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}

func TestRun_WithInvalidConfig_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("EVIDENCE_STORE", "s3")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"serve"}); err == nil {
		t.Fatal("Run with unsupported evidence store should return error")
	}
}

func TestRun_MigrateWithoutDatabaseURL_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err == nil {
		t.Fatal("migrate without DATABASE_URL should return error")
	}
}

func TestBuildServer_FileStore_ServesEvents(t *testing.T) {
	setTestEnv(t)

	cfg, err := Init(io.Discard)
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}

	srv, err := buildServer(cfg)
	if err != nil {
		t.Fatalf("buildServer error: %v", err)
	}
	defer srv.Close()

	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/emergency", "application/json", strings.NewReader(`{"userId":"u1","message":"Robo - calle 10"}`))
	if err != nil {
		t.Fatalf("POST /api/emergency: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/emergency/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			IsActive bool `json:"isActive"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if !body.Success || !body.Data.IsActive {
		t.Errorf("status = %+v, want an active alert", body)
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		t.Fatalf("read data dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "emergency_") {
		t.Errorf("data dir entries = %v", entries)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(raw), `soslog_events_recorded_total{category="emergency"} 1`) {
		t.Errorf("metrics output missing emergency counter:\n%s", raw)
	}
}

func TestRunHealthcheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	_, port, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}

	t.Setenv("PORT", port)
	if err := Run(io.Discard, []string{"healthcheck"}); err != nil {
		t.Errorf("healthcheck error: %v", err)
	}
}

func TestRunHealthcheck_Unhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, port, _ := net.SplitHostPort(ts.Listener.Addr().String())
	if err := runHealthcheck(port); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	got := maskDatabaseURL("postgres://user:secret@db:5432/soslog")
	if strings.Contains(got, "secret") {
		t.Errorf("masked URL leaks credentials: %q", got)
	}
	if maskDatabaseURL("short") != "***" {
		t.Error("short URL should be fully masked")
	}
}
