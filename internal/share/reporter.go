package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/soslog/internal/event"
)

// maxResponseSize はサービス応答の読み取り上限（バイト）。
const maxResponseSize = 1 << 20

// Reporter はSOS発信時にイベントログサービスへ位置情報とアラートを送るクライアント。
type Reporter struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewReporter はReporterを生成する。baseURLはサービスのルート（例: http://localhost:3000）。
func NewReporter(httpClient *http.Client, logger *slog.Logger, baseURL string) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// serviceResponse はサービスの応答のうち参照するフィールド。
type serviceResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// ReportLocation は位置情報を /api/location に送る。
func (r *Reporter) ReportLocation(ctx context.Context, in event.LocationInput) (string, error) {
	return r.post(ctx, "/api/location", in)
}

// ReportEmergency はSOSアラートを /api/emergency に送る。
func (r *Reporter) ReportEmergency(ctx context.Context, in event.EmergencyInput) (string, error) {
	return r.post(ctx, "/api/emergency", in)
}

// post はbodyをJSONで送り、成功時はサーバーが付与したタイムスタンプを返す。
func (r *Reporter) post(ctx context.Context, path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "soslog-alert/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("イベントログサービスの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result serviceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		r.logger.Error("イベントログサービスのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました（ステータス %d）: %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !result.Success {
		r.logger.Error("イベントログサービスがエラーを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", result.Message),
			slog.String("error", result.Error),
		)
		return "", fmt.Errorf("%s がステータス %d を返しました: %s: %s", path, resp.StatusCode, result.Message, result.Error)
	}

	return result.Timestamp, nil
}
