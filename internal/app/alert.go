package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/soslog/internal/config"
	"github.com/hitoshi/soslog/internal/event"
	"github.com/hitoshi/soslog/internal/model"
	"github.com/hitoshi/soslog/internal/share"
)

// phoneList は繰り返し指定できる -phone フラグ。
type phoneList []string

func (p *phoneList) String() string { return strings.Join(*p, ",") }

func (p *phoneList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// alertOptions はalertサブコマンドの引数。
type alertOptions struct {
	server   string
	phones   phoneList
	lat      float64
	lon      float64
	message  string
	userID   string
	duration time.Duration
}

func parseAlertFlags(cfg *config.Config, args []string, output io.Writer) (*alertOptions, error) {
	opts := &alertOptions{}
	fs := flag.NewFlagSet("alert", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.server, "server", cfg.ServerURL, "イベントログサービスのURL")
	fs.Var(&opts.phones, "phone", "共有先の電話番号（複数指定可）")
	fs.Float64Var(&opts.lat, "lat", 0, "緯度")
	fs.Float64Var(&opts.lon, "lon", 0, "経度")
	fs.StringVar(&opts.message, "message", "Alerta SOS activada", "アラートの説明")
	fs.StringVar(&opts.userID, "user", "", "ユーザーID")
	fs.DurationVar(&opts.duration, "duration", 30*time.Minute, "位置共有の継続時間")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// runAlert はSOSアラートをサービスへ送り、各連絡先への共有URLをwへ出力する。
// サービスへの送信に失敗しても共有は行う。
func runAlert(ctx context.Context, cfg *config.Config, w io.Writer, args []string) error {
	if w == nil {
		w = io.Discard
	}
	opts, err := parseAlertFlags(cfg, args, w)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid alert arguments: %w", err)
	}

	reporter := share.NewReporter(&http.Client{Timeout: 10 * time.Second}, slog.Default(), opts.server)
	reportAlert(ctx, reporter, opts)

	if len(opts.phones) == 0 {
		slog.Warn("no contacts given, skipping share")
		return nil
	}

	session := share.NewSession(share.DefaultStrategies(share.NewWriterDispatcher(w)), slog.Default())
	info, ok, err := session.Start(ctx, share.Request{
		Phones:      opts.phones,
		Latitude:    opts.lat,
		Longitude:   opts.lon,
		Description: opts.message,
		Duration:    opts.duration,
	})
	if err != nil {
		return fmt.Errorf("share failed: %w", err)
	}
	defer session.Stop()

	if !ok {
		return fmt.Errorf("could not share location with any of %d contacts", len(info.Phones))
	}
	return nil
}

// reportAlert は位置情報、アラートの順にサービスへ送る。失敗はログに残すのみ。
func reportAlert(ctx context.Context, reporter *share.Reporter, opts *alertOptions) {
	now := event.Raw(time.Now().UTC().Format(model.TimestampLayout))
	location := event.Raw(fmt.Sprintf("%v,%v", opts.lat, opts.lon))
	var user json.RawMessage
	if opts.userID != "" {
		user = event.Raw(opts.userID)
	}

	if _, err := reporter.ReportLocation(ctx, event.LocationInput{
		UserID:    user,
		Type:      event.Raw("location"),
		Location:  location,
		Latitude:  event.Raw(opts.lat),
		Longitude: event.Raw(opts.lon),
		Timestamp: now,
	}); err != nil {
		slog.Warn("failed to report location", slog.String("error", err.Error()))
	}

	if _, err := reporter.ReportEmergency(ctx, event.EmergencyInput{
		UserID:    user,
		Type:      event.Raw("emergency"),
		Location:  location,
		Message:   event.Raw(opts.message),
		Timestamp: now,
	}); err != nil {
		slog.Warn("failed to report emergency", slog.String("error", err.Error()))
	}
}
