// Package event はSOSイベントの記録と緊急状態の導出を行うサービスを提供する。
// 各記録操作はカテゴリ・日付ごとの日次ログに1件追記する。
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/soslog/internal/evidence"
	"github.com/hitoshi/soslog/internal/metrics"
	"github.com/hitoshi/soslog/internal/model"
	"github.com/hitoshi/soslog/internal/repository"
	"github.com/hitoshi/soslog/internal/security"
)

const (
	// Version はヘルスプローブで返すサービスのバージョン。
	Version = "1.0.0"
	// ActiveWindow はアラートを有効とみなす期間。設定では変更できない。
	ActiveWindow = 60 * time.Minute
)

// Config はServiceの動作設定。
type Config struct {
	// Location は日次ログの日付を決めるタイムゾーン。nilの場合はtime.Local。
	Location *time.Location
	// BatchDispatch がtrueの場合、バッチ要素を各カテゴリのログに振り分ける。
	BatchDispatch bool
	// Now は現在時刻を返す。nilの場合はtime.Now。
	Now func() time.Time
}

// Service はイベントログサービス。
type Service struct {
	repo      repository.DayLogRepository
	store     evidence.Store
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	dispatch  bool
	sanitizer security.TextSanitizer

	// カテゴリごとに時刻の確定から追記までを直列化する
	locks map[model.Category]*sync.Mutex
}

// NewService はServiceを生成する。collectorとloggerはnilでもよい。
func NewService(
	repo repository.DayLogRepository,
	store evidence.Store,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:      repo,
		store:     store,
		metrics:   collector,
		logger:    logger,
		loc:       loc,
		now:       now,
		dispatch:  cfg.BatchDispatch,
		sanitizer: security.NewTextSanitizer(),
		locks: map[model.Category]*sync.Mutex{
			model.CategoryEmergency: {},
			model.CategoryLocation:  {},
			model.CategoryEvidence:  {},
			model.CategoryEducation: {},
		},
	}
}

// RecordEmergency はSOSアラートをemergency_<today>に追記する。
func (s *Service) RecordEmergency(ctx context.Context, in EmergencyInput) (Receipt, error) {
	s.logger.Info("SOSアラートを受信しました",
		slog.String("user_id", text(in.UserID)),
		slog.String("location", text(in.Location)),
		slog.String("message", text(in.Message)),
		slog.String("client_timestamp", text(in.Timestamp)),
		slog.String("encrypted", text(in.Encrypted)),
	)

	err := s.append(ctx, model.CategoryEmergency, func(ts string) any {
		return model.EmergencyEvent{
			Timestamp: ts,
			Type:      model.RecordTypeEmergency,
			UserID:    in.UserID,
			Location:  in.Location,
			Message:   in.Message,
			Encrypted: in.Encrypted,
		}
	})
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{Timestamp: stamp(s.now())}, nil
}

// RecordLocation は位置情報をlocation_<today>に追記する。
func (s *Service) RecordLocation(ctx context.Context, in LocationInput) (Receipt, error) {
	s.logger.Info("位置情報を受信しました",
		slog.String("user_id", text(in.UserID)),
		slog.String("latitude", text(in.Latitude)),
		slog.String("longitude", text(in.Longitude)),
		slog.String("location", text(in.Location)),
	)

	err := s.append(ctx, model.CategoryLocation, func(ts string) any {
		return model.LocationEvent{
			Timestamp: ts,
			Type:      model.RecordTypeLocation,
			UserID:    in.UserID,
			Location:  in.Location,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Accuracy:  in.Accuracy,
			Speed:     in.Speed,
			Encrypted: in.Encrypted,
		}
	})
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{Timestamp: stamp(s.now())}, nil
}

// RecordEvidence は証拠ファイルを保存し、そのメタデータをevidence_<today>に追記する。
// ファイルがない場合もメタデータのみ記録する（FileIDはnil、サイズは0）。
// ファイル保存に失敗した場合はメタデータを追記しない。
func (s *Service) RecordEvidence(ctx context.Context, in EvidenceInput, up *Upload) (EvidenceReceipt, error) {
	s.logger.Info("証拠ファイルを受信しました",
		slog.String("user_id", text(in.UserID)),
		slog.String("file_type", text(in.FileType)),
		slog.String("file_name", text(in.FileName)),
		slog.Bool("has_file", up != nil),
	)

	var (
		savedName *string
		path      *string
		size      int64
	)
	if up != nil {
		name := evidence.FileName(s.now().In(s.loc), up.Filename)
		stored, err := s.store.Save(ctx, name, up.Body)
		if err != nil {
			s.metrics.RecordPersistenceError(string(model.CategoryEvidence))
			s.logger.Error("証拠ファイルの保存に失敗しました",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
			return EvidenceReceipt{}, fmt.Errorf("証拠ファイルの保存に失敗: %w", err)
		}
		savedName, path, size = &stored.Name, &stored.Path, stored.Size
	}

	err := s.append(ctx, model.CategoryEvidence, func(ts string) any {
		return model.EvidenceRecord{
			Timestamp:    ts,
			Type:         model.RecordTypeEvidence,
			UserID:       in.UserID,
			FileType:     in.FileType,
			OriginalName: in.FileName,
			SavedName:    savedName,
			Path:         path,
			Size:         size,
			Encrypted:    in.Encrypted,
		}
	})
	if err != nil {
		return EvidenceReceipt{}, err
	}

	return EvidenceReceipt{FileID: savedName, Timestamp: stamp(s.now())}, nil
}

// RecordEducation は学習進捗をeducation_<today>に追記する。
func (s *Service) RecordEducation(ctx context.Context, in EducationInput) (Receipt, error) {
	s.logger.Info("学習進捗を受信しました",
		slog.String("user_id", text(in.UserID)),
		slog.String("lesson_name", text(in.LessonName)),
		slog.String("score", text(in.Score)),
	)

	err := s.append(ctx, model.CategoryEducation, func(ts string) any {
		return model.EducationEvent{
			Timestamp:  ts,
			Type:       model.RecordTypeEducation,
			UserID:     in.UserID,
			LessonName: in.LessonName,
			Score:      in.Score,
			Encrypted:  in.Encrypted,
		}
	})
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{Timestamp: stamp(s.now())}, nil
}

// Logs は(category, date)の日次ログをそのまま返す。
// categoryとdateは検証しない。存在しない組み合わせはFound=falseの空結果になる。
func (s *Service) Logs(ctx context.Context, category, date string) (LogPage, error) {
	records, found, err := s.repo.Read(ctx, category, date)
	if err != nil {
		return LogPage{}, fmt.Errorf("ログの読み込みに失敗: %w", err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return LogPage{Records: records, Count: len(records), Found: found}, nil
}

// ServerStatus は状態を読まない静的なヘルスチェック応答を返す。
func (s *Service) ServerStatus() model.ServerStatus {
	return model.ServerStatus{
		Status:    "online",
		Message:   "Servidor Prevención Segura funcionando",
		Timestamp: stamp(s.now()),
		Version:   Version,
	}
}

// append はカテゴリのロックを取ってから記録時刻を決め、buildが返すレコードを
// その日の日次ログに追記する。同一カテゴリのタイムスタンプは追記順に非減少となる。
func (s *Service) append(ctx context.Context, category model.Category, build func(ts string) any) error {
	mu := s.locks[category]
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	day := s.day(now)

	start := time.Now()
	err := s.repo.Append(ctx, string(category), day, build(stamp(now)))
	s.metrics.RecordWriteLatency(time.Since(start))

	if err != nil {
		s.metrics.RecordPersistenceError(string(category))
		s.logger.Error("日次ログへの追記に失敗しました",
			slog.String("category", string(category)),
			slog.String("day", day),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%sログへの追記に失敗: %w", category, err)
	}

	s.metrics.RecordEvent(string(category))
	return nil
}

// day は日次ログのキーとなるローカル日付を返す。
func (s *Service) day(t time.Time) string {
	return t.In(s.loc).Format(model.DayLayout)
}

// stamp はサーバー付与タイムスタンプ（UTC、ミリ秒精度）を返す。
func stamp(t time.Time) string {
	return t.UTC().Format(model.TimestampLayout)
}
