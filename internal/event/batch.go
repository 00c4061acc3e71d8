package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// RecordBatch はイベント形式の要素の配列を受け付ける。
// 各要素のtypeを読み取ってログに出す。BatchDispatchが無効の場合は
// 受信の確認のみで永続化しない。有効な場合はtypeに応じて各記録操作に振り分け、
// 振り分け先のないtypeはSkippedとして数える。
// 振り分け中に失敗した場合、それ以前の要素は記録済みのままエラーを返す。
func (s *Service) RecordBatch(ctx context.Context, items []json.RawMessage) (BatchReceipt, error) {
	s.logger.Info("バッチデータを受信しました", slog.Int("count", len(items)))
	s.metrics.RecordBatchItems(len(items))

	receipt := BatchReceipt{Received: len(items)}

	for i, raw := range items {
		typ := itemType(raw)
		s.logger.Info("バッチ要素を処理中",
			slog.Int("index", i+1),
			slog.String("type", typ),
		)

		if !s.dispatch {
			continue
		}

		routed, err := s.dispatchItem(ctx, typ, raw)
		if err != nil {
			return BatchReceipt{}, fmt.Errorf("バッチ要素%d（%s）の記録に失敗: %w", i+1, typ, err)
		}
		if routed {
			receipt.Dispatched++
		} else {
			receipt.Skipped++
		}
	}

	receipt.Timestamp = stamp(s.now())
	return receipt, nil
}

// dispatchItem は要素をtypeに対応する記録操作に渡す。
// 対応する操作がない場合はfalseを返す。
func (s *Service) dispatchItem(ctx context.Context, typ string, raw json.RawMessage) (bool, error) {
	switch typ {
	case "emergency":
		var in EmergencyInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return false, err
		}
		_, err := s.RecordEmergency(ctx, in)
		return err == nil, err
	case "location", "location_update":
		var in LocationInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return false, err
		}
		_, err := s.RecordLocation(ctx, in)
		return err == nil, err
	case "education", "education_progress":
		var in EducationInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return false, err
		}
		_, err := s.RecordEducation(ctx, in)
		return err == nil, err
	case "evidence":
		// バッチではファイル本体を受け取れないため、メタデータのみ記録する
		var in EvidenceInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return false, err
		}
		_, err := s.RecordEvidence(ctx, in, nil)
		return err == nil, err
	default:
		return false, nil
	}
}

// itemType は要素のtypeフィールドを返す。オブジェクトでない、または
// typeが文字列でない場合は空文字を返す。
func itemType(raw json.RawMessage) string {
	var head struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	typ, _ := head.Type.(string)
	return typ
}
