package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/soslog/internal/model"
)

const (
	defaultThreatType  = "Emergencia"
	defaultDescription = "Alerta SOS activada"
	deviceModel        = "Android Device"
)

var unknownDevice = json.RawMessage(`"unknown"`)

// Status は当日のemergency/locationログと全emergencyログから緊急状態を導出する。
// 当日の最新アラートから ActiveWindow 未満であれば有効とみなす。
func (s *Service) Status(ctx context.Context) (model.DerivedStatus, error) {
	now := s.now()
	day := s.day(now)

	status := model.DerivedStatus{
		Device: model.DeviceView{ID: unknownDevice, Model: deviceModel, Version: Version},
	}

	emergencies, _, err := s.repo.Read(ctx, string(model.CategoryEmergency), day)
	if err != nil {
		return model.DerivedStatus{}, fmt.Errorf("当日のアラートの読み込みに失敗: %w", err)
	}
	var alert *model.EmergencyEvent
	if len(emergencies) > 0 {
		alert = &model.EmergencyEvent{}
		if err := json.Unmarshal(emergencies[len(emergencies)-1], alert); err != nil {
			return model.DerivedStatus{}, &model.CorruptLogError{Path: string(model.CategoryEmergency) + "_" + day, Err: err}
		}
		status.Stats.AlertsToday = len(emergencies)
	}

	locations, _, err := s.repo.Read(ctx, string(model.CategoryLocation), day)
	if err != nil {
		return model.DerivedStatus{}, fmt.Errorf("当日の位置情報の読み込みに失敗: %w", err)
	}
	if len(locations) > 0 {
		var loc model.LocationEvent
		if err := json.Unmarshal(locations[len(locations)-1], &loc); err != nil {
			return model.DerivedStatus{}, &model.CorruptLogError{Path: string(model.CategoryLocation) + "_" + day, Err: err}
		}
		status.Location = &model.LocationView{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Accuracy:  orZero(loc.Accuracy),
			Speed:     orZero(loc.Speed),
			Timestamp: loc.Timestamp,
		}
	}

	total, err := s.repo.Count(ctx, string(model.CategoryEmergency))
	if err != nil {
		return model.DerivedStatus{}, fmt.Errorf("アラート総数の集計に失敗: %w", err)
	}
	status.Stats.TotalAlerts = total

	if alert != nil {
		if truthy(alert.UserID) {
			status.Device.ID = alert.UserID
		}
		if IsAlertActive(alert.Timestamp, now) {
			status.IsActive = true
			status.Alert = &model.AlertView{
				IsActive:    true,
				StartTime:   alert.Timestamp,
				ThreatType:  s.sanitizer.Sanitize(threatType(alert.Message)),
				Description: s.sanitizer.Sanitize(description(alert.Message)),
			}
		}
	}

	return status, nil
}

// IsAlertActive はtimestampからnowまでの経過時間がActiveWindow未満かを判定する。
// ちょうどActiveWindowの場合と、解析できないtimestampの場合は無効とする。
func IsAlertActive(timestamp string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return false
	}
	return now.Sub(t) < ActiveWindow
}

// threatType はメッセージの最初の":"より前を脅威の種類とする。
// 文字列でないメッセージはJSONのリテラルを文字列として扱う。
func threatType(message json.RawMessage) string {
	if !truthy(message) {
		return defaultThreatType
	}
	head, _, _ := strings.Cut(text(message), ":")
	if head == "" {
		return defaultThreatType
	}
	return head
}

func description(message json.RawMessage) string {
	if !truthy(message) {
		return defaultDescription
	}
	return text(message)
}
