package model

import "encoding/json"

// DerivedStatus はダッシュボード向けの緊急状態の投影。
// 永続化されず、リクエストごとに日次ログから再計算される。
type DerivedStatus struct {
	IsActive bool            `json:"isActive"`
	Alert    *AlertView      `json:"alert"`
	Location *LocationView   `json:"location"`
	Device   DeviceView      `json:"device"`
	Stats    AlertStatistics `json:"stats"`
}

// AlertView は有効なアラートの表示用情報。
type AlertView struct {
	IsActive    bool   `json:"isActive"`
	StartTime   string `json:"startTime"`
	ThreatType  string `json:"threatType"`
	Description string `json:"description"`
}

// LocationView は最新位置の表示用情報。
// 座標などは記録された値をそのまま返す。
type LocationView struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
	Accuracy  json.RawMessage `json:"accuracy"`
	Speed     json.RawMessage `json:"speed"`
	Timestamp string          `json:"timestamp"`
}

// DeviceView は最後にアラートを送信した端末の情報。
// IDは最後のアラートのuserIdの値をそのまま返す。
type DeviceView struct {
	ID      json.RawMessage `json:"id"`
	Model   string          `json:"model"`
	Version string          `json:"version"`
}

// AlertStatistics はアラート件数の集計。
type AlertStatistics struct {
	AlertsToday int `json:"alertsToday"`
	TotalAlerts int `json:"totalAlerts"`
}

// ServerStatus はヘルスチェックの応答。
type ServerStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
