// Package model はドメインモデルを定義する。
package model

import "encoding/json"

// Category はイベントログのカテゴリを表す。
// 日次ログファイル名の接頭辞として使用される。
type Category string

const (
	// CategoryEmergency はSOSアラートのカテゴリ。
	CategoryEmergency Category = "emergency"
	// CategoryLocation は位置情報更新のカテゴリ。
	CategoryLocation Category = "location"
	// CategoryEvidence は証拠ファイルのカテゴリ。
	CategoryEvidence Category = "evidence"
	// CategoryEducation は学習進捗のカテゴリ。
	CategoryEducation Category = "education"
)

// 永続化レコードのtypeフィールドに書き込まれる値。
const (
	RecordTypeEmergency = "emergency"
	RecordTypeLocation  = "location_update"
	RecordTypeEvidence  = "evidence"
	RecordTypeEducation = "education_progress"
)

// TimestampLayout はサーバーが付与するタイムスタンプの書式（UTC、ミリ秒精度）。
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DayLayout は日次ログのキーとなる日付の書式。
const DayLayout = "2006-01-02"

// EmergencyEvent はSOSアラートの記録。
// timestampとtype以外はクライアントが送ったJSON値をそのまま保持し、
// 送信されなかったフィールドはnullとして保存される。
type EmergencyEvent struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	UserID    json.RawMessage `json:"userId"`
	Location  json.RawMessage `json:"location"`
	Message   json.RawMessage `json:"message"`
	Encrypted json.RawMessage `json:"encrypted"`
}

// LocationEvent は位置情報更新の記録。accuracyとspeedは送信された場合のみ保存する。
type LocationEvent struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	UserID    json.RawMessage `json:"userId"`
	Location  json.RawMessage `json:"location"`
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
	Accuracy  json.RawMessage `json:"accuracy,omitempty"`
	Speed     json.RawMessage `json:"speed,omitempty"`
	Encrypted json.RawMessage `json:"encrypted"`
}

// EvidenceRecord はアップロードされた証拠ファイルのメタデータ。
// ファイル本体は evidence.Store が所有し、ここでは参照のみを保持する。
type EvidenceRecord struct {
	Timestamp    string          `json:"timestamp"`
	Type         string          `json:"type"`
	UserID       json.RawMessage `json:"userId"`
	FileType     json.RawMessage `json:"fileType"`
	OriginalName json.RawMessage `json:"originalName"`
	SavedName    *string         `json:"savedName"`
	Path         *string         `json:"path"`
	Size         int64           `json:"size"`
	Encrypted    json.RawMessage `json:"encrypted"`
}

// EducationEvent は学習進捗の記録。
type EducationEvent struct {
	Timestamp  string          `json:"timestamp"`
	Type       string          `json:"type"`
	UserID     json.RawMessage `json:"userId"`
	LessonName json.RawMessage `json:"lessonName"`
	Score      json.RawMessage `json:"score"`
	Encrypted  json.RawMessage `json:"encrypted"`
}
