package event

import (
	"encoding/json"
	"io"
)

// 入力フィールドは受け取ったJSON値をそのまま保持し、型と存在の検証は行わない。
// 欠けているフィールドはnullとして記録される。
// クライアントが送るtimestampは参考情報であり、記録にはサーバー時刻を使う。

// EmergencyInput はSOSアラートの送信内容。
type EmergencyInput struct {
	UserID    json.RawMessage `json:"userId"`
	Type      json.RawMessage `json:"type"`
	Location  json.RawMessage `json:"location"`
	Message   json.RawMessage `json:"message"`
	Timestamp json.RawMessage `json:"timestamp"`
	Encrypted json.RawMessage `json:"encrypted"`
}

// LocationInput は位置情報更新の送信内容。
type LocationInput struct {
	UserID    json.RawMessage `json:"userId"`
	Type      json.RawMessage `json:"type"`
	Location  json.RawMessage `json:"location"`
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
	Accuracy  json.RawMessage `json:"accuracy"`
	Speed     json.RawMessage `json:"speed"`
	Timestamp json.RawMessage `json:"timestamp"`
	Encrypted json.RawMessage `json:"encrypted"`
}

// EvidenceInput は証拠ファイルに付随するメタデータ。
type EvidenceInput struct {
	UserID    json.RawMessage `json:"userId"`
	Type      json.RawMessage `json:"type"`
	FileType  json.RawMessage `json:"fileType"`
	FileName  json.RawMessage `json:"fileName"`
	Timestamp json.RawMessage `json:"timestamp"`
	Encrypted json.RawMessage `json:"encrypted"`
}

// EducationInput は学習進捗の送信内容。
type EducationInput struct {
	UserID     json.RawMessage `json:"userId"`
	Type       json.RawMessage `json:"type"`
	LessonName json.RawMessage `json:"lessonName"`
	Score      json.RawMessage `json:"score"`
	Timestamp  json.RawMessage `json:"timestamp"`
	Encrypted  json.RawMessage `json:"encrypted"`
}

// Upload はmultipartで受け取ったファイル本体。
type Upload struct {
	Filename string
	Body     io.Reader
}

// Receipt は記録操作の結果。
type Receipt struct {
	Timestamp string
}

// EvidenceReceipt は証拠記録の結果。ファイルがない場合FileIDはnil。
type EvidenceReceipt struct {
	FileID    *string
	Timestamp string
}

// BatchReceipt はバッチ受信の結果。
type BatchReceipt struct {
	Received   int
	Dispatched int
	Skipped    int
	Timestamp  string
}

// LogPage は日次ログの読み出し結果。
type LogPage struct {
	Records []json.RawMessage
	Count   int
	Found   bool
}
