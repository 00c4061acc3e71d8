package event

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Raw はvをJSONに変換したフィールド値を返す。変換できない値はnil（記録時はnull）。
func Raw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// text はフィールド値を表示用の文字列にする。
// JSON文字列はその中身、null・欠落は空文字、それ以外はJSONのリテラルのまま。
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// truthy はフィールド値が空でないかを返す。
// 欠落、null、false、0、空文字列は空とみなす。
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case '"':
		return text(raw) != ""
	case '{', '[', 't':
		return true
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || f != 0
	}
}

// orZero は空のフィールド値を0に置き換える。
func orZero(raw json.RawMessage) json.RawMessage {
	if !truthy(raw) {
		return json.RawMessage("0")
	}
	return raw
}
