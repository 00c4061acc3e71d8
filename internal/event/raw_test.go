package event

import (
	"encoding/json"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		raw  json.RawMessage
		want string
	}{
		{nil, ""},
		{json.RawMessage("null"), ""},
		{json.RawMessage(`"Robo: x"`), "Robo: x"},
		{json.RawMessage("1.0"), "1.0"},
		{json.RawMessage("9007199254740993"), "9007199254740993"},
		{json.RawMessage(`{ "a" : 1 }`), `{"a":1}`},
		{json.RawMessage("true"), "true"},
	}
	for _, tt := range tests {
		if got := text(tt.raw); got != tt.want {
			t.Errorf("text(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		raw  json.RawMessage
		want bool
	}{
		{nil, false},
		{json.RawMessage("null"), false},
		{json.RawMessage("false"), false},
		{json.RawMessage("0"), false},
		{json.RawMessage("0.0"), false},
		{json.RawMessage(`""`), false},
		{json.RawMessage(`"0"`), true},
		{json.RawMessage("-1"), true},
		{json.RawMessage("[]"), true},
		{json.RawMessage("{}"), true},
		{json.RawMessage("true"), true},
	}
	for _, tt := range tests {
		if got := truthy(tt.raw); got != tt.want {
			t.Errorf("truthy(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestOrZero(t *testing.T) {
	if got := string(orZero(nil)); got != "0" {
		t.Errorf("orZero(nil) = %s, want 0", got)
	}
	if got := string(orZero(json.RawMessage(`"12.5"`))); got != `"12.5"` {
		t.Errorf(`orZero("12.5") = %s, want it unchanged`, got)
	}
}
