package security

import (
	"strings"
	"testing"
)

func TestTextSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "Robo en curso",
			want:  "Robo en curso",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "タグは除去され中身は残る",
			input: "<b>Robo</b>",
			want:  "Robo",
		},
		{
			name:  "scriptは中身ごと除去される",
			input: "ayuda<script>alert(1)</script>",
			want:  "ayuda",
		},
		{
			name:  "イベント属性付きのタグも除去される",
			input: `<img src=x onerror="alert(1)">Acoso`,
			want:  "Acoso",
		},
		{
			name:  "前後の空白は詰める",
			input: "  <i>Robo</i> ",
			want:  "Robo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 同一入力に対して常に同一出力を返す
func TestTextSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	input := `<p onclick="x()">Robo</p><iframe src="https://evil.example"></iframe>`

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("not idempotent: %q then %q", first, second)
	}
	if strings.Contains(first, "<") {
		t.Errorf("markup remains: %q", first)
	}
}
