package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello..."},
		{"zero keeps", "hello", 0, "hello"},
		{"runes", "héllo wörld", 7, "héllo w..."},
		{"cjk", "日本語のテキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("alpha beta", 200); got != "alpha beta..." {
		t.Errorf("Excerpt short = %q", got)
	}
	if got := Excerpt("ééééé", 2); got != "éé..." {
		t.Errorf("Excerpt cut = %q", got)
	}
}
