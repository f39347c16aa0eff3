package relevance

import "testing"

func TestMatchText(t *testing.T) {
	m := NewMatcher([]string{"세법", "법인세", "Withholding", "international tax"})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"korean keyword", "2024년 세법 개정안 발표", true},
		{"keyword inside longer word", "개정법인세법 시행령", true},
		{"case-insensitive ascii", "Guidance on WITHHOLDING obligations", true},
		{"multi-word keyword", "OECD International Tax framework", true},
		{"no keyword", "날씨 안내", false},
		{"empty text", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.MatchText(tt.text); got != tt.want {
				t.Errorf("MatchText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
