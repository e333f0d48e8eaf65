package chatstore

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "Short message is used verbatim",
			message: "Wie hoch ist der Umsatz?",
			want:    "Wie hoch ist der Umsatz?",
		},
		{
			name:    "Exactly fifty characters stays untouched",
			message: strings.Repeat("a", 50),
			want:    strings.Repeat("a", 50),
		},
		{
			name:    "Longer messages are cut at fifty with an ellipsis",
			message: strings.Repeat("a", 51),
			want:    strings.Repeat("a", 50) + "...",
		},
		{
			name:    "Truncation counts runes, not bytes",
			message: strings.Repeat("ü", 60),
			want:    strings.Repeat("ü", 50) + "...",
		},
		{
			name:    "Empty message yields an empty title",
			message: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.message); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}
