package ui

import (
	"strings"
	"testing"
)

func TestHelpersWrapAndReset(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) string
		color string
	}{
		{"bold", Bold, ColorBold},
		{"success", Success, ColorGreen},
		{"info", Info, ColorYellow},
		{"error", Error, ColorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("msg")
			if !strings.Contains(got, tt.color) || !strings.Contains(got, "msg") {
				t.Errorf("%s(%q) = %q", tt.name, "msg", got)
			}
			if !strings.HasSuffix(got, ColorReset) {
				t.Errorf("%s output does not reset styling: %q", tt.name, got)
			}
		})
	}
}
