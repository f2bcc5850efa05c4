package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  room 12  ", want: "room 12"},
		{name: "multiple spaces between words", input: "room    12", want: "room 12"},
		{name: "tabs and newlines", input: "room\t\n12", want: "room 12"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Café & Spa™ ", want: "Café & Spa™"},
		{name: "hebrew characters", input: " חדר ישיבות ", want: "חדר ישיבות"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "R", want: "R"},
		{name: "surrounding whitespace", input: "  R-101\n", want: "R-101"},
		{name: "control characters dropped", input: "R\x00-1\x07", want: "R-1"},
		{name: "only control characters", input: "\x00\x1b", want: ""},
		{name: "inner whitespace collapsed", input: "user \t 7", want: "user 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeID(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeID(got); again != got {
				t.Errorf("NormalizeID is not idempotent: %q -> %q", got, again)
			}
		})
	}
}
