package textutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Work complete!", "Work complete!"},
		{"leading trailing", "  Task complete  ", "Task complete"},
		{"interior runs", "All \t tasks\n\nfinished!", "All tasks finished!"},
		{"case preserved", "Mission Accomplished!", "Mission Accomplished!"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
		{"nfc composition", "café", "café"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	input := "  Ada,   your agent\nneeds your input  "
	once := Normalize(input)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q then %q", once, twice)
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Rachel", "rachel"},
		{"21m00Tcm4TlvDq8ikWAM", "21m00tcm4tlvdq8ikwam"},
		{"en_US female", "en_us_female"},
		{"", "unknown"},
		{"___", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.input); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
