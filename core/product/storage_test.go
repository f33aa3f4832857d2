package product

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"soap", "soap"},
		{"100%", `100\%`},
		{"towel_set", `towel\_set`},
		{`a\b`, `a\\b`},
		{"%_%", `\%\_\%`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.term); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.term, got, tt.want)
		}
	}
}
