package web

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestCheckbox(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"on", true},
		{"ON", true},
		{"true", true},
		{"1", true},
		{" on ", true},
		{"", false},
		{"off", false},
		{"false", false},
		{"yes", false},
	}

	for _, tt := range tests {
		form := url.Values{}
		if tt.value != "" {
			form.Set("available", tt.value)
		}

		r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		if got := Checkbox(r, "available"); got != tt.want {
			t.Errorf("Checkbox(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestField(t *testing.T) {
	form := url.Values{"title": {"  soap \t"}}

	r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if got := Field(r, "title"); got != "soap" {
		t.Fatalf("Field returned %q, want %q", got, "soap")
	}
	if got := Field(r, "missing"); got != "" {
		t.Fatalf("missing field returned %q", got)
	}
}
