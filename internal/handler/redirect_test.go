package handler

import "testing"

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"simple relative path", "/dashboard", "/dashboard"},
		{"nested relative path", "/dashboard/stats?week=3", "/dashboard/stats?week=3"},
		{"empty", "", ""},
		{"absolute url", "https://evil.example.com/", ""},
		{"protocol relative", "//evil.example.com/", ""},
		{"backslash trick", "/\\evil.example.com", ""},
		{"missing leading slash", "dashboard", ""},
		{"api path blocked", "/api/auth/me", ""},
		{"admin path blocked", "/admin/users", ""},
		{"system path blocked", "/system/flags", ""},
		{"blocked prefix mid-path", "/go/api/keys", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := safeRedirectPath(tc.target); got != tc.want {
				t.Fatalf("safeRedirectPath(%q) = %q, want %q", tc.target, got, tc.want)
			}
		})
	}
}
