package auth

import (
	"net/http/httptest"
	"testing"
)

func TestSecretChecker_Unconfigured(t *testing.T) {
	t.Parallel()

	for _, checker := range []*SecretChecker{nil, {}, NewSecretChecker("")} {
		if checker.Enabled() {
			t.Fatal("expected checker to be disabled")
		}
		for _, header := range []string{"", "Bearer anything", "garbage"} {
			if !checker.Allow(header) {
				t.Errorf("unconfigured checker rejected %q", header)
			}
		}
	}
}

func TestSecretChecker_ExactMatch(t *testing.T) {
	t.Parallel()

	checker := NewSecretChecker("s3cret")

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"match", "Bearer s3cret", true},
		{"missing", "", false},
		{"wrong_secret", "Bearer other", false},
		{"prefix_of_secret", "Bearer s3cre", false},
		{"secret_with_suffix", "Bearer s3cret2", false},
		{"lowercase_scheme", "bearer s3cret", false},
		{"no_scheme", "s3cret", false},
		{"trailing_space", "Bearer s3cret ", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := checker.Allow(test.header); got != test.want {
				t.Errorf("Allow(%q) = %v, want %v", test.header, got, test.want)
			}
		})
	}
}

func TestSecretChecker_AllowRequest(t *testing.T) {
	t.Parallel()

	checker := NewSecretChecker("cron-secret")

	req := httptest.NewRequest("POST", "/cron/check-balance", nil)
	if checker.AllowRequest(req) {
		t.Error("request without header should be rejected")
	}

	req.Header.Set("Authorization", "Bearer cron-secret")
	if !checker.AllowRequest(req) {
		t.Error("request with matching header should be allowed")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	if got := BearerToken("Bearer abc"); got != "abc" {
		t.Errorf("BearerToken = %q, want abc", got)
	}
	if got := BearerToken("Basic abc"); got != "" {
		t.Errorf("BearerToken = %q, want empty", got)
	}
}
