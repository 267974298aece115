package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", "HS256", ttl)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

func TestSignAndParse(t *testing.T) {
	tm := newTestManager(t, time.Hour)

	token, err := tm.Sign("alice", 42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	principal, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if principal.Username != "alice" {
		t.Errorf("username = %q, want %q", principal.Username, "alice")
	}
	if principal.ID != 42 {
		t.Errorf("id = %d, want 42", principal.ID)
	}
}

func TestParseInvalidTokens(t *testing.T) {
	tm := newTestManager(t, time.Hour)

	valid, err := tm.Sign("alice", 42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := newTestManager(t, time.Hour)
	other.secret = []byte("different-secret")
	wrongKey, err := other.Sign("alice", 42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", valid[:len(valid)-10]},
		{"wrong key", wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.Parse(tt.token); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseExpiredToken(t *testing.T) {
	tm := newTestManager(t, -time.Minute)

	token, err := tm.Sign("alice", 42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := tm.Parse(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestParseMissingClaims(t *testing.T) {
	tm := newTestManager(t, time.Hour)

	token, err := tm.Sign("", 0)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err = tm.Parse(token)
	if err == nil {
		t.Fatal("expected error for missing claims, got nil")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewTokenManagerRejectsNonHMAC(t *testing.T) {
	for _, alg := range []string{"RS256", "ES256", "none", "bogus"} {
		if _, err := NewTokenManager("secret", alg, time.Hour); err == nil {
			t.Errorf("NewTokenManager(%q) succeeded, want error", alg)
		}
	}
}
