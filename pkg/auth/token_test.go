package auth

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundtrip(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := tm.Generate("user-123", "moderator")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Role != "moderator" {
		t.Errorf("Role = %q, want %q", claims.Role, "moderator")
	}
}

func TestTokenRejectedWithWrongKey(t *testing.T) {
	tm1, _ := NewTokenManager(testSecret, time.Hour)
	tm2, _ := NewTokenManager("another-secret-key-also-32-bytes!", time.Hour)

	token, err := tm1.Generate("user-123", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := tm2.Validate(token); err == nil {
		t.Error("token signed with a different key validated, want error")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Millisecond)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, err := tm.Generate("user-123", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := tm.Validate(token); err == nil {
		t.Error("expired token validated, want error")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	tm, _ := NewTokenManager(testSecret, time.Hour)
	for _, s := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tm.Validate(s); err == nil {
			t.Errorf("Validate(%q) = nil, want error", s)
		}
	}
}

func TestNewTokenManagerRejectsShortKey(t *testing.T) {
	if _, err := NewTokenManager("short", time.Hour); err == nil {
		t.Error("short secret accepted, want error")
	}
	if _, err := NewTokenManager(testSecret, 0); err == nil {
		t.Error("zero duration accepted, want error")
	}
}
