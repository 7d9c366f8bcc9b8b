package inaturalist

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenManagerSaveAndLoad(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "token_state.json")

	mgr, err := NewTokenManager(statePath)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if _, err := mgr.Token(); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing before save, got %v", err)
	}

	if err := mgr.Save("  abc123  "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, err := mgr.Token()
	if err != nil {
		t.Fatalf("Token after save: %v", err)
	}
	if token != "abc123" {
		t.Fatalf("expected trimmed token, got %q", token)
	}

	// A second manager on the same path must see the persisted state.
	reloaded, err := NewTokenManager(statePath)
	if err != nil {
		t.Fatalf("NewTokenManager reload: %v", err)
	}
	token, err = reloaded.Token()
	if err != nil {
		t.Fatalf("Token after reload: %v", err)
	}
	if token != "abc123" {
		t.Fatalf("expected persisted token, got %q", token)
	}
}

func TestTokenManagerRejectsEmptyToken(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "token_state.json")
	mgr, err := NewTokenManager(statePath)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if err := mgr.Save("   "); err == nil {
		t.Fatal("expected error saving blank token")
	}
}

func TestTokenManagerFreshnessWindow(t *testing.T) {
	base := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	current := base
	clock := func() time.Time { return current }

	statePath := filepath.Join(t.TempDir(), "token_state.json")
	mgr, err := NewTokenManager(statePath, WithClock(clock))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if err := mgr.Save("abc123"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cases := []struct {
		name  string
		age   time.Duration
		valid bool
	}{
		{"just saved", 0, true},
		{"one second short", TokenLifetime - time.Second, true},
		{"exactly at lifetime", TokenLifetime, false},
		{"well past lifetime", TokenLifetime + time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current = base.Add(tc.age)
			valid, reason := mgr.Valid()
			if valid != tc.valid {
				t.Fatalf("Valid at age %s = %v (%s), want %v", tc.age, valid, reason, tc.valid)
			}
			_, err := mgr.Token()
			if tc.valid && err != nil {
				t.Fatalf("Token at age %s: %v", tc.age, err)
			}
			if !tc.valid && !errors.Is(err, ErrTokenExpired) {
				t.Fatalf("Token at age %s: expected ErrTokenExpired, got %v", tc.age, err)
			}
		})
	}
}

func TestTokenManagerAge(t *testing.T) {
	base := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	current := base
	clock := func() time.Time { return current }

	statePath := filepath.Join(t.TempDir(), "token_state.json")
	mgr, err := NewTokenManager(statePath, WithClock(clock))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	if _, ok := mgr.Age(); ok {
		t.Fatal("expected Age to report no token before save")
	}

	if err := mgr.Save("abc123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	current = base.Add(3 * time.Hour)
	age, ok := mgr.Age()
	if !ok {
		t.Fatal("expected Age to report a token after save")
	}
	if age != 3*time.Hour {
		t.Fatalf("expected age 3h, got %s", age)
	}
}
