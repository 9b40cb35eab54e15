package user

import (
	"testing"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob.smith", "Admin_01", "j-doe"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("expected %q valid, got %v", u, err)
		}
	}
	invalid := []string{"", "ab", "1alice", "alice!", "a b"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("expected %q invalid", u)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short", "alice"); err == nil {
		t.Error("expected too-short password rejected")
	}
	if err := ValidatePassword("alice-secret-1", "alice"); err == nil {
		t.Error("expected password containing username rejected")
	}
	if err := ValidatePassword("sturdy-pass-1", "alice"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("sturdy-pass-1")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "sturdy-pass-1") {
		t.Error("expected verification to succeed")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("expected verification to fail for wrong password")
	}
	if VerifyPassword("", "sturdy-pass-1") {
		t.Error("expected empty hash to fail")
	}
}

func TestValidateRole(t *testing.T) {
	for _, r := range Roles() {
		if err := ValidateRole(r); err != nil {
			t.Errorf("expected role %s valid", r)
		}
	}
	if err := ValidateRole(Role("SUPERUSER")); err == nil {
		t.Error("expected unknown role rejected")
	}
}
