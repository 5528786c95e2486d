package embedded

import (
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	s := newTokenSigner("test-secret", "opuscm-users", time.Hour)

	token, err := s.sign("ident-1", map[string]any{"role": "PROJECT_USER"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ident-1" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Custom["role"] != "PROJECT_USER" {
		t.Errorf("custom claims = %v", claims.Custom)
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	s := newTokenSigner("test-secret", "opuscm-users", -time.Hour)

	token, err := s.sign("ident-1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.verify(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	minter := newTokenSigner("secret-a", "opuscm-users", time.Hour)
	checker := newTokenSigner("secret-b", "opuscm-users", time.Hour)

	token, err := minter.sign("ident-1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := checker.verify(token); err == nil {
		t.Error("token signed with another secret verified")
	}
}

func TestTokenVerifyRejectsWrongIssuer(t *testing.T) {
	minter := newTokenSigner("test-secret", "someone-else", time.Hour)
	checker := newTokenSigner("test-secret", "opuscm-users", time.Hour)

	token, err := minter.sign("ident-1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := checker.verify(token); err == nil {
		t.Error("token from another issuer verified")
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	s := newTokenSigner("test-secret", "opuscm-users", time.Hour)
	if _, err := s.verify("not.a.jwt"); err == nil {
		t.Error("garbage token verified")
	}
}
