package auth

import (
	"testing"
	"time"

	"github.com/finalapps/orbit/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, _, err := tm.GenerateToken("op-1", domain.RoleOperator, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "op-1" {
		t.Fatalf("subject %s, want op-1", claims.SubjectID)
	}
	if claims.Role != domain.RoleOperator {
		t.Fatalf("role %s, want operator", claims.Role)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("issuer-secret")
	verifier := NewTokenManager("other-secret")

	token, _, err := issuer.GenerateToken("op-1", domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, _, err := tm.GenerateToken("op-1", domain.RoleOperator, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expected expiry failure")
	}
}
