package auth

import (
	"testing"
	"time"
)

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	userID := "patient-123"
	tok, err := BuildJWT(secret, userID, RoleClinician, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	claims, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID || claims.Role != RoleClinician {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Subject != userID {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("test-secret-min-32-chars!!"), "u1", RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	_, err = ParseJWT([]byte("another-secret-entirely!!!"), tok)
	if err == nil {
		t.Fatal("expected signature error")
	}
	if RejectReason(err) != ReasonInvalidSignature {
		t.Fatalf("expected INVALID_SIGNATURE, got %s", RejectReason(err))
	}
}

func TestParseJWTExpired(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildJWT(secret, "u1", RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	_, err = ParseJWT(secret, tok)
	if err == nil {
		t.Fatal("expected expired error")
	}
	if RejectReason(err) != ReasonExpired {
		t.Fatalf("expected EXPIRED, got %s", RejectReason(err))
	}
	// Refresh path: expirado mas íntegro ainda identifica o sujeito.
	claims, err := ParseJWTAllowExpired(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWTAllowExpired: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWTAllowExpiredStillChecksSignature(t *testing.T) {
	tok, err := BuildJWT([]byte("test-secret-min-32-chars!!"), "u1", RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWTAllowExpired([]byte("another-secret-entirely!!!"), tok); err == nil {
		t.Fatal("expired parse must still verify the signature")
	}
}

func TestRejectReasonMalformed(t *testing.T) {
	_, err := ParseJWT([]byte("test-secret-min-32-chars!!"), "not-a-jwt")
	if err == nil {
		t.Fatal("expected malformed error")
	}
	if RejectReason(err) != ReasonMalformed {
		t.Fatalf("expected MALFORMED, got %s", RejectReason(err))
	}
}
