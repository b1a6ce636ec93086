package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordAndCheck(t *testing.T) {
	plain := "senha-do-paciente-123"
	hash, err := HashPassword(plain)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == plain {
		t.Fatal("hash must not equal plaintext")
	}
	// bcrypt embute o custo no hash: $2a$12$...
	if !strings.HasPrefix(hash, "$2a$12$") {
		t.Fatalf("expected bcrypt cost 12 marker, got %q", hash[:7])
	}
	if !CheckPassword(hash, plain) {
		t.Fatal("CheckPassword should succeed for correct password")
	}
	if CheckPassword(hash, "senha-errada") {
		t.Fatal("CheckPassword should fail for wrong password")
	}
	if CheckPassword(hash, "") {
		t.Fatal("CheckPassword should fail for empty password")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	h1, err := HashPassword("senha123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("senha123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
	if !CheckPassword(h2, "senha123") {
		t.Fatal("second hash must still verify")
	}
}
