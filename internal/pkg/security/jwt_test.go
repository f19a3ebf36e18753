package security

import (
	"strings"
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user 42, got %d", claims.UserID)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Fatal("tampered token must be rejected")
	}
}

func TestExtractSignature(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	sig, err := ExtractSignature(token)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if sig == "" || !strings.HasSuffix(token, sig) {
		t.Fatalf("signature must be the token's last segment, got %q", sig)
	}

	if _, err := ExtractSignature("not-a-jwt"); err == nil {
		t.Fatal("malformed token must be rejected")
	}
}
