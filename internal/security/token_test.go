package security

import "testing"

const testSecret = "test-secret-key-that-is-long-enough"

func TestGrantTokenRoundTrip(t *testing.T) {
	token, err := GenerateGrantToken(12345, testSecret)
	if err != nil {
		t.Fatalf("GenerateGrantToken() error = %v", err)
	}

	claims, err := ValidateGrantToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateGrantToken() error = %v", err)
	}
	if claims.IssuedBy != 12345 {
		t.Errorf("IssuedBy = %d, want 12345", claims.IssuedBy)
	}
	if claims.ID == "" {
		t.Error("grant token has no jti")
	}
}

func TestGrantTokensAreDistinct(t *testing.T) {
	first, err := GenerateGrantToken(1, testSecret)
	if err != nil {
		t.Fatalf("GenerateGrantToken() error = %v", err)
	}
	second, err := GenerateGrantToken(1, testSecret)
	if err != nil {
		t.Fatalf("GenerateGrantToken() error = %v", err)
	}
	if first == second {
		t.Error("two grants for the same issuer must not collide")
	}
}

func TestValidateGrantToken_WrongSecret(t *testing.T) {
	token, err := GenerateGrantToken(1, testSecret)
	if err != nil {
		t.Fatalf("GenerateGrantToken() error = %v", err)
	}
	if _, err := ValidateGrantToken(token, "another-secret-key-that-is-long"); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestValidateGrantToken_Garbage(t *testing.T) {
	if _, err := ValidateGrantToken("not-a-token", testSecret); err == nil {
		t.Error("garbage validated as a token")
	}
}
