package services

import (
	"testing"

	"taps-alert-api/config"
)

func newTestAuthService() *AuthService {
	return NewAuthService(
		config.JWTConfig{Secret: "test-secret-key", ExpiryHours: 24},
		config.AuthConfig{EmailDomain: "ucdavis.edu"},
	)
}

func TestHashAndCheckPassword(t *testing.T) {
	s := newTestAuthService()

	hash, err := s.HashPassword("my-password-123")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "my-password-123" {
		t.Error("hash should not equal the plaintext password")
	}

	if !s.CheckPassword(hash, "my-password-123") {
		t.Error("CheckPassword() = false for correct password, want true")
	}
	if s.CheckPassword(hash, "wrong-password") {
		t.Error("CheckPassword() = true for wrong password, want false")
	}
}

func TestGenerateAndValidateDeviceToken(t *testing.T) {
	s := newTestAuthService()

	token, err := s.GenerateDeviceToken("550e8400-e29b-41d4-a716-446655440000")
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateDeviceToken() returned empty token")
	}

	claims, err := s.ValidateDeviceToken(token)
	if err != nil {
		t.Fatalf("ValidateDeviceToken() error: %v", err)
	}
	if claims.DeviceID != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("claims.DeviceID = %q, want %q", claims.DeviceID, "550e8400-e29b-41d4-a716-446655440000")
	}
}

func TestValidateDeviceTokenInvalid(t *testing.T) {
	s := newTestAuthService()

	if _, err := s.ValidateDeviceToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, err := s.ValidateDeviceToken(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestValidateDeviceTokenWrongSecret(t *testing.T) {
	s := newTestAuthService()
	other := NewAuthService(
		config.JWTConfig{Secret: "different-secret", ExpiryHours: 24},
		config.AuthConfig{EmailDomain: "ucdavis.edu"},
	)

	token, err := s.GenerateDeviceToken("550e8400-e29b-41d4-a716-446655440000")
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error: %v", err)
	}

	if _, err := other.ValidateDeviceToken(token); err == nil {
		t.Error("expected error validating token signed with a different secret")
	}
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	s := newTestAuthService()

	token, err := s.GenerateAdminToken(7, "staff@ucdavis.edu", "admin")
	if err != nil {
		t.Fatalf("GenerateAdminToken() error: %v", err)
	}

	claims, err := s.ValidateAdminToken(token)
	if err != nil {
		t.Fatalf("ValidateAdminToken() error: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("claims.UserID = %d, want 7", claims.UserID)
	}
	if claims.Email != "staff@ucdavis.edu" {
		t.Errorf("claims.Email = %q, want %q", claims.Email, "staff@ucdavis.edu")
	}
	if claims.Role != "admin" {
		t.Errorf("claims.Role = %q, want %q", claims.Role, "admin")
	}
}

func TestDeviceTokenRejectedAsAdminToken(t *testing.T) {
	s := newTestAuthService()

	token, err := s.GenerateDeviceToken("550e8400-e29b-41d4-a716-446655440000")
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error: %v", err)
	}

	// Device claims carry no user_id, so admin validation must fail.
	if _, err := s.ValidateAdminToken(token); err == nil {
		t.Error("expected error validating a device token as an admin token")
	}
}

func TestIsValidCampusEmail(t *testing.T) {
	s := newTestAuthService()

	tests := []struct {
		email string
		want  bool
	}{
		{"student@ucdavis.edu", true},
		{"first.last@ucdavis.edu", true},
		{"STUDENT@UCDAVIS.EDU", true},
		{"student+tag@ucdavis.edu", true},
		{"student@gmail.com", false},
		{"student@ucdavis.edu.evil.com", false},
		{"student@sub.ucdavis.edu", false},
		{"@ucdavis.edu", false},
		{"student@", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := s.IsValidCampusEmail(tt.email); got != tt.want {
			t.Errorf("IsValidCampusEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestTokenExpirySeconds(t *testing.T) {
	s := newTestAuthService()
	if got := s.TokenExpirySeconds(); got != 24*3600 {
		t.Errorf("TokenExpirySeconds() = %d, want %d", got, 24*3600)
	}
}
