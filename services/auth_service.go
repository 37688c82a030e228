package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"taps-alert-api/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues two kinds of tokens: device tokens for the mobile app
// (subject is the opaque device UUID) and admin tokens for staff accounts.
// Campus emails are validated but never stored; only the verification flag
// survives.
type AuthService struct {
	jwtSecret    []byte
	expiryH      int
	emailPattern *regexp.Regexp
}

func NewAuthService(jwtCfg config.JWTConfig, authCfg config.AuthConfig) *AuthService {
	pattern := regexp.MustCompile(
		`(?i)^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(authCfg.EmailDomain) + `$`,
	)
	return &AuthService{
		jwtSecret:    []byte(jwtCfg.Secret),
		expiryH:      jwtCfg.ExpiryHours,
		emailPattern: pattern,
	}
}

func (s *AuthService) IsValidCampusEmail(email string) bool {
	return s.emailPattern.MatchString(email)
}

// TokenExpirySeconds is reported to clients alongside issued tokens.
func (s *AuthService) TokenExpirySeconds() int {
	return s.expiryH * 3600
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type AdminClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) GenerateDeviceToken(deviceID string) (string, error) {
	claims := DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: deviceID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(
				time.Duration(s.expiryH) * time.Hour,
			)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateDeviceToken(tokenStr string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &DeviceClaims{}, s.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid || claims.DeviceID == "" {
		return nil, errors.New("invalid device token")
	}
	return claims, nil
}

func (s *AuthService) GenerateAdminToken(userID uint, email, role string) (string, error) {
	claims := AdminClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: fmt.Sprintf("user:%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(
				time.Duration(s.expiryH) * time.Hour,
			)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateAdminToken(tokenStr string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, s.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid admin token")
	}
	return claims, nil
}

func (s *AuthService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return s.jwtSecret, nil
}
