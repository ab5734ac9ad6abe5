package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "fuelcontrol"
	tokenAudience = "fuelcontrol-api"
	sessionTTL    = 7 * 24 * time.Hour
	tokenLeeway   = 30 * time.Second
)

// ErrInvalidCredentials is returned when login or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Manager issues and verifies admin session tokens. The dashboard has a
// single admin account configured via login and bcrypt password hash.
type Manager struct {
	secret       []byte
	adminLogin   string
	passwordHash []byte
	now          func() time.Time
}

// NewManager creates a session token manager.
func NewManager(secret, adminLogin, adminPasswordHash string) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth manager requires a signing secret")
	}
	if adminLogin == "" || adminPasswordHash == "" {
		return nil, errors.New("auth manager requires admin credentials")
	}
	return &Manager{
		secret:       []byte(secret),
		adminLogin:   adminLogin,
		passwordHash: []byte(adminPasswordHash),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login checks credentials and returns a signed session token.
func (m *Manager) Login(login, password string) (string, error) {
	if login != m.adminLogin {
		// Burn a comparison anyway so both failure paths cost the same.
		_ = bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		Subject:   login,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifySubject validates a session token and returns the login it was
// issued to.
func (m *Manager) VerifySubject(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errors.New("token subject missing")
	}
	return subject, nil
}

// HashPassword produces a bcrypt hash for seeding the admin account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
