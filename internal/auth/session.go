package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"livewall-backend-go/internal/models"
)

const sessionIssuer = "livewall"

// ErrInvalidSession is returned for missing, malformed, expired or forged session tokens.
var ErrInvalidSession = errors.New("invalid session token")

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates a SessionIssuer. A nil clock means time.Now.
func NewSessionIssuer(secret string, ttl time.Duration, now func() time.Time) *SessionIssuer {
	if now == nil {
		now = time.Now
	}
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL returns the lifetime of issued tokens.
func (s *SessionIssuer) TTL() time.Duration { return s.ttl }

// Issue signs a session token for the user.
func (s *SessionIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a session token and returns its claims.
func (s *SessionIssuer) Parse(token string) (models.SessionClaims, error) {
	if token == "" {
		return models.SessionClaims{}, ErrInvalidSession
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return models.SessionClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return models.SessionClaims{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}
