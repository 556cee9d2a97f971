package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/models"
)

// Context keys set by SessionAuth.
const (
	ContextSessionKey = "session"
	ContextUserIDKey  = "userID"
)

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenParser verifies a signed session token.
type TokenParser interface {
	Parse(token string) (models.SessionClaims, error)
}

// SessionMaterializer builds the session view for verified claims.
type SessionMaterializer interface {
	MaterializeSession(ctx context.Context, claims models.SessionClaims) models.Session
}

// SessionAuth resolves the session from the session cookie or a Bearer token.
type SessionAuth struct {
	parser     TokenParser
	sessions   SessionMaterializer
	cookieName string
	logger     *zap.Logger
}

// NewSessionAuth creates a SessionAuth.
func NewSessionAuth(parser TokenParser, sessions SessionMaterializer, cookieName string, logger *zap.Logger) *SessionAuth {
	return &SessionAuth{parser: parser, sessions: sessions, cookieName: cookieName, logger: logger}
}

// RequireSession aborts with 401 unless a valid session is present.
func (m *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.attach(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		c.Next()
	}
}

// OptionalSession attaches the session when one is present and never aborts.
func (m *SessionAuth) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.attach(c)
		c.Next()
	}
}

func (m *SessionAuth) attach(c *gin.Context) bool {
	token := m.tokenFrom(c)
	if token == "" {
		return false
	}
	claims, err := m.parser.Parse(token)
	if err != nil {
		m.logger.Debug("Rejected session token", zap.Error(err))
		return false
	}
	session := m.sessions.MaterializeSession(c.Request.Context(), claims)
	c.Set(ContextSessionKey, session)
	c.Set(ContextUserIDKey, session.ID)
	return true
}

func (m *SessionAuth) tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil {
		return cookie
	}
	return ""
}

// SessionFrom returns the session attached by SessionAuth.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	raw, ok := c.Get(ContextSessionKey)
	if !ok {
		return models.Session{}, false
	}
	session, ok := raw.(models.Session)
	return session, ok
}
