package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"livewall-backend-go/internal/auth"
	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/middleware"
	"livewall-backend-go/internal/models"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// TokenIssuer signs session tokens. auth.SessionIssuer satisfies it.
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// OIDCLogin is the redirect-based login flow. auth.GoogleProvider satisfies it.
type OIDCLogin interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (models.Identity, error)
}

// AuthOptions configures the cookies and redirects of the auth endpoints.
type AuthOptions struct {
	ClientURL    string
	CookieName   string
	SecureCookie bool
}

// AuthHandler handles sign-in, session lookup and sign-out.
type AuthHandler struct {
	userService core.UserService
	issuer      TokenIssuer
	google      OIDCLogin            // nil when Google login is not configured
	firebase    auth.IDTokenVerifier // nil when the firestore driver is not used
	opts        AuthOptions
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService, issuer TokenIssuer, google OIDCLogin, firebase auth.IDTokenVerifier, opts AuthOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: us, issuer: issuer, google: google, firebase: firebase, opts: opts, logger: logger}
}

// GoogleLogin handles GET /api/v1/auth/google/login and redirects to the consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Google login is not enabled"})
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateTTL.Seconds()), "/", "", h.opts.SecureCookie, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback handles GET /api/v1/auth/google/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Google login is not enabled"})
		return
	}
	failure := strings.TrimRight(h.opts.ClientURL, "/") + "/auth/error"

	expected, err := c.Cookie(oauthStateCookie)
	state := c.Query("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		h.logger.Warn("OAuth state mismatch on Google callback")
		c.Redirect(http.StatusFound, failure)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.opts.SecureCookie, true)

	identity, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warn("Google code exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, failure)
		return
	}
	if _, _, err := h.signIn(c, identity); err != nil {
		c.Redirect(http.StatusFound, failure)
		return
	}
	c.Redirect(http.StatusFound, h.opts.ClientURL)
}

// FirebaseSignIn handles POST /api/v1/auth/firebase, exchanging a Firebase ID token for a session.
func (h *AuthHandler) FirebaseSignIn(c *gin.Context) {
	if h.firebase == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Firebase sign-in is not enabled"})
		return
	}
	var req models.FirebaseSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	identity, err := h.firebase.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("Firebase ID token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid ID token"})
		return
	}

	token, user, err := h.signIn(c, identity)
	if err != nil {
		if errors.Is(err, core.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Identity is missing an email address"})
			return
		}
		internalError(c)
		return
	}
	session := sessionFromUser(user)
	c.JSON(http.StatusOK, SessionResponse{Session: &session, Token: token})
}

// CurrentSession handles GET /api/v1/auth/session. A signed-out caller gets a null session.
func (h *AuthHandler) CurrentSession(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusOK, SessionResponse{})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: &session})
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.SecureCookie, true)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

// signIn upserts the user, issues a session token and sets the session cookie.
func (h *AuthHandler) signIn(c *gin.Context, identity models.Identity) (string, *models.User, error) {
	user, created, err := h.userService.SignIn(c.Request.Context(), identity)
	if err != nil {
		h.logger.Error("Sign-in failed", zap.String("provider", identity.Provider), zap.Error(err))
		return "", nil, err
	}
	token, expires, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.String("userID", user.ID), zap.Error(err))
		return "", nil, err
	}
	maxAge := int(time.Until(expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, maxAge, "/", "", h.opts.SecureCookie, true)
	h.logger.Info("User signed in", zap.String("userID", user.ID), zap.String("provider", identity.Provider), zap.Bool("created", created))
	return token, user, nil
}

func sessionFromUser(user *models.User) models.Session {
	status := user.SubscriptionStatus
	if status == "" {
		status = models.SubscriptionStatusInactive
	}
	return models.Session{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Image:              user.Avatar,
		IsCreator:          user.IsCreator,
		SubscriptionStatus: status,
	}
}
