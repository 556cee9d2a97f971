package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"livewall-backend-go/internal/models"
)

type fakeParser struct{}

func (fakeParser) Parse(token string) (models.SessionClaims, error) {
	if token != "good" {
		return models.SessionClaims{}, errors.New("bad token")
	}
	return models.SessionClaims{Subject: "u1", Name: "Jane"}, nil
}

type fakeSessions struct{ calls int }

func (f *fakeSessions) MaterializeSession(_ context.Context, claims models.SessionClaims) models.Session {
	f.calls++
	return models.Session{ID: claims.Subject, Name: claims.Name, SubscriptionStatus: "active"}
}

func newRouter(auth *SessionAuth, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), RecoveryMiddleware(zap.NewNop()))
	mw := auth.OptionalSession()
	if required {
		mw = auth.RequireSession()
	}
	r.GET("/me", mw, func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, session)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequireSession(t *testing.T) {
	sessions := &fakeSessions{}
	r := newRouter(NewSessionAuth(fakeParser{}, sessions, "sess", zap.NewNop()), true)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sess", Value: "good"}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
	assert.Equal(t, 2, sessions.calls)
}

func TestOptionalSession(t *testing.T) {
	r := newRouter(NewSessionAuth(fakeParser{}, &fakeSessions{}, "sess", zap.NewNop()), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(NewSessionAuth(fakeParser{}, &fakeSessions{}, "sess", zap.NewNop()), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}
