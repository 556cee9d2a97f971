package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"livewall-backend-go/internal/middleware"
	"livewall-backend-go/internal/models"
)

// requireSession returns the session attached by the auth middleware or writes a 401.
func requireSession(c *gin.Context) (models.Session, bool) {
	session, ok := middleware.SessionFrom(c)
	if !ok || session.ID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return models.Session{}, false
	}
	return session, true
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}
