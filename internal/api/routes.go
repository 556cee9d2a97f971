package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/middleware"
)

// Dependencies carries everything SetupRoutes wires into handlers.
type Dependencies struct {
	Logger            *zap.Logger
	SessionAuth       *middleware.SessionAuth
	UserService       core.UserService
	BillingService    core.BillingService
	GenerationService core.GenerationService
	WallpaperService  core.WallpaperService
	OrderService      core.OrderService
	AuthHandler       *AuthHandler
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is expected to be applied to router beforehand.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	requireSession := deps.SessionAuth.RequireSession()
	optionalSession := deps.SessionAuth.OptionalSession()

	userHandler := NewUserHandler(deps.UserService, deps.Logger)
	billingHandler := NewBillingHandler(deps.BillingService, deps.Logger)
	generationHandler := NewGenerationHandler(deps.GenerationService, deps.Logger)
	wallpaperHandler := NewWallpaperHandler(deps.WallpaperService, deps.Logger)
	orderHandler := NewOrderHandler(deps.OrderService, deps.Logger)

	apiV1 := router.Group("/api/v1")
	{
		if deps.AuthHandler != nil {
			authGroup := apiV1.Group("/auth")
			authGroup.GET("/google/login", deps.AuthHandler.GoogleLogin)
			authGroup.GET("/google/callback", deps.AuthHandler.GoogleCallback)
			authGroup.POST("/firebase", deps.AuthHandler.FirebaseSignIn)
			authGroup.GET("/session", optionalSession, deps.AuthHandler.CurrentSession)
			authGroup.POST("/signout", deps.AuthHandler.SignOut)
		}

		apiV1.GET("/users/me", requireSession, userHandler.GetCurrentUserProfile)

		wallpapers := apiV1.Group("/wallpapers")
		{
			wallpapers.GET("", wallpaperHandler.ListWallpapers)
			wallpapers.POST("", requireSession, wallpaperHandler.UploadWallpaper)
			wallpapers.GET("/:id", wallpaperHandler.GetWallpaper)
			wallpapers.POST("/:id/like", wallpaperHandler.LikeWallpaper)
			wallpapers.GET("/:id/download", optionalSession, wallpaperHandler.DownloadWallpaper)
		}

		orders := apiV1.Group("/orders", requireSession)
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.POST("/complete", orderHandler.CompleteOrder)
		}

		apiV1.POST("/ai/generate", requireSession, generationHandler.Generate)

		billing := apiV1.Group("/billing")
		{
			billing.POST("/checkout", requireSession, billingHandler.CreateCheckout)
			// Authenticated by signature, not by session.
			billing.POST("/webhook", billingHandler.HandleWebhook)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Livewall backend is healthy."})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	deps.Logger.Info("API routes configured successfully under /api/v1, /health and /metrics.")
}
