package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/api"
	"livewall-backend-go/internal/auth"
	"livewall-backend-go/internal/config"
	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/imagegen"
	"livewall-backend-go/internal/middleware"
	"livewall-backend-go/internal/paddle"
	"livewall-backend-go/pkg/cache"
	"livewall-backend-go/pkg/messagequeue"
)

// repositories is the storage backend picked by STORE_DRIVER.
type repositories struct {
	users      db.UserRepository
	wallpapers db.WallpaperRepository
	orders     db.OrderRepository
	audit      db.AuditRepository
	assets     db.AssetStore
	firebase   *db.FirebaseClients // nil for the memory driver
}

func runServer() error {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	logger, err := newLogger(appConfig.IsRelease())
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("Application configuration loaded", zap.String("storeDriver", appConfig.StoreDriver), zap.String("version", Version))

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	repos, err := openRepositories(initCtx, appConfig, logger)
	if err != nil {
		return err
	}
	if repos.firebase != nil {
		defer repos.firebase.Close()
	}

	locker := newLocker(initCtx, appConfig, logger)
	if closer, ok := locker.(*cache.RedisLocker); ok {
		defer closer.Close()
	}

	var publisher core.EventPublisher = &messagequeue.FallbackPublisher{Logger: logger}
	if appConfig.RabbitMQURL != "" {
		rabbit, err := messagequeue.NewRabbitMQPublisher(appConfig.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, billing events will only be logged", zap.Error(err))
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	generator, err := newImageGenerator(initCtx, appConfig, logger)
	if err != nil {
		return err
	}

	var gateway core.CheckoutGateway
	if appConfig.PaymentAPIKey != "" {
		gateway = paddle.NewClient(appConfig.PaymentAPIBaseURL, appConfig.PaymentAPIKey)
	} else {
		logger.Warn("PAYMENT_API_KEY not set; checkout creation is disabled")
	}

	auditService := core.NewAuditService(repos.audit)
	userService := core.NewUserService(repos.users, logger)
	billingService := core.NewBillingService(repos.users, gateway, publisher, auditService, core.BillingConfig{
		WebhookSecret:    appConfig.PaymentWebhookSecret,
		WebhookTolerance: appConfig.PaymentWebhookTolerance,
		PriceID:          appConfig.PaymentPriceID,
		EventsExchange:   appConfig.BillingEventsExchange,
	}, logger)
	generationService := core.NewGenerationService(repos.users, repos.wallpapers, repos.assets, generator, locker, auditService,
		core.GenerationConfig{PremiumPriceCents: appConfig.AIPremiumPriceCents, LockTTL: appConfig.GenerationLockTTL}, logger)
	wallpaperService := core.NewWallpaperService(repos.wallpapers, repos.assets, logger)
	orderService := core.NewOrderService(repos.orders, repos.wallpapers, auditService, appConfig.PaymentPriceID, logger)
	logger.Info("Core services initialized successfully.")

	issuer := auth.NewSessionIssuer(appConfig.SessionSecret, appConfig.SessionTTL, time.Now)
	var google api.OIDCLogin
	if appConfig.GoogleLoginEnabled() {
		provider, err := auth.NewGoogleProvider(initCtx, appConfig.GoogleClientID, appConfig.GoogleClientSecret, appConfig.GoogleRedirectURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google login: %w", err)
		}
		google = provider
	}
	var firebaseVerifier auth.IDTokenVerifier
	if repos.firebase != nil {
		firebaseVerifier = auth.NewFirebaseVerifier(repos.firebase.Auth)
	}
	authHandler := api.NewAuthHandler(userService, issuer, google, firebaseVerifier, api.AuthOptions{
		ClientURL:    appConfig.ClientURL,
		CookieName:   appConfig.SessionCookieName,
		SecureCookie: appConfig.IsRelease(),
	}, logger)

	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))

	api.SetupRoutes(router, api.Dependencies{
		Logger:            logger,
		SessionAuth:       middleware.NewSessionAuth(issuer, userService, appConfig.SessionCookieName, logger),
		UserService:       userService,
		BillingService:    billingService,
		GenerationService: generationService,
		WallpaperService:  wallpaperService,
		OrderService:      orderService,
		AuthHandler:       authHandler,
	})

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute, // AI generation can take a while
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server exiting gracefully.")
	return nil
}

func openRepositories(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*repositories, error) {
	if appConfig.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		store := db.NewMemoryStore()
		return &repositories{
			users:      store.Users(),
			wallpapers: store.Wallpapers(),
			orders:     store.Orders(),
			audit:      store.Audit(),
			assets:     db.NewInlineAssetStore(),
		}, nil
	}

	clients, err := db.InitFirebase(ctx, appConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}
	repos := &repositories{
		users:      db.NewFirestoreUserRepository(clients.Firestore),
		wallpapers: db.NewFirestoreWallpaperRepository(clients.Firestore),
		orders:     db.NewFirestoreOrderRepository(clients.Firestore),
		audit:      db.NewFirestoreAuditRepository(clients.Firestore),
		firebase:   clients,
	}
	if clients.Bucket != nil {
		repos.assets = db.NewBucketAssetStore(clients.Bucket, appConfig.FirebaseStorageBucket, "wallpapers")
	} else {
		logger.Warn("FIREBASE_STORAGE_BUCKET not set; generated images are stored inline")
		repos.assets = db.NewInlineAssetStore()
	}
	logger.Info("Firestore repositories initialized successfully.")
	return repos, nil
}

func newLocker(ctx context.Context, appConfig *config.Config, logger *zap.Logger) cache.Locker {
	if appConfig.RedisURL == "" {
		return cache.NewMemoryLocker()
	}
	locker, err := cache.NewRedisLocker(ctx, appConfig.RedisURL, "livewall:", logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process generation locks", zap.Error(err))
		return cache.NewMemoryLocker()
	}
	return locker
}

func newImageGenerator(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (core.ImageGenerator, error) {
	if appConfig.AIProjectID == "" {
		logger.Warn("AI_PROJECT_ID not set; using the placeholder image generator")
		return imagegen.PlaceholderGenerator{}, nil
	}
	opts, err := db.ClientOptions(appConfig, logger)
	if err != nil {
		return nil, err
	}
	generator, err := imagegen.NewVertexGenerator(ctx, imagegen.VertexConfig{
		ProjectID: appConfig.AIProjectID,
		Location:  appConfig.AILocation,
		Model:     appConfig.AIModel,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vertex AI generator: %w", err)
	}
	logger.Info("Vertex AI image generator initialized", zap.String("model", appConfig.AIModel))
	return generator, nil
}
