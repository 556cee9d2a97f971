package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/metrics"
	"livewall-backend-go/internal/models"
	"livewall-backend-go/pkg/cache"
)

var (
	ErrEmptyPrompt          = errors.New("prompt is required")
	ErrNotSubscribed        = errors.New("active subscription required")
	ErrGenerationInProgress = errors.New("a generation is already running for this user")
	ErrGenerationFailed     = errors.New("image generation failed")
)

const (
	aiCategory      = "ai-generated"
	maxTitleRunes   = 60
	generationLockP = "generate:"
)

// GenerationResult is returned to the client after a successful generation.
type GenerationResult struct {
	ImageURL    string `json:"imageUrl"`
	WallpaperID string `json:"wallpaperId"`
	IsPremium   bool   `json:"isPremium"`
	Price       int64  `json:"price"`
}

// GenerationConfig carries generation settings.
type GenerationConfig struct {
	PremiumPriceCents int64
	LockTTL           time.Duration
}

type generationService struct {
	userRepo      db.UserRepository
	wallpaperRepo db.WallpaperRepository
	assets        db.AssetStore
	generator     ImageGenerator
	locker        cache.Locker
	audit         AuditService
	logger        *zap.Logger
	cfg           GenerationConfig
	now           func() time.Time
}

// NewGenerationService creates a GenerationService. locker and audit may be nil.
func NewGenerationService(
	userRepo db.UserRepository,
	wallpaperRepo db.WallpaperRepository,
	assets db.AssetStore,
	generator ImageGenerator,
	locker cache.Locker,
	audit AuditService,
	cfg GenerationConfig,
	logger *zap.Logger,
) GenerationService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &generationService{
		userRepo:      userRepo,
		wallpaperRepo: wallpaperRepo,
		assets:        assets,
		generator:     generator,
		locker:        locker,
		audit:         audit,
		logger:        logger,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Generate creates an AI wallpaper for the user. Pricing is decided from the counter read
// before generating; the counter is bumped only after the wallpaper record exists.
func (s *generationService) Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, generationLockP+userID, s.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				return nil, ErrGenerationInProgress
			}
			// Lock backend down: proceed unserialized, the atomic increment still holds.
			s.logger.Warn("Generation lock unavailable", zap.String("userID", userID), zap.Error(err))
		} else {
			defer release()
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}
	if !IsSubscribed(user) {
		return nil, ErrNotSubscribed
	}

	decision := DecidePricing(user.AIImagesGenerated)
	price := int64(0)
	if decision.Premium {
		price = s.cfg.PremiumPriceCents
	}

	image, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		metrics.AIGenerationFailures.WithLabelValues("generate").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	imageURL, err := s.assets.Put(ctx, "ai-"+userID+".png", image.MIMEType, image.Data)
	if err != nil {
		metrics.AIGenerationFailures.WithLabelValues("store_asset").Inc()
		return nil, fmt.Errorf("failed to store generated image: %w", err)
	}

	wallpaper := &models.Wallpaper{
		Title:         titleFromPrompt(prompt),
		Description:   prompt,
		ImageURL:      imageURL,
		ThumbnailURL:  imageURL,
		Category:      aiCategory,
		Tags:          []string{"ai"},
		Price:         price,
		IsPremium:     decision.Premium,
		IsAIGenerated: true,
		CreatorID:     user.ID,
		CreatorName:   user.Name,
		CreatorAvatar: user.Avatar,
		CreatedAt:     s.now(),
	}
	wallpaperID, err := s.wallpaperRepo.Create(ctx, wallpaper)
	if err != nil {
		metrics.AIGenerationFailures.WithLabelValues("create_record").Inc()
		return nil, fmt.Errorf("failed to create wallpaper record: %w", err)
	}

	if err := s.userRepo.IncrementAIImagesGenerated(ctx, user.ID); err != nil {
		s.logger.Error("Failed to increment AI generation counter; request still succeeds",
			zap.String("userID", user.ID), zap.String("wallpaperID", wallpaperID), zap.Error(err))
	}

	pricing := metrics.PricingFree
	if decision.Premium {
		pricing = metrics.PricingPremium
	}
	metrics.AIGenerationsTotal.WithLabelValues(pricing).Inc()
	recordAudit(ctx, s.audit, s.logger, models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionImageGenerated,
		TargetType: "WALLPAPER",
		TargetID:   wallpaperID,
		Source:     "api",
		Details:    map[string]interface{}{"premium": decision.Premium, "cyclePosition": decision.Position},
	})

	return &GenerationResult{
		ImageURL:    imageURL,
		WallpaperID: wallpaperID,
		IsPremium:   decision.Premium,
		Price:       price,
	}, nil
}

func titleFromPrompt(prompt string) string {
	if utf8.RuneCountInString(prompt) <= maxTitleRunes {
		return prompt
	}
	runes := []rune(prompt)
	return strings.TrimSpace(string(runes[:maxTitleRunes])) + "…"
}
