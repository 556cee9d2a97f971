package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

var (
	ErrWallpaperNotFound = errors.New("wallpaper not found")
	ErrPremiumRequired   = errors.New("premium wallpaper requires an active subscription")
	ErrInvalidWallpaper  = errors.New("invalid wallpaper")
)

const (
	DefaultWallpaperLimit = 20
	MaxWallpaperLimit     = 100
)

type wallpaperService struct {
	wallpaperRepo db.WallpaperRepository
	assets        db.AssetStore
	logger        *zap.Logger
	now           func() time.Time
}

// NewWallpaperService creates a WallpaperService.
func NewWallpaperService(wallpaperRepo db.WallpaperRepository, assets db.AssetStore, logger *zap.Logger) WallpaperService {
	return &wallpaperService{
		wallpaperRepo: wallpaperRepo,
		assets:        assets,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *wallpaperService) List(ctx context.Context, params models.ListWallpapersParams) ([]*models.Wallpaper, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultWallpaperLimit
	}
	if params.Limit > MaxWallpaperLimit {
		params.Limit = MaxWallpaperLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	wallpapers, err := s.wallpaperRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallpapers: %w", err)
	}
	return wallpapers, nil
}

func (s *wallpaperService) Get(ctx context.Context, wallpaperID string) (*models.Wallpaper, error) {
	wallpaper, err := s.wallpaperRepo.GetByID(ctx, wallpaperID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWallpaperNotFound, wallpaperID)
		}
		return nil, fmt.Errorf("failed to get wallpaper '%s': %w", wallpaperID, err)
	}
	return wallpaper, nil
}

// Upload stores the image asset and creates the catalogue record attributed to creator.
// Non-premium uploads are always free.
func (s *wallpaperService) Upload(ctx context.Context, creator models.Session, input models.UploadWallpaperInput) (*models.Wallpaper, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidWallpaper)
	}
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidWallpaper)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidWallpaper)
	}

	imageURL, err := s.assets.Put(ctx, input.Filename, input.ContentType, input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store wallpaper asset: %w", err)
	}

	price := input.Price
	if !input.IsPremium {
		price = 0
	}
	wallpaper := &models.Wallpaper{
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		ImageURL:      imageURL,
		ThumbnailURL:  imageURL,
		Category:      strings.TrimSpace(input.Category),
		Tags:          input.Tags,
		Price:         price,
		IsPremium:     input.IsPremium,
		IsLive:        input.IsLive,
		CreatorID:     creator.ID,
		CreatorName:   creator.Name,
		CreatorAvatar: creator.Image,
		CreatedAt:     s.now(),
	}
	if wallpaper.Tags == nil {
		wallpaper.Tags = []string{}
	}
	if _, err := s.wallpaperRepo.Create(ctx, wallpaper); err != nil {
		return nil, fmt.Errorf("failed to create wallpaper record: %w", err)
	}
	s.logger.Info("Wallpaper uploaded", zap.String("wallpaperID", wallpaper.ID), zap.String("creatorID", creator.ID))
	return wallpaper, nil
}

func (s *wallpaperService) Like(ctx context.Context, wallpaperID string) error {
	return s.increment(ctx, wallpaperID, models.WallpaperCounterLikes)
}

func (s *wallpaperService) Download(ctx context.Context, session *models.Session, wallpaperID string) (*models.Wallpaper, error) {
	wallpaper, err := s.Get(ctx, wallpaperID)
	if err != nil {
		return nil, err
	}
	if wallpaper.IsPremium && (session == nil || !StatusGrantsPremium(session.SubscriptionStatus)) {
		return nil, ErrPremiumRequired
	}
	if err := s.increment(ctx, wallpaperID, models.WallpaperCounterDownloads); err != nil {
		return nil, err
	}
	wallpaper.Downloads++
	return wallpaper, nil
}

func (s *wallpaperService) increment(ctx context.Context, wallpaperID, field string) error {
	if err := s.wallpaperRepo.IncrementCounter(ctx, wallpaperID, field); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrWallpaperNotFound, wallpaperID)
		}
		return fmt.Errorf("failed to update wallpaper '%s': %w", wallpaperID, err)
	}
	return nil
}
