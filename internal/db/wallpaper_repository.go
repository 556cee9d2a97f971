package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livewall-backend-go/internal/models"
)

const wallpapersCollection = "wallpapers"

type firestoreWallpaperRepository struct {
	client *firestore.Client
}

// NewFirestoreWallpaperRepository creates a new Firestore-backed WallpaperRepository.
func NewFirestoreWallpaperRepository(client *firestore.Client) WallpaperRepository {
	return &firestoreWallpaperRepository{client: client}
}

func (r *firestoreWallpaperRepository) Create(ctx context.Context, wallpaper *models.Wallpaper) (string, error) {
	docRef, _, err := r.client.Collection(wallpapersCollection).Add(ctx, wallpaper)
	if err != nil {
		return "", fmt.Errorf("failed to create wallpaper: %w", err)
	}
	wallpaper.ID = docRef.ID
	return docRef.ID, nil
}

func (r *firestoreWallpaperRepository) GetByID(ctx context.Context, wallpaperID string) (*models.Wallpaper, error) {
	if wallpaperID == "" {
		return nil, fmt.Errorf("wallpaper ID cannot be empty: %w", ErrNotFound)
	}
	docSnap, err := r.client.Collection(wallpapersCollection).Doc(wallpaperID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("wallpaper with ID '%s' not found: %w", wallpaperID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallpaper '%s': %w", wallpaperID, err)
	}
	return decodeWallpaper(docSnap)
}

// List returns wallpapers newest first, optionally filtered by category.
func (r *firestoreWallpaperRepository) List(ctx context.Context, params models.ListWallpapersParams) ([]*models.Wallpaper, error) {
	query := r.client.Collection(wallpapersCollection).Query
	if params.Category != "" {
		query = query.Where("category", "==", params.Category)
	}
	query = query.OrderBy("createdAt", firestore.Desc).Offset(params.Offset).Limit(params.Limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	wallpapers := make([]*models.Wallpaper, 0, params.Limit)
	for {
		docSnap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list wallpapers: %w", err)
		}
		wallpaper, err := decodeWallpaper(docSnap)
		if err != nil {
			return nil, err
		}
		wallpapers = append(wallpapers, wallpaper)
	}
	return wallpapers, nil
}

func (r *firestoreWallpaperRepository) IncrementCounter(ctx context.Context, wallpaperID, field string) error {
	if field != models.WallpaperCounterLikes && field != models.WallpaperCounterDownloads {
		return fmt.Errorf("unknown wallpaper counter %q", field)
	}
	_, err := r.client.Collection(wallpapersCollection).Doc(wallpaperID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("wallpaper with ID '%s' not found: %w", wallpaperID, ErrNotFound)
		}
		return fmt.Errorf("failed to increment %s on wallpaper '%s': %w", field, wallpaperID, err)
	}
	return nil
}

func decodeWallpaper(docSnap *firestore.DocumentSnapshot) (*models.Wallpaper, error) {
	var wallpaper models.Wallpaper
	if err := docSnap.DataTo(&wallpaper); err != nil {
		return nil, fmt.Errorf("failed to decode wallpaper '%s': %w", docSnap.Ref.ID, err)
	}
	wallpaper.ID = docSnap.Ref.ID
	return &wallpaper, nil
}
