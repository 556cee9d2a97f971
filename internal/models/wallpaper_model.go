package models

import "time"

// Wallpaper represents a wallpaper listed in the marketplace.
type Wallpaper struct {
	ID            string    `json:"id" firestore:"-"` // Document ID, auto-generated
	Title         string    `json:"title" firestore:"title"`
	Description   string    `json:"description" firestore:"description"`
	ImageURL      string    `json:"imageUrl" firestore:"imageUrl"`
	ThumbnailURL  string    `json:"thumbnailUrl" firestore:"thumbnailUrl"`
	Category      string    `json:"category" firestore:"category"`
	Tags          []string  `json:"tags" firestore:"tags"`
	Price         int64     `json:"price" firestore:"price"` // cents, 0 = free
	IsPremium     bool      `json:"isPremium" firestore:"isPremium"`
	IsLive        bool      `json:"isLive" firestore:"isLive"`
	IsAIGenerated bool      `json:"isAiGenerated" firestore:"isAiGenerated"`
	CreatorID     string    `json:"creatorId" firestore:"creatorId"`
	CreatorName   string    `json:"creatorName" firestore:"creatorName"`
	CreatorAvatar string    `json:"creatorAvatar" firestore:"creatorAvatar"`
	Downloads     int64     `json:"downloads" firestore:"downloads"`
	Likes         int64     `json:"likes" firestore:"likes"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
}

// Counter fields that may be incremented on a wallpaper.
const (
	WallpaperCounterLikes     = "likes"
	WallpaperCounterDownloads = "downloads"
)
