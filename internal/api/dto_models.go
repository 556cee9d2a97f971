package api

import "livewall-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CompleteOrderResponse acknowledges a client-side completion ping.
type CompleteOrderResponse struct {
	Success bool          `json:"success"`
	Order   *models.Order `json:"order,omitempty"`
}

// ListWallpapersResponse is one page of the catalogue.
type ListWallpapersResponse struct {
	Wallpapers []*models.Wallpaper `json:"wallpapers"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// DownloadResponse points the client at the asset after the premium gate passed.
type DownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	Downloads   int64  `json:"downloads"`
}

// SessionResponse wraps the current session; Session is null when signed out.
type SessionResponse struct {
	Session *models.Session `json:"session"`
	Token   string          `json:"token,omitempty"`
}
