package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/middleware"
	"livewall-backend-go/internal/models"
)

const maxUploadBytes = 10 << 20

// WallpaperHandler handles the wallpaper catalogue.
type WallpaperHandler struct {
	wallpaperService core.WallpaperService
	logger           *zap.Logger
}

// NewWallpaperHandler creates a new WallpaperHandler.
func NewWallpaperHandler(ws core.WallpaperService, logger *zap.Logger) *WallpaperHandler {
	return &WallpaperHandler{wallpaperService: ws, logger: logger}
}

func (h *WallpaperHandler) mapWallpaperErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrWallpaperNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Wallpaper not found"})
	case errors.Is(err, core.ErrPremiumRequired):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "An active subscription is required for premium wallpapers"})
	case errors.Is(err, core.ErrInvalidWallpaper):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid wallpaper", Details: err.Error()})
	default:
		h.logger.Error("Wallpaper operation failed", zap.Error(err))
		internalError(c)
	}
}

// ListWallpapers handles GET /api/v1/wallpapers?category=&limit=&offset=.
func (h *WallpaperHandler) ListWallpapers(c *gin.Context) {
	params := models.ListWallpapersParams{Category: c.Query("category")}
	var err error
	if raw := c.Query("limit"); raw != "" {
		if params.Limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
			return
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if params.Offset, err = strconv.Atoi(raw); err != nil || params.Offset < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "offset must be a non-negative integer"})
			return
		}
	}

	wallpapers, err := h.wallpaperService.List(c.Request.Context(), params)
	if err != nil {
		h.mapWallpaperErrorToStatus(c, err)
		return
	}
	limit := params.Limit
	if limit <= 0 {
		limit = core.DefaultWallpaperLimit
	} else if limit > core.MaxWallpaperLimit {
		limit = core.MaxWallpaperLimit
	}
	c.JSON(http.StatusOK, ListWallpapersResponse{Wallpapers: wallpapers, Limit: limit, Offset: params.Offset})
}

// GetWallpaper handles GET /api/v1/wallpapers/:id.
func (h *WallpaperHandler) GetWallpaper(c *gin.Context) {
	wallpaper, err := h.wallpaperService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mapWallpaperErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, wallpaper)
}

// UploadWallpaper handles POST /api/v1/wallpapers (multipart/form-data).
func (h *WallpaperHandler) UploadWallpaper(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unable to read uploaded file"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unable to read uploaded file"})
		return
	}

	var price int64
	if raw := c.PostForm("price"); raw != "" {
		if price, err = strconv.ParseInt(raw, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "price must be an integer amount in cents"})
			return
		}
	}

	input := models.UploadWallpaperInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Tags:        splitTags(c.PostForm("tags")),
		Price:       price,
		IsPremium:   formBool(c.PostForm("isPremium")),
		IsLive:      formBool(c.PostForm("isLive")),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	}

	wallpaper, err := h.wallpaperService.Upload(c.Request.Context(), session, input)
	if err != nil {
		h.mapWallpaperErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, wallpaper)
}

// LikeWallpaper handles POST /api/v1/wallpapers/:id/like.
func (h *WallpaperHandler) LikeWallpaper(c *gin.Context) {
	if err := h.wallpaperService.Like(c.Request.Context(), c.Param("id")); err != nil {
		h.mapWallpaperErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Liked"})
}

// DownloadWallpaper handles GET /api/v1/wallpapers/:id/download.
func (h *WallpaperHandler) DownloadWallpaper(c *gin.Context) {
	var session *models.Session
	if s, ok := middleware.SessionFrom(c); ok {
		session = &s
	}
	wallpaper, err := h.wallpaperService.Download(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		h.mapWallpaperErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadResponse{DownloadURL: wallpaper.ImageURL, Downloads: wallpaper.Downloads})
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func formBool(raw string) bool {
	b, _ := strconv.ParseBool(raw)
	return b
}
