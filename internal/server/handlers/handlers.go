// Package handlers contains HTTP request handlers for the catalog API.
package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/api"
	"github.com/mantonx/vidindex/internal/catalog"
	"github.com/mantonx/vidindex/internal/database"
	"github.com/mantonx/vidindex/internal/indexer"
)

// DefaultFolderLimit caps the unfiltered folder listing.
const DefaultFolderLimit = 50

// VideoStore is the catalog query surface used by the handlers.
type VideoStore interface {
	FolderSummaries(ctx context.Context, query string, limit int) ([]catalog.FolderSummary, error)
	VideosInFolder(ctx context.Context, folder, query string) ([]database.Video, error)
	Get(ctx context.Context, id uint32) (*database.Video, error)
	UpdateDetails(ctx context.Context, id uint32, title, tags string) error
	Delete(ctx context.Context, id uint32) error
	Count(ctx context.Context) (int64, error)
}

// Syncer runs a catalog synchronization.
type Syncer interface {
	RunWith(ctx context.Context, opts indexer.Options) (*indexer.Report, error)
}

// Handler serves the catalog endpoints.
type Handler struct {
	store     VideoStore
	syncer    Syncer
	mediaRoot string
	syncOpts  indexer.Options
}

// NewHandler creates a handler. Video files are served from mediaRoot.
// syncer may be nil, in which case the sync endpoint is not available.
func NewHandler(store VideoStore, syncer Syncer, mediaRoot string, syncOpts indexer.Options) *Handler {
	return &Handler{
		store:     store,
		syncer:    syncer,
		mediaRoot: mediaRoot,
		syncOpts:  syncOpts,
	}
}

// HandleHealthCheck handles GET /api/health
func (h *Handler) HandleHealthCheck(c *gin.Context) {
	count, err := h.store.Count(c.Request.Context())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"videos": count,
	})
}

// ListFolders handles GET /api/folders
//
// Query parameters:
//   - q: optional substring matched against title, tags and path
//   - limit: optional maximum number of folders
func (h *Handler) ListFolders(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	limit := 0
	if query == "" {
		limit = DefaultFolderLimit
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			api.RespondWithError(c, api.NewValidationError("limit must be a non-negative integer", "limit"))
			return
		}
		limit = n
	}

	folders, err := h.store.FolderSummaries(c.Request.Context(), query, limit)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
		"count":   len(folders),
	})
}

// ListVideos handles GET /api/videos
//
// Query parameters:
//   - folder: required container folder; an empty value selects the root
//   - q: optional substring matched against title and tags
func (h *Handler) ListVideos(c *gin.Context) {
	folder, ok := c.GetQuery("folder")
	if !ok {
		api.RespondWithError(c, api.NewValidationError("folder is required", "folder"))
		return
	}

	videos, err := h.store.VideosInFolder(c.Request.Context(), folder, c.Query("q"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"folder": folder,
		"videos": videos,
		"count":  len(videos),
	})
}

// GetVideo handles GET /api/videos/:id
func (h *Handler) GetVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	video, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// ServeVideoFile handles GET /api/videos/:id/file
//
// The file is looked up below the media root. A catalog entry whose file
// has gone from disk answers 404 with MEDIA_FILE_MISSING until the next sync
// removes it.
func (h *Handler) ServeVideoFile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	video, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	rel := filepath.FromSlash(video.Path)
	if h.mediaRoot == "" || !filepath.IsLocal(rel) {
		api.RespondWithError(c, api.NewFileMissingError(video.Path))
		return
	}

	full := filepath.Join(h.mediaRoot, rel)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		api.RespondWithError(c, api.NewFileMissingError(video.Path))
		return
	}

	c.File(full)
}

// UpdateVideoRequest carries the editable fields. Omitted fields keep their
// current value.
type UpdateVideoRequest struct {
	Title *string `json:"title"`
	Tags  *string `json:"tags"`
}

// UpdateVideo handles PATCH /api/videos/:id
func (h *Handler) UpdateVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithError(c, api.NewValidationError("invalid request body: "+err.Error(), "body"))
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.Get(ctx, id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	title, tags := current.Title, current.Tags
	if req.Title != nil {
		title = *req.Title
	}
	if req.Tags != nil {
		tags = *req.Tags
	}

	if err := h.store.UpdateDetails(ctx, id, title, tags); err != nil {
		api.RespondWithError(c, err)
		return
	}

	updated, err := h.store.Get(ctx, id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteVideo handles DELETE /api/videos/:id
func (h *Handler) DeleteVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// TriggerSync handles POST /api/sync
//
// Query parameters:
//   - dry_run: optional boolean overriding the configured dry-run setting
func (h *Handler) TriggerSync(c *gin.Context) {
	if h.syncer == nil {
		c.JSON(http.StatusNotImplemented, api.ErrorResponse{
			Error: api.ErrorDetails{Code: "NOT_IMPLEMENTED", Message: "sync is not available"},
		})
		return
	}

	opts := h.syncOpts
	if raw := c.Query("dry_run"); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			api.RespondWithError(c, api.NewValidationError("dry_run must be a boolean", "dry_run"))
			return
		}
		opts.DryRun = dryRun
	}

	report, err := h.syncer.RunWith(c.Request.Context(), opts)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func parseID(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		api.RespondWithError(c, api.NewValidationError("invalid video ID", "id"))
		return 0, false
	}
	return uint32(id), true
}
