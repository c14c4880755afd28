package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/server/handlers"
)

// APIRoute defines the structure for an API route entry.
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// routeTable registers routes on a group and records them for discovery.
type routeTable struct {
	group  *gin.RouterGroup
	routes []APIRoute
}

func (t *routeTable) handle(method, path, description string, h gin.HandlerFunc) {
	t.group.Handle(method, path, h)
	t.routes = append(t.routes, APIRoute{
		Path:        t.group.BasePath() + path,
		Method:      method,
		Description: description,
	})
}

func setupRoutes(r *gin.Engine, h *handlers.Handler) []APIRoute {
	t := &routeTable{group: r.Group("/api")}

	t.handle(http.MethodGet, "/health", "Service and database health.", h.HandleHealthCheck)
	t.handle(http.MethodGet, "/folders", "Container folders with video counts, optionally filtered by ?q=.", h.ListFolders)
	t.handle(http.MethodGet, "/videos", "Videos in ?folder=, optionally filtered by ?q=.", h.ListVideos)
	t.handle(http.MethodGet, "/videos/:id", "A single video.", h.GetVideo)
	t.handle(http.MethodGet, "/videos/:id/file", "Stream a video's file from the media root.", h.ServeVideoFile)
	t.handle(http.MethodPatch, "/videos/:id", "Update a video's title and tags.", h.UpdateVideo)
	t.handle(http.MethodDelete, "/videos/:id", "Delete a video from the catalog.", h.DeleteVideo)
	t.handle(http.MethodPost, "/sync", "Synchronize the catalog with the media root.", h.TriggerSync)

	routes := append([]APIRoute(nil), t.routes...)
	t.group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"routes": routes})
	})
	return routes
}
