package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/release"
	"github.com/rsdtools/releaselink/internal/store"
)

// Catalog is the read-only data served by the API.
type Catalog struct {
	Build    store.Build
	Releases []release.Record
	Tables   lookup.Tables
}

// Handler serves lookups against the current catalog.
type Handler struct {
	mu      sync.RWMutex
	catalog *Catalog
}

// New returns a Handler serving cat.
func New(cat *Catalog) *Handler {
	return &Handler{catalog: cat}
}

// Swap replaces the served catalog. In-flight requests finish on the old one.
func (h *Handler) Swap(cat *Catalog) {
	h.mu.Lock()
	h.catalog = cat
	h.mu.Unlock()
}

// BuildID returns the ID of the served build, empty when none is loaded.
func (h *Handler) BuildID() string {
	if cat := h.current(); cat != nil {
		return cat.Build.ID
	}
	return ""
}

func (h *Handler) current() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// Router wires the API routes.
func Router(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggingMiddleware())

	r.GET("/healthcheck", h.Healthcheck)

	api := r.Group("/api")
	{
		api.GET("/lookup", h.Lookup)
		api.GET("/releases", h.Releases)
		api.GET("/build", h.BuildInfo)
	}
	return r
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery)
	}
}

// Healthcheck answers OK while the server is up.
func (h *Handler) Healthcheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) writeError(c *gin.Context, code int, message string) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "path", c.Request.URL.Path)
	}
	c.JSON(code, gin.H{"error": message})
}
