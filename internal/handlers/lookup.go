package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/normalize"
	"github.com/rsdtools/releaselink/internal/release"
)

const (
	defaultReleaseLimit = 100
	maxReleaseLimit     = 1000
	explainLimit        = 5
)

// MatchInfo describes how a lookup value was found.
type MatchInfo struct {
	Key   string      `json:"key"`
	Rule  lookup.Rule `json:"rule"`
	Fuzzy bool        `json:"fuzzy"`
}

func matchInfo(m lookup.Match) *MatchInfo {
	return &MatchInfo{Key: m.Key, Rule: m.Rule, Fuzzy: m.Rule.Fuzzy()}
}

// LookupResponse is returned by GET /api/lookup.
type LookupResponse struct {
	Artist     string     `json:"artist"`
	Title      string     `json:"title"`
	ImageURL   string     `json:"image_url,omitempty"`
	ExternalID string     `json:"external_id,omitempty"`
	ImageMatch *MatchInfo `json:"image_match,omitempty"`
	IDMatch    *MatchInfo `json:"id_match,omitempty"`
	// Candidates is filled when explain=1.
	Candidates []lookup.Candidate `json:"candidates,omitempty"`
}

// ReleasesResponse is returned by GET /api/releases.
type ReleasesResponse struct {
	Total    int              `json:"total"`
	Releases []release.Record `json:"releases"`
}

// Lookup handles GET /api/lookup?artist=&title=&explain=
func (h *Handler) Lookup(c *gin.Context) {
	artist := strings.TrimSpace(c.Query("artist"))
	title := strings.TrimSpace(c.Query("title"))
	if artist == "" || title == "" {
		h.writeError(c, http.StatusBadRequest, "artist and title are required")
		return
	}

	cat := h.current()
	if cat == nil {
		h.writeError(c, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}

	resp := LookupResponse{Artist: artist, Title: title}
	if m, ok := lookup.Resolve(cat.Tables.Images, artist, title); ok {
		resp.ImageURL = m.Value
		resp.ImageMatch = matchInfo(m)
	}
	if m, ok := lookup.Resolve(cat.Tables.IDs, artist, title); ok {
		resp.ExternalID = m.Value
		resp.IDMatch = matchInfo(m)
	}

	explain, _ := strconv.ParseBool(c.DefaultQuery("explain", "false"))
	if explain {
		resp.Candidates = lookup.Explain(cat.Tables.Images, artist, title, explainLimit)
	}

	if resp.ImageMatch == nil && resp.IDMatch == nil {
		if explain {
			c.JSON(http.StatusNotFound, gin.H{"error": "release not found", "candidates": resp.Candidates})
			return
		}
		h.writeError(c, http.StatusNotFound, "release not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Releases handles GET /api/releases?artist=&limit=
// Artists are compared after normalization.
func (h *Handler) Releases(c *gin.Context) {
	cat := h.current()
	if cat == nil {
		h.writeError(c, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}

	limit := defaultReleaseLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxReleaseLimit)
	}

	want := normalize.Normalize(c.Query("artist"))
	out := ReleasesResponse{Releases: []release.Record{}}
	for _, r := range cat.Releases {
		if want != "" && normalize.Normalize(r.Artist) != want {
			continue
		}
		out.Total++
		if len(out.Releases) < limit {
			out.Releases = append(out.Releases, r)
		}
	}
	c.JSON(http.StatusOK, out)
}

// BuildInfo handles GET /api/build.
func (h *Handler) BuildInfo(c *gin.Context) {
	cat := h.current()
	if cat == nil {
		h.writeError(c, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	b := cat.Build
	c.JSON(http.StatusOK, gin.H{
		"id":         b.ID,
		"created_at": b.CreatedAt,
		"releases":   b.Releases,
		"image_keys": b.ImageKeys,
		"id_keys":    b.IDKeys,
		"conflicts":  b.Conflicts,
	})
}
