package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/release"
	"github.com/rsdtools/releaselink/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCatalog() *Catalog {
	records := []release.Record{
		{Artist: "Radiohead", Title: "OK Computer", ImageURL: "img-ok", ExternalID: "101"},
		{Artist: "Radiohead", Title: "Kid A", ImageURL: "img-kid"},
		{Artist: "The Cure", Title: "Disintegration", ExternalID: "202"},
	}
	return &Catalog{
		Build:    store.Build{ID: "run-1", Releases: len(records)},
		Releases: records,
		Tables:   lookup.BuildTables(records),
	}
}

func get(t *testing.T, h *Handler, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	w := httptest.NewRecorder()
	Router(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthcheck(t *testing.T) {
	w := get(t, New(nil), "/healthcheck", nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("healthcheck = %d %q", w.Code, w.Body.String())
	}
}

func TestLookup(t *testing.T) {
	h := New(testCatalog())

	tests := []struct {
		name      string
		artist    string
		title     string
		code      int
		image     string
		id        string
		imageRule lookup.Rule
	}{
		{"exact", "Radiohead", "OK Computer", http.StatusOK, "img-ok", "101", lookup.RuleExact},
		{"lowercase", "radiohead", "kid a", http.StatusOK, "img-kid", "", lookup.RuleLowercase},
		{"fuzzy edition", "Radiohead", "OK Computer [Japan Import]", http.StatusOK, "img-ok", "101", lookup.RuleTitleOverlap},
		{"normalized", "Radiohead", "OK Computer (Deluxe Edition)", http.StatusOK, "img-ok", "101", lookup.RuleNormalizedTitle},
		{"id only", "The Cure", "Disintegration", http.StatusOK, "", "202", ""},
		{"missing", "Blur", "Parklife", http.StatusNotFound, "", "", ""},
		{"bad request", "", "Parklife", http.StatusBadRequest, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, "/api/lookup", url.Values{"artist": {tt.artist}, "title": {tt.title}})
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp LookupResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.ImageURL != tt.image || resp.ExternalID != tt.id {
				t.Errorf("got image=%q id=%q", resp.ImageURL, resp.ExternalID)
			}
			if tt.imageRule != "" && (resp.ImageMatch == nil || resp.ImageMatch.Rule != tt.imageRule) {
				t.Errorf("image match = %+v, want rule %s", resp.ImageMatch, tt.imageRule)
			}
			if tt.imageRule != "" && resp.ImageMatch != nil && resp.ImageMatch.Fuzzy != tt.imageRule.Fuzzy() {
				t.Errorf("image match fuzzy = %v for rule %s", resp.ImageMatch.Fuzzy, resp.ImageMatch.Rule)
			}
		})
	}
}

func TestLookupNoCatalog(t *testing.T) {
	w := get(t, New(nil), "/api/lookup", url.Values{"artist": {"a"}, "title": {"b"}})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestReleases(t *testing.T) {
	h := New(testCatalog())

	tests := []struct {
		name   string
		params url.Values
		code   int
		total  int
		count  int
	}{
		{"all", nil, http.StatusOK, 3, 3},
		{"by artist", url.Values{"artist": {"RADIOHEAD"}}, http.StatusOK, 2, 2},
		{"article ignored", url.Values{"artist": {"Cure"}}, http.StatusOK, 1, 1},
		{"limited", url.Values{"limit": {"1"}}, http.StatusOK, 3, 1},
		{"bad limit", url.Values{"limit": {"zero"}}, http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, "/api/releases", tt.params)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp ReleasesResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Total != tt.total || len(resp.Releases) != tt.count {
				t.Errorf("total=%d count=%d", resp.Total, len(resp.Releases))
			}
		})
	}
}

func TestSwapAndBuildInfo(t *testing.T) {
	h := New(testCatalog())
	h.Swap(&Catalog{Build: store.Build{ID: "run-2"}, Tables: lookup.BuildTables(nil)})

	w := get(t, h, "/api/build", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "run-2" {
		t.Errorf("id = %v", body["id"])
	}

	if w := get(t, h, "/api/lookup", url.Values{"artist": {"Radiohead"}, "title": {"OK Computer"}}); w.Code != http.StatusNotFound {
		t.Errorf("lookup after swap = %d", w.Code)
	}
}

func TestLookupExplain(t *testing.T) {
	h := New(testCatalog())

	w := get(t, h, "/api/lookup", url.Values{"artist": {"Radiohead"}, "title": {"Kid B"}, "explain": {"1"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Candidates []lookup.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Candidates) != 2 || body.Candidates[0].Key != "Radiohead|Kid A" {
		t.Errorf("candidates = %+v", body.Candidates)
	}
}
