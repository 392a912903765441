package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/release"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []release.Record{
		{Artist: "Bjork", Title: "Post", Label: "Elektra", Reissue: release.ReissueYes, ImageURL: "img-b", ExternalID: "2"},
		{Artist: "Radiohead", Title: "OK Computer", Label: "Unknown", Reissue: release.ReissueUnknown, ImageURL: "img-r"},
	}
	tables := lookup.BuildTables(records)
	tables.Images.Set("Radiohead|OK Computer OKNOTOK", "img-r")

	if err := s.Save(ctx, Build{ID: "run-1", Conflicts: 3}, records, tables); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.LoadReleases(ctx)
	if err != nil {
		t.Fatalf("LoadReleases failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != records[0] || loaded[1] != records[1] {
		t.Fatalf("unexpected releases %+v", loaded)
	}

	got, err := s.LoadTables(ctx)
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	wantKeys := tables.Images.Keys()
	gotKeys := got.Images.Keys()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("image keys = %v, want %v", gotKeys, wantKeys)
	}
	for i := range wantKeys {
		if gotKeys[i] != wantKeys[i] {
			t.Errorf("image key %d = %q, want %q", i, gotKeys[i], wantKeys[i])
		}
	}
	if v, _ := got.IDs.Get("bjork|post"); v != "2" {
		t.Errorf("id lookup = %q", v)
	}

	b, err := s.LatestBuild(ctx)
	if err != nil {
		t.Fatalf("LatestBuild failed: %v", err)
	}
	if b.ID != "run-1" || b.Releases != 2 || b.ImageKeys != 5 || b.IDKeys != 2 || b.Conflicts != 3 {
		t.Errorf("unexpected build %+v", b)
	}
}

func TestSaveReplacesPreviousCatalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []release.Record{{Artist: "A", Title: "One", ImageURL: "1"}}
	second := []release.Record{{Artist: "B", Title: "Two", ImageURL: "2"}}

	if err := s.Save(ctx, Build{ID: "a"}, first, lookup.BuildTables(first)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, Build{ID: "b"}, second, lookup.BuildTables(second)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.LoadReleases(ctx)
	if err != nil {
		t.Fatalf("LoadReleases failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Artist != "B" {
		t.Errorf("unexpected releases %+v", loaded)
	}
	tables, err := s.LoadTables(ctx)
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	if _, ok := tables.Images.Get("A|One"); ok {
		t.Error("stale key survived")
	}
}

func TestLatestBuildEmpty(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LatestBuild(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadTablesSkipsMalformedKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	images := lookup.NewTable()
	images.Set("|OK Computer", "blank-artist")
	images.Set("Radiohead|", "blank-title")
	images.Set("  |Kid A", "space-artist")
	images.Set("Radiohead|OK Computer", "img-ok")
	if err := s.Save(ctx, Build{ID: "x"}, nil, lookup.Tables{Images: images, IDs: lookup.NewTable()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tables, err := s.LoadTables(ctx)
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	if got := tables.Images.Keys(); len(got) != 1 || got[0] != "Radiohead|OK Computer" {
		t.Errorf("image keys = %v", got)
	}
	if _, ok := lookup.Lookup(tables.Images, "", "OK Computer"); ok {
		t.Error("blank artist resolved after reload")
	}
}

func TestSaveLocked(t *testing.T) {
	s := openTestStore(t)

	other := flock.New(s.Path() + ".lock")
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer func() { _ = other.Unlock() }()

	err := s.Save(context.Background(), Build{ID: "x"}, nil, lookup.Tables{})
	if !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Save(ctx, Build{ID: "x"}, []release.Record{{Artist: "A", Title: "B"}}, lookup.Tables{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	records, err := s.LoadReleases(ctx)
	if err != nil || len(records) != 1 {
		t.Errorf("records after reopen = %v, %v", records, err)
	}
}
