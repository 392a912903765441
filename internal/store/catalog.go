package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/release"
)

// Save replaces the stored catalog with records and tables in one transaction.
// Writers are serialized with a lock file next to the database.
func (s *Store) Save(ctx context.Context, b Build, records []release.Record, tables lookup.Tables) error {
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer func() { _ = s.lock.Unlock() }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM releases", "DELETE FROM lookup_keys", "DELETE FROM builds"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
	}

	if err := insertReleases(ctx, tx, records); err != nil {
		return err
	}
	if err := insertTable(ctx, tx, KindImage, tables.Images); err != nil {
		return err
	}
	if err := insertTable(ctx, tx, KindID, tables.IDs); err != nil {
		return err
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, created_at, releases, image_keys, id_keys, conflicts) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.CreatedAt.UTC().Format(time.RFC3339Nano), len(records), tableLen(tables.Images), tableLen(tables.IDs), b.Conflicts,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

func tableLen(t *lookup.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

func insertReleases(ctx context.Context, tx *sql.Tx, records []release.Record) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO releases (
            position, artist, title, label, format, description, more_info, tracklist,
            release_type, pressing_quantity, release_date, is_reissue, genre, style1, style2,
            external_id, image_url
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare release insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			i, r.Artist, r.Title, r.Label, r.Format, r.Description, r.MoreInfo, r.Tracklist,
			r.ReleaseType, r.PressingQuantity, r.ReleaseDate, string(r.Reissue), r.Genre, r.Style1, r.Style2,
			r.ExternalID, r.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("insert release %q: %w", r.Key(), err)
		}
	}
	return nil
}

func insertTable(ctx context.Context, tx *sql.Tx, kind string, t *lookup.Table) error {
	if t == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lookup_keys (kind, position, lookup_key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s key insert: %w", kind, err)
	}
	defer stmt.Close()

	for i, e := range t.Entries() {
		if _, err := stmt.ExecContext(ctx, kind, i, e.Key, e.Value); err != nil {
			return fmt.Errorf("insert %s key %q: %w", kind, e.Key, err)
		}
	}
	return nil
}

// LatestBuild returns the metadata of the stored catalog.
func (s *Store) LatestBuild(ctx context.Context) (Build, error) {
	var (
		b       Build
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, releases, image_keys, id_keys, conflicts FROM builds ORDER BY created_at DESC LIMIT 1`,
	).Scan(&b.ID, &created, &b.Releases, &b.ImageKeys, &b.IDKeys, &b.Conflicts)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound
	}
	if err != nil {
		return Build{}, fmt.Errorf("read build: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Build{}, fmt.Errorf("parse build time: %w", err)
	}
	return b, nil
}

// LoadReleases returns the stored catalog in its saved order.
func (s *Store) LoadReleases(ctx context.Context) ([]release.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
            artist, title, label, format, description, more_info, tracklist,
            release_type, pressing_quantity, release_date, is_reissue, genre, style1, style2,
            external_id, image_url
        FROM releases ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query releases: %w", err)
	}
	defer rows.Close()

	var records []release.Record
	for rows.Next() {
		var (
			r       release.Record
			reissue string
		)
		if err := rows.Scan(
			&r.Artist, &r.Title, &r.Label, &r.Format, &r.Description, &r.MoreInfo, &r.Tracklist,
			&r.ReleaseType, &r.PressingQuantity, &r.ReleaseDate, &reissue, &r.Genre, &r.Style1, &r.Style2,
			&r.ExternalID, &r.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		r.Reissue = release.ReissueStatus(reissue)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate releases: %w", err)
	}
	return records, nil
}

// LoadTables rebuilds the lookup tables with their original insertion order.
func (s *Store) LoadTables(ctx context.Context) (lookup.Tables, error) {
	images, err := s.loadTable(ctx, KindImage)
	if err != nil {
		return lookup.Tables{}, err
	}
	ids, err := s.loadTable(ctx, KindID)
	if err != nil {
		return lookup.Tables{}, err
	}
	return lookup.Tables{Images: images, IDs: ids}, nil
}

func (s *Store) loadTable(ctx context.Context, kind string) (*lookup.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lookup_key, value FROM lookup_keys WHERE kind = ? ORDER BY position`, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s keys: %w", kind, err)
	}
	defer rows.Close()

	t := lookup.NewTable()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", kind, err)
		}
		artist, title, ok := lookup.SplitKey(key)
		if !ok || strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
			continue
		}
		t.Set(key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s keys: %w", kind, err)
	}
	return t, nil
}
