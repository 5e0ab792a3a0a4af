package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/slugs"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

const filterColumns = `id, user_id, slug, title, query, created_at, updated_at`

// SaveFilter stores a named query, replacing any filter with the same slug.
// The query text must parse; it is kept verbatim and re-parsed on each run.
func (s *Store) SaveFilter(ctx context.Context, userID, title, query string) (*model.SavedFilter, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("filter title is required")
	}
	if _, err := filter.Parse(query); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	slug := slugs.Make(title)
	now := s.now()
	if _, err := s.exec(ctx, s.db, `
		INSERT INTO saved_filters (id, user_id, slug, title, query, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, slug) DO UPDATE SET
			title = excluded.title,
			query = excluded.query,
			updated_at = excluded.updated_at`,
		id, userID, slug, title, query, now, now,
	); err != nil {
		return nil, errors.Wrapf(err, "save filter %q", slug)
	}
	return s.GetFilter(ctx, userID, slug)
}

// GetFilter loads a saved filter by slug.
func (s *Store) GetFilter(ctx context.Context, userID, slug string) (*model.SavedFilter, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+filterColumns+` FROM saved_filters WHERE user_id = ? AND slug = ?`, userID, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "get filter %q", slug)
	}
	found, err := sqlutil.ScanRows(rows, scanFilter)
	if err != nil {
		return nil, errors.Wrap(err, "scan filter")
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "filter %q", slug)
	}
	return &found[0], nil
}

// ListFilters returns the user's saved filters ordered by slug.
func (s *Store) ListFilters(ctx context.Context, userID string) ([]model.SavedFilter, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+filterColumns+` FROM saved_filters WHERE user_id = ? ORDER BY slug`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list filters")
	}
	filters, err := sqlutil.ScanRows(rows, scanFilter)
	return filters, errors.Wrap(err, "scan filters")
}

// DeleteFilter removes a saved filter.
func (s *Store) DeleteFilter(ctx context.Context, userID, slug string) error {
	res, err := s.exec(ctx, s.db,
		`DELETE FROM saved_filters WHERE user_id = ? AND slug = ?`, userID, slug)
	if err != nil {
		return errors.Wrapf(err, "delete filter %q", slug)
	}
	return requireAffected(res, "filter", slug)
}

func scanFilter(rows *sql.Rows) (model.SavedFilter, error) {
	var (
		f                model.SavedFilter
		created, updated int64
	)
	err := rows.Scan(&f.ID, &f.UserID, &f.Slug, &f.Title, &f.Query, &created, &updated)
	f.CreatedAt = fromMillis(created)
	f.UpdatedAt = fromMillis(updated)
	return f, err
}
