package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// EnsureTag returns the user's tag with this name, creating it if missing.
// Names compare case-insensitively; the first spelling wins.
func (s *Store) EnsureTag(ctx context.Context, userID, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}
	return s.ensureTag(ctx, s.db, userID, name)
}

func (s *Store) ensureTag(ctx context.Context, q querier, userID, name string) (*model.Tag, error) {
	tag := model.Tag{UserID: userID}
	err := s.queryRow(ctx, q, `
		SELECT id, name FROM tags
		WHERE user_id = ? AND LOWER(name) = LOWER(?)
		ORDER BY id LIMIT 1`, userID, name,
	).Scan(&tag.ID, &tag.Name)
	switch {
	case err == nil:
		return &tag, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrapf(err, "find tag %q", name)
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	if _, err := s.exec(ctx, q,
		`INSERT INTO tags (id, user_id, name) VALUES (?, ?, ?)`, id, userID, name,
	); err != nil {
		return nil, errors.Wrapf(err, "insert tag %q", name)
	}
	return &model.Tag{ID: id, UserID: userID, Name: name}, nil
}

// ListTags returns the user's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]model.Tag, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, user_id, name FROM tags WHERE user_id = ? ORDER BY LOWER(name), id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	tags, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Tag, error) {
		var t model.Tag
		err := rows.Scan(&t.ID, &t.UserID, &t.Name)
		return t, err
	})
	return tags, errors.Wrap(err, "scan tags")
}

// TagIDs resolves tag names to IDs.
func (s *Store) TagIDs(ctx context.Context, userID string, m NameMatch) ([]string, error) {
	return s.resolveNames(ctx, "tags", "name", userID, m)
}
