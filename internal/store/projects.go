package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// CreateProject returns the user's project with this title (compared
// case-insensitively), creating it if none exists.
func (s *Store) CreateProject(ctx context.Context, userID, title string) (*model.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("project title is required")
	}
	var project *model.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := s.ensureProject(ctx, tx, userID, title)
		project = p
		return err
	})
	return project, err
}

func (s *Store) ensureProject(ctx context.Context, q querier, userID, title string) (*model.Project, error) {
	var (
		p       = model.Project{UserID: userID}
		created int64
	)
	err := s.queryRow(ctx, q, `
		SELECT id, title, created_at FROM projects
		WHERE user_id = ? AND LOWER(title) = LOWER(?)
		ORDER BY created_at, id LIMIT 1`, userID, title,
	).Scan(&p.ID, &p.Title, &created)
	switch {
	case err == nil:
		p.CreatedAt = fromMillis(created)
		return &p, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrapf(err, "find project %q", title)
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := s.exec(ctx, q,
		`INSERT INTO projects (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, title, now,
	); err != nil {
		return nil, errors.Wrapf(err, "insert project %q", title)
	}
	s.logger.Debugw("created project", "id", id, "title", title)
	return &model.Project{ID: id, UserID: userID, Title: title, CreatedAt: fromMillis(now)}, nil
}

// ListProjects returns the user's projects ordered by title.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, user_id, title, created_at FROM projects
		WHERE user_id = ? ORDER BY LOWER(title), id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	projects, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (model.Project, error) {
		var (
			p       model.Project
			created int64
		)
		err := rows.Scan(&p.ID, &p.UserID, &p.Title, &created)
		p.CreatedAt = fromMillis(created)
		return p, err
	})
	return projects, errors.Wrap(err, "scan projects")
}

// ProjectIDs resolves project titles to IDs.
func (s *Store) ProjectIDs(ctx context.Context, userID string, m NameMatch) ([]string, error) {
	return s.resolveNames(ctx, "projects", "title", userID, m)
}

func (s *Store) resolveNames(ctx context.Context, table, column, userID string, m NameMatch) ([]string, error) {
	cond, args, ok := m.clause(column)
	if !ok {
		return nil, nil
	}
	rows, err := s.query(ctx, s.db,
		`SELECT id FROM `+table+` WHERE user_id = ? AND `+cond,
		append([]any{userID}, args...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", table)
	}
	ids, err := sqlutil.ScanStrings(rows)
	return ids, errors.Wrapf(err, "scan %s ids", table)
}
