package store

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// maxInClause bounds the number of placeholders in a single IN list.
const maxInClause = 500

const taskColumns = `t.id, t.user_id, t.project_id, COALESCE(p.title, ''), t.parent_id,
	t.title, t.body, t.due_date, t.start_at, t.completed_at, t.recurrence,
	t.position, t.created_at, t.updated_at`

// CreateTask inserts a task, creating its project and tags as needed.
func (s *Store) CreateTask(ctx context.Context, userID string, nt model.NewTask) (*model.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return nil, errors.New("task title is required")
	}
	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertTask(ctx, tx, userID, nt, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, userID, id)
}

// insertTask writes one task inside tx and returns its ID. completedAt is
// set only by imports of already finished tasks.
func (s *Store) insertTask(ctx context.Context, tx *sql.Tx, userID string, nt model.NewTask, completedAt *time.Time) (string, error) {
	title := strings.TrimSpace(nt.Title)
	if title == "" {
		return "", errors.New("task title is required")
	}
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	now := s.now()

	var projectID sql.NullString
	if p := strings.TrimSpace(nt.Project); p != "" {
		project, err := s.ensureProject(ctx, tx, userID, p)
		if err != nil {
			return "", err
		}
		projectID = sql.NullString{String: project.ID, Valid: true}
	}

	var position int64
	if err := s.queryRow(ctx, tx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE user_id = ?`, userID,
	).Scan(&position); err != nil {
		return "", errors.Wrap(err, "next task position")
	}

	if _, err := s.exec(ctx, tx, `
		INSERT INTO tasks (id, user_id, project_id, parent_id, title, body, due_date,
			start_at, completed_at, recurrence, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, projectID, nullString(nt.ParentID), title, nullString(nt.Body),
		nullMillis(nt.DueDate), nullMillis(nt.StartAt), nullMillis(completedAt),
		nullString(nt.Recurrence), position, now, now,
	); err != nil {
		return "", errors.Wrap(err, "insert task")
	}

	return id, s.attachTags(ctx, tx, userID, id, nt.Tags)
}

func (s *Store) attachTags(ctx context.Context, tx *sql.Tx, userID, taskID string, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.ensureTag(ctx, tx, userID, name)
		if err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			taskID, tag.ID,
		); err != nil {
			return errors.Wrapf(err, "tag task with %q", name)
		}
	}
	return nil
}

// GetTask loads a single task.
func (s *Store) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	tasks, err := s.LoadTasks(ctx, userID, []string{id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "task %s", id)
	}
	return &tasks[0], nil
}

// CompleteTask marks a task completed at the current time.
func (s *Store) CompleteTask(ctx context.Context, userID, id string) error {
	now := s.now()
	return s.updateTask(ctx, userID, id, `completed_at = ?, updated_at = ?`, now, now)
}

// ReopenTask clears a task's completion.
func (s *Store) ReopenTask(ctx context.Context, userID, id string) error {
	return s.updateTask(ctx, userID, id, `completed_at = NULL, updated_at = ?`, s.now())
}

func (s *Store) updateTask(ctx context.Context, userID, id, set string, args ...any) error {
	args = append(args, userID, id)
	res, err := s.exec(ctx, s.db, `UPDATE tasks SET `+set+` WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		return errors.Wrapf(err, "update task %s", id)
	}
	return requireAffected(res, "task", id)
}

// DeleteTask removes a task and its tag associations.
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `
			DELETE FROM task_tags WHERE task_id IN (
				SELECT id FROM tasks WHERE user_id = ? AND id = ?
			)`, userID, id); err != nil {
			return errors.Wrapf(err, "delete tags of task %s", id)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return errors.Wrapf(err, "delete task %s", id)
		}
		return requireAffected(res, "task", id)
	})
}

// AllTaskIDs returns every task ID visible to the user.
func (s *Store) AllTaskIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.query(ctx, s.db, `SELECT id FROM tasks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list task ids")
	}
	ids, err := sqlutil.ScanStrings(rows)
	return ids, errors.Wrap(err, "scan task ids")
}

// TaskIDsWhere returns the IDs of the user's tasks matching cond, a predicate
// over the tasks table written with "?" placeholders.
func (s *Store) TaskIDsWhere(ctx context.Context, userID, cond string, args ...any) ([]string, error) {
	all := append([]any{userID}, args...)
	rows, err := s.query(ctx, s.db, `SELECT id FROM tasks WHERE user_id = ? AND (`+cond+`)`, all...)
	if err != nil {
		return nil, errors.Wrapf(err, "select tasks where %s", cond)
	}
	ids, err := sqlutil.ScanStrings(rows)
	return ids, errors.Wrap(err, "scan task ids")
}

// TaggedTaskIDs returns the user's tasks carrying any of the given tags.
func (s *Store) TaggedTaskIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error) {
	var out []string
	for _, chunk := range chunks(tagIDs) {
		ph, args := sqlutil.InClauseArgs(chunk)
		rows, err := s.query(ctx, s.db, `
			SELECT DISTINCT t.id FROM tasks t
			JOIN task_tags tt ON tt.task_id = t.id
			WHERE t.user_id = ? AND tt.tag_id IN (`+ph+`)`,
			append([]any{userID}, args...)...)
		if err != nil {
			return nil, errors.Wrap(err, "select tagged tasks")
		}
		ids, err := sqlutil.ScanStrings(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan tagged tasks")
		}
		out = append(out, ids...)
	}
	return out, nil
}

// LoadTasks loads full task rows, with project titles and tag names, ordered
// by position. IDs not visible to the user are skipped.
func (s *Store) LoadTasks(ctx context.Context, userID string, ids []string) ([]model.Task, error) {
	var tasks []model.Task
	for _, chunk := range chunks(ids) {
		ph, args := sqlutil.InClauseArgs(chunk)
		rows, err := s.query(ctx, s.db, `
			SELECT `+taskColumns+`
			FROM tasks t
			LEFT JOIN projects p ON p.id = t.project_id
			WHERE t.user_id = ? AND t.id IN (`+ph+`)
			ORDER BY t.position`,
			append([]any{userID}, args...)...)
		if err != nil {
			return nil, errors.Wrap(err, "load tasks")
		}
		loaded, err := sqlutil.ScanRows(rows, scanTask)
		if err != nil {
			return nil, errors.Wrap(err, "scan tasks")
		}
		tasks = append(tasks, loaded...)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	if len(ids) > maxInClause {
		sortByPosition(tasks)
	}
	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) loadTags(ctx context.Context, tasks []model.Task) error {
	byID := make(map[string]*model.Task, len(tasks))
	ids := make([]string, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
		ids[i] = tasks[i].ID
	}

	type taskTag struct{ taskID, name string }
	for _, chunk := range chunks(ids) {
		ph, args := sqlutil.InClauseArgs(chunk)
		rows, err := s.query(ctx, s.db, `
			SELECT tt.task_id, g.name FROM task_tags tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE tt.task_id IN (`+ph+`)
			ORDER BY g.name`, args...)
		if err != nil {
			return errors.Wrap(err, "load task tags")
		}
		pairs, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (taskTag, error) {
			var tt taskTag
			err := rows.Scan(&tt.taskID, &tt.name)
			return tt, err
		})
		if err != nil {
			return errors.Wrap(err, "scan task tags")
		}
		for _, p := range pairs {
			if t, ok := byID[p.taskID]; ok {
				t.Tags = append(t.Tags, p.name)
			}
		}
	}
	return nil
}

func scanTask(rows *sql.Rows) (model.Task, error) {
	var (
		t                              model.Task
		projectID, parentID, body, rec sql.NullString
		due, start, completed          sql.NullInt64
		created, updated               int64
	)
	err := rows.Scan(&t.ID, &t.UserID, &projectID, &t.ProjectTitle, &parentID,
		&t.Title, &body, &due, &start, &completed, &rec,
		&t.Position, &created, &updated)
	if err != nil {
		return t, err
	}
	t.ProjectID = stringPtr(projectID)
	t.ParentID = stringPtr(parentID)
	t.Body = stringPtr(body)
	t.Recurrence = stringPtr(rec)
	t.DueDate = timePtr(due)
	t.StartAt = timePtr(start)
	t.CompletedAt = timePtr(completed)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

func sortByPosition(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return cmp.Compare(a.Position, b.Position)
	})
}

func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxInClause {
		out = append(out, ids[:maxInClause])
		ids = ids[maxInClause:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "%s %s rows affected", kind, id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
