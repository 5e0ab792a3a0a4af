package store

// Timestamps are BIGINT unix milliseconds (UTC) so the same DDL and queries
// run on SQLite and PostgreSQL.

var sqlitePragmas = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA synchronous = NORMAL`,
	`PRAGMA temp_store = MEMORY`,
	`PRAGMA foreign_keys = ON`,
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
		parent_id TEXT,
		title TEXT NOT NULL,
		body TEXT,
		due_date BIGINT,
		start_at BIGINT,
		completed_at BIGINT,
		recurrence TEXT,
		position BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS task_tags (
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS saved_filters (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		query TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE (user_id, slug)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id)`,
}
