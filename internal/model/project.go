package model

import "time"

// Project groups tasks. Tasks without a project live in the inbox.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a user-scoped label attached to tasks.
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// SavedFilter is a named filter query. Only the raw text is persisted; it is
// re-parsed every time the filter runs.
type SavedFilter struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
