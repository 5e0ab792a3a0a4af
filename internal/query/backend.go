package query

import (
	"context"

	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
)

// Backend is the persistence surface the executor reads through.
// *store.Store implements it.
type Backend interface {
	// AllTaskIDs returns every task the user can see.
	AllTaskIDs(ctx context.Context, userID string) ([]string, error)
	// TaskIDsWhere runs a single predicate over the tasks table.
	TaskIDsWhere(ctx context.Context, userID, cond string, args ...any) ([]string, error)
	ProjectIDs(ctx context.Context, userID string, m store.NameMatch) ([]string, error)
	TagIDs(ctx context.Context, userID string, m store.NameMatch) ([]string, error)
	TaggedTaskIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error)
	LoadTasks(ctx context.Context, userID string, ids []string) ([]model.Task, error)
}

var _ Backend = (*store.Store)(nil)
