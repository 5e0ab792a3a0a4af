package query

import (
	"context"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/model"
)

// Execute parses text and returns the matching tasks, sorted. The query's
// own ORDER BY wins over fallback; with neither, tasks keep insertion order.
func (e *Executor) Execute(ctx context.Context, text, userID string, fallback *filter.OrderBy) ([]model.Task, error) {
	q, err := filter.Parse(text)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, q, userID, fallback)
}

// Run evaluates an already parsed query.
func (e *Executor) Run(ctx context.Context, q *filter.Query, userID string, fallback *filter.OrderBy) ([]model.Task, error) {
	if q == nil {
		q = &filter.Query{}
	}
	ids, err := e.Evaluate(ctx, q.Expr, userID)
	if err != nil {
		return nil, err
	}
	if ids.Cardinality() == 0 {
		return nil, nil
	}

	tasks, err := e.backend.LoadTasks(ctx, userID, ids.ToSlice())
	if err != nil {
		return nil, storeFailure(err)
	}

	order := q.OrderBy
	if order == nil {
		order = fallback
	}
	SortTasks(tasks, order)
	e.logger.Debugw("executed query", "user", userID, "query", q.String(), "results", len(tasks))
	return tasks, nil
}
