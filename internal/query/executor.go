// Package query evaluates parsed filters against the backing store.
//
// Every condition becomes one read against the Backend that yields a set of
// task IDs. AND, OR and NOT are then intersection, union and difference
// against the user's visible tasks.
package query

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/logging"
)

// Executor evaluates filter expressions.
type Executor struct {
	backend  Backend
	logger   logging.Logger
	parallel bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger attaches a logger; conditions are logged at debug level.
func WithLogger(logger logging.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithParallel evaluates both operands of AND/OR concurrently.
func WithParallel(parallel bool) Option {
	return func(e *Executor) { e.parallel = parallel }
}

// NewExecutor creates a new query executor.
func NewExecutor(backend Backend, opts ...Option) *Executor {
	e := &Executor{backend: backend, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the IDs of the user's tasks matching expr. A nil expr
// matches every visible task. The first error aborts evaluation.
func (e *Executor) Evaluate(ctx context.Context, expr filter.Expr, userID string) (mapset.Set[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch n := expr.(type) {
	case nil:
		return e.allTasks(ctx, userID)
	case *filter.Condition:
		return e.evalCondition(ctx, n, userID)
	case *filter.And:
		left, right, err := e.evalPair(ctx, n.Left, n.Right, userID)
		if err != nil {
			return nil, err
		}
		return left.Intersect(right), nil
	case *filter.Or:
		left, right, err := e.evalPair(ctx, n.Left, n.Right, userID)
		if err != nil {
			return nil, err
		}
		return left.Union(right), nil
	case *filter.Not:
		inner, err := e.Evaluate(ctx, n.Expr, userID)
		if err != nil {
			return nil, err
		}
		all, err := e.allTasks(ctx, userID)
		if err != nil {
			return nil, err
		}
		return all.Difference(inner), nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (e *Executor) evalPair(ctx context.Context, l, r filter.Expr, userID string) (left, right mapset.Set[string], err error) {
	if !e.parallel {
		if left, err = e.Evaluate(ctx, l, userID); err != nil {
			return nil, nil, err
		}
		if right, err = e.Evaluate(ctx, r, userID); err != nil {
			return nil, nil, err
		}
		return left, right, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = e.Evaluate(gctx, l, userID)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = e.Evaluate(gctx, r, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (e *Executor) evalCondition(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	var (
		ids mapset.Set[string]
		err error
	)
	switch c.Field {
	case filter.FieldTitle, filter.FieldBody:
		ids, err = e.evalText(ctx, c, userID)
	case filter.FieldStatus:
		ids, err = e.evalStatus(ctx, c, userID)
	case filter.FieldProject:
		ids, err = e.evalProject(ctx, c, userID)
	case filter.FieldTags:
		ids, err = e.evalTags(ctx, c, userID)
	case filter.FieldDueDate, filter.FieldStartAt, filter.FieldCreated, filter.FieldUpdated:
		ids, err = e.evalDate(ctx, c, userID)
	default:
		ids = emptySet()
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debugw("evaluated condition",
		"user", userID, "field", c.Field.String(), "op", c.Op.String(), "matches", ids.Cardinality())
	return ids, nil
}

func (e *Executor) allTasks(ctx context.Context, userID string) (mapset.Set[string], error) {
	ids, err := e.backend.AllTaskIDs(ctx, userID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return mapset.NewSet(ids...), nil
}

func (e *Executor) where(ctx context.Context, userID, cond string, args ...any) (mapset.Set[string], error) {
	ids, err := e.backend.TaskIDsWhere(ctx, userID, cond, args...)
	if err != nil {
		return nil, storeFailure(err)
	}
	return mapset.NewSet(ids...), nil
}

func emptySet() mapset.Set[string] {
	return mapset.NewSet[string]()
}
