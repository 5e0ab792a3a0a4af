package query

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aidanlsb/kestrel/internal/filter"
)

const (
	condCompleted = "completed_at IS NOT NULL"
	condActive    = "completed_at IS NULL"
)

// completedStatus reports whether a status literal names the completed
// family (COMPLETED, DONE) or the active one (ACTIVE, OPEN).
func completedStatus(value string) (completed, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "COMPLETED", "DONE":
		return true, true
	case "ACTIVE", "OPEN":
		return false, true
	default:
		return false, false
	}
}

// evalStatus derives status from completed_at; it is never stored.
func (e *Executor) evalStatus(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	switch c.Op {
	case filter.OpEq, filter.OpNe:
		if c.Value.Kind != filter.ValueString {
			return emptySet(), nil
		}
		completed, ok := completedStatus(c.Value.Str)
		if !ok {
			return emptySet(), nil
		}
		if c.Op == filter.OpNe {
			completed = !completed
		}
		return e.statusSet(ctx, userID, completed)

	case filter.OpIn, filter.OpNotIn:
		values, ok := c.Value.Strings()
		if !ok {
			return emptySet(), nil
		}
		var hasActive, hasCompleted bool
		for _, v := range values {
			completed, ok := completedStatus(v)
			switch {
			case !ok:
			case completed:
				hasCompleted = true
			default:
				hasActive = true
			}
		}
		if c.Op == filter.OpNotIn {
			hasActive, hasCompleted = !hasActive, !hasCompleted
		}
		switch {
		case hasActive && hasCompleted:
			return e.allTasks(ctx, userID)
		case hasCompleted:
			return e.statusSet(ctx, userID, true)
		case hasActive:
			return e.statusSet(ctx, userID, false)
		default:
			return emptySet(), nil
		}

	default:
		return emptySet(), nil
	}
}

func (e *Executor) statusSet(ctx context.Context, userID string, completed bool) (mapset.Set[string], error) {
	if completed {
		return e.where(ctx, userID, condCompleted)
	}
	return e.where(ctx, userID, condActive)
}
