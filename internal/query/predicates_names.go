package query

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
	"github.com/aidanlsb/kestrel/internal/store"
)

// maxInClause bounds the number of IDs bound into a single IN list.
const maxInClause = 500

// nameMatch turns a project or tag condition into a name lookup. negated
// reports whether the operator selects tasks outside the match.
func nameMatch(c *filter.Condition) (m store.NameMatch, negated, ok bool) {
	switch c.Op {
	case filter.OpEq, filter.OpNe:
		if c.Value.Kind != filter.ValueString {
			return m, false, false
		}
		return store.Exact(c.Value.Str), c.Op == filter.OpNe, true
	case filter.OpGlobMatch, filter.OpGlobNotMatch:
		if c.Value.Kind != filter.ValueString {
			return m, false, false
		}
		return store.Glob(c.Value.Str), c.Op == filter.OpGlobNotMatch, true
	case filter.OpIn, filter.OpNotIn:
		values, ok := c.Value.Strings()
		if !ok {
			return m, false, false
		}
		return store.AnyOf(values...), c.Op == filter.OpNotIn, true
	default:
		return m, false, false
	}
}

// evalProject resolves titles to project IDs first. A negated match keeps
// tasks with no project at all.
func (e *Executor) evalProject(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	if c.Op == filter.OpIs || c.Op == filter.OpIsNot {
		if c.Value.Kind != filter.ValueNull {
			return emptySet(), nil
		}
		return e.where(ctx, userID, nullCheck("project_id", c.Op == filter.OpIs))
	}

	m, negated, ok := nameMatch(c)
	if !ok {
		return emptySet(), nil
	}
	projectIDs, err := e.backend.ProjectIDs(ctx, userID, m)
	if err != nil {
		return nil, storeFailure(err)
	}

	if len(projectIDs) == 0 {
		if negated {
			return e.allTasks(ctx, userID)
		}
		return emptySet(), nil
	}
	return e.projectTasks(ctx, userID, projectIDs, negated)
}

// projectTasks selects tasks by project ID, maxInClause IDs per read. Chunks
// are unioned, or intersected when negated.
func (e *Executor) projectTasks(ctx context.Context, userID string, projectIDs []string, negated bool) (mapset.Set[string], error) {
	var out mapset.Set[string]
	for start := 0; start < len(projectIDs); start += maxInClause {
		ph, args := sqlutil.InClauseArgs(projectIDs[start:min(start+maxInClause, len(projectIDs))])
		cond := "project_id IN (" + ph + ")"
		if negated {
			cond = "project_id NOT IN (" + ph + ") OR project_id IS NULL"
		}
		ids, err := e.where(ctx, userID, cond, args...)
		if err != nil {
			return nil, err
		}
		switch {
		case out == nil:
			out = ids
		case negated:
			out = out.Intersect(ids)
		default:
			out = out.Union(ids)
		}
	}
	if out == nil {
		return emptySet(), nil
	}
	return out, nil
}

// evalTags joins through the task-tag association. A negated match is the
// full complement of the tagged set, untagged tasks included.
func (e *Executor) evalTags(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	m, negated, ok := nameMatch(c)
	if !ok {
		return emptySet(), nil
	}
	tagIDs, err := e.backend.TagIDs(ctx, userID, m)
	if err != nil {
		return nil, storeFailure(err)
	}

	tagged := emptySet()
	if len(tagIDs) > 0 {
		ids, err := e.backend.TaggedTaskIDs(ctx, userID, tagIDs)
		if err != nil {
			return nil, storeFailure(err)
		}
		tagged = mapset.NewSet(ids...)
	}
	if !negated {
		return tagged, nil
	}

	all, err := e.allTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return all.Difference(tagged), nil
}
