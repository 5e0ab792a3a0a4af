package query

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/store"
)

// evalText handles title and body. Comparisons are case-insensitive; rows
// whose column is NULL never satisfy = or != or a glob.
func (e *Executor) evalText(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	column, _ := store.Column(c.Field)

	switch c.Op {
	case filter.OpIs, filter.OpIsNot:
		if !c.Field.Nullable() || c.Value.Kind != filter.ValueNull {
			return emptySet(), nil
		}
		return e.where(ctx, userID, nullCheck(column, c.Op == filter.OpIs))
	}

	if c.Value.Kind != filter.ValueString {
		return emptySet(), nil
	}
	lowered := "LOWER(" + column + ")"
	switch c.Op {
	case filter.OpEq:
		return e.where(ctx, userID, lowered+" = LOWER(?)", c.Value.Str)
	case filter.OpNe:
		return e.where(ctx, userID, lowered+" <> LOWER(?)", c.Value.Str)
	case filter.OpGlobMatch:
		return e.where(ctx, userID, lowered+" LIKE LOWER(?) "+store.LikeEscape, store.GlobToLike(c.Value.Str))
	case filter.OpGlobNotMatch:
		return e.where(ctx, userID, lowered+" NOT LIKE LOWER(?) "+store.LikeEscape, store.GlobToLike(c.Value.Str))
	default:
		return emptySet(), nil
	}
}

func nullCheck(column string, isNull bool) string {
	if isNull {
		return column + " IS NULL"
	}
	return column + " IS NOT NULL"
}
