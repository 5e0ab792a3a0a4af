package query

import (
	"context"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/store"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseDate parses a date literal as YYYY-MM-DD (midnight UTC) or
// YYYY-MM-DDTHH:MM[:SS] in UTC.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &BadRequestError{
		Value:  value,
		Reason: "expected a date as YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS]",
	}
}

var dateComparisons = map[filter.Op]string{
	filter.OpEq:  "=",
	filter.OpNe:  "<>",
	filter.OpGt:  ">",
	filter.OpLt:  "<",
	filter.OpGte: ">=",
	filter.OpLte: "<=",
}

// evalDate handles due_date, start_at, created and updated. created and
// updated are never NULL and only support ordering comparisons.
func (e *Executor) evalDate(ctx context.Context, c *filter.Condition, userID string) (mapset.Set[string], error) {
	column, _ := store.Column(c.Field)
	nullable := c.Field.Nullable()

	if c.Op == filter.OpIs || c.Op == filter.OpIsNot {
		if !nullable || c.Value.Kind != filter.ValueNull {
			return emptySet(), nil
		}
		return e.where(ctx, userID, nullCheck(column, c.Op == filter.OpIs))
	}

	cmpOp, ok := dateComparisons[c.Op]
	if !ok || (!nullable && (c.Op == filter.OpEq || c.Op == filter.OpNe)) {
		return emptySet(), nil
	}
	if c.Value.Kind != filter.ValueString {
		return emptySet(), nil
	}

	t, err := ParseDate(c.Value.Str)
	if err != nil {
		return nil, err
	}
	cond := column + " " + cmpOp + " ?"
	if c.Op == filter.OpNe {
		// A missing date counts as "not equal".
		cond += " OR " + column + " IS NULL"
	}
	return e.where(ctx, userID, cond, t.UnixMilli())
}
