package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/model"
)

// SortTasks orders tasks in place. Titles compare case-insensitively and
// dates chronologically with missing dates last in either direction. Other
// fields, and ties, fall back to insertion order. A nil order keeps
// insertion order.
func SortTasks(tasks []model.Task, order *filter.OrderBy) {
	if order == nil {
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return cmp.Compare(a.Position, b.Position)
		})
		return
	}

	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		ta, tb := sortTime(a, order.Field), sortTime(b, order.Field)
		if order.Field.IsDate() && (ta == nil) != (tb == nil) {
			if ta == nil {
				return 1
			}
			return -1
		}

		c := 0
		switch {
		case order.Field == filter.FieldTitle:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case ta != nil && tb != nil:
			c = ta.Compare(*tb)
		}
		if c == 0 {
			c = cmp.Compare(a.Position, b.Position)
		}
		if order.Direction == filter.Desc {
			c = -c
		}
		return c
	})
}

func sortTime(t model.Task, f filter.Field) *time.Time {
	switch f {
	case filter.FieldDueDate:
		return t.DueDate
	case filter.FieldStartAt:
		return t.StartAt
	case filter.FieldCreated:
		return &t.CreatedAt
	case filter.FieldUpdated:
		return &t.UpdatedAt
	default:
		return nil
	}
}

// ParseSort reads a sort spec such as "due", "due_date:desc" or
// "title DESC". An empty spec yields nil.
func ParseSort(spec string) (*filter.OrderBy, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(spec, func(r rune) bool { return r == ':' || r == ' ' || r == '\t' })
	if len(parts) == 0 || len(parts) > 2 {
		return nil, fmt.Errorf("invalid sort %q: expected field[:asc|desc]", spec)
	}
	field, ok := filter.LookupField(parts[0])
	if !ok {
		return nil, fmt.Errorf("invalid sort %q: unknown field '%s'", spec, parts[0])
	}
	order := &filter.OrderBy{Field: field, Direction: filter.Asc}
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case "ASC":
		case "DESC":
			order.Direction = filter.Desc
		default:
			return nil, fmt.Errorf("invalid sort %q: direction must be asc or desc", spec)
		}
	}
	return order, nil
}
