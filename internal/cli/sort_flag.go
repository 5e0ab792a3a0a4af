package cli

import (
	"github.com/spf13/pflag"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/query"
)

// sortFlag is a --sort value such as "due" or "title:desc".
type sortFlag struct {
	order *filter.OrderBy
}

var _ pflag.Value = (*sortFlag)(nil)

func (f *sortFlag) String() string {
	if f == nil || f.order == nil {
		return ""
	}
	return f.order.Field.String() + ":" + lowerDirection(f.order.Direction)
}

func (f *sortFlag) Set(value string) error {
	order, err := query.ParseSort(value)
	if err != nil {
		return err
	}
	f.order = order
	return nil
}

func (f *sortFlag) Type() string { return "field[:dir]" }

func lowerDirection(d filter.Direction) string {
	if d == filter.Desc {
		return "desc"
	}
	return "asc"
}

// addSortFlag registers --sort on fs.
func addSortFlag(fs *pflag.FlagSet, f *sortFlag) {
	fs.Var(f, "sort", "Sort when the query has no ORDER BY, e.g. due or title:desc")
}

// fallbackOrder picks --sort, then the configured default sort.
func fallbackOrder(f *sortFlag) (*filter.OrderBy, error) {
	if f.order != nil {
		return f.order, nil
	}
	return defaultSort()
}
