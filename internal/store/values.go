package store

import (
	"context"

	"github.com/aidanlsb/kestrel/internal/filter"
)

// Values returns the names a user can complete for field: project titles
// for project and tag names for tags. Other fields have no stored values.
func (s *Store) Values(ctx context.Context, userID string, field filter.Field) ([]string, error) {
	switch field {
	case filter.FieldProject:
		projects, err := s.ListProjects(ctx, userID)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(projects))
		for i, p := range projects {
			out[i] = p.Title
		}
		return out, nil
	case filter.FieldTags:
		tags, err := s.ListTags(ctx, userID)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(tags))
		for i, t := range tags {
			out[i] = t.Name
		}
		return out, nil
	default:
		return nil, nil
	}
}

// ValuesFor binds Values to a user so it can feed filter.Suggest.
func (s *Store) ValuesFor(userID string) filter.ValueSource {
	return userValues{store: s, userID: userID}
}

type userValues struct {
	store  *Store
	userID string
}

func (u userValues) CompletionValues(ctx context.Context, field filter.Field) ([]string, error) {
	return u.store.Values(ctx, u.userID, field)
}
