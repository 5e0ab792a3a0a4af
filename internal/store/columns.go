package store

import "github.com/aidanlsb/kestrel/internal/filter"

// Column maps a filter field onto its tasks-table column. Status, project
// and tags have no direct column and report false.
func Column(field filter.Field) (string, bool) {
	switch field {
	case filter.FieldTitle:
		return "title", true
	case filter.FieldBody:
		return "body", true
	case filter.FieldDueDate:
		return "due_date", true
	case filter.FieldStartAt:
		return "start_at", true
	case filter.FieldCreated:
		return "created_at", true
	case filter.FieldUpdated:
		return "updated_at", true
	default:
		return "", false
	}
}
