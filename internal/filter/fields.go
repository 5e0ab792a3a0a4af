package filter

import "strings"

// Field is one of the closed set of task attributes a filter can test.
type Field int

const (
	FieldTitle Field = iota
	FieldBody
	FieldStatus
	FieldProject
	FieldTags
	FieldDueDate
	FieldStartAt
	FieldCreated
	FieldUpdated
)

// Fields lists every filterable field in canonical order.
var Fields = []Field{
	FieldTitle,
	FieldBody,
	FieldStatus,
	FieldProject,
	FieldTags,
	FieldDueDate,
	FieldStartAt,
	FieldCreated,
	FieldUpdated,
}

// String returns the canonical field name.
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldBody:
		return "body"
	case FieldStatus:
		return "status"
	case FieldProject:
		return "project"
	case FieldTags:
		return "tags"
	case FieldDueDate:
		return "due_date"
	case FieldStartAt:
		return "start_at"
	case FieldCreated:
		return "created"
	case FieldUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Aliases returns the alternate spellings accepted for f, excluding the canonical name.
func (f Field) Aliases() []string {
	switch f {
	case FieldTags:
		return []string{"tag"}
	case FieldDueDate:
		return []string{"due"}
	case FieldStartAt:
		return []string{"start"}
	case FieldCreated:
		return []string{"created_at"}
	case FieldUpdated:
		return []string{"updated_at"}
	default:
		return nil
	}
}

// IsDate reports whether f holds a timestamp.
func (f Field) IsDate() bool {
	switch f {
	case FieldDueDate, FieldStartAt, FieldCreated, FieldUpdated:
		return true
	}
	return false
}

// Nullable reports whether the backing column for f may be NULL.
func (f Field) Nullable() bool {
	switch f {
	case FieldBody, FieldProject, FieldDueDate, FieldStartAt:
		return true
	}
	return false
}

// LookupField resolves a field name or alias, ignoring case.
func LookupField(name string) (Field, bool) {
	switch strings.ToLower(name) {
	case "title":
		return FieldTitle, true
	case "body":
		return FieldBody, true
	case "status":
		return FieldStatus, true
	case "project":
		return FieldProject, true
	case "tags", "tag":
		return FieldTags, true
	case "due_date", "due":
		return FieldDueDate, true
	case "start_at", "start":
		return FieldStartAt, true
	case "created", "created_at":
		return FieldCreated, true
	case "updated", "updated_at":
		return FieldUpdated, true
	default:
		return 0, false
	}
}
