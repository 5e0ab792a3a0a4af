package store

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/kestrel/internal/model"
)

// ImportDocument is the YAML seed format accepted by Import.
type ImportDocument struct {
	Projects []ImportProject `yaml:"projects"`
	Tasks    []ImportTask    `yaml:"tasks"`
}

type ImportProject struct {
	Title string `yaml:"title"`
}

type ImportTask struct {
	Title      string   `yaml:"title"`
	Body       string   `yaml:"body,omitempty"`
	Project    string   `yaml:"project,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	Due        string   `yaml:"due,omitempty"`
	Start      string   `yaml:"start,omitempty"`
	Completed  string   `yaml:"completed,omitempty"`
	Recurrence string   `yaml:"recurrence,omitempty"`
}

// ImportResult counts what Import created.
type ImportResult struct {
	Projects int `json:"projects"`
	Tasks    int `json:"tasks"`
}

// timestampLayouts are accepted for imported dates, all read as UTC.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTimestamp parses a date or datetime in one of the import layouts.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q (expected YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS])", value)
}

// Import reads a YAML document and creates its projects and tasks in order.
// Tasks are validated before anything is written, and all writes share one
// transaction.
func (s *Store) Import(ctx context.Context, userID string, r io.Reader) (*ImportResult, error) {
	var doc ImportDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse import document")
	}

	pending := make([]model.NewTask, len(doc.Tasks))
	completed := make([]*time.Time, len(doc.Tasks))
	for i, it := range doc.Tasks {
		nt, done, err := it.toNewTask()
		if err != nil {
			return nil, errors.Wrapf(err, "task %d", i+1)
		}
		pending[i] = nt
		completed[i] = done
	}

	result := &ImportResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range doc.Projects {
			if strings.TrimSpace(p.Title) == "" {
				continue
			}
			if _, err := s.ensureProject(ctx, tx, userID, strings.TrimSpace(p.Title)); err != nil {
				return err
			}
			result.Projects++
		}
		for i, nt := range pending {
			if _, err := s.insertTask(ctx, tx, userID, nt, completed[i]); err != nil {
				return errors.Wrapf(err, "import task %q", nt.Title)
			}
			result.Tasks++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("imported", "user", userID, "projects", result.Projects, "tasks", result.Tasks)
	return result, nil
}

func (it ImportTask) toNewTask() (model.NewTask, *time.Time, error) {
	if strings.TrimSpace(it.Title) == "" {
		return model.NewTask{}, nil, errors.New("title is required")
	}
	nt := model.NewTask{
		Title:   it.Title,
		Project: it.Project,
		Tags:    it.Tags,
	}
	if it.Body != "" {
		body := it.Body
		nt.Body = &body
	}
	if it.Recurrence != "" {
		rec := it.Recurrence
		nt.Recurrence = &rec
	}

	var err error
	if nt.DueDate, err = optionalTime(it.Due); err != nil {
		return nt, nil, errors.Wrap(err, "due")
	}
	if nt.StartAt, err = optionalTime(it.Start); err != nil {
		return nt, nil, errors.Wrap(err, "start")
	}
	done, err := optionalTime(it.Completed)
	if err != nil {
		return nt, nil, errors.Wrap(err, "completed")
	}
	return nt, done, nil
}

func optionalTime(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
