package query

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aidanlsb/kestrel/internal/sqlutil"
	"github.com/aidanlsb/kestrel/internal/store"
)

func TestBackingStoreFailuresPropagate(t *testing.T) {
	boom := errors.New("disk I/O error")

	tests := []struct {
		name   string
		query  string
		expect func(sqlmock.Sqlmock)
	}{
		{
			name:  "task predicate",
			query: "title = 'x'",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id FROM tasks").WillReturnError(boom)
			},
		},
		{
			name:  "project lookup",
			query: "project = 'work'",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id FROM projects").WillReturnError(boom)
			},
		},
		{
			name:  "tag join",
			query: "tags = 'urgent'",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id FROM tags").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag1"))
				m.ExpectQuery("SELECT DISTINCT t.id FROM tasks").WillReturnError(boom)
			},
		},
		{
			name:  "visible ids for not",
			query: "not title = 'x'",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id FROM tasks WHERE user_id").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				m.ExpectQuery("SELECT id FROM tasks WHERE user_id").WillReturnError(boom)
			},
		},
		{
			name:  "load",
			query: "",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id FROM tasks").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a"))
				m.ExpectQuery("FROM tasks t").WillReturnError(boom)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatal(err)
			}
			defer db.Close()
			tt.expect(mock)

			exec := NewExecutor(store.FromDB(db, sqlutil.SQLite))
			_, err = exec.Execute(context.Background(), tt.query, testUser, nil)
			if !errors.Is(err, ErrBackingStore) {
				t.Errorf("err = %v, want ErrBackingStore", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("err = %v, want wrapped %v", err, boom)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-05", "2024-03-05T00:00:00Z", false},
		{"2024-03-05T09:30", "2024-03-05T09:30:00Z", false},
		{"2024-03-05T09:30:15", "2024-03-05T09:30:15Z", false},
		{"2024-02-30", "", true},
		{"2024-03-05 09:30", "", true},
		{"today", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			var bad *BadRequestError
			if !errors.As(err, &bad) || bad.Value != tt.in {
				t.Errorf("ParseDate(%q) err = %v, want BadRequestError", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.in, err)
		}
		if s := got.Format("2006-01-02T15:04:05Z07:00"); s != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, s, tt.want)
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"due", "ORDER BY due_date ASC", false},
		{"title:desc", "ORDER BY title DESC", false},
		{"Created_At DESC", "ORDER BY created DESC", false},
		{"priority", "", true},
		{"title:sideways", "", true},
		{"title asc extra", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSort(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSort(%q): %v", tt.in, err)
		}
		if got == nil {
			if tt.want != "" {
				t.Errorf("ParseSort(%q) = nil, want %s", tt.in, tt.want)
			}
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseSort(%q) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}
