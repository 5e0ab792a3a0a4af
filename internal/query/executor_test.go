package query

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aidanlsb/kestrel/internal/filter"
	"github.com/aidanlsb/kestrel/internal/logging"
	"github.com/aidanlsb/kestrel/internal/model"
	"github.com/aidanlsb/kestrel/internal/store"
)

const testUser = "u1"

func date(s string) *time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func text(s string) *string { return &s }

// newFixture creates four tasks for testUser, one day apart starting
// 2024-03-01, plus one task for another user:
//
//	Buy milk      project Home, tag errand, due 03-05
//	Write report  project Work, tags work+urgent, due 03-10, start 03-01T09:00
//	Call mom      no project, no tags, completed 03-05
//	100% effort   project Work, no tags
func newFixture(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	s, err := store.OpenInMemory(store.WithClock(clock))
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tasks := []model.NewTask{
		{Title: "Buy milk", Project: "Home", Tags: []string{"errand"}, DueDate: date("2024-03-05")},
		{Title: "Write report", Project: "Work", Tags: []string{"work", "urgent"},
			Body: text("quarterly numbers"), DueDate: date("2024-03-10"), StartAt: date("2024-03-01T09:00")},
		{Title: "Call mom", Body: text("weekly")},
		{Title: "100% effort", Project: "Work"},
	}
	var callMom string
	for _, nt := range tasks {
		task, err := s.CreateTask(ctx, testUser, nt)
		if err != nil {
			t.Fatalf("CreateTask(%q): %v", nt.Title, err)
		}
		if nt.Title == "Call mom" {
			callMom = task.ID
		}
		clock.Advance(24 * time.Hour)
	}
	if err := s.CompleteTask(ctx, testUser, callMom); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTask(ctx, "u2", model.NewTask{Title: "Buy milk", Project: "Home"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func titles(tasks []model.Task) []string {
	var out []string
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func sortedTitles(tasks []model.Task) []string {
	out := titles(tasks)
	sort.Strings(out)
	return out
}

var allTitles = []string{"100% effort", "Buy milk", "Call mom", "Write report"}

func TestExecuteFieldSemantics(t *testing.T) {
	s := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		// title and body
		{"title eq ignores case", "title = 'buy MILK'", []string{"Buy milk"}},
		{"title ne", "title != 'buy milk'", []string{"100% effort", "Call mom", "Write report"}},
		{"title glob", "title =~ 'write*'", []string{"Write report"}},
		{"title glob single char", "title =~ 'c?ll mom'", []string{"Call mom"}},
		{"title glob escapes percent", "title =~ '100%*'", []string{"100% effort"}},
		{"title glob literal percent only", "title =~ '%'", nil},
		{"title not glob", "title !~ '*o*'", []string{"Buy milk"}},
		{"title is null never matches", "title is null", nil},
		{"title number is empty", "title = 5", nil},
		{"body is null", "body is null", []string{"100% effort", "Buy milk"}},
		{"body is not null", "body is not null", []string{"Call mom", "Write report"}},
		{"body ne skips null", "body != 'weekly'", []string{"Write report"}},
		{"body glob", "body =~ '*NUMBERS'", []string{"Write report"}},
		{"body is value is empty", "body is 'x'", nil},

		// status
		{"status completed", "status = completed", []string{"Call mom"}},
		{"status done alias", "status = DONE", []string{"Call mom"}},
		{"status open alias", "status = open", []string{"100% effort", "Buy milk", "Write report"}},
		{"status ne done", "status != done", []string{"100% effort", "Buy milk", "Write report"}},
		{"status ne active", "status != active", []string{"Call mom"}},
		{"status unknown", "status = someday", nil},
		{"status in both families", "status in [active, done]", allTitles},
		{"status in one family", "status in ['completed', 'done']", []string{"Call mom"}},
		{"status in neither", "status in [later]", nil},
		{"status not in completed", "status not in [done]", []string{"100% effort", "Buy milk", "Write report"}},
		{"status not in both", "status not in [open, completed]", nil},
		{"status glob unsupported", "status =~ 'act*'", nil},

		// project
		{"project eq", "project = 'work'", []string{"100% effort", "Write report"}},
		{"project ne keeps inbox", "project != 'work'", []string{"Buy milk", "Call mom"}},
		{"project glob", "project =~ 'h*'", []string{"Buy milk"}},
		{"project not glob keeps inbox", "project !~ 'h*'", []string{"100% effort", "Call mom", "Write report"}},
		{"project is null", "project is null", []string{"Call mom"}},
		{"project is not null", "project is not null", []string{"100% effort", "Buy milk", "Write report"}},
		{"project unknown", "project = 'Garden'", nil},
		{"project ne unknown is everything", "project != 'Garden'", allTitles},
		{"project in", "project in ['home', 'WORK']", []string{"100% effort", "Buy milk", "Write report"}},
		{"project not in", "project not in ['home']", []string{"100% effort", "Call mom", "Write report"}},
		{"project gt unsupported", "project > 'a'", nil},

		// tags
		{"tag eq", "tag = 'urgent'", []string{"Write report"}},
		{"tags eq ignores case", "tags = 'URGENT'", []string{"Write report"}},
		{"tags ne is full complement", "tags != 'urgent'", []string{"100% effort", "Buy milk", "Call mom"}},
		{"tags glob", "tags =~ 'w*'", []string{"Write report"}},
		{"tags not glob", "tags !~ 'w*'", []string{"100% effort", "Buy milk", "Call mom"}},
		{"tags in", "tags in ['errand', 'work']", []string{"Buy milk", "Write report"}},
		{"tags not in", "tags not in ['errand']", []string{"100% effort", "Call mom", "Write report"}},
		{"tags unknown", "tags = 'none'", nil},
		{"tags ne unknown is everything", "tags != 'none'", allTitles},
		{"tags is null unsupported", "tags is null", nil},

		// dates
		{"due lt", "due < '2024-03-07'", []string{"Buy milk"}},
		{"due gte", "due_date >= 2024-03-05", []string{"Buy milk", "Write report"}},
		{"due eq", "due = '2024-03-05'", []string{"Buy milk"}},
		{"due ne includes null", "due != '2024-03-05'", []string{"100% effort", "Call mom", "Write report"}},
		{"due is null", "due is null", []string{"100% effort", "Call mom"}},
		{"due is not null", "due_date is not null", []string{"Buy milk", "Write report"}},
		{"due glob unsupported", "due =~ '2024*'", nil},
		{"due number is empty", "due < 5", nil},
		{"start datetime", "start > '2024-03-01T08:59'", []string{"Write report"}},
		{"start datetime seconds", "start_at = '2024-03-01T09:00:00'", []string{"Write report"}},
		{"created gt", "created > '2024-03-02'", []string{"100% effort", "Call mom"}},
		{"created gte", "created_at >= '2024-03-02'", []string{"100% effort", "Call mom", "Write report"}},
		{"created eq unsupported", "created = '2024-03-01'", nil},
		{"created is null unsupported", "created is null", nil},
		{"updated lte", "updated <= '2024-03-01'", []string{"Buy milk"}},
		{"updated after completion", "updated > '2024-03-04'", []string{"Call mom"}},

		// logic
		{"and", "status = active and project = 'work'", []string{"100% effort", "Write report"}},
		{"or", "tags = 'errand' or tags = 'urgent'", []string{"Buy milk", "Write report"}},
		{"not", "not project = 'work'", []string{"Buy milk", "Call mom"}},
		{"not group", "not (status = done or project is null)", []string{"100% effort", "Buy milk", "Write report"}},
		{"and binds tighter", "project = 'home' or project = 'work' and tags = 'urgent'", []string{"Buy milk", "Write report"}},
		{"empty selects all", "", allTitles},
		{"sort only selects all", "order by title", allTitles},
	}

	for _, parallel := range []bool{false, true} {
		exec := NewExecutor(s, WithParallel(parallel))
		for _, tt := range tests {
			name := tt.name
			if parallel {
				name += "/parallel"
			}
			t.Run(name, func(t *testing.T) {
				tasks, err := exec.Execute(ctx, tt.query, testUser, nil)
				if err != nil {
					t.Fatalf("Execute(%q): %v", tt.query, err)
				}
				if diff := cmp.Diff(tt.want, sortedTitles(tasks), cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("Execute(%q) mismatch (-want +got):\n%s", tt.query, diff)
				}
			})
		}
	}
}

func TestExecuteScopesToUser(t *testing.T) {
	s := newFixture(t)
	tasks, err := NewExecutor(s).Execute(context.Background(), "project = 'home'", testUser, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].UserID != testUser {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestExecuteBadDate(t *testing.T) {
	s := newFixture(t)
	exec := NewExecutor(s)

	for _, q := range []string{
		"due < 'tomorrow'",
		"due < 2024-13-45",
		"status = active and created > '2024-03-01T25:00'",
		"not start = '03/01/2024'",
	} {
		_, err := exec.Execute(context.Background(), q, testUser, nil)
		var bad *BadRequestError
		if !errors.As(err, &bad) {
			t.Errorf("Execute(%q) err = %v, want BadRequestError", q, err)
		}
	}
}

func TestExecuteParseError(t *testing.T) {
	s := newFixture(t)
	_, err := NewExecutor(s).Execute(context.Background(), "title =", testUser, nil)
	var perrs filter.ParseErrors
	if !errors.As(err, &perrs) || len(perrs) != 1 {
		t.Fatalf("err = %v, want one parse error", err)
	}
}

func TestSetAlgebraLaws(t *testing.T) {
	s := newFixture(t)
	ctx := context.Background()
	exec := NewExecutor(s)

	atoms := []string{
		"status = done",
		"project = 'work'",
		"tags = 'errand'",
		"due is null",
		"body != 'weekly'",
	}
	eval := func(q string) []string {
		t.Helper()
		parsed := filter.MustParse(q)
		ids, err := exec.Evaluate(ctx, parsed.Expr, testUser)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", q, err)
		}
		out := ids.ToSlice()
		sort.Strings(out)
		return out
	}

	for _, a := range atoms {
		if diff := cmp.Diff(eval(a), eval(a+" and "+a)); diff != "" {
			t.Errorf("%q AND itself differs:\n%s", a, diff)
		}
		if diff := cmp.Diff(eval(a), eval(a+" or "+a)); diff != "" {
			t.Errorf("%q OR itself differs:\n%s", a, diff)
		}
		if diff := cmp.Diff(eval(a), eval("not not "+a), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("double negation of %q differs:\n%s", a, diff)
		}
		for _, b := range atoms {
			lhs := eval("not (" + a + " and " + b + ")")
			rhs := eval("(not " + a + ") or (not " + b + ")")
			if diff := cmp.Diff(lhs, rhs, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("De Morgan fails for %q, %q:\n%s", a, b, diff)
			}
			lhs = eval("not (" + a + " or " + b + ")")
			rhs = eval("(not " + a + ") and (not " + b + ")")
			if diff := cmp.Diff(lhs, rhs, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("De Morgan (or) fails for %q, %q:\n%s", a, b, diff)
			}
		}
	}
}

func TestExecuteOrdering(t *testing.T) {
	s := newFixture(t)
	ctx := context.Background()
	exec := NewExecutor(s)

	tests := []struct {
		name     string
		query    string
		fallback *filter.OrderBy
		want     []string
	}{
		{"insertion order", "", nil, []string{"Buy milk", "Write report", "Call mom", "100% effort"}},
		{"title", "order by title", nil, []string{"100% effort", "Buy milk", "Call mom", "Write report"}},
		{"title desc", "order by title desc", nil, []string{"Write report", "Call mom", "Buy milk", "100% effort"}},
		{"due nulls last", "order by due", nil, []string{"Buy milk", "Write report", "Call mom", "100% effort"}},
		{"due desc nulls last", "order by due desc", nil, []string{"Write report", "Buy milk", "100% effort", "Call mom"}},
		{"created desc", "order by created desc", nil, []string{"100% effort", "Call mom", "Write report", "Buy milk"}},
		{"updated", "ORDER BY updated", nil, []string{"Buy milk", "Write report", "100% effort", "Call mom"}},
		{"project falls back to position", "order by project", nil, []string{"Buy milk", "Write report", "Call mom", "100% effort"}},
		{"filter with order", "status = active order by title desc", nil, []string{"Write report", "Buy milk", "100% effort"}},
		{"fallback used", "status = active", &filter.OrderBy{Field: filter.FieldTitle}, []string{"100% effort", "Buy milk", "Write report"}},
		{"query order beats fallback", "status = active order by due",
			&filter.OrderBy{Field: filter.FieldTitle}, []string{"Buy milk", "Write report", "100% effort"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := exec.Execute(ctx, tt.query, testUser, tt.fallback)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, titles(tasks)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteLogsConditions(t *testing.T) {
	s := newFixture(t)
	core, logs := observer.New(zapcore.DebugLevel)
	exec := NewExecutor(s, WithLogger(logging.Logger{SugaredLogger: zap.New(core).Sugar()}))

	if _, err := exec.Execute(context.Background(), "tags = 'errand' or due is null", testUser, nil); err != nil {
		t.Fatal(err)
	}
	conditions := logs.FilterMessage("evaluated condition").All()
	if len(conditions) != 2 {
		t.Fatalf("logged %d conditions, want 2", len(conditions))
	}
	if got := conditions[0].ContextMap()["field"]; got != "tags" {
		t.Errorf("first field = %v", got)
	}
}
