package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testEnv points the CLI at a fresh SQLite database.
type testEnv struct {
	t          *testing.T
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.toml")
	content := "database = \"sqlite\"\n" +
		"dsn = \"" + filepath.ToSlash(filepath.Join(dir, "tasks.db")) + "\"\n" +
		"user = \"tester\"\n"
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &testEnv{t: t, configPath: configFile}
}

func resetFlags() {
	jsonOutput = false
	configPath = ""
	userFlag = ""
	logLevelFlag = ""
	completeCursor = -1

	querySort = sortFlag{}
	taskListSort = sortFlag{}
	filterRunSort = sortFlag{}
	taskListAll = false

	taskBody, taskProject, taskDue, taskStart, taskParent, taskRecur = "", "", "", "", "", ""
	taskTags = nil
}

// run executes kst with args and returns everything written to stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	resetFlags()

	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("kst %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// runJSON runs args with --json and decodes the envelope.
func (e *testEnv) runJSON(args ...string) Response {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	var resp Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		e.t.Fatalf("decode %q: %v", out, err)
	}
	return resp
}

type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Project     string   `json:"project"`
	Tags        []string `json:"tags"`
	CompletedAt *string  `json:"completed_at"`
}

// titles runs a JSON query and returns the matched titles in order.
func (e *testEnv) titles(args ...string) []string {
	e.t.Helper()
	resp := e.runJSON(args...)
	if !resp.OK {
		e.t.Fatalf("kst %s: %+v", strings.Join(args, " "), resp.Error)
	}
	var data struct {
		Tasks []taskJSON `json:"tasks"`
	}
	remarshal(e.t, resp.Data, &data)
	out := []string{}
	for _, task := range data.Tasks {
		out = append(out, task.Title)
	}
	return out
}

func remarshal(t *testing.T, in, out any) {
	t.Helper()
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
}

func (e *testEnv) addTask(args ...string) taskJSON {
	e.t.Helper()
	resp := e.runJSON(append([]string{"task", "add"}, args...)...)
	if !resp.OK {
		e.t.Fatalf("task add %v: %+v", args, resp.Error)
	}
	var task taskJSON
	remarshal(e.t, resp.Data, &task)
	return task
}

func seedTasks(e *testEnv) map[string]taskJSON {
	return map[string]taskJSON{
		"report": e.addTask("Write report", "--project", "Work", "--tag", "urgent", "--due", "2024-06-01"),
		"milk":   e.addTask("Buy milk", "--tag", "errand", "--body", "oat *or* whole"),
		"review": e.addTask("Review PR", "--project", "Work", "--due", "2024-05-20"),
	}
}

func TestQueryCommand(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)

	tests := []struct {
		name  string
		query string
		extra []string
		want  []string
	}{
		{name: "empty query lists in insertion order", query: "", want: []string{"Write report", "Buy milk", "Review PR"}},
		{name: "project equality", query: "project = 'work'", want: []string{"Write report", "Review PR"}},
		{name: "tags membership", query: "tags IN ['urgent', 'errand']", want: []string{"Write report", "Buy milk"}},
		{name: "inbox tasks", query: "project IS NULL", want: []string{"Buy milk"}},
		{name: "due before", query: "due < '2024-05-25'", want: []string{"Review PR"}},
		{name: "order by clause", query: "project = Work ORDER BY due", want: []string{"Review PR", "Write report"}},
		{name: "sort flag", query: "title =~ '*r*'", extra: []string{"--sort", "title:desc"}, want: []string{"Write report", "Review PR"}},
		{name: "order by wins over sort flag", query: "project = Work ORDER BY title", extra: []string{"--sort", "due"}, want: []string{"Review PR", "Write report"}},
		{name: "no matches", query: "title = nothing", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"query", tt.query}, tt.extra...)
			got := e.titles(args...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("kst query %q mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)

	t.Run("parse error in JSON", func(t *testing.T) {
		resp := e.runJSON("query", "status = ")
		if resp.OK || resp.Error == nil {
			t.Fatalf("expected error response, got %+v", resp)
		}
		if resp.Error.Code != ErrQueryInvalid {
			t.Errorf("code = %q, want %q", resp.Error.Code, ErrQueryInvalid)
		}
		var details []parseErrorDetail
		remarshal(t, resp.Error.Details, &details)
		if len(details) == 0 || details[0].Start != len("status = ") {
			t.Errorf("details = %+v, want span at end of input", details)
		}
	})

	t.Run("parse error in text shows caret", func(t *testing.T) {
		_, err := e.run("query", "title ~ 'x'")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "invalid query:") || !strings.Contains(err.Error(), "^") {
			t.Errorf("error %q lacks message or caret", err)
		}
	})

	t.Run("bad date is a bad request", func(t *testing.T) {
		resp := e.runJSON("query", "due < 'soon'")
		if resp.OK || resp.Error.Code != ErrBadRequest {
			t.Errorf("got %+v, want %s", resp, ErrBadRequest)
		}
	})

	t.Run("bad sort flag", func(t *testing.T) {
		if _, err := e.run("query", "", "--sort", "priority"); err == nil {
			t.Error("expected --sort error")
		}
	})
}

func TestTaskLifecycle(t *testing.T) {
	e := newTestEnv(t)
	tasks := seedTasks(e)

	e.mustRun("task", "done", tasks["milk"].ID)
	if diff := cmp.Diff([]string{"Write report", "Review PR"}, e.titles("task", "list")); diff != "" {
		t.Errorf("active list mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Buy milk"}, e.titles("query", "status = done")); diff != "" {
		t.Errorf("completed query mismatch (-want +got):\n%s", diff)
	}

	e.mustRun("task", "reopen", tasks["milk"].ID)
	e.mustRun("task", "rm", tasks["report"].ID)
	if diff := cmp.Diff([]string{"Buy milk", "Review PR"}, e.titles("task", "list", "--all")); diff != "" {
		t.Errorf("list --all mismatch (-want +got):\n%s", diff)
	}

	resp := e.runJSON("task", "show", tasks["report"].ID)
	if resp.OK || resp.Error.Code != ErrNotFound {
		t.Errorf("show deleted task = %+v, want %s", resp, ErrNotFound)
	}

	out := e.mustRun("task", "show", tasks["milk"].ID)
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "errand") {
		t.Errorf("show output missing title or tag:\n%s", out)
	}
}

func TestTaskAddRejectsBadDate(t *testing.T) {
	e := newTestEnv(t)
	resp := e.runJSON("task", "add", "Nope", "--due", "tomorrow")
	if resp.OK || resp.Error.Code != ErrInvalidInput {
		t.Errorf("got %+v, want %s", resp, ErrInvalidInput)
	}
}

func TestUserScoping(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)
	e.mustRun("--user", "other", "task", "add", "Someone else's task")

	if diff := cmp.Diff([]string{"Someone else's task"}, e.titles("--user", "other", "query", "")); diff != "" {
		t.Errorf("other user mismatch (-want +got):\n%s", diff)
	}
	if got := e.titles("query", "title =~ 'someone*'"); len(got) != 0 {
		t.Errorf("configured user sees %v", got)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.run("--log-level", "bogus", "tag", "list"); err == nil {
		t.Fatal("expected an error for --log-level bogus")
	}

	out, err := e.run("--json", "--log-level", "bogus", "tag", "list")
	if err == nil {
		t.Error("expected the command to stop after a setup error")
	}
	var resp Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("want a single JSON envelope, got %q: %v", out, err)
	}
	if resp.OK || resp.Error.Code != ErrConfigInvalid {
		t.Errorf("got %+v, want %s", resp, ErrConfigInvalid)
	}

	// Execute logs the failure through the package logger, which must stay usable.
	resetFlags()
	prev := stdout
	stdout = io.Discard
	defer func() { stdout = prev }()
	rootCmd.SetArgs([]string{"--config", e.configPath, "--log-level", "bogus", "tag", "list"})
	if err := Execute(); err == nil {
		t.Fatal("Execute with a bad log level returned nil")
	}
}

func TestParseCommand(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("parse", "status=active and due<2024-01-01 order by title desc")
	want := "(status = 'active' AND due_date < '2024-01-01') ORDER BY title DESC\n"
	if out != want {
		t.Errorf("parse output = %q, want %q", out, want)
	}

	resp := e.runJSON("parse", "")
	var data struct {
		Empty bool `json:"empty"`
	}
	remarshal(t, resp.Data, &data)
	if !resp.OK || !data.Empty {
		t.Errorf("empty parse = %+v", resp)
	}
}

func TestCompleteCommand(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)

	tests := []struct {
		name     string
		text     string
		wantKind string
		want     string
	}{
		{name: "field name", text: "sta", wantKind: "field_name", want: "status"},
		{name: "status value", text: "status = ", wantKind: "field_value", want: "ACTIVE"},
		{name: "project value", text: "project = W", wantKind: "field_value", want: "Work"},
		{name: "tag in array", text: "tags IN [ur", wantKind: "array_value", want: "urgent"},
		{name: "empty array slot", text: "tags IN [", wantKind: "array_value", want: "errand"},
		{name: "inside open quote", text: "tags IN ['ur", wantKind: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.runJSON("complete", tt.text)
			var data struct {
				Context struct {
					Kind string `json:"kind"`
				} `json:"context"`
				Suggestions []struct {
					Text string `json:"text"`
				} `json:"suggestions"`
			}
			remarshal(t, resp.Data, &data)
			if data.Context.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", data.Context.Kind, tt.wantKind)
			}
			if tt.want == "" {
				if len(data.Suggestions) != 0 {
					t.Errorf("suggestions = %+v, want none", data.Suggestions)
				}
				return
			}
			found := false
			for _, s := range data.Suggestions {
				if strings.Contains(s.Text, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("suggestions %+v lack %q", data.Suggestions, tt.want)
			}
		})
	}
}

func TestSavedFilters(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)

	resp := e.runJSON("filter", "save", "Work by due", "project = work ORDER BY due")
	var saved struct {
		Slug string `json:"slug"`
	}
	remarshal(t, resp.Data, &saved)
	if !resp.OK || saved.Slug != "work-by-due" {
		t.Fatalf("save = %+v", resp)
	}

	if diff := cmp.Diff([]string{"Review PR", "Write report"}, e.titles("filter", "run", "work-by-due")); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}

	bad := e.runJSON("filter", "save", "Broken", "status =")
	if bad.OK || bad.Error.Code != ErrQueryInvalid {
		t.Errorf("saving an invalid filter = %+v, want %s", bad, ErrQueryInvalid)
	}

	e.mustRun("filter", "rm", "work-by-due")
	missing := e.runJSON("filter", "run", "work-by-due")
	if missing.OK || missing.Error.Code != ErrNotFound {
		t.Errorf("run after rm = %+v, want %s", missing, ErrNotFound)
	}
}

func TestImportCommand(t *testing.T) {
	e := newTestEnv(t)
	doc := filepath.Join(t.TempDir(), "seed.yaml")
	content := `projects:
  - title: Home
tasks:
  - title: Fix sink
    project: Home
    tags: [diy]
  - title: Taxes
    due: 2024-04-15
    completed: 2024-04-10
`
	if err := os.WriteFile(doc, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	resp := e.runJSON("import", doc)
	var result struct {
		Projects int `json:"projects"`
		Tasks    int `json:"tasks"`
	}
	remarshal(t, resp.Data, &result)
	if !resp.OK || result.Projects != 1 || result.Tasks != 2 {
		t.Fatalf("import = %+v", resp)
	}

	if diff := cmp.Diff([]string{"Taxes"}, e.titles("query", "status = completed")); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Fix sink"}, e.titles("query", "tags = DIY")); diff != "" {
		t.Errorf("tag mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectAndTagLists(t *testing.T) {
	e := newTestEnv(t)
	seedTasks(e)
	e.mustRun("project", "add", "work")

	resp := e.runJSON("project", "list")
	if resp.Meta == nil || resp.Meta.Count != 1 {
		t.Errorf("project list = %+v, want a single case-insensitive Work", resp)
	}

	out := e.mustRun("tag", "list")
	for _, tag := range []string{"#urgent", "#errand"} {
		if !strings.Contains(out, tag) {
			t.Errorf("tag list %q lacks %s", out, tag)
		}
	}
}

func TestInitCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	e := &testEnv{t: t, configPath: filepath.Join(dir, "nested", "config.toml")}
	t.Setenv("XDG_DATA_HOME", dir)

	resp := e.runJSON("init")
	var data struct {
		Created bool `json:"config_created"`
	}
	remarshal(t, resp.Data, &data)
	if !resp.OK || !data.Created {
		t.Fatalf("init = %+v", resp)
	}
	if _, err := os.Stat(e.configPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	again := e.runJSON("init")
	remarshal(t, again.Data, &data)
	if data.Created {
		t.Error("second init overwrote the config")
	}
}
