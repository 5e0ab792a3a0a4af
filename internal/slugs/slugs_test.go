package slugs

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Work", "work"},
		{"My Awesome Filter", "my-awesome-filter"},
		{"UPPER CASE", "upper-case"},
		{"Special: Characters!", "special-characters"},
		{"  padded  ", "padded"},
		{"!!!", Fallback},
		{"", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Fatalf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSimpleSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A:B", "a-b"},
		{"A - B", "a-b"},
		{"A:", "a"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := simpleSlug(tt.in); got != tt.want {
				t.Fatalf("simpleSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
