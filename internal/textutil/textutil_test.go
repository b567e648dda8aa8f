package textutil

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	if Hash("hello") != Hash("hello") {
		t.Error("Hash is not deterministic")
	}
	if Hash("hello") == Hash("Hello") {
		t.Error("Hash does not distinguish case")
	}
	if got := len(Hash("")); got != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", got)
	}
	if Hash("abc") != HashBytes([]byte("abc")) {
		t.Error("Hash and HashBytes disagree on the same content")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{name: "shorter than max", s: "abc", maxLen: 10, want: "abc"},
		{name: "exactly max", s: "abc", maxLen: 3, want: "abc"},
		{name: "truncated", s: "abcdef", maxLen: 3, want: "abc..."},
		{name: "empty", s: "", maxLen: 5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want string
	}{
		{name: "already collapsed", s: "a b c", want: "a b c"},
		{name: "runs folded", s: "a   b\t\tc", want: "a b c"},
		{name: "leading and trailing trimmed", s: "  hello  ", want: "hello"},
		{name: "newlines folded", s: "line\none\n\nline two", want: "line one line two"},
		{name: "only whitespace", s: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseSpace(tt.s); got != tt.want {
				t.Errorf("CollapseSpace(%q) = %q, want %q", tt.s, got, tt.want)
			}
		})
	}
}

func TestTruncateLongInput(t *testing.T) {
	s := strings.Repeat("x", 500)
	got := Truncate(s, 50)
	if len(got) != 53 {
		t.Errorf("Truncate length = %d, want 53", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate result %q missing ellipsis", got)
	}
}
