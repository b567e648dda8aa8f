package langtag

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
		ok   bool
	}{
		{name: "already canonical", code: "en-US", want: "en-US", ok: true},
		{name: "mixed case", code: "EN-us", want: "en-US", ok: true},
		{name: "underscore separator", code: "de_DE", want: "de-DE", ok: true},
		{name: "bare language", code: "pt", want: "pt", ok: true},
		{name: "empty", code: "", ok: false},
		{name: "garbage", code: "not a language!", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonical(tt.code)
			if ok != tt.ok {
				t.Fatalf("Canonical(%q) ok = %v, want %v", tt.code, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: "en-US", b: "en-US", want: true},
		{name: "case insensitive", a: "en-US", b: "EN-us", want: true},
		{name: "separator insensitive", a: "en-US", b: "en_US", want: true},
		{name: "different regions", a: "en-US", b: "en-GB", want: false},
		{name: "different languages", a: "de-DE", b: "nl-NL", want: false},
		{name: "unparseable equal verbatim", a: "??", b: "??", want: true},
		{name: "unparseable not equal otherwise", a: "??", b: "en", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
