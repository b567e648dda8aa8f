package tmx

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{
			name:  "canonical compact with Z",
			value: "20210131T101500Z",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "compact without Z",
			value: "20210131T101500",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "extended with Z",
			value: "2021-01-31T10:15:00Z",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "extended without Z",
			value: "2021-01-31T10:15:00",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "compact without T",
			value: "20210131101500",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "minute precision compact",
			value: "20210131T1015Z",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "minute precision extended",
			value: "2021-01-31T10:15",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "minute precision without T",
			value: "202101311015",
			want:  time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "hour precision with T and Z",
			value: "20210131T10Z",
			want:  time.Date(2021, 1, 31, 10, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "hour precision without T",
			value: "2021013110",
			want:  time.Date(2021, 1, 31, 10, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{name: "empty", value: "", ok: false},
		{name: "not a date", value: "yesterday", ok: false},
		{name: "leading space", value: " 20210131T101500Z", ok: false},
		{name: "trailing space", value: "20210131T101500Z ", ok: false},
		{name: "numeric offset", value: "2021-01-31T10:15:00+01:00", ok: false},
		{name: "date only", value: "20210131", ok: false},
		{name: "impossible month", value: "20211331T101500Z", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.value)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if !ok {
				if !got.IsZero() {
					t.Errorf("ParseDate(%q) returned non-zero time on failure", tt.value)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// Every spelling of the same instant must parse to the same UTC time, so
// downstream comparisons do not depend on which tool wrote the file.
func TestParseDateEquivalentSpellings(t *testing.T) {
	want := time.Date(2021, 1, 31, 10, 15, 0, 0, time.UTC)
	spellings := []string{
		"20210131T101500Z",
		"20210131T101500",
		"2021-01-31T10:15:00Z",
		"2021-01-31T10:15:00",
		"20210131101500Z",
		"20210131101500",
		"20210131T1015Z",
		"20210131T1015",
		"2021-01-31T10:15Z",
		"2021-01-31T10:15",
		"202101311015Z",
		"202101311015",
	}
	for _, s := range spellings {
		got, ok := ParseDate(s)
		if !ok {
			t.Errorf("ParseDate(%q) failed", s)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", s, got, want)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) location = %v, want UTC", s, got.Location())
		}
	}
}
