package tmx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// parseSeg decodes a standalone seg snippet and returns its element.
func parseSeg(t *testing.T, snippet string) *element {
	t.Helper()
	doc, err := parseDocument([]byte(snippet))
	if err != nil {
		t.Fatalf("parse snippet %q: %v", snippet, err)
	}
	if doc.root.name != "seg" {
		t.Fatalf("snippet root = %q, want seg", doc.root.name)
	}
	return doc.root
}

func TestExtractSegment(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    Segment
	}{
		{
			name:    "plain text",
			snippet: "<seg>Hello world</seg>",
			want:    Segment{PlainText{Text: "Hello world"}},
		},
		{
			name:    "empty segment",
			snippet: "<seg></seg>",
			want:    Segment{},
		},
		{
			name:    "self closing tag only",
			snippet: `<seg><ph x="1"/></seg>`,
			want:    Segment{Tag{Format: "ph", Attributes: []Attribute{{Name: "x", Value: "1"}}}},
		},
		{
			name:    "text and tags interleaved",
			snippet: `<seg>Hello <bpt i="1">&lt;b&gt;</bpt>world<ept i="1">&lt;/b&gt;</ept>!</seg>`,
			want: Segment{
				PlainText{Text: "Hello "},
				Tag{Format: "bpt", Attributes: []Attribute{{Name: "i", Value: "1"}}},
				PlainText{Text: "world"},
				Tag{Format: "ept", Attributes: []Attribute{{Name: "i", Value: "1"}}},
				PlainText{Text: "!"},
			},
		},
		{
			name:    "whitespace preserved verbatim",
			snippet: "<seg>  two  spaces\tand a tab </seg>",
			want:    Segment{PlainText{Text: "  two  spaces\tand a tab "}},
		},
		{
			name:    "entities resolved",
			snippet: "<seg>a &amp; b &lt;c&gt;</seg>",
			want:    Segment{PlainText{Text: "a & b <c>"}},
		},
		{
			name:    "cdata merged with surrounding text",
			snippet: "<seg>a<![CDATA[<raw>]]>b</seg>",
			want:    Segment{PlainText{Text: "a<raw>b"}},
		},
		{
			name:    "comment does not split text",
			snippet: "<seg>a<!-- note -->b</seg>",
			want:    Segment{PlainText{Text: "ab"}},
		},
		{
			name:    "nested tag content not descended into",
			snippet: `<seg>x<hi type="bold">inner <sub>deep</sub></hi>y</seg>`,
			want: Segment{
				PlainText{Text: "x"},
				Tag{Format: "hi", Attributes: []Attribute{{Name: "type", Value: "bold"}}},
				PlainText{Text: "y"},
			},
		},
		{
			name:    "tag without attributes",
			snippet: "<seg><it>code</it></seg>",
			want:    Segment{Tag{Format: "it"}},
		},
		{
			name:    "attribute order and duplicates preserved",
			snippet: `<seg><ph type="b" x="2" type="a"/></seg>`,
			want: Segment{
				Tag{Format: "ph", Attributes: []Attribute{
					{Name: "type", Value: "b"},
					{Name: "x", Value: "2"},
					{Name: "type", Value: "a"},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSegment(parseSeg(t, tt.snippet))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("extractSegment() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentText(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want string
	}{
		{name: "nil", seg: nil, want: ""},
		{name: "empty", seg: Segment{}, want: ""},
		{
			name: "tags dropped",
			seg: Segment{
				PlainText{Text: "Press "},
				Tag{Format: "bpt"},
				PlainText{Text: "Start"},
				Tag{Format: "ept"},
				PlainText{Text: " now."},
			},
			want: "Press Start now.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seg.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}
