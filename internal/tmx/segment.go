package tmx

import "strings"

// TextPart is one ordered piece of segment content: either a run of plain
// text or a single inline formatting tag. The two implementations are
// PlainText and Tag.
type TextPart interface {
	textPart()
}

// PlainText is a text run, carried verbatim. No trimming and no whitespace
// normalization happen beyond the XML decoder's own entity resolution.
type PlainText struct {
	Text string
}

func (PlainText) textPart() {}

// Tag is one inline markup element (bpt, ept, ph, it, hi, ...). Format is
// the element's local name. Attributes keeps every attribute in document
// order, duplicates included. Content nested inside the tag is not
// descended into; the inline model is one level deep.
type Tag struct {
	Format     string
	Attributes []Attribute
}

func (Tag) textPart() {}

// Attribute is a single name/value pair of an inline tag.
type Attribute struct {
	Name  string
	Value string
}

// Segment is the ordered content of one seg element. A nil Segment means
// the unit had no variant to take it from; an empty non-nil Segment is a
// variant whose seg element was present but empty.
type Segment []TextPart

// Text flattens the segment to its plain text, dropping inline tags.
func (s Segment) Text() string {
	var sb strings.Builder
	for _, p := range s {
		if t, ok := p.(PlainText); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// extractSegment converts the immediate children of a seg element into an
// ordered part list.
func extractSegment(seg *element) Segment {
	parts := make(Segment, 0, len(seg.children))
	for _, c := range seg.children {
		if c.elem == nil {
			parts = append(parts, PlainText{Text: c.text})
			continue
		}
		var attrs []Attribute
		if len(c.elem.attrs) > 0 {
			attrs = make([]Attribute, len(c.elem.attrs))
			for i, a := range c.elem.attrs {
				attrs[i] = Attribute{Name: a.Name.Local, Value: a.Value}
			}
		}
		parts = append(parts, Tag{Format: c.elem.name, Attributes: attrs})
	}
	return parts
}
