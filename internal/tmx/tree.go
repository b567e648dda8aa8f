package tmx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// element is one node of the decoded document tree. children preserves the
// interleaving of character data and child elements in document order; start
// and end are byte offsets into the decoded buffer, so the verbatim markup
// of any element can be sliced back out.
type element struct {
	name     string
	attrs    []xml.Attr
	children []childNode
	start    int64
	end      int64
}

// childNode is either a text run (elem == nil) or a child element.
type childNode struct {
	text string
	elem *element
}

// attr returns the value of the first attribute with the given local name,
// or "" when the element has no such attribute.
func (e *element) attr(local string) string {
	for _, a := range e.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// firstChild returns the first child element with the given local name.
func (e *element) firstChild(local string) *element {
	for _, c := range e.children {
		if c.elem != nil && c.elem.name == local {
			return c.elem
		}
	}
	return nil
}

// childElements returns all child elements with the given local name, in
// document order.
func (e *element) childElements(local string) []*element {
	var out []*element
	for _, c := range e.children {
		if c.elem != nil && c.elem.name == local {
			out = append(out, c.elem)
		}
	}
	return out
}

// text returns the concatenated character data directly under e. Text inside
// child elements is not included.
func (e *element) text() string {
	var sb strings.Builder
	for _, c := range e.children {
		if c.elem == nil {
			sb.WriteString(c.text)
		}
	}
	return sb.String()
}

// prop returns the text of the first child prop element whose type attribute
// equals typ, or "" when none matches.
func (e *element) prop(typ string) string {
	for _, c := range e.children {
		if c.elem != nil && c.elem.name == "prop" && c.elem.attr("type") == typ {
			return c.elem.text()
		}
	}
	return ""
}

// document is a fully decoded TMX file: the element tree plus the buffer its
// offsets refer into.
type document struct {
	root *element
	data []byte
}

// raw returns the verbatim serialized form of an element.
func (d *document) raw(e *element) string {
	if e == nil || e.start < 0 || e.end > int64(len(d.data)) || e.start >= e.end {
		return ""
	}
	return string(d.data[e.start:e.end])
}

// parseDocument decodes a whole TMX byte slice into an element tree. The
// decoder never processes DTDs or external entities: DOCTYPE declarations
// are rejected outright, and undeclared entity references fail the parse in
// strict mode. Comments and processing instructions are dropped.
func parseDocument(data []byte) (*document, error) {
	data, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charsetReader

	doc := &document{data: data}
	var stack []*element
	// Offset of the token about to be read, kept one step behind the
	// decoder so start offsets point at the opening angle bracket.
	offset := int64(0)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				name:  t.Name.Local,
				attrs: copyAttrs(t.Attr),
				start: offset,
				end:   -1,
			}
			if len(stack) == 0 {
				if doc.root != nil {
					return nil, fmt.Errorf("parse document: multiple root elements")
				}
				doc.root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, childNode{elem: el})
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse document: unbalanced end element </%s>", t.Name.Local)
			}
			top := stack[len(stack)-1]
			top.end = dec.InputOffset()
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				appendText(stack[len(stack)-1], string(t))
			}
		case xml.Directive:
			if isDoctype(t) {
				return nil, fmt.Errorf("parse document: DOCTYPE declarations are not allowed")
			}
		}
		offset = dec.InputOffset()
	}

	if doc.root == nil {
		return nil, fmt.Errorf("parse document: no root element")
	}
	return doc, nil
}

// appendText adds a character-data run to parent, merging it with a
// preceding text run so CDATA sections and comments do not split one logical
// text node into several parts.
func appendText(parent *element, s string) {
	if n := len(parent.children); n > 0 && parent.children[n-1].elem == nil {
		parent.children[n-1].text += s
		return
	}
	parent.children = append(parent.children, childNode{text: s})
}

// copyAttrs snapshots a start element's attribute list into storage the
// decoder will not touch again.
func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}

func isDoctype(d xml.Directive) bool {
	s := strings.TrimSpace(string(d))
	return len(s) >= 7 && strings.EqualFold(s[:7], "DOCTYPE")
}

var declEncodingRE = regexp.MustCompile(`encoding=["']([A-Za-z0-9._\-]+)["']`)

// toUTF8 normalizes the raw bytes to UTF-8 before decoding starts, so byte
// offsets into the buffer stay valid for verbatim slicing. UTF-16 is
// detected by its BOM; the single-byte charsets legacy tools declare are
// detected from the XML declaration. Anything else passes through and the
// decoder decides.
func toUTF8(data []byte) ([]byte, error) {
	if len(data) >= 2 && ((data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return nil, fmt.Errorf("decode UTF-16: %w", err)
		}
		return out, nil
	}

	head := data
	if len(head) > 200 {
		head = head[:200]
	}
	m := declEncodingRE.FindSubmatch(head)
	if m == nil {
		return data, nil
	}

	var tr transform.Transformer
	switch strings.ToLower(string(m[1])) {
	case "iso-8859-1", "latin1":
		tr = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		tr = charmap.Windows1252.NewDecoder()
	default:
		return data, nil
	}
	out, _, err := transform.Bytes(tr, data)
	if err != nil {
		return nil, fmt.Errorf("decode legacy charset %s: %w", m[1], err)
	}
	return out, nil
}

// charsetReader accepts the charset labels toUTF8 already normalized; by the
// time the decoder consults it, the buffer is UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "us-ascii",
		"utf-16", "utf-16le", "utf-16be",
		"iso-8859-1", "latin1", "windows-1252", "cp1252":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}
