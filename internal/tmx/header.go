package tmx

import (
	"fmt"
	"strings"
	"time"
)

// Property type discriminators of the SDL dialect.
const (
	propDomain       = "x-Domain:SinglePicklist"
	propConfirmation = "x-ConfirmationLevel"
)

// Header is the document-level metadata of one TMX file. It is immutable
// once Load commits it.
type Header struct {
	// SourceLanguage is the header's srclang attribute, "" when absent.
	SourceLanguage string
	// TargetLanguage is inferred positionally: the first attribute value of
	// the second variant of the first unit in the body. A body without
	// units leaves it "" for the whole load.
	TargetLanguage string
	// Domains is the comma-split x-Domain:SinglePicklist property, entries
	// trimmed, order kept, duplicates kept.
	Domains []string
	// CreatedAt is the parsed creationdate attribute; zero when absent or
	// unparseable.
	CreatedAt time.Time
	// Author is the creationid attribute.
	Author string
	// Raw is the verbatim markup of the header element, for consumers that
	// need the original form.
	Raw string
}

// extractHeader builds the Header from a decoded document. A document with
// no header element is malformed.
func extractHeader(doc *document) (Header, error) {
	hdr := doc.root.firstChild("header")
	if hdr == nil {
		return Header{}, fmt.Errorf("missing header element")
	}

	h := Header{
		SourceLanguage: hdr.attr("srclang"),
		TargetLanguage: inferTargetLanguage(doc.root.firstChild("body")),
		Domains:        splitPicklist(hdr.prop(propDomain)),
		Author:         hdr.attr("creationid"),
		Raw:            doc.raw(hdr),
	}
	if t, ok := ParseDate(hdr.attr("creationdate")); ok {
		h.CreatedAt = t
	}
	return h, nil
}

// inferTargetLanguage reads the target language from the second variant of
// the first unit. The dialect records no target language on the header
// itself; position is the contract, not language attributes.
func inferTargetLanguage(body *element) string {
	if body == nil {
		return ""
	}
	first := body.firstChild("tu")
	if first == nil {
		return ""
	}
	variants := first.childElements("tuv")
	if len(variants) < 2 || len(variants[1].attrs) == 0 {
		return ""
	}
	return variants[1].attrs[0].Value
}

// splitPicklist splits a comma-separated picklist property into trimmed
// entries. An absent or blank property is an empty list, never [""].
func splitPicklist(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
