package tmx

import (
	"fmt"
	"time"
)

// ConfirmationLevel is the review status carried in the x-ConfirmationLevel
// property.
type ConfirmationLevel int

const (
	ConfirmationUnset ConfirmationLevel = iota
	ConfirmationDraft
	ConfirmationTranslated
	ConfirmationRejectedTranslation
	ConfirmationApprovedTranslation
	ConfirmationRejectedSignOff
	ConfirmationApprovedSignOff
)

var confirmationNames = map[string]ConfirmationLevel{
	"Unspecified":         ConfirmationUnset,
	"Draft":               ConfirmationDraft,
	"Translated":          ConfirmationTranslated,
	"RejectedTranslation": ConfirmationRejectedTranslation,
	"ApprovedTranslation": ConfirmationApprovedTranslation,
	"RejectedSignOff":     ConfirmationRejectedSignOff,
	"ApprovedSignOff":     ConfirmationApprovedSignOff,
}

// ParseConfirmationLevel maps a property value onto the picklist. Unknown or
// empty values are ConfirmationUnset; there is no error case.
func ParseConfirmationLevel(s string) ConfirmationLevel {
	if lvl, ok := confirmationNames[s]; ok {
		return lvl
	}
	return ConfirmationUnset
}

func (c ConfirmationLevel) String() string {
	switch c {
	case ConfirmationDraft:
		return "Draft"
	case ConfirmationTranslated:
		return "Translated"
	case ConfirmationRejectedTranslation:
		return "RejectedTranslation"
	case ConfirmationApprovedTranslation:
		return "ApprovedTranslation"
	case ConfirmationRejectedSignOff:
		return "RejectedSignOff"
	case ConfirmationApprovedSignOff:
		return "ApprovedSignOff"
	}
	return "Unspecified"
}

// TranslationUnit is one source/target pair with its provenance. The
// language fields are copied from the resolved header so each unit stays
// self-describing. The unit-level Domain is a single value, unlike the
// header's list; the asymmetry is part of the dialect.
type TranslationUnit struct {
	SourceLanguage string
	TargetLanguage string
	// Source is the first variant's segment.
	Source Segment
	// Target is the second variant's segment; nil when the unit has no
	// second variant or the second variant has no seg element.
	Target Segment
	// CreatedAt and ChangedAt are zero when the attribute is absent or
	// unparseable.
	CreatedAt time.Time
	ChangedAt time.Time
	CreatedBy string
	ChangedBy string
	// Confirmation is ConfirmationUnset unless the unit carries a known
	// x-ConfirmationLevel property value.
	Confirmation ConfirmationLevel
	// Domain is the unit-level x-Domain:SinglePicklist property, verbatim.
	Domain string
}

// extractUnit builds one TranslationUnit from a tu element. A unit whose
// first variant is missing, or whose first variant has no seg element, is
// malformed: the error is returned for the caller to log, and the rest of
// the extraction is unaffected.
func extractUnit(tu *element, hdr Header) (TranslationUnit, error) {
	variants := tu.childElements("tuv")
	if len(variants) == 0 {
		return TranslationUnit{}, fmt.Errorf("unit has no language variants")
	}
	srcSeg := variants[0].firstChild("seg")
	if srcSeg == nil {
		return TranslationUnit{}, fmt.Errorf("first language variant has no seg element")
	}

	u := TranslationUnit{
		SourceLanguage: hdr.SourceLanguage,
		TargetLanguage: hdr.TargetLanguage,
		Source:         extractSegment(srcSeg),
		CreatedBy:      tu.attr("creationid"),
		ChangedBy:      tu.attr("changeid"),
		Confirmation:   ParseConfirmationLevel(tu.prop(propConfirmation)),
		Domain:         tu.prop(propDomain),
	}
	if len(variants) > 1 {
		if tgtSeg := variants[1].firstChild("seg"); tgtSeg != nil {
			u.Target = extractSegment(tgtSeg)
		}
	}
	if t, ok := ParseDate(tu.attr("creationdate")); ok {
		u.CreatedAt = t
	}
	if t, ok := ParseDate(tu.attr("changedate")); ok {
		u.ChangedAt = t
	}
	return u, nil
}
