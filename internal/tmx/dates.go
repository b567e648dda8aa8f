package tmx

import "time"

// dateLayouts are the accepted timestamp shapes, tried strictly in order.
// TMX producers disagree on punctuation, on the date/time separator and on
// the zero-offset marker, and some truncate seconds or minutes. The list
// covers three precision tiers in three styles, each with and without a
// literal Z; all values are treated as UTC.
var dateLayouts = []string{
	// Second precision.
	"20060102T150405Z",
	"20060102T150405",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"20060102150405Z",
	"20060102150405",
	// Minute precision.
	"20060102T1504Z",
	"20060102T1504",
	"2006-01-02T15:04Z",
	"2006-01-02T15:04",
	"200601021504Z",
	"200601021504",
	// Hour precision.
	"20060102T15Z",
	"20060102T15",
	"2006-01-02T15Z",
	"2006-01-02T15",
	"2006010215Z",
	"2006010215",
}

// ParseDate parses one TMX timestamp attribute value. The first layout that
// consumes the whole input wins. The value is matched exactly as given, with
// no trimming. A value no layout accepts yields (zero, false); ParseDate
// never returns an error, so callers downgrade the field and move on.
func ParseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
