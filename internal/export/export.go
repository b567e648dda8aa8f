// Package export flattens parsed translation memories into TSV and JSON
// files for downstream tooling.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tmxbank/internal/tmx"
)

// Record is one flattened translation unit. Inline tags are dropped; only
// the plain text survives the flattening.
type Record struct {
	SourceLanguage string     `json:"source_language"`
	TargetLanguage string     `json:"target_language"`
	SourceText     string     `json:"source_text"`
	TargetText     string     `json:"target_text"`
	HasTarget      bool       `json:"has_target"`
	Confirmation   string     `json:"confirmation"`
	Domain         string     `json:"domain,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	ChangedBy      string     `json:"changed_by,omitempty"`
	ChangedAt      *time.Time `json:"changed_at,omitempty"`
}

// Document is the JSON export shape: the file header plus its flattened
// units.
type Document struct {
	SourceLanguage string     `json:"source_language"`
	TargetLanguage string     `json:"target_language"`
	Domains        []string   `json:"domains,omitempty"`
	Author         string     `json:"author,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Units          []Record   `json:"units"`
}

// Flatten converts parsed units into export records.
func Flatten(units []tmx.TranslationUnit) []Record {
	records := make([]Record, 0, len(units))
	for _, u := range units {
		r := Record{
			SourceLanguage: u.SourceLanguage,
			TargetLanguage: u.TargetLanguage,
			SourceText:     u.Source.Text(),
			TargetText:     u.Target.Text(),
			HasTarget:      u.Target != nil,
			Confirmation:   u.Confirmation.String(),
			Domain:         u.Domain,
			CreatedBy:      u.CreatedBy,
			ChangedBy:      u.ChangedBy,
		}
		r.CreatedAt = nullableTime(u.CreatedAt)
		r.ChangedAt = nullableTime(u.ChangedAt)
		records = append(records, r)
	}
	return records
}

// WriteTSV writes the units to a TSV file, one row per unit.
func WriteTSV(units []tmx.TranslationUnit, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create TSV file: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "source_lang\ttarget_lang\tsource_text\ttarget_text\tconfirmation\tdomain\tcreated_by\tchanged_by")

	records := Flatten(units)
	for _, r := range records {
		fmt.Fprintf(f, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SourceLanguage,
			r.TargetLanguage,
			escapeTSV(r.SourceText),
			escapeTSV(r.TargetText),
			r.Confirmation,
			escapeTSV(r.Domain),
			r.CreatedBy,
			r.ChangedBy,
		)
	}

	log.Info().Str("path", outputPath).Int("units", len(records)).Msg("Exported translation memory to TSV")
	return nil
}

// WriteJSON writes the header and units to a JSON file.
func WriteJSON(hdr tmx.Header, units []tmx.TranslationUnit, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer f.Close()

	doc := Document{
		SourceLanguage: hdr.SourceLanguage,
		TargetLanguage: hdr.TargetLanguage,
		Domains:        hdr.Domains,
		Author:         hdr.Author,
		CreatedAt:      nullableTime(hdr.CreatedAt),
		Units:          Flatten(units),
	}

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	log.Info().Str("path", outputPath).Int("units", len(doc.Units)).Msg("Exported translation memory to JSON")
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
