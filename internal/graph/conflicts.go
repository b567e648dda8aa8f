package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Conflict is one source segment with more than one distinct translation
// across the ingested files.
type Conflict struct {
	Source  string
	Targets []string
	Files   []string
}

// Translation is one observed pairing for a single source segment.
type Translation struct {
	Target       string
	File         string
	Confirmation string
}

// Conflicts returns source segments translated inconsistently, most
// divergent first.
func (g *Graph) Conflicts(ctx context.Context, limit int) ([]Conflict, error) {
	if limit <= 0 {
		limit = 25
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (s:Source)-[r:TRANSLATED_AS]->(t:Target)
		WITH s, collect(DISTINCT t.text) AS targets, collect(DISTINCT r.file) AS files
		WHERE size(targets) > 1
		RETURN s.text AS source, targets, files
		ORDER BY size(targets) DESC, source
		LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}

	var conflicts []Conflict
	for result.Next(ctx) {
		record := result.Record()
		source, _ := record.Get("source")
		targets, _ := record.Get("targets")
		files, _ := record.Get("files")

		conflicts = append(conflicts, Conflict{
			Source:  fmt.Sprintf("%v", source),
			Targets: toStrings(targets),
			Files:   toStrings(files),
		})
	}

	log.Debug().Int("conflicts", len(conflicts)).Msg("Conflict query complete")
	return conflicts, nil
}

// Translations returns every observed pairing for one source segment,
// matched by exact text.
func (g *Graph) Translations(ctx context.Context, sourceText string) ([]Translation, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (s:Source {text: $text})-[r:TRANSLATED_AS]->(t:Target)
		RETURN t.text AS target, r.file AS file, r.confirmation AS confirmation
		ORDER BY file, r.ord
	`, map[string]any{"text": sourceText})
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}

	var translations []Translation
	for result.Next(ctx) {
		record := result.Record()
		target, _ := record.Get("target")
		file, _ := record.Get("file")
		confirmation, _ := record.Get("confirmation")

		translations = append(translations, Translation{
			Target:       fmt.Sprintf("%v", target),
			File:         fmt.Sprintf("%v", file),
			Confirmation: fmt.Sprintf("%v", confirmation),
		})
	}

	return translations, nil
}

// toStrings converts a Neo4j list value into a string slice.
func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
