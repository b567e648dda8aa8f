// Package graph maintains the cross-file consistency graph in Neo4j:
// source segments, the translations observed for them, and which file each
// pairing came from.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"

	"tmxbank/internal/textutil"
	"tmxbank/internal/tmx"
)

// Graph seeds and updates the Neo4j consistency graph.
type Graph struct {
	driver neo4j.DriverWithContext
}

// New creates a new graph over an established driver.
func New(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (g *Graph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (s:Source) REQUIRE s.hash IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Target) REQUIRE t.hash IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// IndexUnits merges one file's units into the graph. Units without a target
// contribute nothing. A failed merge skips the unit, not the file.
func (g *Graph) IndexUnits(ctx context.Context, filePath string, units []tmx.TranslationUnit) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	indexed := 0
	for ord, u := range units {
		if u.Target == nil {
			continue
		}
		src := u.Source.Text()
		tgt := u.Target.Text()
		if src == "" {
			continue
		}

		_, err := session.Run(ctx, `
			MERGE (s:Source {hash: $srcHash})
			SET s.text = $srcText, s.lang = $srcLang
			MERGE (t:Target {hash: $tgtHash})
			SET t.text = $tgtText, t.lang = $tgtLang
			MERGE (s)-[r:TRANSLATED_AS {file: $file, ord: $ord}]->(t)
			SET r.confirmation = $confirmation
		`, map[string]any{
			"srcHash":      textutil.Hash(src),
			"srcText":      src,
			"srcLang":      u.SourceLanguage,
			"tgtHash":      textutil.Hash(tgt),
			"tgtText":      tgt,
			"tgtLang":      u.TargetLanguage,
			"file":         filePath,
			"ord":          ord,
			"confirmation": u.Confirmation.String(),
		})
		if err != nil {
			log.Warn().Err(err).
				Str("file", filePath).
				Int("unit", ord).
				Msg("Failed to merge unit into graph")
			continue
		}
		indexed++
	}

	log.Info().Str("file", filePath).Int("units", indexed).Msg("Indexed units in consistency graph")
	return nil
}
