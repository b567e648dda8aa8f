// Package match answers translation-memory lookups: exact matches from the
// relational store first, semantic neighbours from the vector index second.
package match

import (
	"context"

	"github.com/rs/zerolog/log"

	"tmxbank/internal/store"
	"tmxbank/internal/textutil"
)

// Result combines both tiers of one lookup.
type Result struct {
	// Exact are stored units whose source text equals the query.
	Exact []store.Match
	// Semantic are the nearest stored segments by embedding distance.
	Semantic []SimilarSegment
}

// Matcher runs the two-tier lookup. The embedding client and vector index
// are optional; without them lookups are exact-only.
type Matcher struct {
	store *store.Store
	index *VectorIndex
	embed *EmbeddingClient
}

// NewMatcher creates a new combined matcher.
func NewMatcher(st *store.Store, vi *VectorIndex, ec *EmbeddingClient) *Matcher {
	return &Matcher{
		store: st,
		index: vi,
		embed: ec,
	}
}

// Lookup fetches matches for a source segment. Failures in one tier degrade
// to the other instead of failing the lookup.
func (m *Matcher) Lookup(ctx context.Context, query string, topK int) (*Result, error) {
	result := &Result{}

	exact, err := m.store.LookupExact(ctx, query, topK)
	if err != nil {
		log.Warn().Err(err).Msg("Exact lookup failed")
	} else {
		result.Exact = exact
	}

	if m.embed == nil || m.index == nil {
		return result, nil
	}

	queryVec, err := m.embed.EmbedQuery(ctx, textutil.CollapseSpace(query))
	if err != nil {
		log.Warn().Err(err).Str("text", textutil.Truncate(query, 50)).Msg("Failed to embed query, skipping semantic lookup")
		return result, nil
	}

	similar, err := m.index.Search(ctx, queryVec, topK)
	if err != nil {
		log.Warn().Err(err).Msg("Vector search failed")
		return result, nil
	}
	result.Semantic = similar

	return result, nil
}
