// Package artwork resolves album artwork for title/artist pairs by fuzzy
// matching against a music search backend, with a bounded cache in front.
package artwork

import (
	"context"

	"go.uber.org/zap"

	"nowcast/internal/core"
	"nowcast/internal/store"
	"nowcast/pkg/fuzzy"
)

type Resolver struct {
	config     *core.Config
	cache      *store.ArtCache
	search     core.SearchProvider
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

func NewResolver(config *core.Config, cache *store.ArtCache, search core.SearchProvider, logger *zap.Logger) *Resolver {
	return &Resolver{
		config:     config,
		cache:      cache,
		search:     search,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// Resolve returns the artwork reference and external track ID for a
// title/artist pair. Cache hits are returned unchanged; entries never
// expire by age. On a miss the search backend is consulted once and the
// result — fallback included — is always committed to the cache, so a
// known-unmatched track never triggers a second search.
func (r *Resolver) Resolve(ctx context.Context, title, artist string) (string, string) {
	key := store.Key(title, artist)

	if entry, ok := r.cache.Get(key); ok {
		r.logger.Debug("Artwork cache hit", zap.String("title", title))
		return entry.ArtworkRef, entry.ExternalID
	}

	entry := store.Entry{ArtworkRef: r.config.Discord.FallbackImage}

	query := r.normalizer.NormalizeQuery(title + " " + artist)

	results, err := r.search.Search(ctx, query)
	if err != nil {
		// Search failure degrades to the fallback image; the request
		// itself must not fail over a missing thumbnail.
		r.logger.Warn("Artwork search failed",
			zap.String("query", query),
			zap.Error(err))
		results = nil
	}

	if best, score := r.bestMatch(title, artist, results); best != nil {
		if len(best.Thumbnails) > 0 {
			entry.ArtworkRef = best.Thumbnails[len(best.Thumbnails)-1]
		}
		entry.ExternalID = best.ExternalID
		r.logger.Info("Artwork matched",
			zap.String("title", title),
			zap.String("matched", best.Title),
			zap.Float64("score", score))
	} else if len(results) > 0 {
		r.logger.Info("No artwork candidate cleared the threshold",
			zap.String("title", title),
			zap.Float64("bestScore", score))
	}

	r.cache.Put(key, entry)

	return entry.ArtworkRef, entry.ExternalID
}

// bestMatch scores every candidate and returns the highest scorer, or nil
// when none scores strictly above the threshold. Ties at exactly the
// threshold are rejected.
func (r *Resolver) bestMatch(title, artist string, results []core.SearchResult) (*core.SearchResult, float64) {
	var best *core.SearchResult
	var bestScore float64

	for i := range results {
		candidate := &results[i]

		titleScore := fuzzy.Ratio(title, candidate.Title)
		artistScore := fuzzy.Ratio(artist, candidate.Artist)
		total := (titleScore + artistScore) / 2

		if total > bestScore {
			bestScore = total
			best = candidate
		}
	}

	if bestScore <= r.config.App.MatchThreshold {
		return nil, bestScore
	}

	return best, bestScore
}
