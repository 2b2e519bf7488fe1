package search

import (
	"context"
	"fmt"

	"github.com/raitonoberu/ytmusic"
	"go.uber.org/zap"

	"nowcast/internal/core"
)

// YTMusicClient searches YouTube Music. It needs no credentials, which is
// why it is the default backend.
type YTMusicClient struct {
	config *core.SearchConfig
	logger *zap.Logger
}

func NewYTMusicClient(config *core.SearchConfig, logger *zap.Logger) *YTMusicClient {
	return &YTMusicClient{
		config: config,
		logger: logger,
	}
}

func (c *YTMusicClient) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	// The ytmusic client doesn't take a context; it enforces its own HTTP
	// timeout. Honor an already-cancelled request before calling out.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := ytmusic.TrackSearch(query).Next()
	if err != nil {
		return nil, fmt.Errorf("ytmusic search failed: %w", err)
	}

	var results []core.SearchResult
	for _, track := range result.Tracks {
		if track.VideoID == "" {
			continue
		}

		if len(results) >= c.config.MaxResults {
			break
		}

		artist := ""
		if len(track.Artists) > 0 {
			artist = track.Artists[0].Name
		}

		var thumbnails []string
		for _, thumb := range track.Thumbnails {
			thumbnails = append(thumbnails, thumb.URL)
		}

		results = append(results, core.SearchResult{
			Title:      track.Title,
			Artist:     artist,
			Thumbnails: thumbnails,
			ExternalID: track.VideoID,
		})
	}

	c.logger.Debug("YouTube Music search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))

	return results, nil
}

func (c *YTMusicClient) TrackLink(externalID string) string {
	return "https://music.youtube.com/watch?v=" + externalID
}
