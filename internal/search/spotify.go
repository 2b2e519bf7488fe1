package search

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"nowcast/internal/core"
)

// SpotifyClient searches the Spotify catalog using the client-credentials
// flow; no user interaction is involved since only public catalog search
// is needed.
type SpotifyClient struct {
	config *core.SearchConfig
	logger *zap.Logger
	client *spotify.Client
}

func NewSpotifyClient(config *core.SearchConfig, logger *zap.Logger) (*SpotifyClient, error) {
	if config.SpotifyClientID == "" || config.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("spotify search requires a client ID and secret")
	}

	creds := &clientcredentials.Config{
		ClientID:     config.SpotifyClientID,
		ClientSecret: config.SpotifyClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	httpClient := creds.Client(context.Background())

	return &SpotifyClient{
		config: config,
		logger: logger,
		client: spotify.New(httpClient),
	}, nil
}

func (c *SpotifyClient) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	found, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(c.config.MaxResults))
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}

	if found.Tracks == nil {
		return nil, nil
	}

	var results []core.SearchResult
	for i := range found.Tracks.Tracks {
		track := &found.Tracks.Tracks[i]

		artist := ""
		if len(track.Artists) > 0 {
			artist = track.Artists[0].Name
		}

		// Spotify orders album images largest first; the resolver expects
		// the largest thumbnail last.
		var thumbnails []string
		for j := len(track.Album.Images) - 1; j >= 0; j-- {
			thumbnails = append(thumbnails, track.Album.Images[j].URL)
		}

		results = append(results, core.SearchResult{
			Title:      track.Name,
			Artist:     artist,
			Thumbnails: thumbnails,
			ExternalID: string(track.ID),
		})
	}

	c.logger.Debug("Spotify search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))

	return results, nil
}

func (c *SpotifyClient) TrackLink(externalID string) string {
	return "https://open.spotify.com/track/" + externalID
}
