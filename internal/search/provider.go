// Package search provides the artwork search backends. The resolver only
// sees the core.SearchProvider interface; which backend serves it is a
// config decision.
package search

import (
	"fmt"

	"go.uber.org/zap"

	"nowcast/internal/core"
)

func NewProvider(config *core.SearchConfig, logger *zap.Logger) (core.SearchProvider, error) {
	switch config.Provider {
	case "ytmusic", "":
		return NewYTMusicClient(config, logger), nil
	case "spotify":
		return NewSpotifyClient(config, logger)
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", config.Provider)
	}
}
