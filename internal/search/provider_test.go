package search

import (
	"testing"

	"go.uber.org/zap"

	"nowcast/internal/core"
)

func TestNewProvider_Default(t *testing.T) {
	config := &core.SearchConfig{Provider: "", MaxResults: 20}

	provider, err := NewProvider(config, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if _, ok := provider.(*YTMusicClient); !ok {
		t.Errorf("Empty provider should default to YouTube Music, got %T", provider)
	}
}

func TestNewProvider_YTMusic(t *testing.T) {
	config := &core.SearchConfig{Provider: "ytmusic", MaxResults: 20}

	provider, err := NewProvider(config, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if _, ok := provider.(*YTMusicClient); !ok {
		t.Errorf("Expected YTMusicClient, got %T", provider)
	}
}

func TestNewProvider_SpotifyRequiresCredentials(t *testing.T) {
	config := &core.SearchConfig{Provider: "spotify"}

	if _, err := NewProvider(config, zap.NewNop()); err == nil {
		t.Error("Spotify provider without credentials should fail")
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	config := &core.SearchConfig{Provider: "soundcloud"}

	if _, err := NewProvider(config, zap.NewNop()); err == nil {
		t.Error("Unsupported provider should fail")
	}
}

func TestTrackLinks(t *testing.T) {
	yt := NewYTMusicClient(&core.SearchConfig{}, zap.NewNop())
	if got := yt.TrackLink("abc123"); got != "https://music.youtube.com/watch?v=abc123" {
		t.Errorf("Unexpected YouTube Music link: %q", got)
	}

	sp := &SpotifyClient{}
	if got := sp.TrackLink("xyz789"); got != "https://open.spotify.com/track/xyz789" {
		t.Errorf("Unexpected Spotify link: %q", got)
	}
}
