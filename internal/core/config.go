package core

import (
	"time"
)

type Config struct {
	Discord  DiscordConfig
	Search   SearchConfig
	Server   ServerConfig
	Security SecurityConfig
	Log      LogConfig
	App      AppConfig
}

type DiscordConfig struct {
	ClientID      string
	LargeText     string
	FallbackImage string
	PlayingImage  string
	PlayingText   string
	PausedImage   string
	PausedText    string
	ButtonLabel   string
}

type SearchConfig struct {
	Provider            string
	MaxResults          int
	SpotifyClientID     string
	SpotifyClientSecret string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	TrustProxy   bool
}

type SecurityConfig struct {
	AuthToken            string
	AllowedIPs           []string
	UpdatesPerMinute     int
	PausesPerMinute      int
	HealthPerMinute      int
	AuthFailureThreshold int
	AuthFailureWindow    time.Duration
	MaxTrackedIPs        int
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	IdleTimeout     time.Duration
	DuplicateWindow time.Duration
	SeekTolerance   time.Duration
	CacheSize       int
	MaxFieldLength  int
	MaxSecondsField float64
	FallbackTitle   string
	FallbackArtist  string
	MatchThreshold  float64
}

func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			ClientID:      "1442908216097767424",
			LargeText:     "YouTube Music",
			FallbackImage: "youtube_music_icon",
			PlayingImage:  "youtube_music_icon",
			PlayingText:   "Playing on Android",
			PausedImage:   "https://img.icons8.com/ios-glyphs/60/ffffff/pause--v1.png",
			PausedText:    "⏸️ Paused",
			ButtonLabel:   "🎵 Listen on YouTube Music",
		},
		Search: SearchConfig{
			Provider:   "ytmusic",
			MaxResults: 20,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 10 * 1024,
		},
		Security: SecurityConfig{
			UpdatesPerMinute:     60,
			PausesPerMinute:      30,
			HealthPerMinute:      10,
			AuthFailureThreshold: 10,
			AuthFailureWindow:    5 * time.Minute,
			MaxTrackedIPs:        1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			IdleTimeout:     180 * time.Second,
			DuplicateWindow: 60 * time.Second,
			SeekTolerance:   2 * time.Second,
			CacheSize:       100,
			MaxFieldLength:  100,
			MaxSecondsField: 86400,
			FallbackTitle:   "Unknown Title",
			FallbackArtist:  "Unknown Artist",
			MatchThreshold:  0.5,
		},
	}
}
