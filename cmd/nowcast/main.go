// Package main provides the nowcast CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"nowcast/internal/artwork"
	"nowcast/internal/core"
	"nowcast/internal/discord"
	"nowcast/internal/guard"
	httpserver "nowcast/internal/http"
	"nowcast/internal/search"
	"nowcast/internal/store"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nowcast",
	Short: "nowcast - Now Playing → Discord Rich Presence relay",
	Long: `nowcast is a relay server that receives now-playing reports over HTTP
and mirrors them to Discord Rich Presence, with artwork lookup and
duplicate suppression.`,
	RunE: runNowcast,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("discord-client-id", "", "Discord application client ID")
	rootCmd.PersistentFlags().String("search-provider", "ytmusic", "artwork search provider (ytmusic, spotify)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID (spotify provider only)")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret (spotify provider only)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 5000, "HTTP server port")
	rootCmd.PersistentFlags().Bool("trust-proxy", false, "trust X-Forwarded-For from the reverse proxy")
	rootCmd.PersistentFlags().String("auth-token", "", "bearer token required on /update and /pause")
	rootCmd.PersistentFlags().StringSlice("allowed-ips", nil, "client IP allowlist (empty allows all)")
	rootCmd.PersistentFlags().Int("idle-timeout", 180, "seconds without reports before the presence is cleared")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("NOWCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if v := viper.GetString("discord-client-id"); v != "" {
		cfg.Discord.ClientID = v
	}

	if v := viper.GetString("search-provider"); v != "" {
		cfg.Search.Provider = v
	}
	cfg.Search.SpotifyClientID = viper.GetString("spotify-client-id")
	cfg.Search.SpotifyClientSecret = viper.GetString("spotify-client-secret")

	if v := viper.GetString("server-host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server-port"); v != 0 {
		cfg.Server.Port = v
	}
	cfg.Server.TrustProxy = viper.GetBool("trust-proxy")

	cfg.Security.AuthToken = viper.GetString("auth-token")
	cfg.Security.AllowedIPs = viper.GetStringSlice("allowed-ips")

	if v := viper.GetInt("idle-timeout"); v != 0 {
		cfg.App.IdleTimeout = time.Duration(v) * time.Second
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runNowcast(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting nowcast",
		zap.String("version", "1.0.0"),
		zap.String("search_provider", config.Search.Provider),
		zap.Bool("auth_enabled", config.Security.AuthToken != ""),
		zap.Int("allowed_ips", len(config.Security.AllowedIPs)),
		zap.Int("updates_per_minute", config.Security.UpdatesPerMinute),
		zap.Int("pauses_per_minute", config.Security.PausesPerMinute))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cache := store.NewArtCache(config.App.CacheSize)

	provider, err := search.NewProvider(&config.Search, logger.Named("search"))
	if err != nil {
		return fmt.Errorf("failed to create search provider: %w", err)
	}

	resolver := artwork.NewResolver(config, cache, provider, logger.Named("artwork"))

	channel := discord.NewChannel(discord.NewRichTransport(config.Discord.ClientID), logger.Named("discord"))

	reaper := core.NewIdleReaper(config.App.IdleTimeout, func() {
		logger.Info("Idle timeout reached, clearing presence")
		channel.Clear()
	})

	tracker := core.NewTracker(config, resolver, channel, provider, reaper, logger.Named("tracker"))

	registry := prometheus.NewRegistry()
	httpServer := httpserver.NewServer(config, tracker, channel, cache, newLedger(), logger.Named("http"), registry)

	// Connect eagerly so the first report does not pay the handshake; a
	// failure here is fine, the channel retries on every report.
	if !channel.EnsureConnected() {
		logger.Warn("Discord not reachable at startup, will retry on first report")
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("nowcast started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	err = g.Wait()

	reaper.Stop()
	channel.Shutdown()

	if err != nil {
		logger.Error("nowcast stopped with error", zap.Error(err))
		return err
	}

	logger.Info("nowcast stopped gracefully")
	return nil
}

func newLedger() *guard.FailureLedger {
	return guard.NewFailureLedger(
		config.Security.AuthFailureThreshold,
		config.Security.AuthFailureWindow,
		config.Security.MaxTrackedIPs,
	)
}

func validateConfig() error {
	if config.Discord.ClientID == "" {
		return fmt.Errorf("discord client ID is required")
	}

	if config.Search.Provider == "spotify" {
		if config.Search.SpotifyClientID == "" || config.Search.SpotifyClientSecret == "" {
			return fmt.Errorf("spotify search provider requires client ID and secret")
		}
	}

	return nil
}
