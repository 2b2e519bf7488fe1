package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker reconciles inbound playback reports against the single tracked
// session and mirrors accepted changes to the presence channel. The whole
// reconcile-then-emit sequence runs under one mutex so two concurrent
// reports can never race on a half-updated state.
type Tracker struct {
	config   *Config
	resolver ArtworkResolver
	channel  PresenceChannel
	links    SearchProvider
	reaper   *IdleReaper
	logger   *zap.Logger

	mu    sync.Mutex
	state PlaybackState
	now   func() time.Time
}

func NewTracker(
	config *Config,
	resolver ArtworkResolver,
	channel PresenceChannel,
	links SearchProvider,
	reaper *IdleReaper,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		config:   config,
		resolver: resolver,
		channel:  channel,
		links:    links,
		reaper:   reaper,
		logger:   logger,
		state:    PlaybackState{IsPlaying: true},
		now:      time.Now,
	}
}

// Reconcile decides whether a report is a duplicate, a new track, a seek or
// a play-state flip, commits the decision and emits at most one presence
// update. It always returns a definite outcome.
func (t *Tracker) Reconcile(ctx context.Context, report TrackReport) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	title := displayField(report.Title, t.config.App.FallbackTitle, t.config.App.MaxFieldLength)
	artist := displayField(report.Artist, t.config.App.FallbackArtist, t.config.App.MaxFieldLength)
	position := clampSeconds(report.Position, t.config.App.MaxSecondsField)
	duration := clampSeconds(report.Duration, t.config.App.MaxSecondsField)

	candidateOrigin := now.Add(-time.Duration(position * float64(time.Second)))

	drift := candidateOrigin.Sub(t.state.TimelineOrigin)
	if drift < 0 {
		drift = -drift
	}
	isSeek := drift > t.config.App.SeekTolerance

	isNewTrack := title != t.state.Title || artist != t.state.Artist

	// Duplicate suppression: same track, same play flag, no seek, and the
	// last accepted update is recent. Any of the three triggers bypasses
	// the window no matter how little time has passed.
	if !isNewTrack && report.IsPlaying == t.state.IsPlaying && !isSeek &&
		now.Sub(t.state.LastUpdate) < t.config.App.DuplicateWindow {
		t.reaper.Reset()
		t.logger.Debug("Duplicate report skipped",
			zap.String("title", title),
			zap.String("artist", artist))
		return OutcomeSkipped
	}

	switch {
	case isNewTrack:
		// A fresh track always starts the timeline at now. Clients have
		// been seen sending the previous track's position with the first
		// report of a new one.
		t.state.TimelineOrigin = now
		t.logger.Info("New track detected",
			zap.String("previous", t.state.Title),
			zap.String("title", title),
			zap.String("artist", artist))
	case isSeek:
		t.state.TimelineOrigin = candidateOrigin
		t.logger.Info("Seek detected",
			zap.String("title", title),
			zap.Float64("position", position))
	}

	t.state.Title = title
	t.state.Artist = artist
	t.state.IsPlaying = report.IsPlaying
	t.state.LastUpdate = now

	if !t.channel.EnsureConnected() {
		return OutcomeUnavailable
	}

	artworkRef, externalID := t.resolver.Resolve(ctx, title, artist)

	params := UpdateParams{
		Details:    title,
		State:      artist,
		LargeImage: artworkRef,
		LargeText:  t.config.Discord.LargeText,
		SmallImage: t.config.Discord.PlayingImage,
		SmallText:  t.config.Discord.PlayingText,
	}

	if !report.IsPlaying {
		params.SmallImage = t.config.Discord.PausedImage
		params.SmallText = t.config.Discord.PausedText
	}

	if report.IsPlaying && duration > 0 {
		start := t.state.TimelineOrigin.Unix()
		params.StartTimestamp = &start
	}

	if externalID != "" {
		params.Buttons = []Button{{
			Label: t.config.Discord.ButtonLabel,
			URL:   t.links.TrackLink(externalID),
		}}
	}

	if err := t.channel.Apply(params); err != nil {
		t.logger.Warn("Presence update failed", zap.Error(err))
		return OutcomeRPCError
	}

	t.reaper.Reset()
	t.logger.Info("Presence updated",
		zap.String("title", title),
		zap.String("artist", artist),
		zap.Bool("playing", report.IsPlaying))

	return OutcomeOK
}

// State returns a copy of the current playback state.
func (t *Tracker) State() PlaybackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
