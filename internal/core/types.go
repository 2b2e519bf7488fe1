package core

import (
	"context"
	"time"
)

// TrackReport is one inbound playback report from the client. All fields
// are optional on the wire; missing values arrive here as their defaults.
type TrackReport struct {
	Title     string
	Artist    string
	IsPlaying bool
	Duration  float64
	Position  float64
}

// PlaybackState is the single tracked session. TimelineOrigin is the
// wall-clock instant corresponding to position=0 of the current track.
type PlaybackState struct {
	Title          string
	Artist         string
	IsPlaying      bool
	TimelineOrigin time.Time
	LastUpdate     time.Time
}

type Outcome int

const (
	// OutcomeOK means the presence was updated.
	OutcomeOK Outcome = iota
	// OutcomeSkipped means the report was a duplicate inside the suppression window.
	OutcomeSkipped
	// OutcomeUnavailable means Discord could not be reached at all.
	OutcomeUnavailable
	// OutcomeRPCError means the presence update call itself failed.
	OutcomeRPCError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnavailable:
		return "discord-unavailable"
	case OutcomeRPCError:
		return "rpc-error"
	default:
		return "unknown"
	}
}

// UpdateParams is everything the presence transport needs for one update.
type UpdateParams struct {
	Details        string
	State          string
	LargeImage     string
	LargeText      string
	SmallImage     string
	SmallText      string
	StartTimestamp *int64
	Buttons        []Button
}

type Button struct {
	Label string
	URL   string
}

// SearchResult is one candidate from the artwork search backend.
// Thumbnails are ordered smallest to largest.
type SearchResult struct {
	Title      string
	Artist     string
	Thumbnails []string
	ExternalID string
}

type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	TrackLink(externalID string) string
}

type ArtworkResolver interface {
	Resolve(ctx context.Context, title, artist string) (artworkRef, externalID string)
}

type PresenceChannel interface {
	EnsureConnected() bool
	Apply(params UpdateParams) error
	Clear()
	Shutdown()
	Connected() bool
}
