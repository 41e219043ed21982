// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// ErrNotConfigured marks a collaborator whose credentials were not set up.
// Stages report it as a failed attempt, not a skip, so a misconfigured run
// is visible in the log rather than silently producing partial records.
var ErrNotConfigured = errors.New("collaborator not configured")

// AudioStage attaches audio metadata to songs that carry a spotify track
// id. The store is keyed by that id; songs without one are a hard
// dependency miss, not a failure.
type AudioStage struct {
	Provider     AudioFeatureProvider
	Path         string
	Order        map[string]int
	SampleRate   int
	ClipDuration float64
}

func (s *AudioStage) Name() string { return "audio" }

func (s *AudioStage) Process(ctx context.Context, job pipeline.Job) pipeline.Result {
	trackID := job.Song.SpotifyTrackID
	if trackID == "" {
		return pipeline.Skipped("spotify_track_id")
	}

	entries := store.Load[types.AudioMetadataEntry](s.Path)
	if metadata := store.AudioMetadataMap(entries)[trackID]; len(metadata) > 0 {
		return pipeline.Cached()
	}

	if s.Provider == nil {
		return pipeline.Failed(ErrNotConfigured)
	}

	features, err := s.Provider.Features(ctx, trackID)
	if err != nil {
		return pipeline.Failed(err)
	}
	if len(features) == 0 {
		return pipeline.Empty()
	}

	entry := types.AudioMetadataEntry{
		Name:           job.Song.Name,
		Artist:         job.Song.Artist,
		SpotifyTrackID: trackID,
		AudioMetadata:  features,
		SampleRate:     s.SampleRate,
		ClipDuration:   s.ClipDuration,
	}

	pos := store.Pos(s.Order)
	merged := store.Merge(entries, []types.AudioMetadataEntry{entry},
		func(e types.AudioMetadataEntry) string { return e.SpotifyTrackID },
		func(e types.AudioMetadataEntry) int { return pos(types.TrackKey(e.Name, e.Artist)) },
	)
	if err := store.AtomicWrite(s.Path, merged); err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.Fetched()
}
