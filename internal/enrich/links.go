// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// LinkStage resolves a video for each song. No prerequisite: discovery is
// always attempted when the link store has no resolved id for the track key.
type LinkStage struct {
	Finder LinkFinder
	Path   string
	Order  map[string]int
}

func (s *LinkStage) Name() string { return "links" }

func (s *LinkStage) Process(ctx context.Context, job pipeline.Job) pipeline.Result {
	entries := store.Load[types.LinkEntry](s.Path)
	if cached, ok := store.LinkMap(entries)[job.TrackKey]; ok && cached.YouTubeID != "" {
		return pipeline.Cached()
	}

	if s.Finder == nil {
		return pipeline.Failed(ErrNotConfigured)
	}

	candidates, err := s.Finder.Discover(ctx, job.Song.Name, job.Song.Artist)
	if err != nil {
		return pipeline.Failed(err)
	}
	if len(candidates) == 0 {
		return pipeline.Empty()
	}

	best := candidates[0]
	if best.YouTubeURL == "" {
		best.YouTubeURL = types.WatchURL(best.YouTubeID)
	}
	entry := types.LinkEntry{
		Name:       job.Song.Name,
		Artist:     job.Song.Artist,
		YouTubeID:  best.YouTubeID,
		YouTubeURL: best.YouTubeURL,
		Candidates: candidates,
	}

	pos := store.Pos(s.Order)
	merged := store.Merge(entries, []types.LinkEntry{entry},
		types.LinkEntry.Key,
		func(e types.LinkEntry) int { return pos(e.Key()) },
	)
	if err := store.AtomicWrite(s.Path, merged); err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.Fetched()
}
