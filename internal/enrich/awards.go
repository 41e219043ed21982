// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// AwardStage scrapes award mentions from the song's reference page.
// Requires the base record to carry a reference link.
type AwardStage struct {
	Scraper AwardScraper
	Path    string
	Order   map[string]int
}

func (s *AwardStage) Name() string { return "awards" }

func (s *AwardStage) Process(ctx context.Context, job pipeline.Job) pipeline.Result {
	link := job.Song.Link
	if link == "" {
		return pipeline.Skipped("wikipedia_link")
	}

	entries := store.Load[types.AwardEntry](s.Path)
	if awards := store.AwardMap(entries)[job.TrackKey]; len(awards) > 0 {
		return pipeline.Cached()
	}

	if s.Scraper == nil {
		return pipeline.Failed(ErrNotConfigured)
	}

	awards, err := s.Scraper.Awards(ctx, link)
	if err != nil {
		return pipeline.Failed(err)
	}
	if len(awards) == 0 {
		return pipeline.Empty()
	}

	entry := types.AwardEntry{
		TrackKey:  job.TrackKey,
		TrackName: job.Song.Name,
		Artist:    job.Song.Artist,
		Year:      job.Song.Year,
		Source:    link,
		Awards:    awards,
	}

	pos := store.Pos(s.Order)
	merged := store.Merge(entries, []types.AwardEntry{entry},
		types.AwardEntry.Key,
		func(e types.AwardEntry) int { return pos(e.Key()) },
	)
	if err := store.AtomicWrite(s.Path, merged); err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.Fetched()
}
