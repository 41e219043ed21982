// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// CommentStage collects top comments for the video the link stage resolved.
// Unlike the other stores, a key's rows are replaced wholesale on refetch:
// the stage first drops every row matching the video id or track key, then
// appends the fresh batch, so retries never accumulate duplicates. A key is
// considered done only when it already holds at least the requested number
// of comments; a partially filled key is topped up by refetching.
type CommentStage struct {
	Fetcher  CommentFetcher
	Path     string
	LinkPath string
	Limit    int
}

func (s *CommentStage) Name() string { return "comments" }

func (s *CommentStage) Process(ctx context.Context, job pipeline.Job) pipeline.Result {
	links := store.LinkMap(store.Load[types.LinkEntry](s.LinkPath))
	link, ok := links[job.TrackKey]
	if !ok || link.YouTubeID == "" {
		return pipeline.Skipped("youtube_id")
	}

	limit := types.ClampCommentLimit(s.Limit)
	existing := store.Load[types.Comment](s.Path)
	byKey := store.CommentMap(existing)
	stored := byKey[link.YouTubeID]
	if len(stored) == 0 {
		stored = byKey[job.TrackKey]
	}
	if len(stored) >= limit {
		return pipeline.Cached()
	}

	if s.Fetcher == nil {
		return pipeline.Failed(ErrNotConfigured)
	}

	fresh, err := s.Fetcher.Comments(ctx, link.YouTubeID, limit)
	if err != nil {
		return pipeline.Failed(err)
	}
	if len(fresh) == 0 {
		return pipeline.Empty()
	}

	for i := range fresh {
		if fresh[i].TrackKey == "" {
			fresh[i].TrackKey = job.TrackKey
		}
		if fresh[i].TrackName == "" {
			fresh[i].TrackName = job.Song.Name
		}
		if fresh[i].Artist == "" {
			fresh[i].Artist = job.Song.Artist
		}
		if fresh[i].YouTubeID == "" {
			fresh[i].YouTubeID = link.YouTubeID
		}
	}

	replaced := make([]types.Comment, 0, len(existing)+len(fresh))
	for _, row := range existing {
		if s.matches(row, link.YouTubeID, job.TrackKey) {
			continue
		}
		replaced = append(replaced, row)
	}
	replaced = append(replaced, fresh...)

	if err := store.AtomicWrite(s.Path, replaced); err != nil {
		return pipeline.Failed(err)
	}
	return pipeline.Fetched()
}

// matches reports whether a stored comment row belongs to the video or
// track being refreshed.
func (s *CommentStage) matches(row types.Comment, videoID, trackKey string) bool {
	if videoID != "" && row.YouTubeID == videoID {
		return true
	}
	rowKey := row.TrackKey
	if rowKey == "" {
		rowKey = types.TrackKey(row.TrackName, row.Artist)
	}
	return trackKey != "" && rowKey == trackKey
}
