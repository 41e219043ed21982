// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich implements the four stage handlers. Every handler follows
// the same shape: check the prerequisite field, consult the stage's store,
// call the external collaborator for exactly one song when the store has no
// result yet, and merge what comes back with an atomic rewrite. The stores
// are the source of truth for idempotence: re-running the pipeline makes
// no external call for work already recorded.
package enrich

import (
	"context"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// AudioFeatureProvider returns the flat numeric feature map for one
// platform track id, or an error when no audio is available.
type AudioFeatureProvider interface {
	Features(ctx context.Context, trackID string) (map[string]float64, error)
}

// LinkFinder returns candidate videos for one (name, artist) pair, ranked
// best-first. An empty slice is a valid "nothing found" answer.
type LinkFinder interface {
	Discover(ctx context.Context, name, artist string) ([]types.LinkCandidate, error)
}

// CommentFetcher returns up to max ordered comments for one resolved
// video id.
type CommentFetcher interface {
	Comments(ctx context.Context, videoID string, max int) ([]types.Comment, error)
}

// AwardScraper returns free-text award mentions extracted from one
// reference page.
type AwardScraper interface {
	Awards(ctx context.Context, link string) ([]string, error)
}
