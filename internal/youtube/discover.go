// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package youtube

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	kkdai "github.com/kkdai/youtube/v2"

	"github.com/pdiddy/chart-engine/internal/httputil"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// kkdaiResolver confirms candidates by fetching the video's player
// metadata, which fails for removed, private, or region-locked uploads.
type kkdaiResolver struct {
	client kkdai.Client
}

func newKkdaiResolver(cfg types.HTTPConfig) *kkdaiResolver {
	return &kkdaiResolver{client: kkdai.Client{HTTPClient: httputil.NewClient(cfg)}}
}

func (r *kkdaiResolver) resolve(ctx context.Context, videoID string) error {
	_, err := r.client.GetVideoContext(ctx, videoID)
	return err
}

// Discover searches for the song and returns candidate videos ranked by
// title similarity. The top candidate is confirmed to still resolve; when
// it does not, the ranking is rotated until a playable one leads.
func (c *Client) Discover(ctx context.Context, name, artist string) ([]types.LinkCandidate, error) {
	query := strings.TrimSpace(name + " " + artist)
	data, err := c.post(ctx, "search", map[string]any{"query": query})
	if err != nil {
		return nil, err
	}

	candidates := rankCandidates(findObjects(data, "videoRenderer"), name, artist, c.maxCandidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	if c.resolver != nil {
		for i := range candidates {
			if err := c.resolver.resolve(ctx, candidates[i].YouTubeID); err == nil {
				candidates[0], candidates[i] = candidates[i], candidates[0]
				return candidates, nil
			}
		}
		return nil, fmt.Errorf("no playable video found for %q", query)
	}
	return candidates, nil
}

// rankCandidates scores search results by title similarity and keeps the
// best max entries. Uploads title songs in either order ("Name Artist" or
// "Artist - Name"), and Jaro-Winkler weighs shared prefixes heavily, so a
// single target string would rank a name-first live cut above the artist's
// own upload. Each title is scored against both orders and the higher
// similarity wins.
func rankCandidates(renderers []map[string]any, name, artist string, max int) []types.LinkCandidate {
	name = strings.ToLower(strings.TrimSpace(name))
	artist = strings.ToLower(strings.TrimSpace(artist))
	targets := []string{
		strings.TrimSpace(name + " " + artist),
		strings.TrimSpace(artist + " " + name),
	}
	metric := metrics.NewJaroWinkler()

	type scored struct {
		candidate types.LinkCandidate
		score     float64
	}

	seen := make(map[string]bool)
	var ranked []scored
	for _, r := range renderers {
		id, _ := r["videoId"].(string)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		title := ""
		if t, ok := r["title"].(map[string]any); ok {
			title = runsText(t)
		}
		ranked = append(ranked, scored{
			candidate: types.LinkCandidate{
				YouTubeID:  id,
				YouTubeURL: types.WatchURL(id),
				Title:      title,
			},
			score: bestSimilarity(strings.ToLower(title), targets, metric),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]types.LinkCandidate, len(ranked))
	for i, s := range ranked {
		out[i] = s.candidate
	}
	return out
}

func bestSimilarity(title string, targets []string, metric strutil.StringMetric) float64 {
	var best float64
	for _, target := range targets {
		if s := strutil.Similarity(title, target, metric); s > best {
			best = s
		}
	}
	return best
}
