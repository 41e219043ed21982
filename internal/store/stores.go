// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// LoadBase reads the ordered base dataset. Unlike the stage stores its
// absence is fatal: without it there is nothing to enumerate.
func LoadBase(path string) ([]types.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("missing base dataset at %s: %w", path, err)
	}
	var songs []types.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("parsing base dataset %s: %w", path, err)
	}
	return songs, nil
}

// OrderMap maps each song's track key to its position in the base dataset.
// Keys not present order after every known key.
func OrderMap(songs []types.Song) map[string]int {
	m := make(map[string]int, len(songs))
	for i, s := range songs {
		if _, ok := m[s.Key()]; !ok {
			m[s.Key()] = i
		}
	}
	return m
}

// Pos returns an ordering function over track keys backed by an order map.
func Pos(order map[string]int) func(key string) int {
	return func(key string) int {
		if i, ok := order[key]; ok {
			return i
		}
		return len(order) + 1
	}
}

// AudioMetadataMap indexes audio metadata entries by spotify track id,
// keeping only entries with a non-empty feature map.
func AudioMetadataMap(entries []types.AudioMetadataEntry) map[string]map[string]float64 {
	m := make(map[string]map[string]float64)
	for _, e := range entries {
		if e.SpotifyTrackID == "" || len(e.AudioMetadata) == 0 {
			continue
		}
		m[e.SpotifyTrackID] = e.AudioMetadata
	}
	return m
}

// LinkMap indexes link entries by track key. Entries without a URL get one
// derived from the video id.
func LinkMap(entries []types.LinkEntry) map[string]types.LinkEntry {
	m := make(map[string]types.LinkEntry)
	for _, e := range entries {
		key := e.Key()
		if key == types.TrackKeySeparator {
			continue
		}
		if e.YouTubeURL == "" && e.YouTubeID != "" {
			e.YouTubeURL = types.WatchURL(e.YouTubeID)
		}
		m[key] = e
	}
	return m
}

// CommentMap groups comments under both their video id and their track key,
// sorted by watch-page position.
func CommentMap(comments []types.Comment) map[string][]types.Comment {
	m := make(map[string][]types.Comment)
	for _, c := range comments {
		trackKey := c.TrackKey
		if trackKey == "" {
			trackKey = types.TrackKey(c.TrackName, c.Artist)
		}
		for _, key := range []string{c.YouTubeID, trackKey} {
			if key == "" || key == types.TrackKeySeparator {
				continue
			}
			m[key] = append(m[key], c)
		}
	}
	for _, group := range m {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Position < group[j].Position
		})
	}
	return m
}

// AwardMap indexes award lists by track key, dropping blank award strings.
func AwardMap(entries []types.AwardEntry) map[string][]string {
	m := make(map[string][]string)
	for _, e := range entries {
		key := e.Key()
		if key == types.TrackKeySeparator {
			continue
		}
		var awards []string
		for _, a := range e.Awards {
			if a != "" {
				awards = append(awards, a)
			}
		}
		m[key] = awards
	}
	return m
}
