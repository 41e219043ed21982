// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble folds every stage store into the final ordered dataset.
// Stores are reloaded fresh at assembly time, so the output reflects
// whatever the stage workers most recently wrote; ordering comes from the
// base dataset, never from pipeline completion order.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// Assemble reloads the base dataset and every stage store, merges them by
// track key, and returns cleaned records in base-dataset order. Only a
// missing base dataset is an error.
func Assemble(paths types.PathsConfig, commentLimit int) ([]types.Record, error) {
	base, err := store.LoadBase(paths.BaseDataset)
	if err != nil {
		return nil, err
	}

	audio := store.AudioMetadataMap(store.Load[types.AudioMetadataEntry](paths.AudioStore))
	links := store.LinkMap(store.Load[types.LinkEntry](paths.LinkStore))
	comments := store.CommentMap(store.Load[types.Comment](paths.CommentStore))
	awards := store.AwardMap(store.Load[types.AwardEntry](paths.AwardStore))

	limit := types.ClampCommentLimit(commentLimit)
	records := make([]types.Record, 0, len(base))
	for _, song := range base {
		records = append(records, clean(song, audio, links, comments, awards, limit))
	}
	return records, nil
}

// clean builds the output shape for one song, attaching whatever each
// store holds for it.
func clean(
	song types.Song,
	audio map[string]map[string]float64,
	links map[string]types.LinkEntry,
	comments map[string][]types.Comment,
	awards map[string][]string,
	commentLimit int,
) types.Record {
	key := song.Key()
	rec := types.Record{
		Name:            song.Name,
		Artist:          song.Artist,
		Year:            song.Year,
		Rank:            song.Rank,
		WikipediaLink:   song.Link,
		SpotifyTrackID:  song.SpotifyTrackID,
		Popularity:      song.Popularity,
		AudioPreviewURL: song.PreviewURL,
		Lyrics: types.Lyrics{
			Text:        song.Lyrics,
			Status:      song.LyricsStatus,
			Pageviews:   song.LyricsPageviews,
			ReleaseDate: song.LyricsReleaseDate,
		},
		YouTubeComments: []types.Comment{},
		Awards:          awards[key],
	}
	if rec.Awards == nil {
		rec.Awards = []string{}
	}

	if song.SpotifyTrackID != "" {
		rec.AudioMetadata = audio[song.SpotifyTrackID]
	}

	if link, ok := links[key]; ok {
		rec.YouTubeID = link.YouTubeID
		rec.YouTubeURL = link.YouTubeURL
	}

	group := comments[rec.YouTubeID]
	if len(group) == 0 {
		group = comments[key]
	}
	if len(group) > commentLimit {
		group = group[:commentLimit]
	}
	if len(group) > 0 {
		rec.YouTubeComments = group
	}

	return rec
}

// MissingFields names the enrichment fields still unset on a record.
// Comments and awards are never required: their absence does not make a
// record partial.
func MissingFields(rec types.Record) []string {
	var missing []string
	if rec.SpotifyTrackID == "" {
		missing = append(missing, "spotify_track_id")
	}
	if len(rec.AudioMetadata) == 0 {
		missing = append(missing, "audio_metadata")
	}
	if rec.Lyrics.Text == "" {
		missing = append(missing, "lyrics")
	}
	return missing
}

// BuildOutput walks merged records and produces the final output set:
// records whose track key already appears in the prior output stay
// verbatim in their existing order; new records append in base-dataset
// order until targetTotal is reached. The second return value is one
// human-readable report line per appended record that is still partial.
func BuildOutput(merged, existing []types.Record, targetTotal int) ([]types.Record, []string) {
	var (
		output   []types.Record
		partials []string
		seen     = make(map[string]bool)
	)

	// Prior entries survive untouched, in their emitted order.
	for _, rec := range existing {
		key := rec.Key()
		if seen[key] {
			continue
		}
		output = append(output, rec)
		seen[key] = true
	}

	for _, rec := range merged {
		if len(output) >= targetTotal {
			break
		}
		key := rec.Key()
		if seen[key] {
			continue
		}
		if missing := MissingFields(rec); len(missing) > 0 {
			partials = append(partials, fmt.Sprintf("%s - %s: missing %s",
				rec.Name, rec.Artist, strings.Join(missing, ", ")))
		}
		output = append(output, rec)
		seen[key] = true
	}
	return output, partials
}

// LoadFinal reads a previously emitted final dataset. Absence or a corrupt
// document reads as empty, mirroring the stage stores.
func LoadFinal(path string) []types.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var records []types.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// WriteFinal persists the final dataset YAML with the same temp-and-rename
// protocol as the stage stores.
func WriteFinal(path string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling final dataset: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp output file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing final dataset: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp output file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming final dataset: %w", err)
	}
	return nil
}
