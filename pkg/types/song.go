// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the song records, per-stage store entries, and
// configuration shared across the pipeline.
package types

import "strings"

// TrackKeySeparator joins the normalized name and artist. The pipe does not
// occur in chart song or artist names, so the key parses unambiguously.
const TrackKeySeparator = "|"

// TrackKey derives the canonical join key for a song: both parts trimmed,
// concatenated with TrackKeySeparator, lower-cased. Every store and the
// assembler correlate records through this key, so it must stay stable
// across runs. Two distinct songs normalizing to the same key share
// enrichment rows; that collision is accepted.
func TrackKey(name, artist string) string {
	return strings.ToLower(strings.TrimSpace(name) + TrackKeySeparator + strings.TrimSpace(artist))
}

// Song is one row of the base chart dataset plus the optional fields the
// prep stages may have attached (spotify id, lyrics). The JSON tags match
// the base dataset file; identity is derived via TrackKey, never stored.
type Song struct {
	// Name is the song title as it appears on the chart.
	Name string `json:"name" yaml:"name"`

	// Artist is the credited artist string.
	Artist string `json:"artist" yaml:"artist"`

	// Year is the chart year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Rank is the song's position within its chart year.
	Rank int `json:"place,omitempty" yaml:"rank,omitempty"`

	// Link is the external reference (Wikipedia) page for the song.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// SpotifyTrackID is the platform id resolved during dataset prep.
	// Empty when the prep search found no match.
	SpotifyTrackID string `json:"spotify_track_id,omitempty" yaml:"spotify_track_id,omitempty"`

	// Popularity is the platform popularity score at prep time.
	Popularity int `json:"popularity,omitempty" yaml:"popularity,omitempty"`

	// PreviewURL points at the 30-second audio preview clip, when available.
	PreviewURL string `json:"audio_preview_url,omitempty" yaml:"audio_preview_url,omitempty"`

	Lyrics            string `json:"lyrics,omitempty" yaml:"lyrics,omitempty"`
	LyricsStatus      string `json:"genius_status,omitempty" yaml:"genius_status,omitempty"`
	LyricsPageviews   int    `json:"genius_pageviews,omitempty" yaml:"genius_pageviews,omitempty"`
	LyricsReleaseDate string `json:"genius_release_date,omitempty" yaml:"genius_release_date,omitempty"`
}

// Key returns the song's track key.
func (s Song) Key() string {
	return TrackKey(s.Name, s.Artist)
}

// Label renders the song for log lines and reports.
func (s Song) Label() string {
	return s.Name + " - " + s.Artist
}

// AudioMetadataEntry is one row of the audio metadata store, keyed by
// spotify track id.
type AudioMetadataEntry struct {
	Name           string `json:"name" yaml:"name"`
	Artist         string `json:"artist" yaml:"artist"`
	SpotifyTrackID string `json:"spotify_track_id" yaml:"spotify_track_id"`

	// AudioMetadata is the flat numeric feature map returned by the
	// audio-feature collaborator.
	AudioMetadata map[string]float64 `json:"audio_metadata" yaml:"audio_metadata"`

	// SampleRate and ClipDuration record the analysis parameters the
	// entry was computed with.
	SampleRate   int     `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	ClipDuration float64 `json:"clip_duration,omitempty" yaml:"clip_duration,omitempty"`
}

// LinkCandidate is one discovered video, best candidates first.
type LinkCandidate struct {
	YouTubeID  string `json:"youtube_id" yaml:"youtube_id"`
	YouTubeURL string `json:"youtube_url" yaml:"youtube_url"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
}

// LinkEntry is one row of the link store, keyed by track key.
type LinkEntry struct {
	Name       string          `json:"name" yaml:"name"`
	Artist     string          `json:"artist" yaml:"artist"`
	YouTubeID  string          `json:"youtube_id" yaml:"youtube_id"`
	YouTubeURL string          `json:"youtube_url" yaml:"youtube_url"`
	Candidates []LinkCandidate `json:"youtube_candidates,omitempty" yaml:"youtube_candidates,omitempty"`
}

// Key returns the entry's track key.
func (e LinkEntry) Key() string {
	return TrackKey(e.Name, e.Artist)
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Comment is one row of the comment store. Rows carry both the video id and
// the track key so either side can join them.
type Comment struct {
	TrackName   string `json:"track_name,omitempty" yaml:"track_name,omitempty"`
	Artist      string `json:"artist,omitempty" yaml:"artist,omitempty"`
	TrackKey    string `json:"track_key,omitempty" yaml:"track_key,omitempty"`
	YouTubeID   string `json:"youtube_id" yaml:"youtube_id"`
	CommentID   string `json:"comment_id,omitempty" yaml:"comment_id,omitempty"`
	Author      string `json:"author" yaml:"author"`
	Text        string `json:"text" yaml:"text"`
	LikeCount   int    `json:"like_count" yaml:"like_count"`
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// Position is the 1-based rank the comment held on the watch page.
	Position int `json:"position" yaml:"position"`
}

// AwardEntry is one row of the award store, keyed by track key.
type AwardEntry struct {
	TrackKey  string   `json:"track_key,omitempty" yaml:"track_key,omitempty"`
	TrackName string   `json:"track_name" yaml:"track_name"`
	Artist    string   `json:"artist" yaml:"artist"`
	Year      int      `json:"year,omitempty" yaml:"year,omitempty"`
	Source    string   `json:"source" yaml:"source"`
	Awards    []string `json:"awards" yaml:"awards"`
}

// Key returns the entry's track key, computing it from the name fields when
// the stored key is empty (older store rows omitted it).
func (e AwardEntry) Key() string {
	if e.TrackKey != "" {
		return e.TrackKey
	}
	return TrackKey(e.TrackName, e.Artist)
}

// Lyrics is the lyrics sub-document of an assembled record.
type Lyrics struct {
	Text        string `json:"text,omitempty" yaml:"text"`
	Status      string `json:"status,omitempty" yaml:"status"`
	Pageviews   int    `json:"pageviews,omitempty" yaml:"pageviews"`
	ReleaseDate string `json:"release_date,omitempty" yaml:"release_date"`
}

// Record is one fully- or partially-enriched song in the final dataset.
type Record struct {
	Name            string             `json:"name" yaml:"name"`
	Artist          string             `json:"artist" yaml:"artist"`
	Year            int                `json:"year,omitempty" yaml:"year"`
	Rank            int                `json:"rank,omitempty" yaml:"rank"`
	WikipediaLink   string             `json:"wikipedia_link,omitempty" yaml:"wikipedia_link"`
	SpotifyTrackID  string             `json:"spotify_track_id,omitempty" yaml:"spotify_track_id"`
	Popularity      int                `json:"popularity,omitempty" yaml:"popularity"`
	Lyrics          Lyrics             `json:"lyrics" yaml:"lyrics"`
	AudioMetadata   map[string]float64 `json:"audio_metadata,omitempty" yaml:"audio_metadata"`
	AudioPreviewURL string             `json:"audio_preview_url,omitempty" yaml:"audio_preview_url"`
	YouTubeID       string             `json:"youtube_id,omitempty" yaml:"youtube_id"`
	YouTubeURL      string             `json:"youtube_url,omitempty" yaml:"youtube_url"`
	YouTubeComments []Comment          `json:"youtube_comments" yaml:"youtube_comments"`
	Awards          []string           `json:"awards" yaml:"awards"`
}

// Key returns the record's track key.
func (r Record) Key() string {
	return TrackKey(r.Name, r.Artist)
}
