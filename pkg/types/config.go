// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "chart-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// MaxCommentLimit is the hard cap on comments kept per track.
const MaxCommentLimit = 15

// ClampCommentLimit bounds a requested comment count to [0, MaxCommentLimit].
func ClampCommentLimit(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxCommentLimit {
		return MaxCommentLimit
	}
	return n
}

// PathsConfig names every durable file the pipeline touches. One store file
// per stage; each store is written by exactly one stage worker.
type PathsConfig struct {
	// DataDir is the base directory for all dataset files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// BaseDataset is the ordered chart dataset the run enumerates.
	// Its absence aborts the run before any job is created.
	BaseDataset string `json:"base_dataset" yaml:"base_dataset"`

	AudioStore   string `json:"audio_store" yaml:"audio_store"`
	LinkStore    string `json:"link_store" yaml:"link_store"`
	CommentStore string `json:"comment_store" yaml:"comment_store"`
	AwardStore   string `json:"award_store" yaml:"award_store"`

	// FinalDataset is the assembled YAML output document.
	FinalDataset string `json:"final_dataset" yaml:"final_dataset"`

	// IndexDir holds the SQLite dataset index.
	IndexDir string `json:"index_dir" yaml:"index_dir"`
}

// DefaultPaths returns the conventional file layout under dataDir.
func DefaultPaths(dataDir string) PathsConfig {
	return PathsConfig{
		DataDir:      dataDir,
		BaseDataset:  filepath.Join(dataDir, "songs_database.json"),
		AudioStore:   filepath.Join(dataDir, "songs_with_audio_metadata.json"),
		LinkStore:    filepath.Join(dataDir, "youtube_links.json"),
		CommentStore: filepath.Join(dataDir, "youtube_comments.json"),
		AwardStore:   filepath.Join(dataDir, "wikipedia_awards.json"),
		FinalDataset: filepath.Join(dataDir, "songs_dataset.yaml"),
		IndexDir:     filepath.Join(dataDir, "index"),
	}
}

// AudioConfig holds settings for the audio metadata stage.
type AudioConfig struct {
	HTTPConfig `yaml:",inline"`

	// SampleRate is the preview-clip analysis sample rate (default 22050).
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`

	// ClipDuration is the analysis clip length in seconds (default 30).
	ClipDuration float64 `json:"clip_duration" yaml:"clip_duration"`
}

// LinkConfig holds settings for the link discovery stage.
type LinkConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxCandidates bounds how many ranked candidates are kept per track
	// (default 4).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`
}

// CommentConfig holds settings for the comment collection stage.
type CommentConfig struct {
	HTTPConfig `yaml:",inline"`

	// Limit is the requested number of top comments per track,
	// clamped to MaxCommentLimit.
	Limit int `json:"limit" yaml:"limit"`
}

// AwardConfig holds settings for the award collection stage.
type AwardConfig struct {
	HTTPConfig `yaml:",inline"`
}

// DatasetConfig holds settings for the dataset index.
type DatasetConfig struct {
	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	Paths    PathsConfig   `json:"paths" yaml:"paths"`
	Audio    AudioConfig   `json:"audio" yaml:"audio"`
	Links    LinkConfig    `json:"links" yaml:"links"`
	Comments CommentConfig `json:"comments" yaml:"comments"`
	Awards   AwardConfig   `json:"awards" yaml:"awards"`
	Dataset  DatasetConfig `json:"dataset" yaml:"dataset"`
}
