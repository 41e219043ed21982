// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spotify implements the audio-feature collaborator on the Spotify
// Web API, authenticated with client credentials. Calls are serialized by
// the pipeline and additionally paced by a local rate limiter.
package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Client wraps the Spotify Web API for single-track lookups.
type Client struct {
	api     *spotify.Client
	limiter *rate.Limiter
}

// New authenticates with the client-credentials flow and returns a ready
// client. The limiter paces requests at roughly one per second, well under
// the API quota, since a long pipeline run issues one call per song.
func New(ctx context.Context, clientID, clientSecret string, cfg types.HTTPConfig) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify credentials not set: provide spotify-client-id and spotify-client-secret")
	}

	creds := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token request: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		api:     spotify.New(httpClient),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Features returns the flat numeric audio feature map for one track id.
func (c *Client) Features(ctx context.Context, trackID string) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	features, err := c.api.GetAudioFeatures(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("fetching audio features for %s: %w", trackID, err)
	}
	if len(features) == 0 || features[0] == nil {
		return nil, fmt.Errorf("no audio available for track %s", trackID)
	}
	return FeatureMap(features[0]), nil
}

// FeatureMap flattens the API feature struct into the store's numeric map.
func FeatureMap(f *spotify.AudioFeatures) map[string]float64 {
	return map[string]float64{
		"danceability":     float64(f.Danceability),
		"energy":           float64(f.Energy),
		"key":              float64(f.Key),
		"loudness":         float64(f.Loudness),
		"mode":             float64(f.Mode),
		"speechiness":      float64(f.Speechiness),
		"acousticness":     float64(f.Acousticness),
		"instrumentalness": float64(f.Instrumentalness),
		"liveness":         float64(f.Liveness),
		"valence":          float64(f.Valence),
		"tempo":            float64(f.Tempo),
		"duration_ms":      float64(f.Duration),
		"time_signature":   float64(f.TimeSignature),
	}
}

// FindTrack resolves a (name, artist) pair to a track id and popularity
// score. A structured field query is tried first, then a plain free-text
// search; the first hit wins.
func (c *Client) FindTrack(ctx context.Context, name, artist string) (string, int, error) {
	queries := []string{
		fmt.Sprintf("track:%s artist:%s", name, artist),
		fmt.Sprintf("%s %s", name, artist),
	}
	for _, q := range queries {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}
		result, err := c.api.Search(ctx, q, spotify.SearchTypeTrack, spotify.Limit(1))
		if err != nil {
			return "", 0, fmt.Errorf("searching for %s - %s: %w", name, artist, err)
		}
		if result.Tracks != nil && len(result.Tracks.Tracks) > 0 {
			track := result.Tracks.Tracks[0]
			return string(track.ID), int(track.Popularity), nil
		}
	}
	return "", 0, nil
}
