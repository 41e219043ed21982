// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/spotify"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [chart.csv]",
	Short: "Convert a chart CSV export into the base dataset",
	Long: `Convert reads a chart CSV export (columns: name, artist, year, place,
link) and writes the base dataset JSON file the pipeline enumerates. With
--resolve-spotify and credentials in .secrets/, each song is also resolved
to a Spotify track id and popularity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("data-dir", "data", "base directory for dataset files")
	convertCmd.Flags().Bool("resolve-spotify", false, "resolve each song to a Spotify track id")
	convertCmd.Flags().Int("limit", 0, "convert at most this many rows (0 = all)")
	convertCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	resolve, _ := cmd.Flags().GetBool("resolve-spotify")
	limit, _ := cmd.Flags().GetInt("limit")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	songs, err := readChartCSV(args[0], limit)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return fmt.Errorf("no rows found in %s", args[0])
	}

	if resolve {
		clientID := secretDefault("spotify-client-id", "")
		clientSecret := secretDefault("spotify-client-secret", "")
		if clientID == "" || clientSecret == "" {
			return fmt.Errorf("spotify credentials required for --resolve-spotify: add spotify-client-id and spotify-client-secret to .secrets/")
		}

		ctx := context.Background()
		client, err := spotify.New(ctx, clientID, clientSecret, types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		})
		if err != nil {
			return err
		}

		for i := range songs {
			trackID, popularity, err := client.FindTrack(ctx, songs[i].Name, songs[i].Artist)
			if err != nil {
				fmt.Fprintf(os.Stderr, "unresolved %s: %v\n", songs[i].Label(), err)
				continue
			}
			songs[i].SpotifyTrackID = trackID
			songs[i].Popularity = popularity
			fmt.Printf("resolved %s -> %s\n", songs[i].Label(), trackID)
		}
	}

	paths := types.DefaultPaths(dataDir)
	if err := store.AtomicWrite(paths.BaseDataset, songs); err != nil {
		return err
	}
	fmt.Printf("Wrote %d songs to %s\n", len(songs), paths.BaseDataset)
	return nil
}

// readChartCSV maps CSV rows to songs through the header, so column order
// does not matter. Rank may appear as "place" or "rank"; the reference
// link as "link" or "wikipedia_link".
func readChartCSV(path string, limit int) ([]types.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	var songs []types.Song
	for limit <= 0 || len(songs) < limit {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		song := types.Song{
			Name:   field(row, "name", "title", "song"),
			Artist: field(row, "artist"),
			Link:   field(row, "link", "wikipedia_link"),
		}
		if song.Name == "" || song.Artist == "" {
			continue
		}
		song.Year, _ = strconv.Atoi(field(row, "year"))
		song.Rank, _ = strconv.Atoi(field(row, "place", "rank"))
		songs = append(songs, song)
	}
	return songs, nil
}
