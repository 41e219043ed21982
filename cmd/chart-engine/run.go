// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/assemble"
	"github.com/pdiddy/chart-engine/internal/enrich"
	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/spotify"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/internal/wikipedia"
	"github.com/pdiddy/chart-engine/internal/youtube"
	"github.com/pdiddy/chart-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "chart-engine/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich the next batch of songs and extend the final dataset",
	Long: `Run takes the next N songs from the base dataset that are not yet in
the final output, pushes each through the four enrichment stages (audio
features, video link, comments, awards), and reassembles the final YAML
dataset. Stage results persist per stage, so an interrupted or failed run
resumes where it left off: work already stored is never refetched.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntP("count", "n", 0, "number of new songs to process (required)")
	runCmd.Flags().Int("comments", 10, "top comments to keep per song (max 15)")
	runCmd.Flags().Int("sample-rate", 22050, "audio analysis sample rate")
	runCmd.Flags().Float64("duration", 30.0, "audio analysis clip duration in seconds")
	runCmd.Flags().Int("max-candidates", 4, "video candidates to keep per song")
	runCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	runCmd.Flags().String("data-dir", "data", "base directory for dataset files")
	runCmd.MarkFlagRequired("count")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("count")
	if n <= 0 {
		return fmt.Errorf("--count must be positive")
	}
	commentLimit, _ := cmd.Flags().GetInt("comments")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	duration, _ := cmd.Flags().GetFloat64("duration")
	maxCandidates, _ := cmd.Flags().GetInt("max-candidates")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	dataDir, _ := cmd.Flags().GetString("data-dir")

	paths := types.DefaultPaths(dataDir)
	base, err := store.LoadBase(paths.BaseDataset)
	if err != nil {
		return err
	}

	existing := assemble.LoadFinal(paths.FinalDataset)
	targetTotal := len(existing) + n

	start := len(existing)
	if start > len(base) {
		start = len(base)
	}
	end := targetTotal
	if end > len(base) {
		end = len(base)
	}
	jobs := make([]pipeline.Job, 0, end-start)
	for i := start; i < end; i++ {
		jobs = append(jobs, pipeline.NewJob(i, base[i]))
	}
	if len(jobs) == 0 {
		fmt.Println("Nothing to do: base dataset exhausted.")
		return nil
	}

	httpCfg := types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent}
	order := store.OrderMap(base)
	ctx := context.Background()

	var provider enrich.AudioFeatureProvider
	clientID := secretDefault("spotify-client-id", "")
	clientSecret := secretDefault("spotify-client-secret", "")
	if clientID != "" && clientSecret != "" {
		client, err := spotify.New(ctx, clientID, clientSecret, httpCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: spotify setup failed: %v\n", err)
		} else {
			provider = client
		}
	} else {
		fmt.Fprintln(os.Stderr, "warning: spotify credentials missing, audio stage will record failures")
	}

	yt := youtube.New(types.LinkConfig{HTTPConfig: httpCfg, MaxCandidates: maxCandidates})
	scraper := wikipedia.NewScraper(types.AwardConfig{HTTPConfig: httpCfg})

	stages := []pipeline.Stage{
		&enrich.AudioStage{
			Provider:     provider,
			Path:         paths.AudioStore,
			Order:        order,
			SampleRate:   sampleRate,
			ClipDuration: duration,
		},
		&enrich.LinkStage{Finder: yt, Path: paths.LinkStore, Order: order},
		&enrich.CommentStage{
			Fetcher:  yt,
			Path:     paths.CommentStore,
			LinkPath: paths.LinkStore,
			Limit:    commentLimit,
		},
		&enrich.AwardStage{Scraper: scraper, Path: paths.AwardStore, Order: order},
	}

	stats := pipeline.Run(ctx, stages, jobs, os.Stdout)
	fmt.Printf("\ncompleted: %d, fetched: %d, cached: %d, skipped: %d, empty: %d, failed: %d\n",
		stats.Completed, stats.Fetched, stats.Cached, stats.Skipped, stats.Empty, stats.Failed)

	merged, err := assemble.Assemble(paths, commentLimit)
	if err != nil {
		return err
	}
	output, partials := assemble.BuildOutput(merged, existing, targetTotal)
	for _, line := range partials {
		fmt.Fprintf(os.Stderr, "partial: %s\n", line)
	}

	if err := assemble.WriteFinal(paths.FinalDataset, output); err != nil {
		return err
	}
	fmt.Printf("Wrote %d entries to %s\n", len(output), paths.FinalDataset)
	return nil
}
