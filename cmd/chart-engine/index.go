// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/assemble"
	"github.com/pdiddy/chart-engine/internal/dataset"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite dataset index (build, query)",
	Long: `Index manages a local SQLite index built from the assembled dataset.
Use subcommands to ingest the final YAML output or query it.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Ingest the final dataset into the SQLite index",
	Long: `Build reads the final YAML dataset and ingests every record into a
SQLite database with FTS5 search over names, artists, and lyrics.
Unchanged records are skipped on subsequent runs.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	idx, paths, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	records := assemble.LoadFinal(paths.FinalDataset)
	if len(records) == 0 {
		return fmt.Errorf("no assembled dataset at %s: run assemble first", paths.FinalDataset)
	}

	summary, err := idx.Ingest(context.Background(), records, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the dataset index with full-text search and filters",
	Long: `Query searches the dataset index using FTS5 full-text search over
names, artists, and lyrics, structured filters (artist, year), or a
combination of both.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	idx, _, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --artist, or --year")
	}

	results, err := idx.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []dataset.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-25s  %-5s  %-5s  %s\n",
		"Rank", "Name", "Artist", "Year", "Place", "Video")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for i, r := range results {
		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		artist := r.Artist
		if len(artist) > 25 {
			artist = artist[:22] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-25s  %-5d  %-5d  %s\n",
			i+1, name, artist, r.Year, r.Rank, r.YouTubeID)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- shared helpers ---

func openIndex(cmd *cobra.Command) (*dataset.Index, types.PathsConfig, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	paths := types.DefaultPaths(dataDir)
	idx, err := dataset.Open(paths.IndexDir, types.DatasetConfig{MaxResults: maxResults})
	if err != nil {
		return nil, paths, err
	}
	return idx, paths, nil
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) dataset.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	artist, _ := cmd.Flags().GetString("artist")
	year, _ := cmd.Flags().GetInt("year")
	limit, _ := cmd.Flags().GetInt("limit")

	return dataset.QueryOptions{
		Query:      queryText,
		Artist:     artist,
		Year:       year,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("data-dir", "data", "base directory for dataset files (contains index/)")
	indexCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Query flags.
	indexQueryCmd.Flags().String("query", "", "full-text search query")
	indexQueryCmd.Flags().String("artist", "", "filter by artist name")
	indexQueryCmd.Flags().Int("year", 0, "filter by chart year")
	indexQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Wire subcommands.
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexQueryCmd)

	rootCmd.AddCommand(indexCmd)
}
