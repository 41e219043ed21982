// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/store"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// --- fake collaborators with call counters ---

type fakeAudio struct {
	calls    int
	features map[string]float64
	err      error
}

func (f *fakeAudio) Features(_ context.Context, _ string) (map[string]float64, error) {
	f.calls++
	return f.features, f.err
}

type fakeFinder struct {
	calls      int
	candidates []types.LinkCandidate
	err        error
}

func (f *fakeFinder) Discover(_ context.Context, _, _ string) ([]types.LinkCandidate, error) {
	f.calls++
	return f.candidates, f.err
}

type fakeFetcher struct {
	calls int
	batch []types.Comment
	err   error
}

func (f *fakeFetcher) Comments(_ context.Context, videoID string, max int) ([]types.Comment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batch) > max {
		return f.batch[:max], nil
	}
	return f.batch, nil
}

type fakeScraper struct {
	calls  int
	awards []string
	err    error
}

func (f *fakeScraper) Awards(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.awards, f.err
}

// --- fixtures ---

var testSong = types.Song{
	Name:           "Beat It",
	Artist:         "Michael Jackson",
	Year:           1983,
	Rank:           1,
	Link:           "https://en.wikipedia.org/wiki/Beat_It",
	SpotifyTrackID: "1OOtq8tRnDM8kG2gqUPjAj",
}

func testJob() pipeline.Job {
	return pipeline.NewJob(0, testSong)
}

func testOrder() map[string]int {
	return map[string]int{testSong.Key(): 0}
}

// --- audio stage ---

func TestAudioStageIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.json")
	provider := &fakeAudio{features: map[string]float64{"tempo": 117.4, "energy": 0.87}}
	stage := &AudioStage{Provider: provider, Path: path, Order: testOrder(), SampleRate: 22050, ClipDuration: 30}

	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeFetched {
		t.Fatalf("first run outcome = %v, want fetched", res.Outcome)
	}
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeCached {
		t.Fatalf("second run outcome = %v, want cached", res.Outcome)
	}
	if provider.calls != 1 {
		t.Errorf("collaborator called %d times, want exactly 1", provider.calls)
	}

	entries := store.Load[types.AudioMetadataEntry](path)
	if len(entries) != 1 || entries[0].AudioMetadata["tempo"] != 117.4 {
		t.Errorf("store content = %+v", entries)
	}
	if entries[0].SampleRate != 22050 || entries[0].ClipDuration != 30 {
		t.Errorf("analysis params not recorded: %+v", entries[0])
	}
}

func TestAudioStageSkipsWithoutTrackID(t *testing.T) {
	provider := &fakeAudio{}
	stage := &AudioStage{Provider: provider, Path: filepath.Join(t.TempDir(), "audio.json"), Order: testOrder()}

	song := testSong
	song.SpotifyTrackID = ""
	res := stage.Process(context.Background(), pipeline.NewJob(0, song))

	if res.Outcome != pipeline.OutcomeSkipped || res.Missing != "spotify_track_id" {
		t.Errorf("result = %+v, want skipped with named prerequisite", res)
	}
	if provider.calls != 0 {
		t.Errorf("collaborator called on skip")
	}
}

func TestAudioStageFailureLeavesStoreUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.json")
	stage := &AudioStage{
		Provider: &fakeAudio{err: errors.New("no audio available")},
		Path:     path,
		Order:    testOrder(),
	}

	res := stage.Process(context.Background(), testJob())
	if res.Outcome != pipeline.OutcomeFailed || res.Err == nil {
		t.Errorf("result = %+v, want failed with error", res)
	}
	if entries := store.Load[types.AudioMetadataEntry](path); len(entries) != 0 {
		t.Errorf("store should be unchanged after failure: %+v", entries)
	}
}

func TestAudioStageNilProviderFails(t *testing.T) {
	stage := &AudioStage{Path: filepath.Join(t.TempDir(), "audio.json"), Order: testOrder()}
	res := stage.Process(context.Background(), testJob())
	if res.Outcome != pipeline.OutcomeFailed || !errors.Is(res.Err, ErrNotConfigured) {
		t.Errorf("result = %+v, want failed with ErrNotConfigured", res)
	}
}

// --- link stage ---

func TestLinkStageIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	finder := &fakeFinder{candidates: []types.LinkCandidate{
		{YouTubeID: "oRdxUFDoQe0"},
		{YouTubeID: "other1", YouTubeURL: "https://www.youtube.com/watch?v=other1"},
	}}
	stage := &LinkStage{Finder: finder, Path: path, Order: testOrder()}

	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeFetched {
		t.Fatalf("first run outcome = %v", res.Outcome)
	}
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeCached {
		t.Fatalf("second run outcome = %v", res.Outcome)
	}
	if finder.calls != 1 {
		t.Errorf("collaborator called %d times, want 1", finder.calls)
	}

	entry := store.LinkMap(store.Load[types.LinkEntry](path))[testSong.Key()]
	if entry.YouTubeID != "oRdxUFDoQe0" {
		t.Errorf("best candidate not recorded: %+v", entry)
	}
	if entry.YouTubeURL != types.WatchURL("oRdxUFDoQe0") {
		t.Errorf("watch URL not derived: %q", entry.YouTubeURL)
	}
	if len(entry.Candidates) != 2 {
		t.Errorf("candidates not kept: %+v", entry.Candidates)
	}
}

func TestLinkStageEmptyDiscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	stage := &LinkStage{Finder: &fakeFinder{}, Path: path, Order: testOrder()}

	res := stage.Process(context.Background(), testJob())
	if res.Outcome != pipeline.OutcomeEmpty {
		t.Errorf("outcome = %v, want empty", res.Outcome)
	}
	if entries := store.Load[types.LinkEntry](path); len(entries) != 0 {
		t.Errorf("store should be unchanged: %+v", entries)
	}
}

// --- comment stage ---

func seedLinks(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "links.json")
	err := store.AtomicWrite(path, []types.LinkEntry{{
		Name:      testSong.Name,
		Artist:    testSong.Artist,
		YouTubeID: "oRdxUFDoQe0",
	}})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func makeComments(n int) []types.Comment {
	batch := make([]types.Comment, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, types.Comment{
			CommentID: fmt.Sprintf("c%d", i),
			Author:    "viewer",
			Text:      fmt.Sprintf("comment %d", i),
			Position:  i + 1,
		})
	}
	return batch
}

func TestCommentStageSkipsWithoutLink(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{batch: makeComments(3)}
	stage := &CommentStage{
		Fetcher:  fetcher,
		Path:     filepath.Join(dir, "comments.json"),
		LinkPath: filepath.Join(dir, "links.json"), // absent
		Limit:    5,
	}

	res := stage.Process(context.Background(), testJob())
	if res.Outcome != pipeline.OutcomeSkipped || res.Missing != "youtube_id" {
		t.Errorf("result = %+v, want skipped on missing video id", res)
	}
	if fetcher.calls != 0 {
		t.Error("collaborator called despite missing prerequisite")
	}
}

func TestCommentStageTopUpBelowLimit(t *testing.T) {
	dir := t.TempDir()
	linkPath := seedLinks(t, dir)
	commentPath := filepath.Join(dir, "comments.json")

	// First pass stores only 2 comments.
	fetcher := &fakeFetcher{batch: makeComments(2)}
	stage := &CommentStage{Fetcher: fetcher, Path: commentPath, LinkPath: linkPath, Limit: 5}
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeFetched {
		t.Fatalf("first run outcome = %v", res.Outcome)
	}

	// Still below the requested limit: the stage refetches and replaces.
	fetcher.batch = makeComments(5)
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeFetched {
		t.Fatalf("top-up run outcome = %v", res.Outcome)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2", fetcher.calls)
	}

	rows := store.Load[types.Comment](commentPath)
	if len(rows) != 5 {
		t.Errorf("replace-by-key should leave exactly the fresh batch, got %d rows", len(rows))
	}

	// At the limit now: no further call.
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeCached {
		t.Fatalf("saturated run outcome = %v", res.Outcome)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher called again when store was saturated")
	}
}

func TestCommentStageStampsJobIdentity(t *testing.T) {
	dir := t.TempDir()
	stage := &CommentStage{
		Fetcher:  &fakeFetcher{batch: makeComments(1)},
		Path:     filepath.Join(dir, "comments.json"),
		LinkPath: seedLinks(t, dir),
		Limit:    5,
	}
	stage.Process(context.Background(), testJob())

	rows := store.Load[types.Comment](stage.Path)
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	row := rows[0]
	if row.TrackKey != testSong.Key() || row.YouTubeID != "oRdxUFDoQe0" || row.TrackName != "Beat It" {
		t.Errorf("job identity not stamped on fresh rows: %+v", row)
	}
}

func TestCommentStageClampsLimit(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{batch: makeComments(40)}
	stage := &CommentStage{
		Fetcher:  fetcher,
		Path:     filepath.Join(dir, "comments.json"),
		LinkPath: seedLinks(t, dir),
		Limit:    40,
	}
	stage.Process(context.Background(), testJob())

	rows := store.Load[types.Comment](stage.Path)
	if len(rows) != types.MaxCommentLimit {
		t.Errorf("stored %d comments, want hard cap %d", len(rows), types.MaxCommentLimit)
	}
}

// --- award stage ---

func TestAwardStageIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awards.json")
	scraper := &fakeScraper{awards: []string{"Grammy Award for Record of the Year", "Billboard Hot 100 number one"}}
	stage := &AwardStage{Scraper: scraper, Path: path, Order: testOrder()}

	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeFetched {
		t.Fatalf("first run outcome = %v", res.Outcome)
	}
	if res := stage.Process(context.Background(), testJob()); res.Outcome != pipeline.OutcomeCached {
		t.Fatalf("second run outcome = %v", res.Outcome)
	}
	if scraper.calls != 1 {
		t.Errorf("collaborator called %d times, want 1", scraper.calls)
	}

	awards := store.AwardMap(store.Load[types.AwardEntry](path))[testSong.Key()]
	if len(awards) != 2 {
		t.Errorf("awards = %v", awards)
	}
}

func TestAwardStageSkipsWithoutLink(t *testing.T) {
	scraper := &fakeScraper{awards: []string{"whatever"}}
	stage := &AwardStage{Scraper: scraper, Path: filepath.Join(t.TempDir(), "awards.json"), Order: testOrder()}

	song := testSong
	song.Link = ""
	res := stage.Process(context.Background(), pipeline.NewJob(0, song))

	if res.Outcome != pipeline.OutcomeSkipped || res.Missing != "wikipedia_link" {
		t.Errorf("result = %+v, want skipped", res)
	}
	if scraper.calls != 0 {
		t.Error("collaborator called despite missing link")
	}
}
