package dataset

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// --- test helpers ---

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir(), types.DatasetConfig{MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testRecords() []types.Record {
	return []types.Record{
		{
			Name:           "Beat It",
			Artist:         "Michael Jackson",
			Year:           1983,
			Rank:           1,
			SpotifyTrackID: "track-beat-it",
			YouTubeID:      "vid-beat-it",
			Lyrics:         types.Lyrics{Text: "they told him don't you ever come around here"},
			YouTubeComments: []types.Comment{
				{CommentID: "c1", Author: "alice", Text: "classic", LikeCount: 12, Position: 1},
				{CommentID: "c2", Author: "bob", Text: "that riff", LikeCount: 3, Position: 2},
			},
			Awards: []string{"Grammy Award for Record of the Year"},
		},
		{
			Name:   "Billie Jean",
			Artist: "Michael Jackson",
			Year:   1983,
			Rank:   2,
			Lyrics: types.Lyrics{Text: "billie jean is not my lover"},
			Awards: []string{},
		},
		{
			Name:   "Africa",
			Artist: "Toto",
			Year:   1982,
			Rank:   5,
			Lyrics: types.Lyrics{Text: "i bless the rains down in africa"},
			Awards: []string{},
		},
	}
}

func ingest(t *testing.T, idx *Index, records []types.Record) IngestSummary {
	t.Helper()
	summary, err := idx.Ingest(context.Background(), records, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- tests ---

func TestIngestCountsNewRecords(t *testing.T) {
	idx := testIndex(t)

	summary := ingest(t, idx, testRecords())
	if summary.Indexed != 3 || summary.Updated != 0 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 3 indexed", summary)
	}
	if summary.Total() != 3 {
		t.Errorf("Total() = %d, want 3", summary.Total())
	}
}

func TestIngestSkipsUnchangedAndUpdatesChanged(t *testing.T) {
	idx := testIndex(t)
	records := testRecords()
	ingest(t, idx, records)

	// Unchanged re-run is all skips.
	summary := ingest(t, idx, records)
	if summary.Skipped != 3 || summary.Indexed != 0 || summary.Updated != 0 {
		t.Errorf("re-run summary = %+v, want 3 skipped", summary)
	}

	// Changing one record turns its row into an update.
	records[0].Popularity = 90
	summary = ingest(t, idx, records)
	if summary.Updated != 1 || summary.Skipped != 2 {
		t.Errorf("changed summary = %+v, want 1 updated, 2 skipped", summary)
	}
}

func TestIngestRejectsEmptyTrackKey(t *testing.T) {
	idx := testIndex(t)

	summary := ingest(t, idx, []types.Record{{Name: "  ", Artist: ""}})
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestIngestWritesProgress(t *testing.T) {
	idx := testIndex(t)

	var buf strings.Builder
	if _, err := idx.Ingest(context.Background(), testRecords()[:1], &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "indexing beat it|michael jackson (2 comments)") {
		t.Errorf("progress output missing indexing line:\n%s", out)
	}
	if !strings.Contains(out, "indexed: 1, updated: 0, skipped: 0, failed: 0") {
		t.Errorf("progress output missing summary line:\n%s", out)
	}
}

func TestQueryFullText(t *testing.T) {
	idx := testIndex(t)
	ingest(t, idx, testRecords())

	results, err := idx.Query(context.Background(), QueryOptions{Query: "rains"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Name != "Africa" {
		t.Errorf("result = %s, want Africa", results[0].Name)
	}
	if results[0].TrackKey != types.TrackKey("Africa", "Toto") {
		t.Errorf("track key = %s", results[0].TrackKey)
	}
}

func TestQueryFullTextSeesUpdates(t *testing.T) {
	idx := testIndex(t)
	records := testRecords()
	ingest(t, idx, records)

	records[2].Lyrics.Text = "completely rewritten words"
	ingest(t, idx, records)

	results, err := idx.Query(context.Background(), QueryOptions{Query: "rains"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("stale FTS row still matches: %v", results)
	}

	results, err = idx.Query(context.Background(), QueryOptions{Query: "rewritten"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results for new lyrics, want 1", len(results))
	}
}

func TestQueryStructuredFilters(t *testing.T) {
	idx := testIndex(t)
	ingest(t, idx, testRecords())

	results, err := idx.Query(context.Background(), QueryOptions{Artist: "michael jackson"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	results, err = idx.Query(context.Background(), QueryOptions{Year: 1982})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "Africa" {
		t.Errorf("year filter results = %v", results)
	}
}

func TestQueryStructuredOrdersByYearThenRank(t *testing.T) {
	idx := testIndex(t)
	ingest(t, idx, testRecords())

	results, err := idx.Query(context.Background(), QueryOptions{Artist: "Michael Jackson", Year: 1983})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Name != "Beat It" || results[1].Name != "Billie Jean" {
		t.Errorf("results out of order: %v", results)
	}
}

func TestQueryRespectsMaxResults(t *testing.T) {
	idx := testIndex(t)
	ingest(t, idx, testRecords())

	results, err := idx.Query(context.Background(), QueryOptions{MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestCommentsComeBackInPositionOrder(t *testing.T) {
	idx := testIndex(t)
	ingest(t, idx, testRecords())

	comments, err := idx.Comments(context.Background(), types.TrackKey("Beat It", "Michael Jackson"))
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].CommentID != "c1" || comments[1].CommentID != "c2" {
		t.Errorf("comments out of order: %v", comments)
	}
}

func TestIngestKeepsCommentsWithoutIDs(t *testing.T) {
	idx := testIndex(t)
	records := testRecords()
	records[0].YouTubeComments = []types.Comment{
		{Author: "alice", Text: "classic", Position: 1},
		{Author: "bob", Text: "that riff", Position: 2},
	}
	ingest(t, idx, records)

	comments, err := idx.Comments(context.Background(), records[0].Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].Author != "alice" || comments[1].Author != "bob" {
		t.Errorf("comments = %v", comments)
	}
}

func TestUpdateReplacesComments(t *testing.T) {
	idx := testIndex(t)
	records := testRecords()
	ingest(t, idx, records)

	records[0].YouTubeComments = []types.Comment{
		{CommentID: "c9", Author: "dana", Text: "new thread", Position: 1},
	}
	ingest(t, idx, records)

	comments, err := idx.Comments(context.Background(), records[0].Key())
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].CommentID != "c9" {
		t.Errorf("comments after update = %v", comments)
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Artist: "Toto"}).IsEmpty() {
		t.Error("artist filter should not be empty")
	}
}
