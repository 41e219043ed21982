// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset builds a queryable SQLite index over the assembled song
// dataset. Song rows carry the full record as JSON; name, artist, and
// lyrics are mirrored into an FTS5 table kept in sync by triggers.
package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/chart-engine/pkg/types"
)

const dbFile = "chart.db"

// Index manages the dataset SQLite database.
type Index struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the dataset database at indexDir/chart.db,
// creating the schema if it does not exist.
func Open(indexDir string, cfg types.DatasetConfig) (*Index, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	idx := &Index{db: db, maxResults: maxResults}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			track_key TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			artist TEXT NOT NULL,
			year INTEGER,
			rank INTEGER,
			spotify_track_id TEXT,
			youtube_id TEXT,
			lyrics TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist)`,
		`CREATE INDEX IF NOT EXISTS idx_songs_year ON songs(year)`,
		`CREATE TABLE IF NOT EXISTS comments (
			comment_id TEXT PRIMARY KEY,
			track_key TEXT NOT NULL REFERENCES songs(track_key),
			author TEXT,
			text TEXT,
			like_count INTEGER,
			published_at TEXT,
			position INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_track_key ON comments(track_key)`,
	}

	for _, stmt := range statements {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := idx.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='songs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE songs_fts USING fts5(name, artist, lyrics, content=songs, content_rowid=rowid)`,
			`CREATE TRIGGER songs_ai AFTER INSERT ON songs BEGIN
				INSERT INTO songs_fts(rowid, name, artist, lyrics) VALUES (new.rowid, new.name, new.artist, new.lyrics);
			END`,
			`CREATE TRIGGER songs_ad AFTER DELETE ON songs BEGIN
				INSERT INTO songs_fts(songs_fts, rowid, name, artist, lyrics) VALUES('delete', old.rowid, old.name, old.artist, old.lyrics);
			END`,
			`CREATE TRIGGER songs_au AFTER UPDATE ON songs BEGIN
				INSERT INTO songs_fts(songs_fts, rowid, name, artist, lyrics) VALUES('delete', old.rowid, old.name, old.artist, old.lyrics);
				INSERT INTO songs_fts(rowid, name, artist, lyrics) VALUES (new.rowid, new.name, new.artist, new.lyrics);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := idx.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a dataset indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest loads assembled records into the database. Records already
// indexed with identical content are skipped, changed ones replaced.
func (idx *Index) Ingest(ctx context.Context, records []types.Record, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, record := range records {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		key := record.Key()
		if key == types.TrackKeySeparator {
			fmt.Fprintf(w, "failed  %s - %s: empty track key\n", record.Name, record.Artist)
			summary.Failed++
			continue
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		var stored string
		err = idx.db.QueryRowContext(ctx,
			`SELECT record FROM songs WHERE track_key = ?`, key,
		).Scan(&stored)

		if err == nil && stored == string(encoded) {
			fmt.Fprintf(w, "skipped %s\n", key)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		if err := idx.ingestRecord(ctx, key, record, string(encoded), isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d comments)\n", key, len(record.YouTubeComments))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d comments)\n", key, len(record.YouTubeComments))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (idx *Index) ingestRecord(ctx context.Context, key string, record types.Record, encoded string, isUpdate bool) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE track_key = ?`, key); err != nil {
			return fmt.Errorf("deleting old comments: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO songs (track_key, name, artist, year, rank, spotify_track_id, youtube_id, lyrics, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(track_key) DO UPDATE SET
			name=excluded.name, artist=excluded.artist, year=excluded.year,
			rank=excluded.rank, spotify_track_id=excluded.spotify_track_id,
			youtube_id=excluded.youtube_id, lyrics=excluded.lyrics, record=excluded.record`,
		key, record.Name, record.Artist, record.Year, record.Rank,
		record.SpotifyTrackID, record.YouTubeID, record.Lyrics.Text, encoded,
	)
	if err != nil {
		return fmt.Errorf("upserting song: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO comments (comment_id, track_key, author, text, like_count, published_at, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing comment insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range record.YouTubeComments {
		// Older store files may hold comments without an id. Synthesize one
		// from the track and position so they do not collapse into a single
		// primary-key row.
		id := c.CommentID
		if id == "" {
			id = fmt.Sprintf("%s#%d", key, c.Position)
		}
		if _, err := stmt.ExecContext(ctx,
			id, key, c.Author, c.Text, c.LikeCount, c.PublishedAt, c.Position,
		); err != nil {
			return fmt.Errorf("inserting comment %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// QueryOptions holds parameters for dataset queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over name, artist, and
	// lyrics.
	Query string

	// Artist filters by exact artist name, case-insensitive.
	Artist string

	// Year filters by chart year. Zero means no filter.
	Year int

	// MaxResults limits result count. Zero uses the index default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Artist == "" && q.Year == 0
}

// QueryResult is a matched record with its track key.
type QueryResult struct {
	TrackKey string `json:"track_key" yaml:"track_key"`
	types.Record
}

// Query searches the dataset with optional full-text search and
// structured filters. Full-text matches rank by relevance; structured
// queries sort by year then rank.
func (idx *Index) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = idx.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT s.track_key, s.record, songs_fts.rank
			FROM songs_fts
			JOIN songs s ON s.rowid = songs_fts.rowid
			WHERE songs_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT s.track_key, s.record, 0 AS rank
			FROM songs s
			WHERE 1=1`)
	}

	if opts.Artist != "" {
		qb.WriteString(` AND s.artist = ? COLLATE NOCASE`)
		args = append(args, opts.Artist)
	}

	if opts.Year != 0 {
		qb.WriteString(` AND s.year = ?`)
		args = append(args, opts.Year)
	}

	if useFTS {
		qb.WriteString(` ORDER BY songs_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY s.year, s.rank`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := idx.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr      QueryResult
			encoded string
			rank    float64
		)
		if err := rows.Scan(&qr.TrackKey, &encoded, &rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &qr.Record); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", qr.TrackKey, err)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Comments returns a song's indexed comments in position order.
func (idx *Index) Comments(ctx context.Context, trackKey string) ([]types.Comment, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT comment_id, author, text, like_count, published_at, position
		 FROM comments WHERE track_key = ? ORDER BY position`, trackKey)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var out []types.Comment
	for rows.Next() {
		c := types.Comment{TrackKey: trackKey}
		if err := rows.Scan(&c.CommentID, &c.Author, &c.Text, &c.LikeCount, &c.PublishedAt, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
