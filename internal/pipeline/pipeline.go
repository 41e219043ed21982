// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline moves song jobs through the enrichment stages. One
// long-lived worker goroutine per stage, connected by channels, so stage
// N+1 of song i overlaps stage N of song i+1 while each rate-limited
// collaborator still sees at most one call at a time.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Job is one song's passage through the stages during a single run. Jobs
// are created once per run and flow through the pipeline exactly once.
type Job struct {
	// Index is the song's position in the ordered base dataset.
	Index int

	// Song is the base record being enriched.
	Song types.Song

	// TrackKey is the precomputed join key for the song.
	TrackKey string
}

// NewJob builds a job for the song at the given base-dataset index.
func NewJob(index int, song types.Song) Job {
	return Job{Index: index, Song: song, TrackKey: song.Key()}
}

// Label renders the job for log lines.
func (j Job) Label() string {
	return j.Song.Label()
}

// Outcome tags what a stage did with a job. Distinguishing a skipped
// prerequisite from a failed attempt keeps re-run behavior and test
// assertions precise.
type Outcome string

const (
	// OutcomeCached means the store already held a non-empty result; no
	// external call was made.
	OutcomeCached Outcome = "cached"

	// OutcomeSkipped means a prerequisite field was absent. Not an error.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFetched means the collaborator produced a result that was
	// merged into the store.
	OutcomeFetched Outcome = "fetched"

	// OutcomeEmpty means the collaborator returned nothing; the store is
	// unchanged and the job will retry on a future run.
	OutcomeEmpty Outcome = "empty"

	// OutcomeFailed means the collaborator call errored. Logged, never
	// fatal; the job continues partially enriched.
	OutcomeFailed Outcome = "failed"
)

// Result is what a stage handler reports for one job.
type Result struct {
	Outcome Outcome

	// Missing names the absent prerequisite when Outcome is OutcomeSkipped.
	Missing string

	// Err carries the collaborator error when Outcome is OutcomeFailed.
	Err error
}

// Cached, Skipped, Fetched, Empty, and Failed build tagged results.
func Cached() Result               { return Result{Outcome: OutcomeCached} }
func Skipped(missing string) Result { return Result{Outcome: OutcomeSkipped, Missing: missing} }
func Fetched() Result              { return Result{Outcome: OutcomeFetched} }
func Empty() Result                { return Result{Outcome: OutcomeEmpty} }
func Failed(err error) Result      { return Result{Outcome: OutcomeFailed, Err: err} }

// Stage is one idempotent unit of enrichment work.
type Stage interface {
	Name() string
	Process(ctx context.Context, job Job) Result
}

// Stats aggregates outcomes across all stages of a run.
type Stats struct {
	// Completed counts jobs that exited the final stage.
	Completed int

	Cached  int
	Skipped int
	Fetched int
	Empty   int
	Failed  int
}

func (s *Stats) add(o Outcome) {
	switch o {
	case OutcomeCached:
		s.Cached++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFetched:
		s.Fetched++
	case OutcomeEmpty:
		s.Empty++
	case OutcomeFailed:
		s.Failed++
	}
}

func (s *Stats) merge(other Stats) {
	s.Completed += other.Completed
	s.Cached += other.Cached
	s.Skipped += other.Skipped
	s.Fetched += other.Fetched
	s.Empty += other.Empty
	s.Failed += other.Failed
}

// Run pushes jobs through the stages and blocks until every worker has
// drained. Jobs are enqueued FIFO into the first stage; closing that
// channel after the last job is the shutdown sentinel, and each worker
// propagates it by closing its own output channel once its input drains.
// A stage failure is logged with the job's identity and the job still
// advances: failures degrade a job to partially enriched, they never
// remove it from the pipeline.
func Run(ctx context.Context, stages []Stage, jobs []Job, w io.Writer) Stats {
	if len(stages) == 0 {
		return Stats{}
	}

	// Stage workers log concurrently; serialize writes so lines do not
	// interleave.
	w = &syncWriter{w: w}

	first := make(chan Job)
	go func() {
		defer close(first)
		for _, job := range jobs {
			first <- job
		}
	}()

	var (
		wg         sync.WaitGroup
		stageStats = make([]Stats, len(stages))
	)

	in := first
	for i, stage := range stages {
		var out chan Job
		if i < len(stages)-1 {
			out = make(chan Job)
		}
		wg.Add(1)
		go func(in, out chan Job, stage Stage, stats *Stats, final bool) {
			defer wg.Done()
			if out != nil {
				defer close(out)
			}
			for job := range in {
				res := stage.Process(ctx, job)
				stats.add(res.Outcome)
				if res.Outcome == OutcomeFailed {
					fmt.Fprintf(w, "[%s] error processing %s: %v\n", stage.Name(), job.Label(), res.Err)
				}
				if final {
					stats.Completed++
					fmt.Fprintf(w, "processed %d/%d: %s\n", stats.Completed, len(jobs), job.Label())
				}
				if out != nil {
					out <- job
				}
			}
		}(in, out, stage, &stageStats[i], i == len(stages)-1)
		in = out
	}

	wg.Wait()

	var total Stats
	for _, s := range stageStats {
		total.merge(s)
	}
	return total
}

// syncWriter guards a shared progress writer against interleaved writes
// from concurrent stage workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}
