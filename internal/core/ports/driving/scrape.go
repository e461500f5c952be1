package driving

import (
	"context"
	"time"
)

// RunState is a scrape run's position in its state machine.
type RunState int

const (
	// StateIdle means the run is not executing.
	StateIdle RunState = iota

	// StateScrolling means the run is loading more content in its tab.
	StateScrolling

	// StateExtracting means the run is parsing the current snapshot.
	StateExtracting

	// StatePersisting means the run is ingesting extracted candidates.
	StatePersisting

	// StateFailed means the run aborted before completing an iteration.
	StateFailed
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScrolling:
		return "scrolling"
	case StateExtracting:
		return "extracting"
	case StatePersisting:
		return "persisting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report summarises one scrape run for a (source, location) pair.
type Report struct {
	Source   string
	Location string

	// Iterations is how many scroll/extract/persist cycles ran.
	Iterations int

	// Created, Updated, Skipped and Failed count candidate outcomes.
	Created int
	Updated int
	Skipped int
	Failed  int

	// FinalState is StateIdle on orderly termination, StateFailed when
	// the run aborted.
	FinalState RunState

	// Err carries the terminating error for failed runs.
	Err error

	// Duration is the run's wall-clock time.
	Duration time.Duration
}

// ScrapeOrchestrator drives scroll/extract/persist runs against
// browser tabs.
type ScrapeOrchestrator interface {
	// Run executes one scrape run for a (source, location) pair against
	// the given browser tab. The run resumes from the persisted cursor.
	Run(ctx context.Context, source, location, tabID string) Report

	// RunAll discovers scrapeable open tabs and runs them concurrently,
	// one run per (source, location). Failures in one run never abort
	// the others.
	RunAll(ctx context.Context) []Report
}
