// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceStats tallies task outcomes for one source across a run.
type SourceStats struct {
	SourceID  string `json:"source_id" yaml:"source_id"`
	Succeeded int    `json:"succeeded" yaml:"succeeded"`
	Failed    int    `json:"failed" yaml:"failed"`

	// ByStatus breaks the failures down by terminal status.
	ByStatus map[TaskStatus]int `json:"by_status" yaml:"by_status"`
}

// Degraded reports whether every task for this source failed.
func (s SourceStats) Degraded() bool {
	return s.Succeeded == 0 && s.Failed > 0
}

// RunMetadata describes how a run went: per-category counts, per-source
// success/failure, total elapsed time, and whether coverage was degraded.
type RunMetadata struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id" yaml:"run_id"`

	// ItemCounts is the number of canonical items per category.
	ItemCounts map[Category]int `json:"item_counts" yaml:"item_counts"`

	// Sources holds per-source outcome tallies, sorted by source ID.
	Sources []SourceStats `json:"sources" yaml:"sources"`

	// DegradedSources lists sources for which every task failed.
	DegradedSources []string `json:"degraded_sources,omitempty" yaml:"degraded_sources,omitempty"`

	// TasksPlanned and TasksSucceeded count fetch tasks for the run.
	TasksPlanned   int `json:"tasks_planned" yaml:"tasks_planned"`
	TasksSucceeded int `json:"tasks_succeeded" yaml:"tasks_succeeded"`

	// ClassifierFellBack is true when the validated classification failed
	// and the deterministic default context was used.
	ClassifierFellBack bool `json:"classifier_fell_back,omitempty" yaml:"classifier_fell_back,omitempty"`

	// Degraded is true when any source produced no successful task, the
	// classifier fell back, or the run deadline cut fetching short.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Elapsed is the total wall time of the run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// RunResult is the single structured response of a search run. Its shape is
// deterministic: every category appears in ItemsByCategory, possibly with an
// empty list. An entirely empty run is a valid, degraded result.
type RunResult struct {
	Request SearchRequest `json:"request" yaml:"request"`

	ItemsByCategory map[Category][]CanonicalItem `json:"items_by_category" yaml:"items_by_category"`

	Metadata RunMetadata `json:"metadata" yaml:"metadata"`
}
