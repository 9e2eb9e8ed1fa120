// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceSpec declares one registered source adapter: which category it
// serves, its rate limits, and how its results are interpreted during
// synthesis. Specs are loaded from the source registry (sources.yaml) and
// consumed by the planner, the execution engine, and synthesis.
type SourceSpec struct {
	// ID is the adapter identifier (e.g. "ticketmaster").
	ID string `json:"id" yaml:"id"`

	// Category is the recommendation category this spec serves. A provider
	// serving several categories registers one spec per category.
	Category Category `json:"category" yaml:"category"`

	// Enabled toggles the source without removing its spec.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DayGranular marks time-sensitive listing sources whose queries must
	// be split per individual date within the category window.
	DayGranular bool `json:"day_granular,omitempty" yaml:"day_granular,omitempty"`

	// RequestsPerSecond and Burst parameterize the admission token bucket.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`

	// Concurrency caps tasks in flight against this source.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Timeout overrides the engine task timeout for this source; zero keeps
	// the engine default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// RatingScaleMax is the top of the source's native rating scale
	// (5 for star ratings, 10 for score sites); 0 means the source does
	// not rate results.
	RatingScaleMax float64 `json:"rating_scale_max,omitempty" yaml:"rating_scale_max,omitempty"`

	// MergePriority orders field-level conflict resolution; lower wins.
	// Authoritative ticketing data beats general web snippets.
	MergePriority int `json:"merge_priority" yaml:"merge_priority"`
}
