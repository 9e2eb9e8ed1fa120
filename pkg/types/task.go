// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ScopeKind distinguishes a city-wide search area from a single neighborhood.
type ScopeKind string

const (
	ScopeCityWide     ScopeKind = "city-wide"
	ScopeNeighborhood ScopeKind = "neighborhood"
)

// GeoScope is the geographic unit one fetch task covers: either the whole
// city from its center point, or one named neighborhood.
type GeoScope struct {
	Kind ScopeKind `json:"kind" yaml:"kind"`

	// Neighborhood is set when Kind is ScopeNeighborhood.
	Neighborhood string `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`

	// Latitude and Longitude are the search center.
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`

	// RadiusMiles is the search radius around the center.
	RadiusMiles float64 `json:"radius_miles" yaml:"radius_miles"`
}

// FetchTask is one independent source query: source x geographic scope x
// time slice. Created by the planner, owned by the execution engine for its
// lifetime, and discarded once it has produced a TaskOutcome. Task IDs are
// deterministic so re-planning the same context yields an identical set.
type FetchTask struct {
	// ID is unique within a run and a pure function of the task fields.
	ID string `json:"id" yaml:"id"`

	Category Category `json:"category" yaml:"category"`

	// SourceID names the adapter that will execute this task.
	SourceID string `json:"source_id" yaml:"source_id"`

	Scope GeoScope `json:"scope" yaml:"scope"`

	// Window is the category-specific date window, possibly narrowed to a
	// single day for day-granular sources.
	Window DateWindow `json:"window" yaml:"window"`

	// QueryParams carries source-specific hints (e.g. the normalized city
	// name for web searches).
	QueryParams map[string]string `json:"query_params,omitempty" yaml:"query_params,omitempty"`
}

// TaskStatus is the terminal state of one fetch task.
type TaskStatus string

const (
	StatusOK              TaskStatus = "ok"
	StatusTimeout         TaskStatus = "timeout"
	StatusRateLimited     TaskStatus = "rate_limited"
	StatusSourceError     TaskStatus = "source_error"
	StatusInvalidResponse TaskStatus = "invalid_response"
)

// TaskOutcome is the result of executing one FetchTask. The engine emits
// exactly one outcome per task; a run never silently drops a task.
type TaskOutcome struct {
	TaskID   string     `json:"task_id" yaml:"task_id"`
	SourceID string     `json:"source_id" yaml:"source_id"`
	Category Category   `json:"category" yaml:"category"`
	Status   TaskStatus `json:"status" yaml:"status"`

	// RawResults holds the fetched field bags; empty unless Status is ok.
	RawResults []RawResult `json:"raw_results,omitempty" yaml:"raw_results,omitempty"`

	// Latency is the wall time from admission to terminal state.
	Latency time.Duration `json:"latency" yaml:"latency"`

	// Retries counts retry attempts beyond the first try.
	Retries int `json:"retries" yaml:"retries"`

	// FromCache is true when a fresh cached response satisfied the task.
	FromCache bool `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`

	// Err carries the failure detail for non-ok statuses.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RawResult is one semi-structured record as returned by a source adapter.
// Never mutated after creation; synthesis reads it and re-emits merged
// fields as part of a CanonicalItem.
type RawResult struct {
	SourceID string   `json:"source_id" yaml:"source_id"`
	Category Category `json:"category" yaml:"category"`

	Name         string `json:"name" yaml:"name"`
	Venue        string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`

	// Date is the event date (zero for undated categories).
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// TimeOfDay is the local start time as reported by the source ("19:30").
	TimeOfDay string `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`

	// Latitude and Longitude locate the venue when the source provides them.
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`

	// Rating is on the source-native scale; Rated distinguishes a real
	// zero-or-missing rating from an unrated record.
	Rating float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Rated  bool    `json:"rated,omitempty" yaml:"rated,omitempty"`

	// RatingCount is the number of reviews behind Rating, if known.
	RatingCount int `json:"rating_count,omitempty" yaml:"rating_count,omitempty"`

	// PriceMin and PriceMax bound the ticket or meal price when known.
	PriceMin float64 `json:"price_min,omitempty" yaml:"price_min,omitempty"`
	PriceMax float64 `json:"price_max,omitempty" yaml:"price_max,omitempty"`

	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Genre       string `json:"genre,omitempty" yaml:"genre,omitempty"`
}
