// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the weekender pipeline:
// the search request and context, planned fetch tasks and their outcomes,
// raw and canonical results, and run metadata.
package types

import "time"

// Category identifies one of the four recommendation categories.
type Category string

const (
	CategoryConcerts  Category = "concerts"
	CategoryDining    Category = "dining"
	CategoryEvents    Category = "events"
	CategoryLocations Category = "locations"
)

// Categories lists all categories in canonical order.
var Categories = []Category{CategoryConcerts, CategoryDining, CategoryEvents, CategoryLocations}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryConcerts, CategoryDining, CategoryEvents, CategoryLocations:
		return true
	}
	return false
}

// TimeBound reports whether results in this category are tied to a specific
// calendar date. Concerts and events dedup on date; dining and locations
// dedup on geographic proximity instead.
func (c Category) TimeBound() bool {
	return c == CategoryConcerts || c == CategoryEvents
}

// SearchRequest is the immutable user query: a free-text location and a
// calendar date range. Created once per run.
type SearchRequest struct {
	// Location is the user's free-text location (e.g. "Austin, Texas").
	Location string `json:"location" yaml:"location"`

	// StartDate is the first calendar day of the requested window.
	StartDate time.Time `json:"start_date" yaml:"start_date"`

	// EndDate is the last calendar day of the requested window.
	EndDate time.Time `json:"end_date" yaml:"end_date"`
}

// DateWindow is an inclusive range of calendar days. Times are stored at
// midnight UTC; only the date component is meaningful.
type DateWindow struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Days returns each day in the window in order.
func (w DateWindow) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether day falls inside the window (date granularity).
func (w DateWindow) Contains(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(w.Start) && !d.After(w.End)
}
