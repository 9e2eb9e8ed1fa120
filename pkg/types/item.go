// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CanonicalItem is the deduplicated, merged representation of one real-world
// entity across sources. Immutable once emitted by synthesis; the unit of
// the final response.
type CanonicalItem struct {
	// IdentityKey is the derived dedup key: name+venue+date for time-bound
	// categories, name+proximity bucket for the rest.
	IdentityKey string `json:"identity_key" yaml:"identity_key"`

	Category Category `json:"category" yaml:"category"`

	Name         string    `json:"name" yaml:"name"`
	Venue        string    `json:"venue,omitempty" yaml:"venue,omitempty"`
	Address      string    `json:"address,omitempty" yaml:"address,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
	Date         time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	TimeOfDay    string    `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	URL          string    `json:"url,omitempty" yaml:"url,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Genre        string    `json:"genre,omitempty" yaml:"genre,omitempty"`

	// PriceMin is the lowest price bound seen across sources; PriceMax
	// records the top of the range when sources disagreed.
	PriceMin float64 `json:"price_min,omitempty" yaml:"price_min,omitempty"`
	PriceMax float64 `json:"price_max,omitempty" yaml:"price_max,omitempty"`

	// Score is the normalized 0-1 rating. Unrated items carry the neutral
	// score so a missing metric does not penalize a result.
	Score float64 `json:"score" yaml:"score"`

	// ContributingSources lists every source that reported this entity,
	// sorted, no duplicates.
	ContributingSources []string `json:"contributing_sources" yaml:"contributing_sources"`
}
