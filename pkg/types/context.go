// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CityType classifies the size of the search area.
type CityType string

const (
	CityLargeMetro CityType = "large_metro"
	CityMedium     CityType = "medium_city"
	CitySmallTown  CityType = "small_town"
)

// Valid reports whether t is one of the known city types.
func (t CityType) Valid() bool {
	return t == CityLargeMetro || t == CityMedium || t == CitySmallTown
}

// StrategyKind selects how a category is searched geographically.
type StrategyKind string

const (
	// StrategyCityWide searches the whole city from its center point.
	StrategyCityWide StrategyKind = "city_wide"

	// StrategyNeighborhood searches each named neighborhood separately.
	StrategyNeighborhood StrategyKind = "neighborhood_targeted"
)

// SearchContext is the classifier's geographic search plan for one request.
// Produced once per run, immutable afterward, consumed by the planner.
type SearchContext struct {
	// LocationNormalized is the classifier's understanding of the location
	// (e.g. "Austin, Texas, USA").
	LocationNormalized string `json:"location_normalized" yaml:"location_normalized"`

	// Latitude and Longitude are the search center point.
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`

	// CityType classifies the area size.
	CityType CityType `json:"city_type" yaml:"city_type"`

	// PopulationTier is a coarse metro-population bucket (1 = largest).
	PopulationTier int `json:"population_tier" yaml:"population_tier"`

	// NeedsNeighborhoodStrategy is true iff Neighborhoods is non-empty.
	NeedsNeighborhoodStrategy bool `json:"needs_neighborhood_strategy" yaml:"needs_neighborhood_strategy"`

	// Neighborhoods lists target neighborhoods for large metros, in the
	// classifier's preference order. Empty for medium cities and small towns.
	Neighborhoods []string `json:"neighborhoods,omitempty" yaml:"neighborhoods,omitempty"`

	// SearchParameters maps each category to its search radius in miles.
	SearchParameters map[Category]float64 `json:"search_parameters" yaml:"search_parameters"`

	// Strategy maps each category to its geographic search strategy.
	Strategy map[Category]StrategyKind `json:"strategy" yaml:"strategy"`
}

// Radius returns the search radius for a category, or 0 if not declared.
func (c SearchContext) Radius(cat Category) float64 {
	return c.SearchParameters[cat]
}
