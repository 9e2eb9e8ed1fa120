// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns a resolved location and date range into a validated
// SearchContext. The size/neighborhood judgment is delegated to an external
// classification capability; this package owns strict post-validation and
// the deterministic fallback, so classification stays advisory and can
// never fail a request.
package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// Request is the input handed to the classification capability.
type Request struct {
	Location  string
	Latitude  float64
	Longitude float64
	StartDate time.Time
	EndDate   time.Time

	// Strict asks the capability for a stricter prompt/schema after a
	// previous response failed validation.
	Strict bool
}

// Capability is the external classification collaborator. It may be
// unavailable or slow; the classifier treats it as best-effort.
type Capability interface {
	Classify(ctx context.Context, req Request) (types.SearchContext, error)
}

// Classifier wraps a Capability with validation, bounded retries, and the
// deterministic fallback context.
type Classifier struct {
	capability Capability
	maxRetries int
	logger     *log.Logger
}

// New returns a Classifier. capability may be nil, in which case every run
// uses the fallback context.
func New(capability Capability, cfg types.ClassifierConfig, logger *log.Logger) *Classifier {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &Classifier{capability: capability, maxRetries: retries, logger: logger}
}

// Context produces the SearchContext for a request. fellBack reports whether
// the deterministic default was used instead of a validated classification.
func (c *Classifier) Context(ctx context.Context, req Request) (sc types.SearchContext, fellBack bool) {
	if c.capability == nil {
		return DefaultContext(req.Location, req.Latitude, req.Longitude), true
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req.Strict = attempt > 0
		got, err := c.capability.Classify(ctx, req)
		if err != nil {
			c.logger.Warn("classification call failed", "attempt", attempt+1, "err", err)
			continue
		}
		if err := Validate(got); err != nil {
			c.logger.Warn("classification rejected", "attempt", attempt+1, "err", err)
			continue
		}
		if got.LocationNormalized == "" {
			got.LocationNormalized = req.Location
		}
		// The resolver's coordinates are authoritative; the capability only
		// fills them when the resolver had none.
		if req.Latitude != 0 || req.Longitude != 0 {
			got.Latitude = req.Latitude
			got.Longitude = req.Longitude
		}
		return got, false
	}

	c.logger.Warn("classification degraded, using fallback context", "location", req.Location)
	return DefaultContext(req.Location, req.Latitude, req.Longitude), true
}

// Validate enforces the SearchContext invariants: a known city type,
// neighborhood counts matching the city type, positive radii for all four
// categories, and a concert radius at least as wide as every other category
// (people travel farther for shows).
func Validate(sc types.SearchContext) error {
	if !sc.CityType.Valid() {
		return fmt.Errorf("unknown city_type %q", sc.CityType)
	}

	n := len(sc.Neighborhoods)
	if sc.CityType == types.CityLargeMetro {
		if n < 3 || n > 6 {
			return fmt.Errorf("large_metro requires 3-6 neighborhoods, got %d", n)
		}
	} else if n != 0 {
		return fmt.Errorf("%s must not declare neighborhoods, got %d", sc.CityType, n)
	}
	if sc.NeedsNeighborhoodStrategy != (n > 0) {
		return fmt.Errorf("needs_neighborhood_strategy=%v inconsistent with %d neighborhoods",
			sc.NeedsNeighborhoodStrategy, n)
	}

	for _, cat := range types.Categories {
		radius, ok := sc.SearchParameters[cat]
		if !ok {
			return fmt.Errorf("missing radius for %s", cat)
		}
		if radius <= 0 {
			return fmt.Errorf("radius for %s must be positive, got %g", cat, radius)
		}
		strat, ok := sc.Strategy[cat]
		if !ok {
			return fmt.Errorf("missing strategy for %s", cat)
		}
		if strat != types.StrategyCityWide && strat != types.StrategyNeighborhood {
			return fmt.Errorf("unknown strategy %q for %s", strat, cat)
		}
		if strat == types.StrategyNeighborhood && n == 0 {
			return fmt.Errorf("%s is neighborhood_targeted without neighborhoods", cat)
		}
	}

	concertRadius := sc.SearchParameters[types.CategoryConcerts]
	for _, cat := range []types.Category{types.CategoryDining, types.CategoryEvents, types.CategoryLocations} {
		if sc.SearchParameters[cat] > concertRadius {
			return fmt.Errorf("%s radius %g exceeds concert radius %g",
				cat, sc.SearchParameters[cat], concertRadius)
		}
	}

	return nil
}

// DefaultContext is the deterministic fallback: a medium city searched
// city-wide with fixed moderate radii.
func DefaultContext(location string, lat, lon float64) types.SearchContext {
	return types.SearchContext{
		LocationNormalized:        location,
		Latitude:                  lat,
		Longitude:                 lon,
		CityType:                  types.CityMedium,
		PopulationTier:            2,
		NeedsNeighborhoodStrategy: false,
		SearchParameters: map[types.Category]float64{
			types.CategoryConcerts:  20,
			types.CategoryDining:    5,
			types.CategoryEvents:    12,
			types.CategoryLocations: 5,
		},
		Strategy: map[types.Category]types.StrategyKind{
			types.CategoryConcerts:  types.StrategyCityWide,
			types.CategoryDining:    types.StrategyCityWide,
			types.CategoryEvents:    types.StrategyCityWide,
			types.CategoryLocations: types.StrategyCityWide,
		},
	}
}
