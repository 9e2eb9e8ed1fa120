// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan expands a search context into the concrete fetch task list:
// one task per source x geographic scope x time slice. Planning is pure and
// deterministic, so re-planning the same context always yields the same
// task set in the same order.
package plan

import (
	"strings"

	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// Planner builds fetch tasks from a validated search context.
type Planner struct {
	registry *sources.Registry
}

// New returns a Planner over the given source registry.
func New(registry *sources.Registry) *Planner {
	return &Planner{registry: registry}
}

// Tasks expands the context into fetch tasks. windows maps each category to
// its date window (already adjusted per category by date resolution).
// Categories follow the canonical order, sources follow registry order,
// scopes follow the context's neighborhood order, and day-granular slices
// run chronologically.
func (p *Planner) Tasks(sc types.SearchContext, windows map[types.Category]types.DateWindow) []types.FetchTask {
	var tasks []types.FetchTask
	for _, cat := range types.Categories {
		window, ok := windows[cat]
		if !ok {
			continue
		}
		for _, spec := range p.registry.ForCategory(cat) {
			for _, scope := range scopesFor(sc, cat) {
				for _, slice := range slicesFor(spec, window) {
					tasks = append(tasks, types.FetchTask{
						ID:       taskID(cat, spec.ID, scope, slice),
						Category: cat,
						SourceID: spec.ID,
						Scope:    scope,
						Window:   slice,
						QueryParams: map[string]string{
							"city": sc.LocationNormalized,
						},
					})
				}
			}
		}
	}
	return tasks
}

// scopesFor returns the geographic scopes a category searches: the single
// city-wide circle, or one circle per neighborhood for neighborhood-targeted
// categories.
func scopesFor(sc types.SearchContext, cat types.Category) []types.GeoScope {
	radius := sc.SearchParameters[cat]
	if sc.Strategy[cat] != types.StrategyNeighborhood || len(sc.Neighborhoods) == 0 {
		return []types.GeoScope{{
			Kind:        types.ScopeCityWide,
			Latitude:    sc.Latitude,
			Longitude:   sc.Longitude,
			RadiusMiles: radius,
		}}
	}

	scopes := make([]types.GeoScope, 0, len(sc.Neighborhoods))
	for _, n := range sc.Neighborhoods {
		// Neighborhood centers are not geocoded individually; the search
		// circle stays on the city center and the neighborhood name steers
		// text queries. Point-based sources still benefit from the tight
		// radius.
		scopes = append(scopes, types.GeoScope{
			Kind:         types.ScopeNeighborhood,
			Neighborhood: n,
			Latitude:     sc.Latitude,
			Longitude:    sc.Longitude,
			RadiusMiles:  radius,
		})
	}
	return scopes
}

// slicesFor splits the category window into per-day windows for day-granular
// sources and returns it whole otherwise.
func slicesFor(spec types.SourceSpec, window types.DateWindow) []types.DateWindow {
	if !spec.DayGranular {
		return []types.DateWindow{window}
	}
	days := window.Days()
	slices := make([]types.DateWindow, 0, len(days))
	for _, day := range days {
		slices = append(slices, types.DateWindow{Start: day, End: day})
	}
	return slices
}

// taskID builds the deterministic task identifier
// category/source/scope-slug/date-range.
func taskID(cat types.Category, sourceID string, scope types.GeoScope, window types.DateWindow) string {
	slug := "city-wide"
	if scope.Kind == types.ScopeNeighborhood {
		slug = slugify(scope.Neighborhood)
	}
	dates := window.Start.Format("2006-01-02")
	if !window.End.Equal(window.Start) {
		dates += ".." + window.End.Format("2006-01-02")
	}
	return strings.Join([]string{string(cat), sourceID, slug, dates}, "/")
}

// slugify lowercases a neighborhood name and replaces runs of
// non-alphanumerics with single hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
