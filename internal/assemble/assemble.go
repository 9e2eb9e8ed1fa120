// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble builds the final run result: canonical items grouped by
// category plus metadata describing how complete the run was. Partial and
// even empty results are assembled the same way as full ones.
package assemble

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// Metadata tallies task outcomes into run metadata. A source counts as
// degraded when every one of its tasks failed; a run is degraded when any
// source degraded, the classifier fell back, or tasks were cut off by the
// run deadline.
func Metadata(runID string, outcomes []types.TaskOutcome,
	byCategory map[types.Category][]types.CanonicalItem,
	classifierFellBack bool, elapsed time.Duration) types.RunMetadata {

	meta := types.RunMetadata{
		RunID:              runID,
		ItemCounts:         make(map[types.Category]int, len(types.Categories)),
		TasksPlanned:       len(outcomes),
		ClassifierFellBack: classifierFellBack,
		Elapsed:            elapsed,
	}
	for _, cat := range types.Categories {
		meta.ItemCounts[cat] = len(byCategory[cat])
	}

	statsBySource := make(map[string]*types.SourceStats)
	timedOut := false
	for _, o := range outcomes {
		stats, ok := statsBySource[o.SourceID]
		if !ok {
			stats = &types.SourceStats{
				SourceID: o.SourceID,
				ByStatus: make(map[types.TaskStatus]int),
			}
			statsBySource[o.SourceID] = stats
		}
		if o.Status == types.StatusOK {
			stats.Succeeded++
			meta.TasksSucceeded++
		} else {
			stats.Failed++
			stats.ByStatus[o.Status]++
		}
		if o.Status == types.StatusTimeout {
			timedOut = true
		}
	}

	for _, stats := range statsBySource {
		meta.Sources = append(meta.Sources, *stats)
		if stats.Degraded() {
			meta.DegradedSources = append(meta.DegradedSources, stats.SourceID)
		}
	}
	sort.Slice(meta.Sources, func(i, j int) bool {
		return meta.Sources[i].SourceID < meta.Sources[j].SourceID
	})
	sort.Strings(meta.DegradedSources)

	meta.Degraded = len(meta.DegradedSources) > 0 || classifierFellBack || timedOut
	return meta
}

// Result pairs the request with its items and metadata. Every category key
// is present even when empty, so consumers never branch on missing keys.
func Result(req types.SearchRequest, byCategory map[types.Category][]types.CanonicalItem,
	meta types.RunMetadata) types.RunResult {

	items := make(map[types.Category][]types.CanonicalItem, len(types.Categories))
	for _, cat := range types.Categories {
		if list := byCategory[cat]; list != nil {
			items[cat] = list
		} else {
			items[cat] = []types.CanonicalItem{}
		}
	}
	return types.RunResult{Request: req, ItemsByCategory: items, Metadata: meta}
}

// FormatJSON writes the result as indented JSON.
func FormatJSON(w io.Writer, result types.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// FormatText writes a human-readable summary: items per category followed by
// the run health footer.
func FormatText(w io.Writer, result types.RunResult) error {
	fmt.Fprintf(w, "Weekend picks for %s (%s to %s)\n",
		result.Request.Location,
		result.Request.StartDate.Format("Mon Jan 2"),
		result.Request.EndDate.Format("Mon Jan 2, 2006"))

	for _, cat := range types.Categories {
		items := result.ItemsByCategory[cat]
		fmt.Fprintf(w, "\n%s (%d)\n", titleFor(cat), len(items))
		if len(items) == 0 {
			fmt.Fprintln(w, "  nothing found")
			continue
		}
		for _, item := range items {
			fmt.Fprintf(w, "  %-40s", truncate(item.Name, 40))
			if item.Venue != "" {
				fmt.Fprintf(w, "  %s", truncate(item.Venue, 24))
			} else if item.Neighborhood != "" {
				fmt.Fprintf(w, "  %s", truncate(item.Neighborhood, 24))
			}
			if !item.Date.IsZero() {
				fmt.Fprintf(w, "  %s", item.Date.Format("Jan 2"))
			}
			if item.PriceMin > 0 {
				if item.PriceMax > item.PriceMin {
					fmt.Fprintf(w, "  $%.0f-%.0f", item.PriceMin, item.PriceMax)
				} else {
					fmt.Fprintf(w, "  $%.0f+", item.PriceMin)
				}
			}
			fmt.Fprintf(w, "  [%.2f]\n", item.Score)
		}
	}

	meta := result.Metadata
	fmt.Fprintf(w, "\n%d/%d tasks succeeded in %s\n",
		meta.TasksSucceeded, meta.TasksPlanned, meta.Elapsed.Round(time.Millisecond))
	if meta.ClassifierFellBack {
		fmt.Fprintln(w, "warning: location analysis unavailable, default search profile used")
	}
	for _, src := range meta.DegradedSources {
		fmt.Fprintf(w, "warning: source %s returned nothing\n", src)
	}
	return nil
}

func titleFor(cat types.Category) string {
	switch cat {
	case types.CategoryConcerts:
		return "Concerts"
	case types.CategoryDining:
		return "Dining"
	case types.CategoryEvents:
		return "Events"
	case types.CategoryLocations:
		return "Places to Visit"
	default:
		return string(cat)
	}
}

// truncate shortens s to n characters. It counts runes so multibyte names
// are never cut mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
