// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geodate resolves free-text locations to coordinates and request
// dates to category-specific weekend windows.
package geodate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// ResolutionError reports a location that could not be geocoded. It is the
// one fatal error of a run: without coordinates no query is possible, and
// there are no default coordinates.
type ResolutionError struct {
	Location string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolving location %q: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("resolving location %q: no match", e.Location)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Geocoder turns free-text locations into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (lat, lon float64, err error)
}

// cityCoords covers common US cities so known locations resolve without a
// network call.
var cityCoords = map[string][2]float64{
	"austin":        {30.2672, -97.7431},
	"new york":      {40.7128, -74.0060},
	"new york city": {40.7128, -74.0060},
	"los angeles":   {34.0522, -118.2437},
	"chicago":       {41.8781, -87.6298},
	"san francisco": {37.7749, -122.4194},
	"denver":        {39.7392, -104.9903},
	"nashville":     {36.1627, -86.7816},
	"seattle":       {47.6062, -122.3321},
	"portland":      {45.5152, -122.6784},
	"miami":         {25.7617, -80.1918},
	"new orleans":   {29.9511, -90.0715},
	"boston":        {42.3601, -71.0589},
	"atlanta":       {33.7490, -84.3880},
	"philadelphia":  {39.9526, -75.1652},
	"dallas":        {32.7767, -96.7970},
	"houston":       {29.7604, -95.3698},
	"phoenix":       {33.4484, -112.0740},
	"san diego":     {32.7157, -117.1611},
	"las vegas":     {36.1699, -115.1398},
	"washington dc": {38.9072, -77.0369},
	"minneapolis":   {44.9778, -93.2650},
	"detroit":       {42.3314, -83.0458},
}

// Resolver resolves locations via a static city table, falling back to a
// Geocoder for everything else.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver returns a Resolver backed by g. g may be nil, in which case
// only the static table resolves.
func NewResolver(g Geocoder) *Resolver {
	return &Resolver{geocoder: g}
}

// Coordinates resolves location to a center point. Failure is a
// *ResolutionError and aborts the whole request.
func (r *Resolver) Coordinates(ctx context.Context, location string) (lat, lon float64, err error) {
	key := strings.ToLower(strings.TrimSpace(location))
	base := strings.TrimSpace(strings.SplitN(key, ",", 2)[0])

	if c, ok := cityCoords[key]; ok {
		return c[0], c[1], nil
	}
	if c, ok := cityCoords[base]; ok {
		return c[0], c[1], nil
	}

	if r.geocoder == nil {
		return 0, 0, &ResolutionError{Location: location}
	}
	lat, lon, err = r.geocoder.Geocode(ctx, location)
	if err != nil {
		return 0, 0, &ResolutionError{Location: location, Err: err}
	}
	return lat, lon, nil
}

// WeekendSelector picks which weekend a request targets.
type WeekendSelector string

const (
	WeekendThis WeekendSelector = "this"
	WeekendNext WeekendSelector = "next"
)

// midnight truncates t to its calendar date in UTC.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps Monday to 1 through Sunday to 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// weekSaturday returns the Saturday of the calendar week (Monday-based)
// containing t.
func weekSaturday(t time.Time) time.Time {
	return midnight(t).AddDate(0, 0, 6-isoWeekday(t))
}

// AnchorSaturday resolves a weekend selector against today. "this" is the
// current week's Saturday. "next" is the first Saturday strictly after the
// current week when today falls Monday through Wednesday, else the current
// week's Saturday.
func AnchorSaturday(today time.Time, sel WeekendSelector) time.Time {
	anchor := weekSaturday(today)
	if sel == WeekendNext && isoWeekday(today) <= 3 {
		anchor = anchor.AddDate(0, 0, 7)
	}
	return anchor
}

// AnchorFromRange re-anchors an explicit date range to the Saturday of the
// week containing its start date.
func AnchorFromRange(start time.Time) time.Time {
	return weekSaturday(start)
}

// CategoryWindow returns the fixed weekday sub-window for a category around
// the anchor Saturday: Thursday-Saturday for concerts, Friday-Sunday for
// dining, events, and locations.
func CategoryWindow(cat types.Category, anchor time.Time) types.DateWindow {
	anchor = midnight(anchor)
	if cat == types.CategoryConcerts {
		return types.DateWindow{Start: anchor.AddDate(0, 0, -2), End: anchor}
	}
	return types.DateWindow{Start: anchor.AddDate(0, 0, -1), End: anchor.AddDate(0, 0, 1)}
}
