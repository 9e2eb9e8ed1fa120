// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

func testLogger() *log.Logger { return log.New(io.Discard) }

func validContext() types.SearchContext {
	return types.SearchContext{
		LocationNormalized:        "Austin, Texas, USA",
		Latitude:                  30.2672,
		Longitude:                 -97.7431,
		CityType:                  types.CityMedium,
		PopulationTier:            2,
		NeedsNeighborhoodStrategy: false,
		SearchParameters: map[types.Category]float64{
			types.CategoryConcerts:  20,
			types.CategoryDining:    6,
			types.CategoryEvents:    12,
			types.CategoryLocations: 6,
		},
		Strategy: map[types.Category]types.StrategyKind{
			types.CategoryConcerts:  types.StrategyCityWide,
			types.CategoryDining:    types.StrategyCityWide,
			types.CategoryEvents:    types.StrategyCityWide,
			types.CategoryLocations: types.StrategyCityWide,
		},
	}
}

func largeMetroContext(neighborhoods ...string) types.SearchContext {
	sc := validContext()
	sc.CityType = types.CityLargeMetro
	sc.PopulationTier = 1
	sc.Neighborhoods = neighborhoods
	sc.NeedsNeighborhoodStrategy = len(neighborhoods) > 0
	sc.SearchParameters[types.CategoryConcerts] = 25
	sc.SearchParameters[types.CategoryDining] = 1.5
	sc.SearchParameters[types.CategoryLocations] = 2
	sc.Strategy[types.CategoryDining] = types.StrategyNeighborhood
	sc.Strategy[types.CategoryLocations] = types.StrategyNeighborhood
	return sc
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.SearchContext)
		wantErr bool
	}{
		{"valid medium city", func(*types.SearchContext) {}, false},
		{"unknown city type", func(sc *types.SearchContext) { sc.CityType = "megalopolis" }, true},
		{"medium city with neighborhoods", func(sc *types.SearchContext) {
			sc.Neighborhoods = []string{"Downtown"}
			sc.NeedsNeighborhoodStrategy = true
		}, true},
		{"zero radius", func(sc *types.SearchContext) { sc.SearchParameters[types.CategoryDining] = 0 }, true},
		{"negative radius", func(sc *types.SearchContext) { sc.SearchParameters[types.CategoryEvents] = -3 }, true},
		{"dining wider than concerts", func(sc *types.SearchContext) {
			sc.SearchParameters[types.CategoryDining] = 30
		}, true},
		{"missing category radius", func(sc *types.SearchContext) {
			delete(sc.SearchParameters, types.CategoryLocations)
		}, true},
		{"missing category strategy", func(sc *types.SearchContext) {
			delete(sc.Strategy, types.CategoryEvents)
		}, true},
		{"flag inconsistent with neighborhoods", func(sc *types.SearchContext) {
			sc.NeedsNeighborhoodStrategy = true
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := validContext()
			tt.mutate(&sc)
			err := Validate(sc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLargeMetroNeighborhoodCount(t *testing.T) {
	if err := Validate(largeMetroContext("Williamsburg", "LES", "DUMBO", "Chelsea")); err != nil {
		t.Errorf("4 neighborhoods should validate: %v", err)
	}
	if err := Validate(largeMetroContext("Williamsburg")); err == nil {
		t.Error("1 neighborhood should be rejected for large_metro")
	}
	if err := Validate(largeMetroContext("a", "b", "c", "d", "e", "f", "g")); err == nil {
		t.Error("7 neighborhoods should be rejected for large_metro")
	}
}

// --- Classifier retries and fallback ---

type stubCapability struct {
	responses []types.SearchContext
	errs      []error
	calls     int
	strict    []bool
}

func (s *stubCapability) Classify(_ context.Context, req Request) (types.SearchContext, error) {
	i := s.calls
	s.calls++
	s.strict = append(s.strict, req.Strict)
	if i < len(s.errs) && s.errs[i] != nil {
		return types.SearchContext{}, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return types.SearchContext{}, fmt.Errorf("no scripted response")
}

func testRequest() Request {
	return Request{
		Location:  "Austin, Texas",
		Latitude:  30.2672,
		Longitude: -97.7431,
		StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestContextAcceptsValidClassification(t *testing.T) {
	cap := &stubCapability{responses: []types.SearchContext{validContext()}}
	c := New(cap, types.ClassifierConfig{MaxRetries: 2}, testLogger())

	sc, fellBack := c.Context(context.Background(), testRequest())
	if fellBack {
		t.Error("fellBack = true for valid classification")
	}
	if sc.CityType != types.CityMedium {
		t.Errorf("CityType = %q", sc.CityType)
	}
	if cap.calls != 1 {
		t.Errorf("calls = %d, want 1", cap.calls)
	}
}

func TestContextRetriesWithStricterPrompt(t *testing.T) {
	// First response is a large metro with a single neighborhood, which must
	// be rejected; the retry returns a valid context.
	cap := &stubCapability{responses: []types.SearchContext{
		largeMetroContext("Williamsburg"),
		validContext(),
	}}
	c := New(cap, types.ClassifierConfig{MaxRetries: 2}, testLogger())

	_, fellBack := c.Context(context.Background(), testRequest())
	if fellBack {
		t.Error("fellBack = true, want validated retry result")
	}
	if cap.calls != 2 {
		t.Fatalf("calls = %d, want 2", cap.calls)
	}
	if cap.strict[0] || !cap.strict[1] {
		t.Errorf("strict flags = %v, want [false true]", cap.strict)
	}
}

func TestContextFallsBackAfterExhaustedRetries(t *testing.T) {
	bad := largeMetroContext("OnlyOne")
	cap := &stubCapability{responses: []types.SearchContext{bad, bad, bad}}
	c := New(cap, types.ClassifierConfig{MaxRetries: 2}, testLogger())

	sc, fellBack := c.Context(context.Background(), testRequest())
	if !fellBack {
		t.Fatal("fellBack = false, want fallback context")
	}
	if cap.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", cap.calls)
	}
	if sc.CityType != types.CityMedium {
		t.Errorf("fallback CityType = %q, want medium_city", sc.CityType)
	}
	if len(sc.Neighborhoods) != 0 {
		t.Errorf("fallback neighborhoods = %v, want none", sc.Neighborhoods)
	}
	if err := Validate(sc); err != nil {
		t.Errorf("fallback context must validate: %v", err)
	}
}

func TestContextFallsBackOnCapabilityErrors(t *testing.T) {
	cap := &stubCapability{errs: []error{
		fmt.Errorf("unavailable"), fmt.Errorf("unavailable"), fmt.Errorf("unavailable"),
	}}
	c := New(cap, types.ClassifierConfig{MaxRetries: 2}, testLogger())

	sc, fellBack := c.Context(context.Background(), testRequest())
	if !fellBack {
		t.Fatal("fellBack = false")
	}
	if sc.Latitude != 30.2672 {
		t.Errorf("fallback should keep resolver coordinates, lat = %f", sc.Latitude)
	}
}

func TestContextNilCapability(t *testing.T) {
	c := New(nil, types.ClassifierConfig{}, testLogger())
	sc, fellBack := c.Context(context.Background(), testRequest())
	if !fellBack {
		t.Error("fellBack = false for nil capability")
	}
	if err := Validate(sc); err != nil {
		t.Errorf("fallback context must validate: %v", err)
	}
}

func TestDefaultContextInvariant(t *testing.T) {
	sc := DefaultContext("Austin", 30.0, -97.0)
	concert := sc.SearchParameters[types.CategoryConcerts]
	for _, cat := range []types.Category{types.CategoryDining, types.CategoryEvents, types.CategoryLocations} {
		if sc.SearchParameters[cat] > concert {
			t.Errorf("%s radius %g exceeds concert radius %g", cat, sc.SearchParameters[cat], concert)
		}
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.input); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
