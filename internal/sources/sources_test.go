// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

func testTask(cat types.Category) types.FetchTask {
	return types.FetchTask{
		ID:       string(cat) + "/test/city-wide/2026-01-02",
		Category: cat,
		Scope: types.GeoScope{
			Kind:        types.ScopeCityWide,
			Latitude:    30.2672,
			Longitude:   -97.7431,
			RadiusMiles: 10,
		},
		Window: types.DateWindow{
			Start: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
		},
		QueryParams: map[string]string{"city": "Austin, Texas, USA"},
	}
}

// --- Registry ---

func TestDefaultSpecsCoverAllCategories(t *testing.T) {
	reg := NewRegistry(DefaultSpecs())
	for _, cat := range types.Categories {
		specs := reg.ForCategory(cat)
		if len(specs) == 0 {
			t.Errorf("no enabled sources for %s", cat)
		}
	}
	if _, ok := reg.Spec(SourceTicketmaster, types.CategoryConcerts); !ok {
		t.Error("ticketmaster/concerts spec missing")
	}
	if _, ok := reg.Spec(SourceGooglePlaces, types.CategoryConcerts); ok {
		t.Error("google_places must not serve concerts")
	}
}

func TestLoadSpecsMissingFileUsesDefaults(t *testing.T) {
	specs, err := LoadSpecs(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadSpecs: %v", err)
	}
	if len(specs) != len(DefaultSpecs()) {
		t.Errorf("len = %d, want defaults", len(specs))
	}
}

func TestLoadSpecsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - id: ticketmaster
    category: concerts
    enabled: true
    requests_per_second: 2
    burst: 2
    concurrency: 1
    merge_priority: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadSpecs(path)
	if err != nil {
		t.Fatalf("LoadSpecs: %v", err)
	}
	if len(specs) != 1 || specs[0].ID != SourceTicketmaster {
		t.Errorf("specs = %+v", specs)
	}
	if specs[0].RequestsPerSecond != 2 {
		t.Errorf("rps = %g", specs[0].RequestsPerSecond)
	}
}

func TestLoadSpecsRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - id: ticketmaster
    category: karaoke
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSpecs(path); err == nil {
		t.Error("expected error for unknown category")
	}
}

// --- Ticketmaster ---

const tmPayload = `{
  "_embedded": {
    "events": [
      {
        "name": "Jazz Night",
        "url": "https://tm.example/jazz",
        "dates": {"start": {"localDate": "2026-01-02", "localTime": "19:30:00"}},
        "priceRanges": [{"min": 25, "max": 60}],
        "classifications": [{"genre": {"name": "Jazz"}, "segment": {"name": "Music"}}],
        "_embedded": {"venues": [{
          "name": "The Fillmore",
          "city": {"name": "Austin"},
          "address": {"line1": "10 Main St"},
          "location": {"latitude": "30.2690", "longitude": "-97.7400"}
        }]}
      },
      {
        "name": "",
        "url": "https://tm.example/unnamed"
      }
    ]
  }
}`

func TestTicketmasterFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "tm-key" {
			t.Errorf("apikey = %q", q.Get("apikey"))
		}
		if q.Get("classificationName") != "Music" {
			t.Errorf("classificationName = %q", q.Get("classificationName"))
		}
		if q.Get("latlong") != "30.2672,-97.7431" {
			t.Errorf("latlong = %q", q.Get("latlong"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, tmPayload)
	}))
	defer ts.Close()

	old := ticketmasterAPIBase
	ticketmasterAPIBase = ts.URL
	defer func() { ticketmasterAPIBase = old }()

	a := NewTicketmasterAdapter(ts.Client(), "tm-key", types.CategoryConcerts)
	results, err := a.Fetch(context.Background(), testTask(types.CategoryConcerts))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (unnamed event dropped)", len(results))
	}

	r := results[0]
	if r.Name != "Jazz Night" || r.Venue != "The Fillmore" {
		t.Errorf("name/venue = %q/%q", r.Name, r.Venue)
	}
	if !r.Date.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", r.Date)
	}
	if r.PriceMin != 25 || r.PriceMax != 60 {
		t.Errorf("price = %g..%g", r.PriceMin, r.PriceMax)
	}
	if r.Genre != "Jazz" || r.TimeOfDay != "19:30:00" {
		t.Errorf("genre/time = %q/%q", r.Genre, r.TimeOfDay)
	}
	if r.Latitude != 30.2690 {
		t.Errorf("latitude = %g", r.Latitude)
	}
	if r.Rated {
		t.Error("ticketmaster results must be unrated")
	}
}

func TestTicketmasterEventsClassification(t *testing.T) {
	var gotClassification string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClassification = r.URL.Query().Get("classificationName")
		fmt.Fprint(w, `{"_embedded":{"events":[]}}`)
	}))
	defer ts.Close()

	old := ticketmasterAPIBase
	ticketmasterAPIBase = ts.URL
	defer func() { ticketmasterAPIBase = old }()

	a := NewTicketmasterAdapter(ts.Client(), "tm-key", types.CategoryEvents)
	if _, err := a.Fetch(context.Background(), testTask(types.CategoryEvents)); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotClassification == "Music" || gotClassification == "" {
		t.Errorf("classificationName = %q, want non-music segments", gotClassification)
	}
}

func TestTicketmasterServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := ticketmasterAPIBase
	ticketmasterAPIBase = ts.URL
	defer func() { ticketmasterAPIBase = old }()

	a := NewTicketmasterAdapter(ts.Client(), "tm-key", types.CategoryConcerts)
	if _, err := a.Fetch(context.Background(), testTask(types.CategoryConcerts)); err == nil {
		t.Fatal("expected error for 429")
	}
}

// --- Google Places ---

const placesPayload = `{
  "places": [
    {
      "displayName": {"text": "Uchi"},
      "formattedAddress": "801 S Lamar Blvd, Austin, TX",
      "rating": 4.7,
      "userRatingCount": 4200,
      "priceLevel": "PRICE_LEVEL_EXPENSIVE",
      "websiteUri": "https://uchi.example",
      "editorialSummary": {"text": "Sleek destination for creative sushi."},
      "location": {"latitude": 30.2590, "longitude": -97.7636},
      "primaryType": "japanese_restaurant"
    },
    {
      "displayName": {"text": "Mediocre Diner"},
      "rating": 3.1,
      "userRatingCount": 900
    },
    {
      "displayName": {"text": "New Spot"},
      "rating": 4.9,
      "userRatingCount": 12
    }
  ]
}`

func TestGooglePlacesFetchDining(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") != "gp-key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Goog-Api-Key"))
		}
		if r.Header.Get("X-Goog-FieldMask") == "" {
			t.Error("missing field mask header")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, placesPayload)
	}))
	defer ts.Close()

	old := placesAPIBase
	placesAPIBase = ts.URL
	defer func() { placesAPIBase = old }()

	a := NewGooglePlacesAdapter(ts.Client(), "gp-key", types.CategoryDining)
	results, err := a.Fetch(context.Background(), testTask(types.CategoryDining))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (low-rated and low-review places dropped)", len(results))
	}

	r := results[0]
	if r.Name != "Uchi" || !r.Rated || r.Rating != 4.7 {
		t.Errorf("result = %+v", r)
	}
	if r.PriceMin != 40 || r.PriceMax != 90 {
		t.Errorf("price = %g..%g", r.PriceMin, r.PriceMax)
	}
	if r.URL != "https://uchi.example" {
		t.Errorf("url = %q", r.URL)
	}
}

func TestGooglePlacesLocationsSkipQualityFloor(t *testing.T) {
	payload := `{"places":[{"displayName":{"text":"Obscure Garden"},"rating":3.9,"userRatingCount":8,"googleMapsUri":"https://maps.example/og"}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer ts.Close()

	old := placesAPIBase
	placesAPIBase = ts.URL
	defer func() { placesAPIBase = old }()

	a := NewGooglePlacesAdapter(ts.Client(), "gp-key", types.CategoryLocations)
	results, err := a.Fetch(context.Background(), testTask(types.CategoryLocations))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (quality floor is dining-only)", len(results))
	}
	if results[0].URL != "https://maps.example/og" {
		t.Errorf("url fallback = %q", results[0].URL)
	}
}

// --- Tavily ---

func TestTavilyFetchConcertDay(t *testing.T) {
	payload := `{"results":[
      {"title":"Jazz Night at The Fillmore | Songkick",
       "url":"https://songkick.example/jazz",
       "content":"Jazz Night brings live music to the stage.\nUnrelated navigation text.",
       "score":0.93},
      {"title":"City council minutes",
       "url":"https://reddit.example/minutes",
       "content":"Budget discussion and zoning.",
       "score":0.2}
    ]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		fmt.Fprint(w, payload)
	}))
	defer ts.Close()

	old := tavilyAPIBase
	tavilyAPIBase = ts.URL
	defer func() { tavilyAPIBase = old }()

	task := testTask(types.CategoryConcerts)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	task.Window = types.DateWindow{Start: day, End: day}

	a := NewTavilyAdapter(ts.Client(), "tv-key", types.CategoryConcerts)
	results, err := a.Fetch(context.Background(), task)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (off-topic content dropped)", len(results))
	}

	r := results[0]
	if r.Name != "Jazz Night" || r.Venue != "The Fillmore" {
		t.Errorf("name/venue = %q/%q", r.Name, r.Venue)
	}
	if !r.Date.Equal(day) {
		t.Errorf("date = %s, want single-day window date", r.Date)
	}
	if r.Rating != 0.93 || !r.Rated {
		t.Errorf("rating = %g rated = %v", r.Rating, r.Rated)
	}
	if r.Description == "" || r.Description != "Jazz Night brings live music to the stage." {
		t.Errorf("description = %q", r.Description)
	}
}

func TestTavilyQueryShapes(t *testing.T) {
	a := NewTavilyAdapter(nil, "", types.CategoryDining)
	task := testTask(types.CategoryDining)
	q := a.query(task)
	if q != "best restaurants Austin, Texas, USA" {
		t.Errorf("dining query = %q", q)
	}

	task.Scope.Kind = types.ScopeNeighborhood
	task.Scope.Neighborhood = "East Side"
	q = a.query(task)
	if q != "best restaurants East Side Austin, Texas, USA" {
		t.Errorf("neighborhood query = %q", q)
	}

	concerts := NewTavilyAdapter(nil, "", types.CategoryConcerts)
	q = concerts.query(testTask(types.CategoryConcerts))
	if q != "live music concerts Austin, Texas, USA January 2 2026" {
		t.Errorf("concert query = %q", q)
	}
}

// --- Title and content helpers ---

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		title string
		name  string
		venue string
	}{
		{"Jazz Night at The Fillmore | Songkick", "Jazz Night", "The Fillmore"},
		{"Best Tacos in Town - Eater Austin", "Best Tacos in Town", ""},
		{"Plain Title", "Plain Title", ""},
	}
	for _, tt := range tests {
		name, venue := splitTitle(tt.title)
		if name != tt.name || venue != tt.venue {
			t.Errorf("splitTitle(%q) = %q/%q, want %q/%q", tt.title, name, venue, tt.name, tt.venue)
		}
	}
}

func TestRelevantSnippet(t *testing.T) {
	content := "Navigation bar\nThe restaurant serves a seasonal menu.\nFooter links"
	got := RelevantSnippet(content, types.CategoryDining)
	if got != "The restaurant serves a seasonal menu." {
		t.Errorf("snippet = %q", got)
	}
	if RelevantSnippet("nothing on topic here", types.CategoryDining) != "" {
		t.Error("off-topic content should produce empty snippet")
	}
}
