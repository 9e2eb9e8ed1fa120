// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geodate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lelandjfs/weekenders-app/internal/httputil"
)

// nominatimAPIBase is the OpenStreetMap geocoding endpoint. Declared as a
// var so tests can substitute an httptest server.
var nominatimAPIBase = "https://nominatim.openstreetmap.org/search"

// NominatimGeocoder resolves free-text locations through the OpenStreetMap
// Nominatim API.
type NominatimGeocoder struct {
	Client    *http.Client
	UserAgent string
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the coordinates of the best match for location.
func (g *NominatimGeocoder) Geocode(ctx context.Context, location string) (float64, float64, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nominatimAPIBase+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding request: %w", err)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("parsing geocoding response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocoding match")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, nil
}
