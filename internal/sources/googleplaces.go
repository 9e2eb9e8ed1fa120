// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lelandjfs/weekenders-app/internal/httputil"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// placesAPIBase is a variable so tests can substitute a local server.
var placesAPIBase = "https://places.googleapis.com/v1/places:searchNearby"

// placesFieldMask limits the response to the fields we actually read.
const placesFieldMask = "places.displayName,places.formattedAddress,places.rating," +
	"places.userRatingCount,places.priceLevel,places.websiteUri,places.googleMapsUri," +
	"places.editorialSummary,places.location,places.primaryType"

// Quality floor for dining results. Places returns plenty of mediocre
// restaurants near any center point; only well-reviewed ones are worth
// surfacing for a weekend visit.
const (
	diningMinRating  = 4.0
	diningMinReviews = 50
)

// attractionTypes are the place types queried for the locations category.
var attractionTypes = []string{
	"tourist_attraction", "museum", "art_gallery", "park",
	"historical_landmark", "performing_arts_theater",
}

// priceLevels maps the Places price level enum to approximate dollar bounds
// per person.
var priceLevels = map[string][2]float64{
	"PRICE_LEVEL_INEXPENSIVE":    {5, 15},
	"PRICE_LEVEL_MODERATE":       {15, 40},
	"PRICE_LEVEL_EXPENSIVE":      {40, 90},
	"PRICE_LEVEL_VERY_EXPENSIVE": {90, 250},
}

// GooglePlacesAdapter queries the Places API (New) nearby search. One
// instance serves one category: dining (restaurants) or locations
// (attractions).
type GooglePlacesAdapter struct {
	Client    *http.Client
	APIKey    string
	UserAgent string

	category types.Category
}

// NewGooglePlacesAdapter builds an adapter for cat, which must be dining or
// locations.
func NewGooglePlacesAdapter(client *http.Client, apiKey string, cat types.Category) *GooglePlacesAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &GooglePlacesAdapter{Client: client, APIKey: apiKey, category: cat}
}

func (a *GooglePlacesAdapter) Name() string             { return SourceGooglePlaces }
func (a *GooglePlacesAdapter) Category() types.Category { return a.category }

type placesRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			RadiusMeters float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type placesResponse struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string  `json:"formattedAddress"`
		Rating           float64 `json:"rating"`
		UserRatingCount  int     `json:"userRatingCount"`
		PriceLevel       string  `json:"priceLevel"`
		WebsiteURI       string  `json:"websiteUri"`
		GoogleMapsURI    string  `json:"googleMapsUri"`
		EditorialSummary struct {
			Text string `json:"text"`
		} `json:"editorialSummary"`
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		PrimaryType string `json:"primaryType"`
	} `json:"places"`
}

// Fetch runs a nearby search around the task's scope center. The Places
// radius is capped at 50km by the API; radii are given in miles so the cap
// is never reached in practice.
func (a *GooglePlacesAdapter) Fetch(ctx context.Context, task types.FetchTask) ([]types.RawResult, error) {
	var body placesRequest
	if a.category == types.CategoryDining {
		body.IncludedTypes = []string{"restaurant"}
	} else {
		body.IncludedTypes = attractionTypes
	}
	body.MaxResultCount = 20
	body.LocationRestriction.Circle.Center.Latitude = task.Scope.Latitude
	body.LocationRestriction.Circle.Center.Longitude = task.Scope.Longitude
	body.LocationRestriction.Circle.RadiusMeters = task.Scope.RadiusMiles * 1609.34

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding places request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, placesAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", a.APIKey)
	req.Header.Set("X-Goog-FieldMask", placesFieldMask)
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading places response: %w", err)
	}
	var parsed placesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing places response: %w", err)
	}

	results := make([]types.RawResult, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		if p.DisplayName.Text == "" {
			continue
		}
		if a.category == types.CategoryDining &&
			(p.Rating < diningMinRating || p.UserRatingCount < diningMinReviews) {
			continue
		}
		r := types.RawResult{
			SourceID:     SourceGooglePlaces,
			Category:     a.category,
			Name:         p.DisplayName.Text,
			Address:      p.FormattedAddress,
			Neighborhood: task.Scope.Neighborhood,
			Latitude:     p.Location.Latitude,
			Longitude:    p.Location.Longitude,
			Description:  p.EditorialSummary.Text,
			Genre:        p.PrimaryType,
			RatingCount:  p.UserRatingCount,
		}
		if p.Rating > 0 {
			r.Rating = p.Rating
			r.Rated = true
		}
		if bounds, ok := priceLevels[p.PriceLevel]; ok {
			r.PriceMin = bounds[0]
			r.PriceMax = bounds[1]
		}
		if p.WebsiteURI != "" {
			r.URL = p.WebsiteURI
		} else {
			r.URL = p.GoogleMapsURI
		}
		results = append(results, r)
	}
	return results, nil
}
