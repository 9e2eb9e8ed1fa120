// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lelandjfs/weekenders-app/internal/httputil"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// ticketmasterAPIBase is a variable so tests can substitute a local server.
var ticketmasterAPIBase = "https://app.ticketmaster.com/discovery/v2/events.json"

// eventClassifications are the Discovery segments queried for the general
// events category. Music is excluded; it is covered by the concerts tasks.
var eventClassifications = []string{"Sports", "Arts & Theatre", "Film", "Family"}

// TicketmasterAdapter queries the Ticketmaster Discovery API. One adapter
// instance serves one category: concerts (segment Music) or events (every
// other segment).
type TicketmasterAdapter struct {
	Client    *http.Client
	APIKey    string
	UserAgent string

	category types.Category
}

// NewTicketmasterAdapter builds an adapter for cat, which must be concerts
// or events.
func NewTicketmasterAdapter(client *http.Client, apiKey string, cat types.Category) *TicketmasterAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &TicketmasterAdapter{Client: client, APIKey: apiKey, category: cat}
}

func (a *TicketmasterAdapter) Name() string             { return SourceTicketmaster }
func (a *TicketmasterAdapter) Category() types.Category { return a.category }

// tmResponse mirrors the subset of the Discovery events payload we read.
type tmResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"priceRanges"`
	Classifications []struct {
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"classifications"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			Address struct {
				Line1 string `json:"line1"`
			} `json:"address"`
			Location struct {
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"location"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// Fetch lists events inside the task's scope and window, sorted by date.
func (a *TicketmasterAdapter) Fetch(ctx context.Context, task types.FetchTask) ([]types.RawResult, error) {
	params := url.Values{}
	params.Set("apikey", a.APIKey)
	params.Set("latlong", fmt.Sprintf("%.4f,%.4f", task.Scope.Latitude, task.Scope.Longitude))
	params.Set("radius", strconv.Itoa(int(task.Scope.RadiusMiles+0.5)))
	params.Set("unit", "miles")
	params.Set("startDateTime", task.Window.Start.UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("endDateTime", task.Window.End.Add(24*time.Hour-time.Second).UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("sort", "date,asc")
	params.Set("size", "50")
	if a.category == types.CategoryConcerts {
		params.Set("classificationName", "Music")
	} else {
		params.Set("classificationName", strings.Join(eventClassifications, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ticketmasterAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building ticketmaster request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying ticketmaster: %w", err)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("ticketmaster: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ticketmaster response: %w", err)
	}
	var payload tmResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing ticketmaster response: %w", err)
	}

	results := make([]types.RawResult, 0, len(payload.Embedded.Events))
	for _, ev := range payload.Embedded.Events {
		if ev.Name == "" {
			continue
		}
		r := types.RawResult{
			SourceID:  SourceTicketmaster,
			Category:  a.category,
			Name:      ev.Name,
			URL:       ev.URL,
			TimeOfDay: ev.Dates.Start.LocalTime,
		}
		if ev.Dates.Start.LocalDate != "" {
			if d, err := time.Parse("2006-01-02", ev.Dates.Start.LocalDate); err == nil {
				r.Date = d
			}
		}
		if len(ev.PriceRanges) > 0 {
			r.PriceMin = ev.PriceRanges[0].Min
			r.PriceMax = ev.PriceRanges[0].Max
		}
		if len(ev.Classifications) > 0 {
			r.Genre = ev.Classifications[0].Genre.Name
		}
		if len(ev.Embedded.Venues) > 0 {
			v := ev.Embedded.Venues[0]
			r.Venue = v.Name
			r.Address = v.Address.Line1
			if lat, err := strconv.ParseFloat(v.Location.Latitude, 64); err == nil {
				r.Latitude = lat
			}
			if lon, err := strconv.ParseFloat(v.Location.Longitude, 64); err == nil {
				r.Longitude = lon
			}
		}
		results = append(results, r)
	}
	return results, nil
}
