// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lelandjfs/weekenders-app/internal/httputil"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// tavilyAPIBase is a variable so tests can substitute a local server.
var tavilyAPIBase = "https://api.tavily.com/search"

// tavilyDomains restricts each category's web search to sites whose listings
// are worth parsing.
var tavilyDomains = map[types.Category][]string{
	types.CategoryConcerts: {"songkick.com", "bandsintown.com", "seatgeek.com", "reddit.com"},
	types.CategoryEvents:   {"eventbrite.com", "reddit.com", "timeout.com"},
	types.CategoryDining:   {"eater.com", "theinfatuation.com", "reddit.com"},
	types.CategoryLocations: {"atlasobscura.com", "timeout.com", "reddit.com",
		"tripadvisor.com"},
}

// TavilyAdapter runs category-tuned web searches through the Tavily API.
// Concert and event specs are day-granular, so those tasks arrive with a
// single-day window and the query names the exact date.
type TavilyAdapter struct {
	Client    *http.Client
	APIKey    string
	UserAgent string

	category types.Category
}

// NewTavilyAdapter builds an adapter for any of the four categories.
func NewTavilyAdapter(client *http.Client, apiKey string, cat types.Category) *TavilyAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &TavilyAdapter{Client: client, APIKey: apiKey, category: cat}
}

func (a *TavilyAdapter) Name() string             { return SourceTavily }
func (a *TavilyAdapter) Category() types.Category { return a.category }

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// query builds the category-specific search string. The planner puts the
// normalized city name in QueryParams["city"]; neighborhood scopes narrow
// the query to that area.
func (a *TavilyAdapter) query(task types.FetchTask) string {
	place := task.QueryParams["city"]
	if task.Scope.Kind == types.ScopeNeighborhood {
		place = task.Scope.Neighborhood + " " + place
	}
	switch a.category {
	case types.CategoryConcerts:
		return fmt.Sprintf("live music concerts %s %s", place, task.Window.Start.Format("January 2 2006"))
	case types.CategoryEvents:
		return fmt.Sprintf("things to do events %s %s", place, task.Window.Start.Format("January 2 2006"))
	case types.CategoryDining:
		return fmt.Sprintf("best restaurants %s", place)
	default:
		return fmt.Sprintf("best attractions things to see %s", place)
	}
}

// Fetch runs the web search and converts result snippets into raw results.
// Tavily's relevance score is already 0..1, which is registered as this
// source's native rating scale.
func (a *TavilyAdapter) Fetch(ctx context.Context, task types.FetchTask) ([]types.RawResult, error) {
	body := tavilyRequest{
		APIKey:         a.APIKey,
		Query:          a.query(task),
		SearchDepth:    "basic",
		MaxResults:     10,
		IncludeDomains: tavilyDomains[a.category],
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying tavily: %w", err)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tavily response: %w", err)
	}
	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing tavily response: %w", err)
	}

	results := make([]types.RawResult, 0, len(parsed.Results))
	for _, hit := range parsed.Results {
		name, venue := splitTitle(hit.Title)
		if name == "" {
			continue
		}
		snippet := RelevantSnippet(hit.Content, a.category)
		if snippet == "" {
			// Page text never mentions the category; listing pages with no
			// extractable detail are noise.
			continue
		}
		r := types.RawResult{
			SourceID:     SourceTavily,
			Category:     a.category,
			Name:         name,
			Venue:        venue,
			Neighborhood: task.Scope.Neighborhood,
			URL:          hit.URL,
			Description:  snippet,
			Rating:       hit.Score,
			Rated:        hit.Score > 0,
		}
		if task.Window.Start.Equal(task.Window.End) {
			r.Date = task.Window.Start
		}
		results = append(results, r)
	}
	return results, nil
}

// splitTitle extracts an item name (and, for listing titles of the form
// "Act at Venue", the venue) from a web page title. Site-name suffixes after
// "|" or " - " are dropped.
func splitTitle(title string) (name, venue string) {
	name = title
	for _, sep := range []string{" | ", " – ", " - "} {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
		}
	}
	name = strings.TrimSpace(name)
	if idx := strings.Index(name, " at "); idx > 0 {
		venue = strings.TrimSpace(name[idx+len(" at "):])
		name = strings.TrimSpace(name[:idx])
	}
	return name, venue
}
