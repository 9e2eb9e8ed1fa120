// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

const classifySystemPrompt = `You are a geographic analysis expert for a travel recommendations system.
Analyze the given location and return ONLY valid JSON (no markdown) with this exact structure:

{
  "location_normalized": "your understanding, e.g. 'Austin, Texas, USA'",
  "latitude": number,
  "longitude": number,
  "city_type": "large_metro" | "medium_city" | "small_town",
  "population_tier": 1 | 2 | 3,
  "needs_neighborhood_strategy": boolean,
  "neighborhoods": ["area1", ...] or [],
  "search_parameters": {"concerts": miles, "dining": miles, "events": miles, "locations": miles},
  "strategy": {"concerts": "city_wide", "dining": "city_wide"|"neighborhood_targeted", "events": "city_wide", "locations": "city_wide"|"neighborhood_targeted"}
}

Rules:
- large_metro (metro population above 5M): list 3-6 trendy neighborhoods, use
  neighborhood_targeted for dining and locations with tight radii (1-2 miles).
- medium_city (500K-5M): no neighborhoods, city_wide everywhere, moderate radii.
- small_town (below 500K or suburban): no neighborhoods, city_wide everywhere, wide radii.
- Concerts always search at least as wide as every other category; people
  travel farther for shows (20-40 miles is normal).`

const classifyStrictSuffix = `

Your previous answer failed schema validation. Respond with the JSON object
only: every field present, neighborhoods empty unless city_type is
large_metro (then exactly 3-6 entries), all radii positive numbers, and the
concerts radius greater than or equal to the dining, events, and locations radii.`

// OpenAICapability implements Capability over an OpenAI-compatible chat
// completion API.
type OpenAICapability struct {
	client *openai.Client
	model  string
}

// NewOpenAICapability builds the capability from config. BaseURL may point
// at any compatible endpoint (tests use an httptest server).
func NewOpenAICapability(cfg types.ClassifierConfig) *OpenAICapability {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAICapability{client: &client, model: cfg.Model}
}

// contextWire mirrors the JSON schema the model is asked to produce.
type contextWire struct {
	LocationNormalized        string             `json:"location_normalized"`
	Latitude                  float64            `json:"latitude"`
	Longitude                 float64            `json:"longitude"`
	CityType                  string             `json:"city_type"`
	PopulationTier            int                `json:"population_tier"`
	NeedsNeighborhoodStrategy bool               `json:"needs_neighborhood_strategy"`
	Neighborhoods             []string           `json:"neighborhoods"`
	SearchParameters          map[string]float64 `json:"search_parameters"`
	Strategy                  map[string]string  `json:"strategy"`
}

// Classify asks the model to analyze the location and parses the reply.
func (c *OpenAICapability) Classify(ctx context.Context, req Request) (types.SearchContext, error) {
	system := classifySystemPrompt
	if req.Strict {
		system += classifyStrictSuffix
	}
	user := fmt.Sprintf("Analyze this location: %s\nDates: %s to %s",
		req.Location, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return types.SearchContext{}, fmt.Errorf("classification call: %w", err)
	}
	if len(completion.Choices) == 0 {
		return types.SearchContext{}, fmt.Errorf("classification returned no choices")
	}

	var wire contextWire
	if err := json.Unmarshal([]byte(stripFences(completion.Choices[0].Message.Content)), &wire); err != nil {
		return types.SearchContext{}, fmt.Errorf("parsing classification response: %w", err)
	}

	sc := types.SearchContext{
		LocationNormalized:        wire.LocationNormalized,
		Latitude:                  wire.Latitude,
		Longitude:                 wire.Longitude,
		CityType:                  types.CityType(wire.CityType),
		PopulationTier:            wire.PopulationTier,
		NeedsNeighborhoodStrategy: wire.NeedsNeighborhoodStrategy,
		Neighborhoods:             wire.Neighborhoods,
		SearchParameters:          make(map[types.Category]float64, len(wire.SearchParameters)),
		Strategy:                  make(map[types.Category]types.StrategyKind, len(wire.Strategy)),
	}
	for k, v := range wire.SearchParameters {
		sc.SearchParameters[types.Category(k)] = v
	}
	for k, v := range wire.Strategy {
		sc.Strategy[types.Category(k)] = types.StrategyKind(v)
	}
	return sc, nil
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
