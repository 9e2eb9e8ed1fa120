// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package weekender wires the full pipeline: location and date resolution,
// context classification, task planning, concurrent fetching, synthesis,
// and assembly of the final run result.
package weekender

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lelandjfs/weekenders-app/internal/assemble"
	"github.com/lelandjfs/weekenders-app/internal/classify"
	"github.com/lelandjfs/weekenders-app/internal/engine"
	"github.com/lelandjfs/weekenders-app/internal/geodate"
	"github.com/lelandjfs/weekenders-app/internal/plan"
	"github.com/lelandjfs/weekenders-app/internal/secrets"
	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/internal/synth"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// App holds the assembled pipeline for one or more runs.
type App struct {
	cfg        types.Config
	registry   *sources.Registry
	resolver   *geodate.Resolver
	classifier *classify.Classifier
	planner    *plan.Planner
	engine     *engine.Engine
	synth      *synth.Synthesizer
	logger     *log.Logger
}

// New wires an App from config, source specs, and loaded secrets. Sources
// whose API key is missing are disabled with a warning rather than failing
// construction; the run degrades instead.
func New(cfg types.Config, specs []types.SourceSpec, keys map[string]string,
	cacheStore engine.Cache, logger *log.Logger) (*App, error) {

	cfg.Defaults()
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	tmKey := secrets.Value(keys, secrets.KeyTicketmaster, "TICKETMASTER_API_KEY")
	gpKey := secrets.Value(keys, secrets.KeyGooglePlaces, "GOOGLE_PLACES_API_KEY")
	tvKey := secrets.Value(keys, secrets.KeyTavily, "TAVILY_API_KEY")
	keyFor := map[string]string{
		sources.SourceTicketmaster: tmKey,
		sources.SourceGooglePlaces: gpKey,
		sources.SourceTavily:       tvKey,
	}

	enabled := make([]types.SourceSpec, 0, len(specs))
	var adapters []engine.Adapter
	for _, spec := range specs {
		if !spec.Enabled {
			enabled = append(enabled, spec)
			continue
		}
		key, known := keyFor[spec.ID]
		if !known {
			return nil, fmt.Errorf("source registry names unknown source %q", spec.ID)
		}
		if key == "" {
			logger.Warn("source disabled, no API key", "source", spec.ID, "category", spec.Category)
			spec.Enabled = false
			enabled = append(enabled, spec)
			continue
		}
		enabled = append(enabled, spec)

		var adapter engine.Adapter
		switch spec.ID {
		case sources.SourceTicketmaster:
			a := sources.NewTicketmasterAdapter(client, key, spec.Category)
			a.UserAgent = cfg.HTTP.UserAgent
			adapter = a
		case sources.SourceGooglePlaces:
			a := sources.NewGooglePlacesAdapter(client, key, spec.Category)
			a.UserAgent = cfg.HTTP.UserAgent
			adapter = a
		case sources.SourceTavily:
			a := sources.NewTavilyAdapter(client, key, spec.Category)
			a.UserAgent = cfg.HTTP.UserAgent
			adapter = a
		}
		adapters = append(adapters, adapter)
	}

	registry := sources.NewRegistry(enabled)

	var capability classify.Capability
	classifierCfg := cfg.Classifier
	if classifierCfg.APIKey == "" {
		classifierCfg.APIKey = secrets.Value(keys, secrets.KeyOpenAI, "OPENAI_API_KEY")
	}
	if classifierCfg.APIKey != "" {
		capability = classify.NewOpenAICapability(classifierCfg)
	} else {
		logger.Warn("no classifier API key, every run will use the default search profile")
	}

	geocoder := &geodate.NominatimGeocoder{Client: client, UserAgent: cfg.HTTP.UserAgent}

	return &App{
		cfg:        cfg,
		registry:   registry,
		resolver:   geodate.NewResolver(geocoder),
		classifier: classify.New(capability, classifierCfg, logger),
		planner:    plan.New(registry),
		engine:     engine.New(cfg.Engine, registry, adapters, cacheStore, logger),
		synth:      synth.New(cfg.Synthesis, registry, logger),
		logger:     logger,
	}, nil
}

// WeekendRequest builds the search request for "this" or "next" weekend
// relative to today: Friday through Sunday around the anchor Saturday.
func WeekendRequest(location string, today time.Time, sel geodate.WeekendSelector) types.SearchRequest {
	anchor := geodate.AnchorSaturday(today, sel)
	return types.SearchRequest{
		Location:  location,
		StartDate: anchor.AddDate(0, 0, -1),
		EndDate:   anchor.AddDate(0, 0, 1),
	}
}

// RunSearch executes one full search. Location resolution failure is the
// only fatal error; every downstream failure degrades the result instead.
func (a *App) RunSearch(ctx context.Context, req types.SearchRequest) (types.RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	if a.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Deadline)
		defer cancel()
	}

	lat, lon, err := a.resolver.Coordinates(ctx, req.Location)
	if err != nil {
		return types.RunResult{}, err
	}
	a.logger.Info("location resolved", "location", req.Location, "lat", lat, "lon", lon)

	classifyCtx, cancel := context.WithTimeout(ctx, a.cfg.Classifier.Timeout)
	sc, fellBack := a.classifier.Context(classifyCtx, classify.Request{
		Location:  req.Location,
		Latitude:  lat,
		Longitude: lon,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	cancel()
	a.logger.Info("search context ready",
		"city_type", sc.CityType, "neighborhoods", len(sc.Neighborhoods), "fallback", fellBack)

	anchor := geodate.AnchorFromRange(req.StartDate)
	windows := make(map[types.Category]types.DateWindow, len(types.Categories))
	for _, cat := range types.Categories {
		windows[cat] = geodate.CategoryWindow(cat, anchor)
	}

	tasks := a.planner.Tasks(sc, windows)
	a.logger.Info("tasks planned", "count", len(tasks))

	outcomes := a.engine.Run(ctx, tasks)
	byCategory := a.synth.Synthesize(outcomes)

	meta := assemble.Metadata(runID, outcomes, byCategory, fellBack, time.Since(start))
	a.logger.Info("run complete",
		"run_id", runID, "succeeded", meta.TasksSucceeded, "planned", meta.TasksPlanned,
		"degraded", meta.Degraded, "elapsed", meta.Elapsed.Round(time.Millisecond))

	return assemble.Result(req, byCategory, meta), nil
}
