// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package weekender

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lelandjfs/weekenders-app/internal/classify"
	"github.com/lelandjfs/weekenders-app/internal/engine"
	"github.com/lelandjfs/weekenders-app/internal/geodate"
	"github.com/lelandjfs/weekenders-app/internal/plan"
	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/internal/synth"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// fakeAdapter returns one canned result per task, stamped with the task's
// category and window start.
type fakeAdapter struct {
	category types.Category
	name     string
}

func (f *fakeAdapter) Name() string             { return "stub" }
func (f *fakeAdapter) Category() types.Category { return f.category }

func (f *fakeAdapter) Fetch(_ context.Context, task types.FetchTask) ([]types.RawResult, error) {
	return []types.RawResult{{
		SourceID: "stub",
		Category: f.category,
		Name:     f.name,
		Venue:    "Test Hall",
		Date:     task.Window.Start,
	}}, nil
}

func buildTestApp(t *testing.T, cfg types.Config, adapterFor func(types.Category) engine.Adapter) *App {
	t.Helper()
	logger := log.New(io.Discard)

	specs := []types.SourceSpec{}
	var adapters []engine.Adapter
	for _, cat := range types.Categories {
		specs = append(specs, types.SourceSpec{
			ID: "stub", Category: cat, Enabled: true,
			RequestsPerSecond: 1000, Burst: 100, Concurrency: 4, MergePriority: 1,
		})
		adapters = append(adapters, adapterFor(cat))
	}
	registry := sources.NewRegistry(specs)

	return &App{
		cfg:        cfg,
		registry:   registry,
		resolver:   geodate.NewResolver(nil),
		classifier: classify.New(nil, cfg.Classifier, logger),
		planner:    plan.New(registry),
		engine:     engine.New(cfg.Engine, registry, adapters, nil, logger),
		synth:      synth.New(cfg.Synthesis, registry, logger),
		logger:     logger,
	}
}

func testApp(t *testing.T) *App {
	t.Helper()
	var cfg types.Config
	cfg.Defaults()
	cfg.Engine.RetryBaseDelay = time.Millisecond

	return buildTestApp(t, cfg, func(cat types.Category) engine.Adapter {
		return &fakeAdapter{category: cat, name: "Stub " + string(cat)}
	})
}

func TestRunSearchEndToEnd(t *testing.T) {
	app := testApp(t)
	req := types.SearchRequest{
		Location:  "Austin",
		StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}

	result, err := app.RunSearch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}

	meta := result.Metadata
	if meta.RunID == "" {
		t.Error("missing run ID")
	}
	if meta.TasksPlanned == 0 || meta.TasksSucceeded != meta.TasksPlanned {
		t.Errorf("tasks = %d/%d", meta.TasksSucceeded, meta.TasksPlanned)
	}
	// No classifier capability is wired, so the run uses the default profile
	// and is flagged degraded.
	if !meta.ClassifierFellBack || !meta.Degraded {
		t.Errorf("fallback flags = %+v", meta)
	}

	for _, cat := range types.Categories {
		items, ok := result.ItemsByCategory[cat]
		if !ok {
			t.Fatalf("category %s missing", cat)
		}
		if len(items) == 0 {
			t.Errorf("category %s empty", cat)
			continue
		}
		if items[0].Name != "Stub "+string(cat) {
			t.Errorf("category %s item = %q", cat, items[0].Name)
		}
	}

	// Concerts search Thursday through Saturday; the earliest concert result
	// carries the Thursday date.
	concerts := result.ItemsByCategory[types.CategoryConcerts]
	sawThursday := false
	for _, item := range concerts {
		if item.Date.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
			sawThursday = true
		}
	}
	if !sawThursday {
		t.Error("no concert item dated Thursday Jan 1")
	}
}

// stalledAdapter never answers before the attempt deadline.
type stalledAdapter struct{ category types.Category }

func (f *stalledAdapter) Name() string             { return "stub" }
func (f *stalledAdapter) Category() types.Category { return f.category }

func (f *stalledAdapter) Fetch(ctx context.Context, _ types.FetchTask) ([]types.RawResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunSearchAllSourcesTimeOut(t *testing.T) {
	var cfg types.Config
	cfg.Defaults()
	cfg.Engine.TaskTimeout = 10 * time.Millisecond
	cfg.Engine.RetryBaseDelay = time.Millisecond

	app := buildTestApp(t, cfg, func(cat types.Category) engine.Adapter {
		return &stalledAdapter{category: cat}
	})
	req := types.SearchRequest{
		Location:  "Austin",
		StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}

	result, err := app.RunSearch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunSearch must not fail when every source stalls: %v", err)
	}

	meta := result.Metadata
	if meta.TasksSucceeded != 0 {
		t.Errorf("succeeded = %d, want 0", meta.TasksSucceeded)
	}
	if !meta.Degraded {
		t.Error("run with zero fetches must be degraded")
	}
	if len(meta.DegradedSources) != 1 || meta.DegradedSources[0] != "stub" {
		t.Errorf("degraded sources = %v", meta.DegradedSources)
	}
	if len(meta.Sources) != 1 || meta.Sources[0].ByStatus[types.StatusTimeout] != meta.TasksPlanned {
		t.Errorf("status breakdown = %+v, want every task timed out", meta.Sources)
	}
	for _, cat := range types.Categories {
		items, ok := result.ItemsByCategory[cat]
		if !ok || items == nil {
			t.Fatalf("category %s missing from empty result", cat)
		}
		if len(items) != 0 {
			t.Errorf("category %s = %d items, want none", cat, len(items))
		}
	}
}

func TestRunSearchUnresolvableLocationIsFatal(t *testing.T) {
	app := testApp(t)
	req := types.SearchRequest{
		Location:  "Nowhereville",
		StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}

	_, err := app.RunSearch(context.Background(), req)
	var re *geodate.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *geodate.ResolutionError", err)
	}
}

func TestWeekendRequest(t *testing.T) {
	// Monday Jan 5, 2026: this weekend is Fri Jan 9 - Sun Jan 11.
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	req := WeekendRequest("Austin", monday, geodate.WeekendThis)
	if !req.StartDate.Equal(time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %s", req.StartDate.Format("2006-01-02"))
	}
	if !req.EndDate.Equal(time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %s", req.EndDate.Format("2006-01-02"))
	}

	next := WeekendRequest("Austin", monday, geodate.WeekendNext)
	if !next.StartDate.Equal(time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next start = %s", next.StartDate.Format("2006-01-02"))
	}
}

func TestNewDisablesKeylessSources(t *testing.T) {
	var cfg types.Config
	t.Setenv("TICKETMASTER_API_KEY", "")
	t.Setenv("GOOGLE_PLACES_API_KEY", "")
	t.Setenv("TAVILY_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	keys := map[string]string{"ticketmaster-api-key": "tm"}
	app, err := New(cfg, sources.DefaultSpecs(), keys, nil, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, cat := range types.Categories {
		for _, spec := range app.registry.ForCategory(cat) {
			if spec.ID != sources.SourceTicketmaster {
				t.Errorf("source %s/%s enabled without a key", spec.ID, cat)
			}
		}
	}
}
