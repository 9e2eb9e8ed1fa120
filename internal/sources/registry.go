// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the adapters that translate fetch tasks into
// calls against external data providers (Ticketmaster, Google Places,
// Tavily web search), plus the registry describing each source's rate
// limits and synthesis parameters.
package sources

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// Provider IDs.
const (
	SourceTicketmaster = "ticketmaster"
	SourceGooglePlaces = "google_places"
	SourceTavily       = "tavily"
)

// DefaultSpecs returns the built-in source registry. Rate limits reflect
// each provider's published quotas; merge priority orders field conflict
// resolution during synthesis (lower wins).
func DefaultSpecs() []types.SourceSpec {
	return []types.SourceSpec{
		{
			ID: SourceTicketmaster, Category: types.CategoryConcerts, Enabled: true,
			RequestsPerSecond: 5, Burst: 5, Concurrency: 3,
			RatingScaleMax: 0, MergePriority: 1,
		},
		{
			ID: SourceTicketmaster, Category: types.CategoryEvents, Enabled: true,
			RequestsPerSecond: 5, Burst: 5, Concurrency: 3,
			RatingScaleMax: 0, MergePriority: 1,
		},
		{
			ID: SourceGooglePlaces, Category: types.CategoryDining, Enabled: true,
			RequestsPerSecond: 10, Burst: 5, Concurrency: 4,
			RatingScaleMax: 5, MergePriority: 2,
		},
		{
			ID: SourceGooglePlaces, Category: types.CategoryLocations, Enabled: true,
			RequestsPerSecond: 10, Burst: 5, Concurrency: 4,
			RatingScaleMax: 5, MergePriority: 2,
		},
		{
			ID: SourceTavily, Category: types.CategoryConcerts, Enabled: true, DayGranular: true,
			RequestsPerSecond: 1, Burst: 2, Concurrency: 2,
			RatingScaleMax: 1, MergePriority: 3, Timeout: 30 * time.Second,
		},
		{
			ID: SourceTavily, Category: types.CategoryEvents, Enabled: true, DayGranular: true,
			RequestsPerSecond: 1, Burst: 2, Concurrency: 2,
			RatingScaleMax: 1, MergePriority: 3, Timeout: 30 * time.Second,
		},
		{
			ID: SourceTavily, Category: types.CategoryDining, Enabled: true,
			RequestsPerSecond: 1, Burst: 2, Concurrency: 2,
			RatingScaleMax: 1, MergePriority: 3, Timeout: 30 * time.Second,
		},
		{
			ID: SourceTavily, Category: types.CategoryLocations, Enabled: true,
			RequestsPerSecond: 1, Burst: 2, Concurrency: 2,
			RatingScaleMax: 1, MergePriority: 3, Timeout: 30 * time.Second,
		},
	}
}

// registryFile is the on-disk shape of sources.yaml.
type registryFile struct {
	Sources []types.SourceSpec `yaml:"sources"`
}

// LoadSpecs reads source specs from a YAML file. A missing file is not an
// error; the built-in defaults are returned instead.
func LoadSpecs(path string) ([]types.SourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSpecs(), nil
		}
		return nil, fmt.Errorf("reading source registry %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing source registry %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source registry %s declares no sources", path)
	}

	for i, spec := range file.Sources {
		if spec.ID == "" {
			return nil, fmt.Errorf("source registry %s: entry %d missing id", path, i)
		}
		if !spec.Category.Valid() {
			return nil, fmt.Errorf("source registry %s: %s declares unknown category %q", path, spec.ID, spec.Category)
		}
	}
	return file.Sources, nil
}

// Registry indexes source specs by category.
type Registry struct {
	specs []types.SourceSpec
}

// NewRegistry wraps specs in a Registry.
func NewRegistry(specs []types.SourceSpec) *Registry {
	return &Registry{specs: specs}
}

// All returns every spec, enabled or not.
func (r *Registry) All() []types.SourceSpec { return r.specs }

// ForCategory returns the enabled specs serving cat, in registry order.
func (r *Registry) ForCategory(cat types.Category) []types.SourceSpec {
	var out []types.SourceSpec
	for _, s := range r.specs {
		if s.Enabled && s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// Spec returns the spec for a source/category pair.
func (r *Registry) Spec(id string, cat types.Category) (types.SourceSpec, bool) {
	for _, s := range r.specs {
		if s.ID == id && s.Category == cat {
			return s, true
		}
	}
	return types.SourceSpec{}, false
}
