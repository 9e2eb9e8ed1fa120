// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth deduplicates and merges raw source results into canonical
// items. Synthesis is pure and deterministic: the same outcomes always
// produce the same items in the same order, and raw results are never
// mutated.
package synth

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/log"

	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// neutralScore is assigned to items no source rated, so a missing metric
// neither sinks nor boosts a result.
const neutralScore = 0.5

// fuzzyMinLength is the shortest normalized name eligible for fuzzy
// matching; anything shorter must match exactly.
const fuzzyMinLength = 8

// categoryPrecedence resolves the same entity surfacing in two categories:
// the more specific listing wins and the duplicate is dropped.
var categoryPrecedence = []types.Category{
	types.CategoryConcerts,
	types.CategoryDining,
	types.CategoryEvents,
	types.CategoryLocations,
}

type specKey struct {
	source   string
	category types.Category
}

// Synthesizer merges task outcomes into canonical items.
type Synthesizer struct {
	cfg    types.SynthesisConfig
	specs  map[specKey]types.SourceSpec
	logger *log.Logger
}

// New builds a Synthesizer. The registry supplies each source's rating scale
// and merge priority.
func New(cfg types.SynthesisConfig, registry *sources.Registry, logger *log.Logger) *Synthesizer {
	specs := make(map[specKey]types.SourceSpec)
	for _, spec := range registry.All() {
		specs[specKey{spec.ID, spec.Category}] = spec
	}
	if cfg.FuzzyDistance <= 0 {
		cfg.FuzzyDistance = 2
	}
	return &Synthesizer{cfg: cfg, specs: specs, logger: logger}
}

// cluster accumulates the raw results that describe one entity.
type cluster struct {
	category types.Category
	name     string // normalized
	rest     string // identity key minus the name component
	raws     []types.RawResult
}

func (c *cluster) key() string { return c.name + "|" + c.rest }

// Synthesize turns successful outcomes into canonical items grouped by
// category. Every category key is present in the result, possibly empty.
func (s *Synthesizer) Synthesize(outcomes []types.TaskOutcome) map[types.Category][]types.CanonicalItem {
	clusters := s.clusterExact(outcomes)
	clusters = s.mergeFuzzy(clusters)

	byCategory := make(map[types.Category][]types.CanonicalItem, len(types.Categories))
	for _, cat := range types.Categories {
		byCategory[cat] = []types.CanonicalItem{}
	}
	for _, c := range clusters {
		byCategory[c.category] = append(byCategory[c.category], s.build(c))
	}

	s.dropCrossCategoryDuplicates(byCategory)

	for cat, items := range byCategory {
		rank(items)
		if s.cfg.MaxPerCategory > 0 && len(items) > s.cfg.MaxPerCategory {
			items = items[:s.cfg.MaxPerCategory]
		}
		byCategory[cat] = items
	}
	return byCategory
}

// clusterExact groups raw results by exact identity key, preserving first-seen
// order.
func (s *Synthesizer) clusterExact(outcomes []types.TaskOutcome) []*cluster {
	index := make(map[string]*cluster)
	var ordered []*cluster
	for _, o := range outcomes {
		if o.Status != types.StatusOK {
			continue
		}
		for _, raw := range o.RawResults {
			name := normalizeName(raw.Name)
			if name == "" {
				continue
			}
			c := &cluster{
				category: raw.Category,
				name:     name,
				rest:     identityRest(raw),
			}
			if existing, ok := index[string(raw.Category)+"|"+c.key()]; ok {
				existing.raws = append(existing.raws, raw)
				continue
			}
			c.raws = []types.RawResult{raw}
			index[string(raw.Category)+"|"+c.key()] = c
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// mergeFuzzy folds clusters whose identities match except for small name
// variations (punctuation, typos, source formatting) into the earlier
// cluster.
func (s *Synthesizer) mergeFuzzy(clusters []*cluster) []*cluster {
	merged := make([]*cluster, 0, len(clusters))
	for _, c := range clusters {
		target := -1
		for i, m := range merged {
			if m.category != c.category || !restCompatible(m, c) {
				continue
			}
			// Short names offer no slack for typos: "Bar A" and "Bar B" are
			// one edit apart but different places. They must match exactly.
			if len(c.name) < fuzzyMinLength || len(m.name) < fuzzyMinLength {
				continue
			}
			if levenshtein.ComputeDistance(m.name, c.name) <= s.cfg.FuzzyDistance {
				target = i
				break
			}
		}
		if target >= 0 {
			merged[target].raws = append(merged[target].raws, c.raws...)
			if merged[target].rest == "" {
				merged[target].rest = c.rest
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// restCompatible reports whether two same-category clusters could describe
// the same entity. For undated categories an empty proximity bucket (web
// results rarely carry coordinates) matches any bucket.
func restCompatible(a, b *cluster) bool {
	if a.rest == b.rest {
		return true
	}
	if a.category.TimeBound() {
		return false
	}
	return a.rest == "" || b.rest == ""
}

// build merges a cluster's raw results into one canonical item. Fields are
// taken from the highest-priority source that has them; descriptions prefer
// the longest text; prices keep the widest observed range.
func (s *Synthesizer) build(c *cluster) types.CanonicalItem {
	raws := make([]types.RawResult, len(c.raws))
	copy(raws, c.raws)
	sort.SliceStable(raws, func(i, j int) bool {
		return s.priority(raws[i]) < s.priority(raws[j])
	})

	item := types.CanonicalItem{
		IdentityKey: c.key(),
		Category:    c.category,
	}
	var sourceSet []string
	var ratings []float64
	for _, raw := range raws {
		if item.Name == "" {
			item.Name = raw.Name
		}
		if item.Venue == "" {
			item.Venue = raw.Venue
		}
		if item.Address == "" {
			item.Address = raw.Address
		}
		if item.Neighborhood == "" {
			item.Neighborhood = raw.Neighborhood
		}
		if item.Date.IsZero() {
			item.Date = raw.Date
		} else if !raw.Date.IsZero() && !raw.Date.Equal(item.Date) {
			s.logger.Warn("sources disagree on date",
				"item", item.Name, "kept", item.Date.Format("2006-01-02"),
				"dropped", raw.Date.Format("2006-01-02"), "source", raw.SourceID)
		}
		if item.TimeOfDay == "" {
			item.TimeOfDay = raw.TimeOfDay
		}
		if item.URL == "" {
			item.URL = raw.URL
		}
		if item.Genre == "" {
			item.Genre = raw.Genre
		}
		if len(raw.Description) > len(item.Description) {
			item.Description = raw.Description
		}
		if raw.PriceMin > 0 && (item.PriceMin == 0 || raw.PriceMin < item.PriceMin) {
			item.PriceMin = raw.PriceMin
		}
		if raw.PriceMax > item.PriceMax {
			item.PriceMax = raw.PriceMax
		}
		if raw.Rated {
			if norm, ok := s.normalizeRating(raw); ok {
				ratings = append(ratings, norm)
			}
		}
		sourceSet = append(sourceSet, raw.SourceID)
	}

	item.ContributingSources = uniqueSorted(sourceSet)
	item.Score = scoreOf(ratings)
	return item
}

// priority looks up the merge priority for a raw result's source; unknown
// sources sort last.
func (s *Synthesizer) priority(raw types.RawResult) int {
	if spec, ok := s.specs[specKey{raw.SourceID, raw.Category}]; ok {
		return spec.MergePriority
	}
	return int(^uint(0) >> 1)
}

// normalizeRating maps a source-native rating onto 0..1 using the registry
// scale. Ratings from scaleless sources are ignored.
func (s *Synthesizer) normalizeRating(raw types.RawResult) (float64, bool) {
	spec, ok := s.specs[specKey{raw.SourceID, raw.Category}]
	if !ok || spec.RatingScaleMax <= 0 {
		return 0, false
	}
	norm := raw.Rating / spec.RatingScaleMax
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		s.logger.Warn("rating above source scale",
			"source", raw.SourceID, "rating", raw.Rating, "scale", spec.RatingScaleMax)
		norm = 1
	}
	return norm, true
}

// scoreOf averages the normalized ratings; items nobody rated get the
// neutral score.
func scoreOf(ratings []float64) float64 {
	if len(ratings) == 0 {
		return neutralScore
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

// dropCrossCategoryDuplicates removes an entity from lower-precedence
// categories when a higher-precedence category already lists it. Duplicates
// within a category were resolved during clustering and are left alone.
func (s *Synthesizer) dropCrossCategoryDuplicates(byCategory map[types.Category][]types.CanonicalItem) {
	type seenEntry struct {
		entity crossEntity
		cat    types.Category
	}
	var seen []seenEntry
	for _, cat := range categoryPrecedence {
		kept := byCategory[cat][:0]
		for _, item := range byCategory[cat] {
			entity := crossEntityFor(item)
			dup := false
			for _, prev := range seen {
				if prev.cat != cat && prev.entity.sameAs(entity) {
					s.logger.Debug("cross-category duplicate dropped",
						"item", item.Name, "kept_in", prev.cat, "dropped_from", cat)
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			seen = append(seen, seenEntry{entity, cat})
			kept = append(kept, item)
		}
		byCategory[cat] = kept
	}
}

// crossEntity identifies an entity independent of category: normalized name
// and venue, plus the proximity bucket for undated items so two different
// places sharing a name stay distinct.
type crossEntity struct {
	name, venue, bucket string
	timeBound           bool
}

func crossEntityFor(item types.CanonicalItem) crossEntity {
	e := crossEntity{
		name:      normalizeName(item.Name),
		venue:     normalizeName(item.Venue),
		timeBound: item.Category.TimeBound(),
	}
	if !e.timeBound {
		// The identity key is name|bucket for undated categories.
		if idx := strings.Index(item.IdentityKey, "|"); idx >= 0 {
			e.bucket = item.IdentityKey[idx+1:]
		}
	}
	return e
}

// sameAs reports whether two entries plausibly describe the same entity.
// Time-bound items carry no bucket, and web results often lack coordinates,
// so a missing bucket on either side matches any location.
func (e crossEntity) sameAs(o crossEntity) bool {
	if e.name != o.name || e.venue != o.venue {
		return false
	}
	if e.timeBound || o.timeBound {
		return true
	}
	return e.bucket == "" || o.bucket == "" || e.bucket == o.bucket
}

// rank orders items by score descending, then source count descending, then
// name ascending for a stable total order.
func rank(items []types.CanonicalItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if len(items[i].ContributingSources) != len(items[j].ContributingSources) {
			return len(items[i].ContributingSources) > len(items[j].ContributingSources)
		}
		return items[i].Name < items[j].Name
	})
}

// identityRest is the non-name component of an identity key: venue+date for
// time-bound categories, the proximity bucket for everything else.
func identityRest(raw types.RawResult) string {
	if raw.Category.TimeBound() {
		date := ""
		if !raw.Date.IsZero() {
			date = raw.Date.Format("2006-01-02")
		}
		return normalizeName(raw.Venue) + "|" + date
	}
	return geoBucket(raw.Latitude, raw.Longitude)
}

// geoBucket rounds coordinates to ~100m so the same place reported with
// slightly different pins still collides.
func geoBucket(lat, lon float64) string {
	if lat == 0 && lon == 0 {
		return ""
	}
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}

// normalizeName lowercases, strips punctuation and a leading article, and
// collapses whitespace.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	normalized := strings.Join(strings.Fields(b.String()), " ")
	normalized = strings.TrimPrefix(normalized, "the ")
	return normalized
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
