// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine executes fetch tasks concurrently against source adapters
// under a global concurrency cap, per-source concurrency caps, and
// per-source rate limits. Every admitted task terminates in exactly one
// outcome; a failed or skipped source degrades the run, never fails it.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/lelandjfs/weekenders-app/internal/httputil"
	"github.com/lelandjfs/weekenders-app/internal/sources"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// Adapter executes fetch tasks against one provider for one category. Each
// source (Ticketmaster, Google Places, Tavily) implements this per category.
type Adapter interface {
	Name() string
	Category() types.Category
	Fetch(ctx context.Context, task types.FetchTask) ([]types.RawResult, error)
}

// Cache is the optional read-through store for raw responses. A nil cache
// disables caching.
type Cache interface {
	Get(ctx context.Context, task types.FetchTask) ([]types.RawResult, bool, error)
	Put(ctx context.Context, task types.FetchTask, results []types.RawResult) error
}

type adapterKey struct {
	source   string
	category types.Category
}

// sourceGate serializes admission to one provider: a token bucket for
// request rate and a slot semaphore for in-flight tasks. Shared across the
// provider's categories, matching provider-level quotas.
type sourceGate struct {
	limiter *rate.Limiter
	slots   *semaphore.Weighted
	timeout time.Duration
}

// Engine owns task execution for a run.
type Engine struct {
	cfg      types.EngineConfig
	adapters map[adapterKey]Adapter
	gates    map[string]*sourceGate
	global   *semaphore.Weighted
	cache    Cache
	logger   *log.Logger
}

// New wires an Engine. Gate parameters come from the registry; adapters
// without a registry spec are rejected at execution time, not here.
func New(cfg types.EngineConfig, registry *sources.Registry, adapters []Adapter, cache Cache, logger *log.Logger) *Engine {
	e := &Engine{
		cfg:      cfg,
		adapters: make(map[adapterKey]Adapter, len(adapters)),
		gates:    make(map[string]*sourceGate),
		global:   semaphore.NewWeighted(int64(cfg.GlobalConcurrency)),
		cache:    cache,
		logger:   logger,
	}
	for _, a := range adapters {
		e.adapters[adapterKey{a.Name(), a.Category()}] = a
	}
	for _, spec := range registry.All() {
		if !spec.Enabled {
			continue
		}
		if _, ok := e.gates[spec.ID]; ok {
			continue
		}
		slots := spec.Concurrency
		if slots <= 0 {
			slots = 1
		}
		// A spec that declares no rate is uncapped rather than frozen: a
		// zero-rate bucket never refills and would starve every task after
		// the first burst token. The slot semaphore still bounds the source.
		limit := rate.Limit(spec.RequestsPerSecond)
		if limit <= 0 {
			limit = rate.Inf
		}
		e.gates[spec.ID] = &sourceGate{
			limiter: rate.NewLimiter(limit, max(spec.Burst, 1)),
			slots:   semaphore.NewWeighted(int64(slots)),
			timeout: spec.Timeout,
		}
	}
	return e
}

// Run executes all tasks and returns one outcome per task, in task order.
// Cancellation of ctx stops admission; tasks already in flight finish their
// current attempt and report a timeout outcome if cut short.
func (e *Engine) Run(ctx context.Context, tasks []types.FetchTask) []types.TaskOutcome {
	outcomes := make([]types.TaskOutcome, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task types.FetchTask) {
			defer wg.Done()
			outcomes[i] = e.execute(ctx, task)
		}(i, task)
	}
	wg.Wait()
	return outcomes
}

// execute drives one task to a terminal outcome.
func (e *Engine) execute(ctx context.Context, task types.FetchTask) types.TaskOutcome {
	start := time.Now()
	outcome := types.TaskOutcome{
		TaskID:   task.ID,
		SourceID: task.SourceID,
		Category: task.Category,
	}
	finish := func(status types.TaskStatus, err error) types.TaskOutcome {
		outcome.Status = status
		outcome.Latency = time.Since(start)
		if err != nil {
			outcome.Err = err.Error()
		}
		return outcome
	}

	if e.cache != nil {
		if results, hit, err := e.cache.Get(ctx, task); err != nil {
			e.logger.Warn("cache read failed", "task", task.ID, "err", err)
		} else if hit {
			outcome.RawResults = results
			outcome.FromCache = true
			return finish(types.StatusOK, nil)
		}
	}

	adapter, ok := e.adapters[adapterKey{task.SourceID, task.Category}]
	if !ok {
		return finish(types.StatusSourceError,
			fmt.Errorf("no adapter registered for %s/%s", task.SourceID, task.Category))
	}
	gate, ok := e.gates[task.SourceID]
	if !ok {
		return finish(types.StatusSourceError,
			fmt.Errorf("no registry spec for source %s", task.SourceID))
	}

	if err := e.global.Acquire(ctx, 1); err != nil {
		return finish(types.StatusTimeout, fmt.Errorf("run cancelled before admission: %w", err))
	}
	defer e.global.Release(1)

	if err := gate.slots.Acquire(ctx, 1); err != nil {
		return finish(types.StatusTimeout, fmt.Errorf("run cancelled before admission: %w", err))
	}
	defer gate.slots.Release(1)

	timeout := e.cfg.TaskTimeout
	if gate.timeout > 0 {
		timeout = gate.timeout
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			outcome.Retries = attempt
			if err := sleepCtx(ctx, e.cfg.RetryBaseDelay<<(attempt-1)); err != nil {
				return finish(types.StatusTimeout, fmt.Errorf("run cancelled during backoff: %w", err))
			}
		}
		if err := gate.limiter.Wait(ctx); err != nil {
			return finish(types.StatusTimeout, fmt.Errorf("run cancelled awaiting rate limit: %w", err))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		results, err := adapter.Fetch(attemptCtx, task)
		cancel()
		if err == nil {
			if e.cache != nil {
				if cerr := e.cache.Put(ctx, task, results); cerr != nil {
					e.logger.Warn("cache write failed", "task", task.ID, "err", cerr)
				}
			}
			outcome.RawResults = results
			return finish(types.StatusOK, nil)
		}

		lastErr = err
		if !httputil.Transient(err) {
			break
		}
		e.logger.Debug("task attempt failed", "task", task.ID, "attempt", attempt+1, "err", err)
	}

	e.logger.Warn("task failed", "task", task.ID, "retries", outcome.Retries, "err", lastErr)
	return finish(statusFor(lastErr), lastErr)
}

// statusFor maps a terminal fetch error to its outcome status.
func statusFor(err error) types.TaskStatus {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.StatusTimeout
	case httputil.RateLimited(err):
		return types.StatusRateLimited
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return types.StatusInvalidResponse
	default:
		return types.StatusSourceError
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
