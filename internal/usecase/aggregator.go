package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// DefaultSourceTimeout bounds how long one store may take to answer.
const DefaultSourceTimeout = 10 * time.Second

// Aggregator fans a query out to every configured store source concurrently
// and collects one SourceResult per source, in configuration order. A slow or
// failing source degrades into a status marker; it never fails the whole
// aggregation and never blocks the other sources beyond its own deadline.
type Aggregator struct {
	sources []domain.StoreSource
	timeout time.Duration
}

// NewAggregator creates an aggregator over the given sources. A non-positive
// timeout falls back to DefaultSourceTimeout.
func NewAggregator(sources []domain.StoreSource, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Aggregator{
		sources: sources,
		timeout: timeout,
	}
}

// Stores returns the configured store identifiers in fan-out order.
func (a *Aggregator) Stores() []string {
	stores := make([]string, len(a.sources))
	for i, src := range a.sources {
		stores[i] = src.Store()
	}
	return stores
}

// Aggregate queries every source in parallel and returns exactly one result
// per source. It errors only when no sources are configured; per-source
// problems are reported inside the result set.
func (a *Aggregator) Aggregate(ctx context.Context, q domain.Query) (*domain.AggregatedResult, error) {
	if len(a.sources) == 0 {
		return nil, domain.ErrNoSources
	}

	results := make([]domain.SourceResult, len(a.sources))
	var wg sync.WaitGroup

	for i, src := range a.sources {
		wg.Add(1)
		go func(idx int, src domain.StoreSource) {
			defer wg.Done()
			results[idx] = a.fetchOne(ctx, src, q)
		}(i, src)
	}

	wg.Wait()

	return &domain.AggregatedResult{Query: q, Sources: results}, nil
}

// fetchOne queries a single source under its own deadline and converts every
// failure mode, panics included, into a status-marked SourceResult.
func (a *Aggregator) fetchOne(ctx context.Context, src domain.StoreSource, q domain.Query) (res domain.SourceResult) {
	store := src.Store()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[AGGREGATE] source %s panicked: %v", store, r)
			res = failedResult(store, domain.SourceError, fmt.Sprintf("source panic: %v", r))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := src.Fetch(fetchCtx, q)
	if err != nil {
		status := domain.SourceError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			status = domain.SourceTimeout
		}
		log.Printf("[AGGREGATE] source %s failed (%s): %v", store, status, err)
		return failedResult(store, status, err.Error())
	}

	return normalizeResult(store, result)
}

func failedResult(store string, status domain.SourceStatus, detail string) domain.SourceResult {
	return domain.SourceResult{
		Store:      store,
		Status:     status,
		Detail:     detail,
		Candidates: []domain.Candidate{},
	}
}

// normalizeResult stamps the source's identity onto its answer so a
// misbehaving source cannot impersonate another store, and settles the status
// for sources that left it implicit.
func normalizeResult(store string, res domain.SourceResult) domain.SourceResult {
	res.Store = store
	if res.Candidates == nil {
		res.Candidates = []domain.Candidate{}
	}
	for i := range res.Candidates {
		res.Candidates[i].Store = store
	}
	if res.Status == "" {
		res.Status = domain.SourceOK
	}
	if res.Status == domain.SourceOK && len(res.Candidates) == 0 {
		res.Status = domain.SourceNoData
	}
	return res
}
