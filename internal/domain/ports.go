package domain

import (
	"context"
	"time"
)

// StoreSource answers price queries for exactly one store. Implementations
// must honor ctx cancellation and should classify their own "answered but
// empty" case as SourceNoData; transport failures may surface as errors and
// are normalized by the aggregator.
type StoreSource interface {
	// Store returns the stable store identifier, e.g. "greenleaf".
	Store() string
	// Fetch returns the store's candidates for the query.
	Fetch(ctx context.Context, q Query) (SourceResult, error)
}

// OracleSelection is the raw answer from a selection oracle: which store it
// chose and why. It names a store, not a candidate; the caller must map it
// back to a real candidate and never trust it blindly.
type OracleSelection struct {
	Store       string `json:"store"`
	ProductName string `json:"product_name"`
	Explanation string `json:"explanation"`
}

// SelectionOracle delegates the pick among compatible candidates to an
// external decision service.
type SelectionOracle interface {
	SelectProduct(ctx context.Context, q Query, candidates []Candidate) (*OracleSelection, error)
}

// QuoteCache stores aggregation results keyed by Query.CacheKey. Get returns
// ErrCacheMiss when the key is absent or expired.
type QuoteCache interface {
	Get(ctx context.Context, key string) (*AggregatedResult, error)
	Set(ctx context.Context, key string, value *AggregatedResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
