package domain

import "fmt"

// SourceStatus classifies the outcome of one store fetch.
type SourceStatus string

const (
	// SourceOK means the store answered with at least one candidate.
	SourceOK SourceStatus = "ok"
	// SourceError means the store failed (network, protocol, bad payload).
	SourceError SourceStatus = "error"
	// SourceTimeout means the store did not answer within the per-source deadline.
	SourceTimeout SourceStatus = "timeout"
	// SourceNoData means the store answered but had nothing for the item.
	SourceNoData SourceStatus = "no_data"
)

// SourceResult is one store's contribution to an aggregation: its candidates
// on success, or a status marker explaining why it contributed nothing.
// A failed source never aborts the aggregation.
type SourceResult struct {
	Store      string       `json:"store"`
	Status     SourceStatus `json:"status"`
	Detail     string       `json:"detail,omitempty"`
	Candidates []Candidate  `json:"candidates"`
}

// OK reports whether the source answered successfully with data.
func (r SourceResult) OK() bool {
	return r.Status == SourceOK
}

// Failed reports whether the source errored or timed out. SourceNoData is a
// valid answer, not a failure.
func (r SourceResult) Failed() bool {
	return r.Status == SourceError || r.Status == SourceTimeout
}

// AggregatedResult holds every store's answer for one query, in the order the
// sources were configured. Order is part of the contract: rendering the same
// result twice must produce identical bytes.
type AggregatedResult struct {
	Query   Query          `json:"query"`
	Sources []SourceResult `json:"sources"`
}

// ByStore returns the result contributed by the named store.
func (a *AggregatedResult) ByStore(store string) (SourceResult, bool) {
	for _, r := range a.Sources {
		if r.Store == store {
			return r, true
		}
	}
	return SourceResult{}, false
}

// Candidates flattens every successful source's candidates, preserving source
// order then per-source order.
func (a *AggregatedResult) Candidates() []Candidate {
	var out []Candidate
	for _, r := range a.Sources {
		out = append(out, r.Candidates...)
	}
	return out
}

// FailedSources returns the stores that errored or timed out.
func (a *AggregatedResult) FailedSources() []string {
	var out []string
	for _, r := range a.Sources {
		if r.Failed() {
			out = append(out, r.Store)
		}
	}
	return out
}

// Strategy names a ranking policy.
type Strategy string

const (
	// StrategyCheapest picks the lowest-priced compatible candidate.
	StrategyCheapest Strategy = "cheapest"
	// StrategyWeighted scores candidates by price penalty and tag preference.
	StrategyWeighted Strategy = "weighted"
	// StrategyDelegated asks the selection oracle to choose.
	StrategyDelegated Strategy = "delegated"
)

// ParseStrategy validates a raw strategy name. Empty input is invalid; the
// caller decides what the default is.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(raw) {
	case StrategyCheapest, StrategyWeighted, StrategyDelegated:
		return Strategy(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, raw)
	}
}

// Recommendation is the ranked pick for one query.
type Recommendation struct {
	Candidate Candidate `json:"candidate"`
	// Rationale explains the pick in one line. Fallback picks are prefixed
	// with "fallback: ".
	Rationale string `json:"rationale"`
	// Suitable is recomputed from the query's constraints, never taken from
	// an external selector's claim.
	Suitable bool     `json:"is_suitable"`
	Strategy Strategy `json:"strategy"`
}

// ItemResult pairs a shopping-list entry with its outcome. An unresolved item
// carries a reason and contributes nothing to totals.
type ItemResult struct {
	Item           string          `json:"item"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Unresolved     bool            `json:"unresolved"`
	Reason         string          `json:"reason,omitempty"`
}

// Resolved reports whether the item received a recommendation.
func (r ItemResult) Resolved() bool {
	return !r.Unresolved && r.Recommendation != nil
}

// StoreTotal sums the winning items at one store.
type StoreTotal struct {
	Store string   `json:"store"`
	Total float64  `json:"total"`
	Items []string `json:"items"`
}

// ListSummary is the outcome of processing a whole shopping list: one
// ItemResult per input item in input order, per-store totals over winning
// items only, and the single best store to shop at.
type ListSummary struct {
	Constraints []Tag        `json:"constraints"`
	Items       []ItemResult `json:"items"`
	StoreTotals []StoreTotal `json:"store_totals"`
	// BestStore is the store with the lowest combined total over the items it
	// won; ties break toward the lexicographically smaller store. Empty when
	// nothing resolved.
	BestStore  string  `json:"best_store,omitempty"`
	Resolved   int     `json:"resolved"`
	Unresolved int     `json:"unresolved"`
	TotalCost  float64 `json:"total_estimated_cost"`
}
