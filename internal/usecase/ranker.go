package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cartscout/backend/internal/domain"
)

// WeightedConfig tunes the weighted strategy. A zero PriceCeiling disables
// the over-price penalty.
type WeightedConfig struct {
	// PriceCeiling is the price above which candidates start losing score.
	PriceCeiling float64
	// OverPricePenalty is the score lost per currency unit above the ceiling.
	OverPricePenalty float64
	// PreferredTags earn TagBonus each when a candidate handles them.
	PreferredTags domain.TagSet
	// TagBonus is the score gained per matched preferred tag.
	TagBonus float64
}

// RankerConfig assembles a Ranker.
type RankerConfig struct {
	Strategy domain.Strategy
	Weighted WeightedConfig
	// Oracle is required for the delegated strategy and ignored otherwise.
	Oracle domain.SelectionOracle
}

// Ranker picks one Recommendation from a filtered candidate set. Every
// strategy is deterministic: the same candidates in the same order always
// produce the same pick. The delegated strategy consults an external oracle
// but never trusts it blindly; an unusable answer degrades to the cheapest
// pick with the reason recorded in the rationale.
type Ranker struct {
	strategy domain.Strategy
	weighted WeightedConfig
	oracle   domain.SelectionOracle
}

// NewRanker validates the configuration and creates a Ranker.
func NewRanker(cfg RankerConfig) (*Ranker, error) {
	if _, err := domain.ParseStrategy(string(cfg.Strategy)); err != nil {
		return nil, err
	}
	if cfg.Strategy == domain.StrategyDelegated && cfg.Oracle == nil {
		return nil, fmt.Errorf("%w: delegated strategy requires one", domain.ErrOracleUnavailable)
	}
	if cfg.Weighted.OverPricePenalty <= 0 {
		cfg.Weighted.OverPricePenalty = 1.0
	}
	if cfg.Weighted.TagBonus <= 0 {
		cfg.Weighted.TagBonus = 1.0
	}
	return &Ranker{
		strategy: cfg.Strategy,
		weighted: cfg.Weighted,
		oracle:   cfg.Oracle,
	}, nil
}

// Strategy returns the configured strategy.
func (r *Ranker) Strategy() domain.Strategy {
	return r.strategy
}

// Select picks the recommendation for q from the given candidates. It returns
// ErrNoCompatibleCandidates when nothing is selectable; it never fabricates a
// placeholder recommendation.
func (r *Ranker) Select(ctx context.Context, q domain.Query, candidates []domain.Candidate) (*domain.Recommendation, error) {
	switch r.strategy {
	case domain.StrategyCheapest:
		return r.pickCheapest(q, candidates)
	case domain.StrategyWeighted:
		return r.pickWeighted(q, candidates)
	case domain.StrategyDelegated:
		return r.pickDelegated(ctx, q, candidates)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStrategy, r.strategy)
	}
}

// pickCheapest selects the lowest-priced eligible candidate, breaking price
// ties toward the lexicographically smaller store identifier.
func (r *Ranker) pickCheapest(q domain.Query, candidates []domain.Candidate) (*domain.Recommendation, error) {
	best := -1
	for i, c := range candidates {
		if !c.Eligible() {
			continue
		}
		if best == -1 || cheaper(c, candidates[best]) {
			best = i
		}
	}
	if best == -1 {
		return nil, domain.ErrNoCompatibleCandidates
	}

	winner := candidates[best]
	return &domain.Recommendation{
		Candidate: winner,
		Rationale: fmt.Sprintf("cheapest option at $%.2f from %s", *winner.Price, winner.Store),
		Suitable:  winner.MeetsConstraints(q.Constraints),
		Strategy:  domain.StrategyCheapest,
	}, nil
}

// pickWeighted scores each eligible candidate and selects the highest score.
// Score ties break the same way cheapest does: lower price, then store.
func (r *Ranker) pickWeighted(q domain.Query, candidates []domain.Candidate) (*domain.Recommendation, error) {
	best := -1
	bestScore := 0.0
	bestMatched := 0

	for i, c := range candidates {
		if !c.Eligible() {
			continue
		}
		score, matched := r.score(c)
		if best == -1 || score > bestScore || (score == bestScore && cheaper(c, candidates[best])) {
			best = i
			bestScore = score
			bestMatched = matched
		}
	}
	if best == -1 {
		return nil, domain.ErrNoCompatibleCandidates
	}

	winner := candidates[best]
	return &domain.Recommendation{
		Candidate: winner,
		Rationale: fmt.Sprintf("weighted score %.2f ($%.2f, %d preferred tag(s)) from %s",
			bestScore, *winner.Price, bestMatched, winner.Store),
		Suitable: winner.MeetsConstraints(q.Constraints),
		Strategy: domain.StrategyWeighted,
	}, nil
}

// score computes the weighted score and the number of preferred tags matched.
func (r *Ranker) score(c domain.Candidate) (float64, int) {
	score := 0.0
	if r.weighted.PriceCeiling > 0 && *c.Price > r.weighted.PriceCeiling {
		score -= (*c.Price - r.weighted.PriceCeiling) * r.weighted.OverPricePenalty
	}
	matched := 0
	for t := range r.weighted.PreferredTags {
		if c.Dietary.Handles(t) {
			matched++
		}
	}
	score += float64(matched) * r.weighted.TagBonus
	return score, matched
}

// pickDelegated asks the oracle to choose and maps its answer back onto a
// real candidate. Any answer that cannot be mapped, or any oracle failure,
// falls back to the cheapest pick over the same candidates.
func (r *Ranker) pickDelegated(ctx context.Context, q domain.Query, candidates []domain.Candidate) (*domain.Recommendation, error) {
	if len(candidates) == 0 {
		return nil, domain.ErrNoCompatibleCandidates
	}

	selection, err := r.oracle.SelectProduct(ctx, q, candidates)
	if err != nil {
		return r.fallback(q, candidates, fmt.Sprintf("oracle error: %v", err))
	}
	if selection == nil || strings.TrimSpace(selection.Store) == "" {
		return r.fallback(q, candidates, "oracle returned no store")
	}

	winner, ok := findByStore(candidates, selection.Store, selection.ProductName)
	if !ok {
		return r.fallback(q, candidates, fmt.Sprintf("oracle chose unknown store %q", selection.Store))
	}

	rationale := strings.TrimSpace(selection.Explanation)
	if rationale == "" {
		rationale = fmt.Sprintf("selected by oracle from %d candidate(s)", len(candidates))
	}
	return &domain.Recommendation{
		Candidate: winner,
		Rationale: rationale,
		Suitable:  winner.MeetsConstraints(q.Constraints),
		Strategy:  domain.StrategyDelegated,
	}, nil
}

// fallback degrades a delegated pick to the cheapest pick, keeping the
// requested strategy and recording why delegation failed.
func (r *Ranker) fallback(q domain.Query, candidates []domain.Candidate, reason string) (*domain.Recommendation, error) {
	log.Printf("[RANK] delegation failed, falling back to cheapest: %s", reason)
	rec, err := r.pickCheapest(q, candidates)
	if err != nil {
		return nil, err
	}
	rec.Rationale = "fallback: " + reason
	rec.Strategy = domain.StrategyDelegated
	return rec, nil
}

// cheaper orders candidates by price ascending, then store ascending. Both
// candidates must be priced.
func cheaper(a, b domain.Candidate) bool {
	if *a.Price != *b.Price {
		return *a.Price < *b.Price
	}
	return a.Store < b.Store
}

// findByStore locates the oracle's chosen candidate. When the store fields
// several candidates, a product-name match wins; otherwise the store's first
// candidate does.
func findByStore(candidates []domain.Candidate, store, product string) (domain.Candidate, bool) {
	wantStore := domain.NormalizeStoreID(store)
	first := -1
	for i, c := range candidates {
		if domain.NormalizeStoreID(c.Store) != wantStore {
			continue
		}
		if product != "" && strings.EqualFold(strings.TrimSpace(c.ProductName), strings.TrimSpace(product)) {
			return c, true
		}
		if first == -1 {
			first = i
		}
	}
	if first == -1 {
		return domain.Candidate{}, false
	}
	return candidates[first], true
}
