package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/cartscout/backend/internal/domain"
)

// stubSource is a scriptable StoreSource shared by the tests in this package.
type stubSource struct {
	store      string
	candidates []domain.Candidate
	perItem    map[string][]domain.Candidate
	result     *domain.SourceResult
	err        error
	delay      time.Duration
	panicMsg   string
	calls      atomic.Int32
}

func (s *stubSource) Store() string { return s.store }

func (s *stubSource) Fetch(ctx context.Context, q domain.Query) (domain.SourceResult, error) {
	s.calls.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.SourceResult{}, ctx.Err()
		}
	}
	if s.err != nil {
		return domain.SourceResult{}, s.err
	}
	if s.result != nil {
		return *s.result, nil
	}
	candidates := s.candidates
	if s.perItem != nil {
		candidates = s.perItem[q.Item]
	}
	return domain.SourceResult{
		Store:      s.store,
		Status:     domain.SourceOK,
		Candidates: candidates,
	}, nil
}

// cand builds a test candidate with a known price.
func cand(store, name string, price float64, available bool, tags ...string) domain.Candidate {
	handled := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		handled = append(handled, domain.NormalizeTag(t))
	}
	return domain.Candidate{
		Store:       store,
		ProductName: name,
		Price:       domain.PriceOf(price),
		Available:   available,
		Dietary:     domain.DietaryInfo{HandledRestrictions: handled},
	}
}

// unpriced builds a test candidate without a price.
func unpriced(store, name string) domain.Candidate {
	return domain.Candidate{Store: store, ProductName: name, Available: true}
}

func TestAggregateNoSources(t *testing.T) {
	agg := NewAggregator(nil, time.Second)

	_, err := agg.Aggregate(context.Background(), domain.NewQuery("milk"))
	if !errors.Is(err, domain.ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestAggregateOneResultPerSourceInOrder(t *testing.T) {
	sources := []domain.StoreSource{
		&stubSource{store: "costwise", candidates: []domain.Candidate{cand("costwise", "milk", 2.99, true)}},
		&stubSource{store: "greenleaf", err: errors.New("connection refused")},
		&stubSource{store: "midtown", candidates: []domain.Candidate{cand("midtown", "milk", 3.49, true)}},
	}
	agg := NewAggregator(sources, time.Second)

	result, err := agg.Aggregate(context.Background(), domain.NewQuery("milk"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sources) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(result.Sources))
	}

	wantOrder := []string{"costwise", "greenleaf", "midtown"}
	for i, want := range wantOrder {
		if result.Sources[i].Store != want {
			t.Errorf("result %d: store = %q, want %q", i, result.Sources[i].Store, want)
		}
	}

	if got := result.Sources[0].Status; got != domain.SourceOK {
		t.Errorf("costwise status = %q, want ok", got)
	}
	if got := result.Sources[1].Status; got != domain.SourceError {
		t.Errorf("greenleaf status = %q, want error", got)
	}
	if result.Sources[1].Detail == "" {
		t.Error("failed source should carry a detail message")
	}
	if len(result.Sources[1].Candidates) != 0 {
		t.Error("failed source should carry no candidates")
	}
}

func TestAggregateSlowSourceTimesOutAlone(t *testing.T) {
	defer goleak.VerifyNone(t)

	sources := []domain.StoreSource{
		&stubSource{store: "costwise", delay: 3 * time.Second},
		&stubSource{store: "greenleaf", candidates: []domain.Candidate{cand("greenleaf", "milk", 3.29, true)}},
	}
	agg := NewAggregator(sources, 100*time.Millisecond)

	start := time.Now()
	result, err := agg.Aggregate(context.Background(), domain.NewQuery("milk"))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed > 1500*time.Millisecond {
		t.Fatalf("aggregation took %v; slow source was not isolated by its deadline", elapsed)
	}

	slow, _ := result.ByStore("costwise")
	if slow.Status != domain.SourceTimeout {
		t.Errorf("slow source status = %q, want timeout", slow.Status)
	}
	fast, _ := result.ByStore("greenleaf")
	if fast.Status != domain.SourceOK {
		t.Errorf("fast source status = %q, want ok", fast.Status)
	}
}

func TestAggregatePanicBecomesErrorResult(t *testing.T) {
	sources := []domain.StoreSource{
		&stubSource{store: "costwise", panicMsg: "nil map write"},
		&stubSource{store: "greenleaf", candidates: []domain.Candidate{cand("greenleaf", "milk", 3.29, true)}},
	}
	agg := NewAggregator(sources, time.Second)

	result, err := agg.Aggregate(context.Background(), domain.NewQuery("milk"))
	if err != nil {
		t.Fatalf("a panicking source must not fail the aggregation: %v", err)
	}

	bad, _ := result.ByStore("costwise")
	if bad.Status != domain.SourceError {
		t.Errorf("panicking source status = %q, want error", bad.Status)
	}
	if !strings.Contains(bad.Detail, "panic") {
		t.Errorf("detail %q should mention the panic", bad.Detail)
	}
	good, _ := result.ByStore("greenleaf")
	if good.Status != domain.SourceOK {
		t.Errorf("healthy source status = %q, want ok", good.Status)
	}
}

func TestAggregateNormalizesResults(t *testing.T) {
	t.Run("empty success becomes no_data", func(t *testing.T) {
		src := &stubSource{
			store:  "costwise",
			result: &domain.SourceResult{Status: domain.SourceOK, Candidates: nil},
		}
		agg := NewAggregator([]domain.StoreSource{src}, time.Second)

		result, err := agg.Aggregate(context.Background(), domain.NewQuery("durian"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := result.Sources[0].Status; got != domain.SourceNoData {
			t.Errorf("status = %q, want no_data", got)
		}
		if result.Sources[0].Candidates == nil {
			t.Error("candidates should be normalized to an empty slice")
		}
	})

	t.Run("source cannot impersonate another store", func(t *testing.T) {
		src := &stubSource{
			store: "costwise",
			result: &domain.SourceResult{
				Store:      "greenleaf",
				Status:     domain.SourceOK,
				Candidates: []domain.Candidate{cand("greenleaf", "milk", 0.01, true)},
			},
		}
		agg := NewAggregator([]domain.StoreSource{src}, time.Second)

		result, err := agg.Aggregate(context.Background(), domain.NewQuery("milk"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := result.Sources[0].Store; got != "costwise" {
			t.Errorf("result store = %q, want costwise", got)
		}
		if got := result.Sources[0].Candidates[0].Store; got != "costwise" {
			t.Errorf("candidate store = %q, want costwise", got)
		}
	})
}
