package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

func sampleResult(item string) *domain.AggregatedResult {
	return &domain.AggregatedResult{
		Query: domain.NewQuery(item, "gluten-free"),
		Sources: []domain.SourceResult{
			{
				Store:  "costwise",
				Status: domain.SourceOK,
				Candidates: []domain.Candidate{
					{
						Store:       "costwise",
						ProductName: "rice flour bread",
						Price:       domain.PriceOf(3.99),
						Available:   true,
						Dietary: domain.DietaryInfo{
							HandledRestrictions: []domain.Tag{"gluten-free"},
						},
					},
				},
			},
			{Store: "midtown", Status: domain.SourceTimeout, Detail: "deadline exceeded", Candidates: []domain.Candidate{}},
		},
	}
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	want := sampleResult("bread")
	if err := c.Set(ctx, want.Query.CacheKey(), want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	got, err := c.Get(ctx, want.Query.CacheKey())
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}

	if got.Query.Item != "bread" {
		t.Errorf("Query.Item = %s, want bread", got.Query.Item)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(got.Sources))
	}
	if got.Sources[0].Store != "costwise" || got.Sources[1].Store != "midtown" {
		t.Errorf("source order not preserved: %s, %s", got.Sources[0].Store, got.Sources[1].Store)
	}
	if got.Sources[1].Status != domain.SourceTimeout {
		t.Errorf("Sources[1].Status = %s, want timeout", got.Sources[1].Status)
	}

	cand := got.Sources[0].Candidates[0]
	if cand.Price == nil || *cand.Price != 3.99 {
		t.Errorf("candidate price not preserved through the cache")
	}
	if !cand.MeetsConstraints(got.Query.Constraints) {
		t.Errorf("candidate restrictions not preserved through the cache")
	}
}

func TestMemoryCache_MissOnAbsentKey(t *testing.T) {
	c := NewMemoryCache()

	_, err := c.Get(context.Background(), "quote:nothing:")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_MissOnExpiredKey(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "quote:milk:", sampleResult("milk"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "quote:milk:")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "quote:eggs:", sampleResult("eggs"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "quote:eggs:"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := c.Get(ctx, "quote:eggs:")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_CachedCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	original := sampleResult("bread")
	if err := c.Set(ctx, "quote:bread:", original, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Mutating the original after Set must not leak into cached reads.
	original.Sources[0].Candidates[0].ProductName = "mutated"

	got, err := c.Get(ctx, "quote:bread:")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Sources[0].Candidates[0].ProductName != "rice flour bread" {
		t.Errorf("cached value shares memory with the caller's result")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("quote:item-%d:", n%8)
			_ = c.Set(ctx, key, sampleResult("item"), time.Minute)
			_, _ = c.Get(ctx, key)
			if n%10 == 0 {
				_ = c.Delete(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if c.Size() > 8 {
		t.Errorf("Size() = %d, want at most 8 distinct keys", c.Size())
	}
}
