package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cartscout/backend/internal/domain"
)

const catalogMaxRetries = 3

// CatalogAPIConfig configures a CatalogAPISource.
type CatalogAPIConfig struct {
	Store   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls; store APIs meter by key.
	RequestsPerSecond float64
	Burst             int
	Debug             bool
}

// CatalogAPISource queries a store's JSON catalog endpoint:
// GET {base}/products/search?q={item}&tags={tags}&api_key={key}.
// Transient failures are retried with a short backoff; a clean 404 is a
// no_data answer, not an error.
type CatalogAPISource struct {
	store       string
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewCatalogAPISource creates a catalog API source for one store.
func NewCatalogAPISource(cfg CatalogAPIConfig) *CatalogAPISource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &CatalogAPISource{
		store:       domain.NormalizeStoreID(cfg.Store),
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		debug:       cfg.Debug,
	}
}

// Store returns the store identifier.
func (c *CatalogAPISource) Store() string { return c.store }

// Wire shapes for the catalog search endpoint.
type catalogSearchResponse struct {
	Products []catalogProduct `json:"products"`
}

type catalogProduct struct {
	Name                string   `json:"name"`
	Price               *float64 `json:"price"`
	Available           bool     `json:"available"`
	RestrictionsHandled []string `json:"restrictions_handled"`
	Ingredients         []string `json:"ingredients"`
	AllergenInfo        string   `json:"allergen_info"`
}

// Fetch searches the store catalog for the queried item.
func (c *CatalogAPISource) Fetch(ctx context.Context, q domain.Query) (domain.SourceResult, error) {
	endpoint := fmt.Sprintf("%s/products/search", c.baseURL)
	params := url.Values{}
	params.Add("q", q.Item)
	if !q.Constraints.Empty() {
		params.Add("tags", q.Constraints.String())
	}
	if c.apiKey != "" {
		params.Add("api_key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= catalogMaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return domain.SourceResult{}, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return domain.SourceResult{}, ctx.Err()
			}
			log.Printf("[CATALOG] %s request error (attempt %d): %v", c.store, attempt, err)
			lastErr = err
			if !c.sleepRetry(ctx, attempt) {
				return domain.SourceResult{}, ctx.Err()
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return domain.SourceResult{
				Store:      c.store,
				Status:     domain.SourceNoData,
				Candidates: []domain.Candidate{},
			}, nil
		}
		if resp.StatusCode != http.StatusOK {
			log.Printf("[CATALOG] %s API error (attempt %d) - status: %d", c.store, attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
			if !c.sleepRetry(ctx, attempt) {
				return domain.SourceResult{}, ctx.Err()
			}
			continue
		}

		var searchResp catalogSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return domain.SourceResult{}, fmt.Errorf("decode catalog response: %w", err)
		}

		if c.debug {
			log.Printf("[CATALOG] %s returned %d products for %q", c.store, len(searchResp.Products), q.Item)
		}
		return c.toResult(searchResp), nil
	}

	return domain.SourceResult{}, lastErr
}

// doRequest executes an HTTP GET request with proper headers.
func (c *CatalogAPISource) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartScout/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return resp, nil
}

// sleepRetry waits out the backoff for the given attempt. It returns false
// when the context died first.
func (c *CatalogAPISource) sleepRetry(ctx context.Context, attempt int) bool {
	select {
	case <-time.After(retryBackoff(attempt)):
		return true
	case <-ctx.Done():
		return false
	}
}

// retryBackoff grows linearly: 500ms, 1s, 1.5s.
func retryBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

func (c *CatalogAPISource) toResult(resp catalogSearchResponse) domain.SourceResult {
	if len(resp.Products) == 0 {
		return domain.SourceResult{
			Store:      c.store,
			Status:     domain.SourceNoData,
			Candidates: []domain.Candidate{},
		}
	}

	candidates := make([]domain.Candidate, 0, len(resp.Products))
	for _, p := range resp.Products {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		handled := make([]domain.Tag, 0, len(p.RestrictionsHandled))
		for _, r := range p.RestrictionsHandled {
			if t := domain.NormalizeTag(r); t != "" {
				handled = append(handled, t)
			}
		}
		candidates = append(candidates, domain.Candidate{
			Store:       c.store,
			ProductName: p.Name,
			Price:       p.Price,
			Available:   p.Available,
			Dietary: domain.DietaryInfo{
				HandledRestrictions: handled,
				Ingredients:         p.Ingredients,
				AllergenNote:        p.AllergenInfo,
			},
		})
	}

	if len(candidates) == 0 {
		return domain.SourceResult{
			Store:      c.store,
			Status:     domain.SourceNoData,
			Candidates: []domain.Candidate{},
		}
	}
	return domain.SourceResult{
		Store:      c.store,
		Status:     domain.SourceOK,
		Candidates: candidates,
	}
}
