package stores

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/cartscout/backend/internal/domain"
)

// WebStoreSelectors are the CSS selectors used to pull products out of a
// store's search results page. Zero values fall back to the conventional
// class names.
type WebStoreSelectors struct {
	Product      string
	Name         string
	Price        string
	Availability string
	DietaryBadge string
}

func (s WebStoreSelectors) withDefaults() WebStoreSelectors {
	if s.Product == "" {
		s.Product = ".product-item"
	}
	if s.Name == "" {
		s.Name = ".product-name"
	}
	if s.Price == "" {
		s.Price = ".product-price"
	}
	if s.Availability == "" {
		s.Availability = ".stock-status"
	}
	if s.DietaryBadge == "" {
		s.DietaryBadge = ".dietary-badge"
	}
	return s
}

// WebStoreConfig configures a WebStoreSource.
type WebStoreConfig struct {
	Store   string
	BaseURL string
	// SearchPath is a printf pattern with one %s for the escaped query,
	// default "/search?q=%s".
	SearchPath string
	Selectors  WebStoreSelectors
	Timeout    time.Duration
	UserAgent  string
}

// WebStoreSource scrapes a store's public search page for prices. Stores
// without an API still render their inventory as HTML; this source turns that
// markup into candidates.
type WebStoreSource struct {
	store      string
	client     *resty.Client
	searchPath string
	selectors  WebStoreSelectors
}

// NewWebStoreSource creates a scraping source for one store.
func NewWebStoreSource(cfg WebStoreConfig) *WebStoreSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	searchPath := cfg.SearchPath
	if searchPath == "" {
		searchPath = "/search?q=%s"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "CartScout/1.0"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)

	return &WebStoreSource{
		store:      domain.NormalizeStoreID(cfg.Store),
		client:     client,
		searchPath: searchPath,
		selectors:  cfg.Selectors.withDefaults(),
	}
}

// Store returns the store identifier.
func (w *WebStoreSource) Store() string { return w.store }

// Fetch scrapes the store's search results for the queried item.
func (w *WebStoreSource) Fetch(ctx context.Context, q domain.Query) (domain.SourceResult, error) {
	resp, err := w.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf(w.searchPath, url.QueryEscape(q.Item)))
	if err != nil {
		return domain.SourceResult{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return domain.SourceResult{
			Store:      w.store,
			Status:     domain.SourceNoData,
			Candidates: []domain.Candidate{},
		}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.SourceResult{}, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return domain.SourceResult{}, fmt.Errorf("parse search page: %w", err)
	}

	candidates := w.scrape(doc)
	if len(candidates) == 0 {
		return domain.SourceResult{
			Store:      w.store,
			Status:     domain.SourceNoData,
			Candidates: []domain.Candidate{},
		}, nil
	}
	return domain.SourceResult{
		Store:      w.store,
		Status:     domain.SourceOK,
		Candidates: candidates,
	}, nil
}

func (w *WebStoreSource) scrape(doc *goquery.Document) []domain.Candidate {
	var candidates []domain.Candidate

	doc.Find(w.selectors.Product).Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(w.selectors.Name).First().Text())
		if name == "" {
			return
		}

		price := parsePrice(item.Find(w.selectors.Price).First().Text())

		// Listed products count as available unless the page says otherwise.
		stock := strings.ToLower(strings.TrimSpace(item.Find(w.selectors.Availability).First().Text()))
		available := !strings.Contains(stock, "out of stock") && !strings.Contains(stock, "unavailable")

		var handled []domain.Tag
		item.Find(w.selectors.DietaryBadge).Each(func(_ int, badge *goquery.Selection) {
			if t := domain.NormalizeTag(badge.Text()); t != "" {
				handled = append(handled, t)
			}
		})

		candidates = append(candidates, domain.Candidate{
			Store:       w.store,
			ProductName: name,
			Price:       price,
			Available:   available,
			Dietary:     domain.DietaryInfo{HandledRestrictions: handled},
		})
	})

	return candidates
}

var priceValuePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parsePrice extracts a price from display text like "$3.99" or "USD 4.50".
// Unparsable text yields nil: a missing price must stay missing, not zero.
func parsePrice(text string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	raw := priceValuePattern.FindString(cleaned)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
