package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/stores"
	"github.com/cartscout/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// testRouter wires the full pipeline over two in-memory stores: only
// costwise stocks a gluten-free bread, and nobody stocks a gluten-free milk.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()

	sources := []domain.StoreSource{
		stores.NewStaticSource(stores.StaticConfig{
			Store: "costwise",
			Catalog: []stores.StaticProduct{
				{
					Name: "rice flour bread", Price: 3.99, Available: true,
					Restrictions: []string{"gluten-free"},
				},
				{Name: "whole milk", Price: 2.99, Available: true},
			},
		}),
		stores.NewStaticSource(stores.StaticConfig{
			Store: "midtown",
			Catalog: []stores.StaticProduct{
				{Name: "country white bread", Price: 3.49, Available: true},
				{Name: "2% reduced fat milk", Price: 3.19, Available: true},
			},
		}),
	}

	aggregator := usecase.NewAggregator(sources, time.Second)
	shopping, err := usecase.NewShoppingService(aggregator, nil, usecase.ShoppingServiceConfig{
		Ranking: usecase.RankerConfig{Strategy: domain.StrategyCheapest},
	})
	if err != nil {
		t.Fatalf("NewShoppingService() error = %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
	}
	return SetupRouter(cfg, NewHandler(shopping))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %s, want healthy", resp["status"])
	}
}

func TestListStores(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "GET", "/api/v1/stores", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Stores []string `json:"stores"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	want := []string{"costwise", "midtown"}
	if len(resp.Stores) != len(want) {
		t.Fatalf("stores = %v, want %v", resp.Stores, want)
	}
	for i := range want {
		if resp.Stores[i] != want[i] {
			t.Errorf("stores[%d] = %s, want %s", i, resp.Stores[i], want[i])
		}
	}
}

func TestAnalyzeShoppingList_GlutenFree(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", map[string]any{
		"items":                []string{"milk", "bread"},
		"dietary_restrictions": []string{"gluten-free"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var summary domain.ListSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}

	if len(summary.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(summary.Items))
	}

	// No store has a gluten-free milk.
	milk := summary.Items[0]
	if !milk.Unresolved {
		t.Errorf("milk should be unresolved, got recommendation %+v", milk.Recommendation)
	}

	// Only costwise's bread is tagged gluten-free.
	bread := summary.Items[1]
	if bread.Unresolved {
		t.Fatalf("bread should be resolved, reason: %s", bread.Reason)
	}
	if bread.Recommendation.Candidate.Store != "costwise" {
		t.Errorf("bread store = %s, want costwise", bread.Recommendation.Candidate.Store)
	}
	if !bread.Recommendation.Suitable {
		t.Error("bread recommendation should be marked suitable")
	}

	if summary.Resolved != 1 || summary.Unresolved != 1 {
		t.Errorf("resolved/unresolved = %d/%d, want 1/1", summary.Resolved, summary.Unresolved)
	}
	if len(summary.StoreTotals) != 1 {
		t.Fatalf("len(StoreTotals) = %d, want 1", len(summary.StoreTotals))
	}
	if summary.StoreTotals[0].Store != "costwise" || summary.StoreTotals[0].Total != 3.99 {
		t.Errorf("total = %+v, want costwise at 3.99", summary.StoreTotals[0])
	}
	if summary.BestStore != "costwise" {
		t.Errorf("BestStore = %s, want costwise", summary.BestStore)
	}
}

func TestAnalyzeShoppingList_Idempotent(t *testing.T) {
	router := testRouter(t)

	body := map[string]any{
		"items":                []string{"milk", "bread"},
		"dietary_restrictions": []string{"gluten-free"},
	}
	first := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", body)
	second := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", body)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200, 200", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Errorf("identical requests produced different bytes:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestAnalyzeShoppingList_PerItemRestrictionsMerge(t *testing.T) {
	router := testRouter(t)

	// The gluten-free restriction rides on the bread entry but applies to the
	// whole list, so milk becomes unresolved too.
	w := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", map[string]any{
		"items": []any{
			"milk",
			map[string]any{"name": "bread", "dietary_restrictions": []string{"gluten-free"}},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var summary domain.ListSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if !summary.Items[0].Unresolved {
		t.Error("milk should be unresolved once the merged constraints apply")
	}
	if summary.Items[1].Unresolved {
		t.Errorf("bread should be resolved, reason: %s", summary.Items[1].Reason)
	}
}

func TestAnalyzeShoppingList_EmptyList(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", map[string]any{
		"items": []string{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error body missing error code")
	}
}

func TestAnalyzeShoppingList_InvalidStrategy(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/shopping-list/analyze", map[string]any{
		"items":    []string{"milk"},
		"strategy": "coin-flip",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["error"] != "invalid_strategy" {
		t.Errorf("error = %s, want invalid_strategy", resp["error"])
	}
}

func TestSearchItem(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/items/search", map[string]any{
		"name": "milk",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Item    string                `json:"item"`
		Result  domain.ItemResult     `json:"result"`
		Sources []domain.SourceResult `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if len(resp.Sources) != 2 {
		t.Fatalf("len(sources) = %d, want one per configured store", len(resp.Sources))
	}
	if resp.Result.Unresolved {
		t.Fatalf("milk should resolve without constraints, reason: %s", resp.Result.Reason)
	}
	// costwise's whole milk at 2.99 beats midtown's at 3.19.
	if got := resp.Result.Recommendation.Candidate.Store; got != "costwise" {
		t.Errorf("store = %s, want costwise", got)
	}
}

func TestSearchItem_NameNormalizesToNothing(t *testing.T) {
	router := testRouter(t)

	// "2 x" is all quantity, no item; the response is still a 200 with an
	// unresolved result and an empty breakdown.
	w := doJSON(t, router, "POST", "/api/v1/items/search", map[string]any{
		"name": "2 x",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Item    string                `json:"item"`
		Result  domain.ItemResult     `json:"result"`
		Sources []domain.SourceResult `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Result.Unresolved || resp.Result.Reason == "" {
		t.Errorf("result = %+v, want unresolved with a reason", resp.Result)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %+v, want empty", resp.Sources)
	}
}

func TestSearchItem_DelegatedWithoutOracle(t *testing.T) {
	router := testRouter(t)

	// The test deployment has no oracle, so asking for the delegated strategy
	// is the caller's mistake.
	w := doJSON(t, router, "POST", "/api/v1/items/search", map[string]any{
		"name":     "milk",
		"strategy": "delegated",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["error"] != "invalid_strategy" {
		t.Errorf("error = %s, want invalid_strategy", resp["error"])
	}
}

func TestSearchItem_MissingName(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/items/search", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
