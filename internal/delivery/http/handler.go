package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	shopping *usecase.ShoppingService
}

// NewHandler creates a new HTTP handler
func NewHandler(shopping *usecase.ShoppingService) *Handler {
	return &Handler{shopping: shopping}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartscout-backend",
		"version": "1.0.0",
	})
}

// ListStores returns the configured store identifiers in fan-out order.
func (h *Handler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stores": h.shopping.Stores(),
	})
}

// listItem is one shopping-list entry. The original clients send either a
// bare string ("milk") or an object carrying per-item restrictions; both are
// accepted and the per-item restrictions merge into the list-wide set.
type listItem struct {
	Name         string   `json:"name"`
	Restrictions []string `json:"dietary_restrictions"`
}

func (i *listItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		i.Name = name
		i.Restrictions = nil
		return nil
	}

	type alias listItem
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*i = listItem(obj)
	return nil
}

// analyzeListRequest is the body of POST /api/v1/shopping-list/analyze.
type analyzeListRequest struct {
	Items               []listItem `json:"items" binding:"required"`
	DietaryRestrictions []string   `json:"dietary_restrictions"`
	Strategy            string     `json:"strategy"`
}

// searchItemRequest is the body of POST /api/v1/items/search.
type searchItemRequest struct {
	Name                string   `json:"name" binding:"required"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Strategy            string   `json:"strategy"`
}

// AnalyzeShoppingList prices a whole shopping list across all stores and
// returns the summary: per-item picks, per-store totals and the best store.
func (h *Handler) AnalyzeShoppingList(c *gin.Context) {
	var req analyzeListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	strategy, ok := parseStrategy(c, req.Strategy)
	if !ok {
		return
	}

	constraints := domain.NewTagSet(req.DietaryRestrictions...)
	items := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		items = append(items, it.Name)
		constraints = constraints.Merge(domain.NewTagSet(it.Restrictions...))
	}

	list := domain.ShoppingList{Items: items, Constraints: constraints}
	summary, err := h.shopping.ProcessList(c.Request.Context(), list, strategy)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// SearchItem prices one item across all stores and returns the per-store
// breakdown with a recommendation.
func (h *Handler) SearchItem(c *gin.Context) {
	var req searchItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	strategy, ok := parseStrategy(c, req.Strategy)
	if !ok {
		return
	}

	q := domain.NewQuery(req.Name, req.DietaryRestrictions...)
	agg, result, err := h.shopping.SearchItem(c.Request.Context(), q, strategy)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":    result.Item,
		"result":  result,
		"sources": agg.Sources,
	})
}

// parseStrategy validates an optional per-request strategy override. It
// writes the error response itself and reports success via ok.
func parseStrategy(c *gin.Context, raw string) (domain.Strategy, bool) {
	if raw == "" {
		return "", true
	}
	strategy, err := domain.ParseStrategy(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_strategy", err.Error())
		return "", false
	}
	return strategy, true
}

// writeServiceError maps pipeline errors onto HTTP statuses. Precondition
// violations are the caller's fault; everything else is ours.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyShoppingList),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidStrategy):
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrOracleUnavailable):
		// Asking for the delegated strategy on a deployment with no oracle
		// configured is a caller error, not an outage.
		writeError(c, http.StatusBadRequest, "invalid_strategy", err.Error())
	case errors.Is(err, domain.ErrNoSources):
		writeError(c, http.StatusServiceUnavailable, "no_sources", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal_error", "failed to process request")
	}
}

// writeError emits the uniform error body.
func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
