package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// OracleError wraps a failure anywhere along the oracle call so callers can
// tell "the oracle misbehaved" apart from their own bugs with errors.As.
// The ranker treats every OracleError as a signal to fall back.
type OracleError struct {
	Stage string // "request", "status", "decode", "selection"
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Stage, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// IsOracleError reports whether err originated in the oracle client.
func IsOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}

// Config configures the oracle client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	Debug       bool
}

// Client asks an OpenAI-compatible chat-completions endpoint to pick the best
// product among compatible candidates. The reply is advisory only: the caller
// maps the named store back onto its own candidate set and falls back to a
// deterministic pick when that fails.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	debug       bool
}

// NewClient creates an oracle client. A blank API key fails fast so a
// delegated deployment cannot silently run without its oracle.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key not configured", domain.ErrOracleUnavailable)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		debug:       cfg.Debug,
	}, nil
}

// SetDebug enables verbose logging of oracle traffic.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Chat-completions wire shapes, trimmed to the fields this client uses.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// selectionPayload is the JSON document the oracle is instructed to reply with.
type selectionPayload struct {
	Store       string `json:"store"`
	ProductName string `json:"product_name"`
	Explanation string `json:"explanation"`
}

// SelectProduct asks the oracle to choose among the given candidates.
// Every failure is returned as an *OracleError; the client never invents a
// selection of its own.
func (c *Client) SelectProduct(ctx context.Context, q domain.Query, candidates []domain.Candidate) (*domain.OracleSelection, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(q, candidates)},
		},
		Temperature:    c.temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &OracleError{Stage: "request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &OracleError{Stage: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &OracleError{Stage: "request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &OracleError{Stage: "decode", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &OracleError{
			Stage: "status",
			Err:   fmt.Errorf("%w: status %d", domain.ErrOracleUnavailable, resp.StatusCode),
		}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, &OracleError{Stage: "decode", Err: err}
	}
	if len(chat.Choices) == 0 {
		return nil, &OracleError{Stage: "decode", Err: fmt.Errorf("response carried no choices")}
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)
	if c.debug {
		log.Printf("[ORACLE] raw selection for %q: %s", q.Item, content)
	}

	var sel selectionPayload
	if err := json.Unmarshal([]byte(content), &sel); err != nil {
		return nil, &OracleError{
			Stage: "selection",
			Err:   fmt.Errorf("%w: %v", domain.ErrOracleBadSelection, err),
		}
	}
	if strings.TrimSpace(sel.Store) == "" {
		return nil, &OracleError{
			Stage: "selection",
			Err:   fmt.Errorf("%w: no store named", domain.ErrOracleBadSelection),
		}
	}

	return &domain.OracleSelection{
		Store:       sel.Store,
		ProductName: sel.ProductName,
		Explanation: strings.TrimSpace(sel.Explanation),
	}, nil
}

const systemPrompt = "You are a grocery shopping assistant. You compare product " +
	"offers from different stores and pick the single best one for the shopper, " +
	"weighing price against how well the product fits their dietary needs. " +
	"Reply with JSON only, in the form " +
	`{"store": "...", "product_name": "...", "explanation": "..."}` +
	", where store is exactly one of the store identifiers you were given."

// buildPrompt renders the query and candidate set for the oracle. Only
// identifiers from this text are acceptable in the reply.
func buildPrompt(q domain.Query, candidates []domain.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Item: %s\n", q.Item)
	if !q.Constraints.Empty() {
		fmt.Fprintf(&b, "Dietary requirements: %s\n", q.Constraints.String())
	} else {
		b.WriteString("Dietary requirements: none\n")
	}
	b.WriteString("\nOffers:\n")

	for _, c := range candidates {
		fmt.Fprintf(&b, "- store: %s | product: %s", c.Store, c.ProductName)
		if c.Price != nil {
			fmt.Fprintf(&b, " | price: $%.2f", *c.Price)
		}
		if len(c.Dietary.HandledRestrictions) > 0 {
			tags := make([]string, len(c.Dietary.HandledRestrictions))
			for i, t := range c.Dietary.HandledRestrictions {
				tags[i] = string(t)
			}
			fmt.Fprintf(&b, " | handles: %s", strings.Join(tags, ", "))
		}
		if len(c.Dietary.Ingredients) > 0 {
			fmt.Fprintf(&b, " | ingredients: %s", strings.Join(c.Dietary.Ingredients, ", "))
		}
		if c.Dietary.AllergenNote != "" {
			fmt.Fprintf(&b, " | allergens: %s", c.Dietary.AllergenNote)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPick the best offer and reply with JSON only.")
	return b.String()
}

// stripCodeFence removes a markdown code fence some models wrap JSON in,
// fenced or language-tagged.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
