package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the external decision endpoint settings, read from the
// environment. An empty URL means the endpoint is disabled.
type Config struct {
	URL     string        `env:"RTS_DECIDER_URL"`
	APIKey  string        `env:"RTS_DECIDER_KEY"`
	Timeout time.Duration `env:"RTS_DECIDER_TIMEOUT" envDefault:"10s"`
}

// LoadConfig parses decision endpoint settings from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse decider env: %w", err)
	}
	return cfg, nil
}

// maxErrorBody caps how much of an error response gets read back into
// error messages.
const maxErrorBody = 4 << 10

// HTTPClient talks JSON to an external decision service. Unit decisions
// POST to /decide, commander plans POST to /plan.
type HTTPClient struct {
	cfg Config
	hc  *http.Client
}

// NewHTTPClient returns ErrDecisionDisabled when no URL is configured so
// callers can fall back to a local client. Pass a nil *http.Client to get
// one with the configured timeout.
func NewHTTPClient(cfg Config, hc *http.Client) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, ErrDecisionDisabled
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClient{cfg: cfg, hc: hc}, nil
}

// DecideAction implements Client
func (c *HTTPClient) DecideAction(ctx context.Context, p UnitPerception) (Action, error) {
	var out Action
	if err := c.post(ctx, "/decide", p, &out); err != nil {
		return Action{}, err
	}
	if !out.Valid() {
		return Action{}, &TransientError{Err: fmt.Errorf("unknown action %q", out.Type)}
	}
	return out, nil
}

// PlanDirectives implements Client
func (c *HTTPClient) PlanDirectives(ctx context.Context, p CommandPerception) ([]DirectivePlan, error) {
	var out struct {
		Directives []DirectivePlan `json:"directives"`
	}
	if err := c.post(ctx, "/plan", p, &out); err != nil {
		return nil, err
	}
	return out.Directives, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return c.statusError(res)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// statusError maps response codes onto the error taxonomy: 429 backs the
// caller off, 5xx is worth retrying, anything else 4xx will never succeed
// without operator action.
func (c *HTTPClient) statusError(res *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(res)}
	case res.StatusCode >= 500:
		return &TransientError{Err: fmt.Errorf("endpoint returned %d: %s", res.StatusCode, snippet)}
	default:
		return &PermanentError{Reason: fmt.Sprintf("endpoint returned %d: %s", res.StatusCode, snippet)}
	}
}

// retryAfter reads the Retry-After header, in whole seconds. Servers that
// omit it get a default pause.
func retryAfter(res *http.Response) time.Duration {
	if v := res.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 10 * time.Second
}
