// Package augment generates summaries of search hits through a hosted text-generation endpoint.
package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/passagesearch/internal/errs"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/pkg/utils"
)

const (
	DefaultBaseURL      = "https://api-inference.huggingface.co/models"
	DefaultModel        = "mistralai/Mistral-7B-Instruct-v0.3"
	DefaultMaxNewTokens = 256
	DefaultTemperature  = 0.3
	DefaultTimeout      = 30 * time.Second
	DefaultMaxResults   = 3
	DefaultExcerptChars = 200
)

// Config configures the inference client.
type Config struct {
	BaseURL      string
	Model        string
	Token        string
	MaxNewTokens int
	Temperature  float64
	Timeout      time.Duration
	// RatePerSecond throttles calls with a token bucket. Zero disables throttling.
	RatePerSecond float64
	Burst         int
	MaxResults    int
	ExcerptChars  int
}

// Summary is a generated text together with how it was obtained.
type Summary struct {
	Text   string
	Source models.SummarySource
}

// Client calls the inference endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a client for cfg, filling unset fields with defaults.
// A missing token is not an error here: every call reports it instead.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = DefaultMaxNewTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = DefaultExcerptChars
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model id.
func (c *Client) Model() string { return c.cfg.Model }

type generateParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

// Generate sends prompt to the model and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (Summary, error) {
	if c.cfg.Token == "" {
		return Summary{}, fmt.Errorf("%w: inference API token is not set", errs.ErrConfiguration)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Summary{}, fmt.Errorf("%w: rate limiter: %w", errs.ErrAugmentation, err)
		}
	}

	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens:   c.cfg.MaxNewTokens,
			Temperature:    c.cfg.Temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("%w: encode request: %w", errs.ErrAugmentation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: build request: %w", errs.ErrAugmentation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", errs.ErrAugmentation, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: read response: %w", errs.ErrAugmentation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Summary{}, fmt.Errorf("%w: inference endpoint returned %s: %s",
			errs.ErrAugmentation, resp.Status, utils.Truncate(strings.TrimSpace(string(payload)), 300))
	}

	s := parseSummary(payload)
	c.logger.Debug("Summary generated",
		zap.String("model", c.cfg.Model),
		zap.String("source", string(s.Source)),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

// Summarize asks the model for a brief summary of the top hits for query.
func (c *Client) Summarize(ctx context.Context, query string, hits []models.SearchHit) (Summary, error) {
	return c.Generate(ctx, BuildPrompt(query, hits, c.cfg.MaxResults, c.cfg.ExcerptChars))
}

// BuildPrompt renders the summary prompt from the first maxResults hits,
// each cut to excerptChars characters.
func BuildPrompt(query string, hits []models.SearchHit, maxResults, excerptChars int) string {
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = fmt.Sprintf("Result %d: %s", i+1, utils.Excerpt(h.Text, excerptChars))
	}
	return fmt.Sprintf(`User Search Query: %s

Top Search Results:
%s

Please provide:
A brief summary of these search results & key points related to the query
`, query, strings.Join(lines, "\n"))
}

// parseSummary accepts a list (first element used) or an object. A string generated_text
// field yields a generated summary; any other shape is kept verbatim as a fallback.
func parseSummary(payload []byte) Summary {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return Summary{Text: strings.TrimSpace(string(payload)), Source: models.SummaryFallback}
	}
	if list, ok := v.([]interface{}); ok && len(list) > 0 {
		v = list[0]
	}
	switch t := v.(type) {
	case map[string]interface{}:
		if text, ok := t["generated_text"].(string); ok {
			return Summary{Text: text, Source: models.SummaryGenerated}
		}
	case string:
		return Summary{Text: t, Source: models.SummaryFallback}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Summary{Text: strings.TrimSpace(string(payload)), Source: models.SummaryFallback}
	}
	return Summary{Text: string(raw), Source: models.SummaryFallback}
}
