package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/upstream"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

const (
	providerName   = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// Config holds Gemini client settings
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Upstream upstream.Config
}

// Client generates insights with the Gemini generateContent API
type Client struct {
	api     *upstream.Client
	apiKey  string
	baseURL string
	model   string
	log     *zap.SugaredLogger
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewClient creates a new Gemini client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	upCfg := cfg.Upstream
	upCfg.Name = providerName

	return &Client{
		api:     upstream.New(upCfg),
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		log:     logger.Named(providerName),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GenerateInsights sends prompt and parses the JSON insight array in the answer
func (c *Client) GenerateInsights(ctx context.Context, prompt string) ([]domain.Insight, error) {
	if !c.Configured() {
		return nil, domain.ErrMissingAPIKey
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	body, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}

	insights, err := ParseInsights(text.String())
	if err != nil {
		c.log.Warnw("unparsable model answer", "model", c.model, "length", text.Len())
		return nil, err
	}
	c.log.Debugw("insights generated", "model", c.model, "count", len(insights))
	return insights, nil
}

// ParseInsights extracts the first JSON array of insights from text. Models
// often wrap the array in markdown fences or prose, so text before the array
// and anything after its closing bracket is ignored.
func ParseInsights(text string) ([]domain.Insight, error) {
	var (
		insights []domain.Insight
		lastErr  error
		found    bool
	)
	for offset := 0; ; {
		i := strings.IndexByte(text[offset:], '[')
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		var candidate []domain.Insight
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&candidate); err != nil {
			lastErr = err
			continue
		}
		insights, found = candidate, true
		break
	}
	if !found {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableInsight, lastErr)
		}
		return nil, domain.ErrUnparsableInsight
	}

	out := insights[:0]
	for _, in := range insights {
		if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Suggestion) == "" {
			continue
		}
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil, domain.ErrUnparsableInsight
	}
	return out, nil
}
