package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeguardian/guardian/pkg/logger"
)

// Gateway talks to an OpenAI-compatible chat-completions endpoint.
// The raw HTTP status is inspected so 429 and 402 map onto their
// dedicated error tags instead of a generic failure.
type Gateway struct {
	httpClient *http.Client
	logger     logger.Logger
	endpoint   string
	apiKey     string
	model      string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithGatewayLogger overrides the gateway's logger.
func WithGatewayLogger(log logger.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = log
	}
}

// NewGateway creates a provider client for the given endpoint.
func NewGateway(endpoint, apiKey, model string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Review sends the code to the model and parses its answer. The
// returned error is always a tagged *Error for upstream failures;
// unparseable model text is not an error (see ParseReview).
func (g *Gateway) Review(ctx context.Context, req Request) (*Review, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: userPrompt(req)},
		},
	})
	if err != nil {
		return nil, newError(TagUnavailable, 0, fmt.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newError(TagUnavailable, 0, fmt.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(TagUnavailable, 0, fmt.Errorf("model request timed out: %w", err))
		}
		return nil, newError(TagUnavailable, 0, fmt.Errorf("calling model provider: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, g.statusError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(TagUnavailable, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, newError(TagUnavailable, resp.StatusCode, fmt.Errorf("decoding response envelope: %w", err))
	}
	if len(chat.Choices) == 0 {
		return nil, newError(TagUnavailable, resp.StatusCode, errors.New("no completion received from model"))
	}

	review := ParseReview(chat.Choices[0].Message.Content)
	g.logger.Debug("model review parsed", "issues", len(review.Issues), "score", review.Score)
	return review, nil
}

// statusError maps a non-success HTTP status onto the error taxonomy.
func (g *Gateway) statusError(status int) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return newError(TagRateLimited, status, errors.New("model provider rate limit exceeded"))
	case http.StatusPaymentRequired:
		return newError(TagQuotaExhausted, status, errors.New("model provider credits exhausted"))
	default:
		return newError(TagUnavailable, status, fmt.Errorf("model provider returned status %d", status))
	}
}
