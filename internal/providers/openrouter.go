package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string // Model for text extraction calls
	VisionModel string // Vision-capable model for image calls
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RPM         int // Requests per minute (default 150)
}

// OpenRouterClient implements ModelPort against the OpenRouter API.
//
// The client performs no retries itself; failures are returned as classified
// *Error values and the extraction layer's retry executor decides what to do.
type OpenRouterClient struct {
	apiKey      string
	baseURL     string
	textModel   string
	visionModel string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      *http.Client
	limiter     *RateLimiter
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "anthropic/claude-sonnet-4.5"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 150
	}

	return &OpenRouterClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     NewRateLimiter(cfg.RPM),
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// GenerateText sends a prompt plus one chunk of document text.
func (c *OpenRouterClient) GenerateText(ctx context.Context, prompt, chunkText string) (string, error) {
	msgs := []openRouterMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: chunkText},
	}
	return c.complete(ctx, c.textModel, msgs)
}

// GenerateVision sends a prompt plus a batch of rendered page images.
func (c *OpenRouterClient) GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images provided")
	}

	content := []openRouterContent{{Type: "text", Text: prompt}}
	for _, img := range images {
		content = append(content, openRouterContent{
			Type: "image_url",
			ImageURL: &openRouterImageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	msgs := []openRouterMessage{{Role: "user", Content: content}}
	return c.complete(ctx, c.visionModel, msgs)
}

func (c *OpenRouterClient) complete(ctx context.Context, model string, msgs []openRouterMessage) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	orReq := openRouterRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	bodyBytes, err := json.Marshal(orReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "Casechron")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.wrapTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Provider: OpenRouterName, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		perr := &Error{
			Kind:       classifyStatus(resp.StatusCode),
			Provider:   OpenRouterName,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(respBody),
		}
		if perr.Kind == KindRateLimit {
			perr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return "", perr
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return "", &Error{Kind: KindServer, Provider: OpenRouterName, Message: "unparsable response body", Cause: err}
	}

	if len(orResp.Choices) == 0 {
		// Moderation refusals arrive as an error object with a 200.
		if orResp.ErrorInfo != nil {
			return "", &Error{
				Kind:       classifyStatus(orResp.ErrorInfo.Code),
				Provider:   OpenRouterName,
				StatusCode: orResp.ErrorInfo.Code,
				Message:    orResp.ErrorInfo.Message,
			}
		}
		return "", &Error{Kind: KindServer, Provider: OpenRouterName, Message: "no choices in response"}
	}

	choice := orResp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &Error{Kind: KindContentPolicy, Provider: OpenRouterName, Message: "content filtered"}
	}

	switch content := choice.Message.Content.(type) {
	case string:
		return content, nil
	default:
		b, err := json.Marshal(content)
		if err != nil {
			return "", fmt.Errorf("failed to marshal content: %w", err)
		}
		return string(b), nil
	}
}

// wrapTransportError classifies transport-level failures.
func (c *OpenRouterClient) wrapTransportError(err error) error {
	kind := KindNetwork
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		kind = KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: OpenRouterName, Message: "request failed", Cause: err}
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "...[truncated]"
	}
	return string(body)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if d, err := time.ParseDuration(header + "s"); err == nil {
		return d
	}
	return 0
}

// OpenRouter API types

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []openRouterContent
}

type openRouterContent struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ImageURL *openRouterImageURL `json:"image_url,omitempty"`
}

type openRouterImageURL struct {
	URL string `json:"url"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	ErrorInfo *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Verify interface
var _ ModelPort = (*OpenRouterClient)(nil)
