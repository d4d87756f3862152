package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = openai.ChatModelGPT4o
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey      string
	TextModel   string
	VisionModel string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RPM         int
	BaseURL     string       // Optional (tests)
	HTTPClient  *http.Client // Optional (tests)
}

// OpenAIClient implements ModelPort using the official OpenAI SDK.
type OpenAIClient struct {
	textModel   string
	visionModel string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      openai.Client
	limiter     *RateLimiter
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.TextModel == "" {
		cfg.TextModel = openAIDefaultModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 300
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// The extraction layer owns retry policy; disable SDK retries.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		client:      openai.NewClient(opts...),
		limiter:     NewRateLimiter(cfg.RPM),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// GenerateText sends a prompt plus one chunk of document text.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt, chunkText string) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
		openai.UserMessage(chunkText),
	}
	return c.complete(ctx, c.textModel, msgs)
}

// GenerateVision sends a prompt plus a batch of rendered page images.
func (c *OpenAIClient) GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images provided")
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		}))
	}

	msgs := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)}
	return c.complete(ctx, c.visionModel, msgs)
}

func (c *OpenAIClient) complete(ctx context.Context, model string, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindServer, Provider: OpenAIName, Message: "no choices in response"}
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &Error{Kind: KindContentPolicy, Provider: OpenAIName, Message: "content filtered"}
	}
	return choice.Message.Content, nil
}

// mapOpenAIError converts SDK errors into classified provider errors.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		perr := &Error{
			Kind:       classifyStatus(apiErr.StatusCode),
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Cause:      err,
		}
		if perr.Kind == KindRateLimit && apiErr.Response != nil {
			perr.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
		}
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: OpenAIName, Message: "request timed out", Cause: err}
	}
	return err
}

// Verify interface
var _ ModelPort = (*OpenAIClient)(nil)
