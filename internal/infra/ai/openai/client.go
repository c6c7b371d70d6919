package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/sperow/medrecords/internal/domain/records"
	"github.com/sperow/medrecords/internal/infra/ai/jsonout"
	"github.com/sperow/medrecords/internal/infra/ai/prompt"
)

const (
	// Extraction runs near-deterministic; chat stays conversational.
	summaryTemperature = 0.1
	chatTemperature    = 0.7

	// Generous ceiling so the full schema is never truncated mid-object.
	maxTokens = 4096

	defaultModel = "gpt-4o"
)

// Client implements records.LLMClient over the OpenAI chat-completion API.
// NewClient and NewAzureClient wire the two interchangeable provider families;
// callers pick one at startup and hold it for the process lifetime.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

func NewClient(apiKey, model string, timeout time.Duration, log zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	return newClient(cfg, model, timeout, log)
}

// NewAzureClient targets an Azure OpenAI deployment. Same contract, same
// behavior; only transport configuration differs.
func NewAzureClient(apiKey, endpoint, model string, timeout time.Duration, log zerolog.Logger) *Client {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	return newClient(cfg, model, timeout, log)
}

func newClient(cfg openai.ClientConfig, model string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if model == "" {
		model = defaultModel
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, log: log}
}

// GetStructuredSummary runs the schema-constrained extraction prompt and
// recovers the JSON object from the completion.
func (c *Client) GetStructuredSummary(ctx context.Context, userID, text string) (records.Summary, error) {
	start := time.Now()
	content, err := c.complete(ctx, prompt.SummarySystem(), prompt.SummaryUser(text), summaryTemperature)
	if err != nil {
		return nil, c.mapErr("llm.summary", userID, err)
	}

	obj, rerr := jsonout.ExtractObject(content)
	if rerr != nil {
		c.log.Error().Str("user", userID).Err(rerr).Msg("llm.summary.recovery_failed")
		return nil, rerr
	}

	// Advisory shape check only. Violations are logged, never fatal.
	if err := jsonout.CheckSummaryShape(obj); err != nil {
		c.log.Warn().Str("user", userID).Err(err).Msg("llm.summary.shape_mismatch")
	}

	c.log.Info().
		Str("user", userID).
		Int("text_len", len(text)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("llm.summary.ok")
	return records.Summary(obj), nil
}

// ChatWithDoctor answers a free-form question constrained to the record text.
func (c *Client) ChatWithDoctor(ctx context.Context, userID, text, question string) (string, error) {
	content, err := c.complete(ctx,
		"You are a clinical assistant answering questions strictly from a supplied medical record.",
		prompt.ChatUser(text, question),
		chatTemperature,
	)
	if err != nil {
		return "", c.mapErr("llm.chat", userID, err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// mapErr folds provider errors into the domain taxonomy so nothing
// provider-specific escapes this boundary.
func (c *Client) mapErr(event, userID string, err error) error {
	if isTimeout(err) {
		c.log.Error().Str("user", userID).Err(err).Msg(event + ".timeout")
		return fmt.Errorf("%w: %v", records.ErrGenerationTimeout, err)
	}
	c.log.Error().Str("user", userID).Err(err).Msg(event + ".failed")
	return fmt.Errorf("%w: %v", records.ErrGenerationFailed, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusGatewayTimeout ||
			apiErr.HTTPStatusCode == http.StatusRequestTimeout
	}
	return false
}
