// Package gemini adapts the Gemini API, with its Google Search grounding
// tool, to the search.Client port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash-exp"

type Client struct {
	model *genai.GenerativeModel
	log   zerolog.Logger
}

// New builds a search client with grounding enabled. Generation settings stay
// conversational; search answers are prose, not schema-bound extraction.
func New(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	api, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}
	m := api.GenerativeModel(model)
	m.SetTemperature(1)
	m.SetTopP(0.95)
	m.SetTopK(40)
	m.SetMaxOutputTokens(8192)
	m.Tools = []*genai.Tool{
		{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
	}

	return &Client{model: m, log: log}, nil
}

// Search answers a bare query.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	return c.send(ctx, query)
}

// StructuredSearch grounds the query on caller-supplied context.
func (c *Client) StructuredSearch(ctx context.Context, query, contextText string) (string, error) {
	prompt := query
	if contextText != "" {
		prompt = "Context: " + contextText + "\nQuery: " + query
	}
	return c.send(ctx, prompt)
}

// send runs one message in a fresh chat session per request; searches carry
// no conversation state.
func (c *Client) send(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	session := c.model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error().Err(err).Msg("search.request_failed")
		return "", fmt.Errorf("search request failed: %w", err)
	}

	text := flatten(resp)
	if text == "" {
		c.log.Error().Msg("search.empty_response")
		return "", errors.New("empty search response")
	}

	c.log.Info().
		Int("result_len", len(text)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("search.ok")
	return text, nil
}

func flatten(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
