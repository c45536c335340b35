// Package ai generates roadmaps and reviews challenge answers through the
// Anthropic Messages API.
//
// Every call asks the model for strict JSON. A malformed reply degrades to
// a safe default (a deterministic fallback roadmap, a failed grade, generic
// requirements) instead of an error that would block the user. A client
// constructed without an API key is
// "disabled" and serves only the deterministic paths.
package ai

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens caps each completion. Roadmaps and reviews are small.
const DefaultMaxTokens = 1024

// Client wraps the Anthropic API client.
type Client struct {
	api     anthropic.Client
	enabled bool
	logger  *log.Logger
}

// New creates a client. An empty apiKey yields a disabled client whose
// generation methods fall back to deterministic output.
func New(apiKey string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[ai] ", log.LstdFlags)
	}
	c := &Client{logger: logger}
	if apiKey != "" {
		c.api = anthropic.NewClient(option.WithAPIKey(apiKey))
		c.enabled = true
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// complete sends a single-turn request and returns the concatenated text
// content of the reply.
func (c *Client) complete(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   DefaultMaxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("completion returned no text content")
	}
	return text, nil
}

// extractJSON trims markdown code fences and any prose around the first
// JSON object or array in text. Models asked for strict JSON mostly comply,
// but fenced replies are common enough to handle here.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	var end int
	if text[start] == '{' {
		end = strings.LastIndex(text, "}")
	} else {
		end = strings.LastIndex(text, "]")
	}
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}
