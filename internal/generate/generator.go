// Package generate turns a ticket request into structured ticket content
// by calling the Anthropic Messages API.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/logging"
	"github.com/ticketsmith/ticketsmith/pkg/models"
)

// GenerationError indicates the completion call failed or its reply could
// not be turned into valid ticket content. The pipeline makes no second
// attempt: model output is non-deterministic and a blind retry could mask
// a persistent parsing bug.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("content generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator wraps the Anthropic API for ticket-content generation.
type Generator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewGenerator creates a generator from the loaded configuration. Extra
// request options are appended after the defaults, so tests can redirect
// the client at a mock server.
func NewGenerator(cfg *config.Config, opts ...option.RequestOption) *Generator {
	options := []option.RequestOption{
		option.WithAPIKey(cfg.AI.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		// Single attempt: the SDK's built-in retry would violate the
		// pipeline's one-call contract.
		option.WithMaxRetries(0),
	}
	if cfg.AI.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.AI.BaseURL))
	}
	options = append(options, opts...)

	return &Generator{
		client:    anthropic.NewClient(options...),
		model:     anthropic.Model(cfg.AI.Model),
		maxTokens: cfg.AI.MaxTokens,
	}
}

// Generate builds the prompt for req, performs one completion call, and
// parses the reply. Every returned GeneratedContent has all three fields
// non-empty.
func (g *Generator) Generate(ctx context.Context, req models.TicketRequest) (models.GeneratedContent, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return models.GeneratedContent{}, &GenerationError{Reason: "could not build prompt", Err: err}
	}

	logging.Debug("requesting ticket content",
		"model", string(g.model),
		"max_tokens", g.maxTokens,
		"prompt_length", len(prompt))

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return models.GeneratedContent{}, &GenerationError{Reason: "completion request failed", Err: err}
	}

	if len(message.Content) == 0 {
		return models.GeneratedContent{}, &GenerationError{Reason: "model reply contained no content blocks"}
	}
	block := message.Content[0]
	if block.Type != "text" {
		return models.GeneratedContent{}, &GenerationError{
			Reason: fmt.Sprintf("model reply was not a text block (type=%s)", block.Type),
		}
	}

	logging.Debug("completion received",
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens)

	return parseContent(block.Text)
}

// parseContent parses the model reply strictly as JSON and verifies the
// three required fields are present and non-empty.
func parseContent(reply string) (models.GeneratedContent, error) {
	var content models.GeneratedContent
	if err := json.Unmarshal([]byte(stripFences(reply)), &content); err != nil {
		return models.GeneratedContent{}, &GenerationError{
			Reason: "model reply was not valid JSON, re-run the command",
			Err:    err,
		}
	}

	var empty []string
	if strings.TrimSpace(content.Summary) == "" {
		empty = append(empty, "summary")
	}
	if strings.TrimSpace(content.Description) == "" {
		empty = append(empty, "description")
	}
	if strings.TrimSpace(content.AcceptanceCriteria) == "" {
		empty = append(empty, "acceptanceCriteria")
	}
	if len(empty) > 0 {
		return models.GeneratedContent{}, &GenerationError{
			Reason: fmt.Sprintf("model reply missing or empty fields: %s, re-run the command",
				strings.Join(empty, ", ")),
		}
	}

	return content, nil
}

// stripFences removes a single surrounding markdown code fence pair, which
// models often wrap JSON replies in. Anything beyond that is left for the
// JSON parser to reject.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
