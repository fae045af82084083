package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter is a Completer backed by the Gemini API. It always uses its
// own model and ignores CompletionRequest.Model.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini completer for model
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete maps chat messages to Gemini contents. System messages become the
// system instruction and assistant turns become model turns.
func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}

	var contents []*genai.Content
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return Completion{}, fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		}
		return Completion{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out := Completion{Text: result.Text(), Model: g.model}
	if result.UsageMetadata != nil {
		out.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}
	if raw, err := json.Marshal(result); err == nil {
		out.Raw = string(raw)
	}
	return out, nil
}
