// Package ai talks to the generative text, image and speech service,
// records every call for audit and turns model output into typed values.
package ai

import (
	"context"
)

// Roles of chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message sent to a completer
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one chat completion call
type CompletionRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Completion is the normalized result of a completion call. Raw is the
// upstream response body, kept for the audit log.
type Completion struct {
	Text        string
	TotalTokens int
	Model       string
	Raw         string
}

// ImageRequest is one image generation call
type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
}

// GeneratedImage is the link returned by the image service
type GeneratedImage struct {
	URL string
	Raw string
}

// SpeechRequest is one text-to-speech call
type SpeechRequest struct {
	Model string
	Voice string
	Input string
}

// Completer produces chat completions
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Imager generates images from prompts
type Imager interface {
	GenerateImage(ctx context.Context, req ImageRequest) (GeneratedImage, error)
}

// Speaker synthesizes speech and returns the encoded audio
type Speaker interface {
	Speech(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Interaction is one audited request/response pair
type Interaction struct {
	UserID   string
	Prompt   string
	Response string
	Model    string
}

// AuditSink appends interactions to the audit log and returns the record id
type AuditSink interface {
	Record(ctx context.Context, in Interaction) (string, error)
}

// TagWriter stores generated tags on a saved recipe
type TagWriter interface {
	UpdateTags(ctx context.Context, recipeID string, tags []string) error
}
