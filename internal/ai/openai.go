package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIClient is a Completer, Imager and Speaker for OpenAI-compatible APIs
type OpenAIClient struct {
	client *resty.Client
}

// NewOpenAIClient creates a client for baseURL, e.g. https://api.openai.com/v1
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *OpenAIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &OpenAIClient{client: client}
}

type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model:     req.Model,
			Messages:  req.Messages,
			MaxTokens: req.MaxTokens,
		}).
		Post("/chat/completions")
	if err := statusError(resp, err); err != nil {
		return Completion{}, err
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Completion{}, fmt.Errorf("%w: decode chat completion: %v", ErrUpstream, err)
	}

	out := Completion{
		TotalTokens: result.Usage.TotalTokens,
		Model:       req.Model,
		Raw:         resp.String(),
	}
	if len(result.Choices) > 0 {
		out.Text = result.Choices[0].Message.Content
	}
	return out, nil
}

type imageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage sends one image generation request and returns the image link
func (c *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (GeneratedImage, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(imageGenerationRequest{
			Model:  req.Model,
			Prompt: req.Prompt,
			N:      1,
			Size:   req.Size,
		}).
		Post("/images/generations")
	if err := statusError(resp, err); err != nil {
		return GeneratedImage{}, err
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return GeneratedImage{}, fmt.Errorf("%w: decode image response: %v", ErrUpstream, err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return GeneratedImage{}, fmt.Errorf("%w: no image in response", ErrUpstream)
	}
	return GeneratedImage{URL: result.Data[0].URL, Raw: resp.String()}, nil
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Speech synthesizes input and returns mp3 bytes
func (c *OpenAIClient) Speech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(speechRequest{Model: req.Model, Voice: req.Voice, Input: req.Input}).
		Post("/audio/speech")
	if err := statusError(resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// statusError maps transport failures and non-2xx answers to ErrQuotaExceeded or ErrUpstream
func statusError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, resp.String())
	case resp.IsError():
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), resp.String())
	}
	return nil
}
