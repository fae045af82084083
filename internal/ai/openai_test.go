package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient(t *testing.T) {
	var mu sync.Mutex
	var body map[string]any
	lastBody := func(key string) any {
		mu.Lock()
		defer mu.Unlock()
		return body[key]
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		decoded := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&decoded)
		mu.Lock()
		body = decoded
		mu.Unlock()

		switch r.URL.Path {
		case "/v1/chat/completions":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"gpt-4o","choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"total_tokens":17}}`))
		case "/v1/images/generations":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"url":"https://cdn.example/img.png"}]}`))
		case "/v1/audio/speech":
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3audio"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL+"/v1/", "sk-test", 5*time.Second)
	ctx := context.Background()

	t.Run("chat completion", func(t *testing.T) {
		c, err := client.Complete(ctx, CompletionRequest{
			Model:     "gpt-4o",
			Messages:  []Message{{Role: RoleUser, Content: "hi"}},
			MaxTokens: 800,
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", c.Text)
		assert.Equal(t, 17, c.TotalTokens)
		assert.Contains(t, c.Raw, `"total_tokens":17`)
		assert.Equal(t, float64(800), lastBody("max_tokens"))
	})

	t.Run("image generation", func(t *testing.T) {
		img, err := client.GenerateImage(ctx, ImageRequest{Model: "dall-e-3", Prompt: "soup", Size: "1024x1024"})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/img.png", img.URL)
		assert.Equal(t, "1024x1024", lastBody("size"))
		assert.Equal(t, float64(1), lastBody("n"))
	})

	t.Run("speech", func(t *testing.T) {
		audio, err := client.Speech(ctx, SpeechRequest{Model: "tts-1", Voice: "onyx", Input: "hello"})
		require.NoError(t, err)
		assert.Equal(t, []byte("ID3audio"), audio)
		assert.Equal(t, "onyx", lastBody("voice"))
	})
}

func TestOpenAIClientErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, "sk-test", 5*time.Second)

	_, err := client.Complete(context.Background(), CompletionRequest{Model: "gpt-4o"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	status.Store(http.StatusUnauthorized)
	_, err = client.Complete(context.Background(), CompletionRequest{Model: "gpt-4o"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)

	srv.Close()
	_, err = client.GenerateImage(context.Background(), ImageRequest{Model: "dall-e-3"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVoices(t *testing.T) {
	assert.Equal(t, "echo", FixedVoice("echo").Voice())
	for i := 0; i < 20; i++ {
		assert.Contains(t, Voices, RandomVoices{}.Voice())
	}
}
