package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return Completion{}, f.err
	}
	text := ""
	if len(f.replies) > 0 {
		text, f.replies = f.replies[0], f.replies[1:]
	}
	return Completion{Text: text, TotalTokens: 42, Raw: `{"id":"chatcmpl"}`}, nil
}

type fakeImager struct {
	failOn string
}

func (f *fakeImager) GenerateImage(_ context.Context, req ImageRequest) (GeneratedImage, error) {
	if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
		return GeneratedImage{}, fmt.Errorf("%w: boom", ErrUpstream)
	}
	after := strings.SplitN(req.Prompt, "image of ", 2)[1]
	name := strings.SplitN(after, ".", 2)[0]
	return GeneratedImage{URL: "https://img.example/" + name, Raw: `{"data":[]}`}, nil
}

type fakeSpeaker struct {
	voice string
	input string
}

func (f *fakeSpeaker) Speech(_ context.Context, req SpeechRequest) ([]byte, error) {
	f.voice = req.Voice
	f.input = req.Input
	return []byte("ID3"), nil
}

type fakeAudit struct {
	mu      sync.Mutex
	records []Interaction
	err     error
}

func (f *fakeAudit) Record(_ context.Context, in Interaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, in)
	return fmt.Sprintf("audit-%d", len(f.records)), nil
}

type mockTagWriter struct {
	mock.Mock
}

func (m *mockTagWriter) UpdateTags(ctx context.Context, recipeID string, tags []string) error {
	args := m.Called(ctx, recipeID, tags)
	return args.Error(0)
}

func newTestGateway(c *fakeCompleter, a *fakeAudit) *Gateway {
	return NewGateway(Config{
		Completer: c,
		Imager:    &fakeImager{},
		Speaker:   &fakeSpeaker{},
		Audit:     a,
		Voices:    FixedVoice("nova"),
		Models:    Models{Chat: "gpt-4o", Image: "dall-e-3", Speech: "tts-1"},
	})
}

func sampleRecipe() types.CandidateRecipe {
	return types.CandidateRecipe{
		Name:         "Omelette",
		Ingredients:  []types.RecipeIngredient{{Name: "egg", Quantity: "2"}},
		Instructions: []string{"Beat", "Fry"},
	}
}

func TestGenerateRecipes(t *testing.T) {
	ingredients := []types.Ingredient{{Name: "egg", ID: "1"}, {Name: "flour", ID: "2"}, {Name: "milk", ID: "3"}}

	t.Run("assigns unique batch keys", func(t *testing.T) {
		c := &fakeCompleter{replies: []string{threeRecipes}}
		a := &fakeAudit{}
		g := newTestGateway(c, a)

		batch, err := g.GenerateRecipes(context.Background(), ingredients, nil, "user-1")
		require.NoError(t, err)
		require.Nil(t, batch.Failure)
		require.Len(t, batch.Recipes, 3)
		assert.Equal(t, "audit-1", batch.PromptID)

		keys := map[string]bool{}
		for i, r := range batch.Recipes {
			assert.Equal(t, fmt.Sprintf("audit-1-%d", i), r.OpenAIPromptID)
			keys[r.OpenAIPromptID] = true
		}
		assert.Len(t, keys, 3)

		require.Len(t, a.records, 1)
		assert.Equal(t, "user-1", a.records[0].UserID)
		assert.Equal(t, "gpt-4o", a.records[0].Model)
		assert.Equal(t, GenerationMaxTokens, c.requests[0].MaxTokens)
	})

	t.Run("malformed reply is reported, not raised", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{replies: []string{"Sure! Here are some recipes"}}, a)

		batch, err := g.GenerateRecipes(context.Background(), ingredients, nil, "user-1")
		require.NoError(t, err)
		require.NotNil(t, batch.Failure)
		assert.Equal(t, ReasonInvalidJSON, batch.Failure.Reason)
		assert.Empty(t, batch.Recipes)
		assert.Len(t, a.records, 1)
	})

	t.Run("audit failure falls back to null prompt id", func(t *testing.T) {
		g := newTestGateway(&fakeCompleter{replies: []string{threeRecipes}}, &fakeAudit{err: errors.New("db down")})

		batch, err := g.GenerateRecipes(context.Background(), ingredients, nil, "user-1")
		require.NoError(t, err)
		assert.Equal(t, NullPromptID, batch.PromptID)
		assert.Equal(t, NullPromptID+"-2", batch.Recipes[2].OpenAIPromptID)
	})

	t.Run("transport error propagates", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{err: fmt.Errorf("%w: 429", ErrQuotaExceeded)}, a)

		_, err := g.GenerateRecipes(context.Background(), ingredients, nil, "user-1")
		require.ErrorIs(t, err, ErrQuotaExceeded)
		assert.True(t, IsTransport(err))
		assert.Empty(t, a.records)
	})
}

func TestGenerateImages(t *testing.T) {
	recipes := []types.CandidateRecipe{{Name: "Omelette"}, {Name: "Crepes"}, {Name: "Custard"}}

	t.Run("keeps input order and audits once", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{}, a)

		images, err := g.GenerateImages(context.Background(), recipes, "user-1")
		require.NoError(t, err)
		require.Len(t, images, 3)
		for i, r := range recipes {
			assert.Equal(t, r.Name, images[i].Name)
			assert.Equal(t, "https://img.example/"+r.Name, images[i].ImgLink)
		}
		require.Len(t, a.records, 1)
		assert.Equal(t, "Image generation for recipe names Omelette, Crepes, Custard", a.records[0].Prompt)
		assert.Equal(t, "dall-e-3", a.records[0].Model)
	})

	t.Run("one failure fails the batch", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{}, a)
		g.imager = &fakeImager{failOn: "Crepes"}

		images, err := g.GenerateImages(context.Background(), recipes, "user-1")
		require.ErrorIs(t, err, ErrUpstream)
		assert.Nil(t, images)
		assert.Empty(t, a.records)
	})
}

func TestValidateIngredient(t *testing.T) {
	t.Run("parses verdict", func(t *testing.T) {
		g := newTestGateway(&fakeCompleter{replies: []string{`{"isValid": true, "possibleVariations": ["cheddar"]}`}}, &fakeAudit{})

		v, err := g.ValidateIngredient(context.Background(), "cheese", "user-1")
		require.NoError(t, err)
		assert.True(t, v.IsValid)
		assert.Equal(t, []string{"cheddar"}, v.PossibleVariations)
	})

	t.Run("malformed reply is conservative", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{replies: []string{"yes it is"}}, a)

		v, err := g.ValidateIngredient(context.Background(), "cheese", "user-1")
		require.NoError(t, err)
		assert.False(t, v.IsValid)
		assert.Equal(t, []string{}, v.PossibleVariations)
		assert.Len(t, a.records, 1)
	})
}

func TestSpeech(t *testing.T) {
	a := &fakeAudit{}
	speaker := &fakeSpeaker{}
	g := newTestGateway(&fakeCompleter{replies: []string{"  Welcome to the kitchen.  "}}, a)
	g.speaker = speaker

	audio, err := g.Speech(context.Background(), sampleRecipe(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
	assert.Equal(t, "nova", speaker.voice)
	assert.Equal(t, "Welcome to the kitchen.", speaker.input)

	require.Len(t, a.records, 2)
	assert.Equal(t, "Welcome to the kitchen.", a.records[1].Prompt)
	assert.Equal(t, "tts-1", a.records[1].Model)

	t.Run("empty narration", func(t *testing.T) {
		g := newTestGateway(&fakeCompleter{replies: []string{""}}, &fakeAudit{})
		_, err := g.Speech(context.Background(), sampleRecipe(), "user-1")
		assert.ErrorIs(t, err, ErrEmptyNarration)
	})
}

func TestGenerateTags(t *testing.T) {
	t.Run("normalizes and stores", func(t *testing.T) {
		reply := `["Breakfast", "EGG", "quick", "egg", " ", "a", "b", "c", "d", "e", "f", "g"]`
		writer := &mockTagWriter{}
		want := []string{"breakfast", "egg", "quick", "a", "b", "c", "d", "e", "f", "g"}
		writer.On("UpdateTags", mock.Anything, "recipe-1", want).Return(nil)

		g := newTestGateway(&fakeCompleter{replies: []string{reply}}, &fakeAudit{})
		g.tags = writer

		tags, err := g.GenerateTags(context.Background(), "recipe-1", sampleRecipe(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, want, tags)
		writer.AssertExpectations(t)
	})

	t.Run("malformed reply raises once", func(t *testing.T) {
		writer := &mockTagWriter{}
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{replies: []string{`{"tags": "breakfast"}`}}, a)
		g.tags = writer

		_, err := g.GenerateTags(context.Background(), "recipe-1", sampleRecipe(), "user-1")
		var tagErr *TagGenerationError
		require.ErrorAs(t, err, &tagErr)
		assert.Equal(t, ReasonWrongShape, tagErr.Failure.Reason)
		assert.Len(t, a.records, 1)
		writer.AssertNotCalled(t, "UpdateTags", mock.Anything, mock.Anything, mock.Anything)
	})

	for name, reply := range map[string]string{
		"null reply":     `null`,
		"null element":   `["a", null]`,
		"number element": `["a", 3]`,
		"object reply":   `{"0": "a"}`,
	} {
		t.Run(name+" is rejected", func(t *testing.T) {
			writer := &mockTagWriter{}
			g := newTestGateway(&fakeCompleter{replies: []string{reply}}, &fakeAudit{})
			g.tags = writer

			tags, err := g.GenerateTags(context.Background(), "recipe-1", sampleRecipe(), "user-1")
			var tagErr *TagGenerationError
			require.ErrorAs(t, err, &tagErr)
			assert.Equal(t, ReasonWrongShape, tagErr.Failure.Reason)
			assert.Nil(t, tags)
			writer.AssertNotCalled(t, "UpdateTags", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("empty reply stores nothing", func(t *testing.T) {
		writer := &mockTagWriter{}
		g := newTestGateway(&fakeCompleter{replies: []string{""}}, &fakeAudit{})
		g.tags = writer

		tags, err := g.GenerateTags(context.Background(), "recipe-1", sampleRecipe(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, tags)
		writer.AssertNotCalled(t, "UpdateTags", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChat(t *testing.T) {
	history := []types.ChatMessage{{Role: RoleAssistant, Content: "Hi! Ask me about this recipe."}}

	t.Run("replies and audits first exchange", func(t *testing.T) {
		c := &fakeCompleter{replies: []string{"Use butter."}}
		a := &fakeAudit{}
		g := newTestGateway(c, a)

		resp := g.Chat(context.Background(), "Can I use oil?", sampleRecipe(), history, "user-1")
		assert.Equal(t, types.ChatResponse{Reply: "Use butter.", TotalTokens: 42}, resp)

		msgs := c.requests[0].Messages
		require.Len(t, msgs, 3)
		assert.Equal(t, RoleSystem, msgs[0].Role)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
		assert.Equal(t, Message{Role: RoleUser, Content: "Can I use oil?"}, msgs[2])
		assert.Equal(t, ChatMaxTokens, c.requests[0].MaxTokens)

		require.Len(t, a.records, 1)
		assert.Equal(t, "Chat session started for recipe: Omelette, first message: Can I use oil?", a.records[0].Prompt)
	})

	t.Run("later exchanges are not audited", func(t *testing.T) {
		a := &fakeAudit{}
		g := newTestGateway(&fakeCompleter{replies: []string{"Sure."}}, a)
		longer := append(history, types.ChatMessage{Role: RoleUser, Content: "x"}, types.ChatMessage{Role: RoleAssistant, Content: "y"})

		g.Chat(context.Background(), "and then?", sampleRecipe(), longer, "user-1")
		assert.Empty(t, a.records)
	})

	t.Run("transport error degrades to apology", func(t *testing.T) {
		g := newTestGateway(&fakeCompleter{err: fmt.Errorf("%w: connection reset", ErrUpstream)}, &fakeAudit{})

		resp := g.Chat(context.Background(), "hello", sampleRecipe(), history, "user-1")
		assert.Equal(t, types.ChatResponse{Reply: ChatApology, TotalTokens: 0}, resp)
	})
}
