package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/prompt"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// Output budgets per operation
const (
	GenerationMaxTokens = 1500
	ValidationMaxTokens = 800
	NarrationMaxTokens  = 1500
	TaggingMaxTokens    = 1500
	ChatMaxTokens       = 1000

	// MaxTags bounds the tags kept per recipe
	MaxTags = 10

	// NullPromptID is the batch id used when the audit record could not be written
	NullPromptID = "null-prompt-id"

	// ChatApology is the reply sent whenever a chat turn fails
	ChatApology = "Sorry, I had trouble responding."

	imageSize = "1024x1024"
)

// Models names the model used for each kind of call
type Models struct {
	Chat   string
	Image  string
	Speech string
}

// Config wires a Gateway
type Config struct {
	Completer Completer
	Imager    Imager
	Speaker   Speaker
	Audit     AuditSink
	Tags      TagWriter
	Voices    VoiceSelector
	Models    Models
	// RequestsPerMinute paces outbound calls; zero or less disables pacing
	RequestsPerMinute int
}

// Gateway runs one generative call per operation and normalizes its result
type Gateway struct {
	completer Completer
	imager    Imager
	speaker   Speaker
	audit     AuditSink
	tags      TagWriter
	voices    VoiceSelector
	models    Models
	limiter   *rate.Limiter
}

// NewGateway creates a Gateway. A nil VoiceSelector defaults to RandomVoices.
func NewGateway(cfg Config) *Gateway {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	voices := cfg.Voices
	if voices == nil {
		voices = RandomVoices{}
	}

	return &Gateway{
		completer: cfg.Completer,
		imager:    cfg.Imager,
		speaker:   cfg.Speaker,
		audit:     cfg.Audit,
		tags:      cfg.Tags,
		voices:    voices,
		models:    cfg.Models,
		limiter:   limiter,
	}
}

// GenerationBatch is the outcome of one recipe generation call. Failure is
// set when the reply could not be parsed; Recipes is then empty.
type GenerationBatch struct {
	PromptID string
	Recipes  []types.CandidateRecipe
	Failure  *ParseFailure
}

// RecipeImage links a generated image to its recipe name
type RecipeImage struct {
	Name    string `json:"name"`
	ImgLink string `json:"imgLink"`
}

// IngredientValidation is the model's verdict on an ingredient name
type IngredientValidation struct {
	IsValid            bool     `json:"isValid"`
	PossibleVariations []string `json:"possibleVariations"`
}

// GenerateRecipes asks for three candidate recipes. Transport failures are
// returned as errors; unparseable replies yield a batch with Failure set.
func (g *Gateway) GenerateRecipes(ctx context.Context, ingredients []types.Ingredient, prefs []types.DietaryPreference, userID string) (GenerationBatch, error) {
	p := prompt.RecipeGeneration(ingredients, prefs)
	completion, err := g.complete(ctx, "generate_recipes", CompletionRequest{
		Model:     g.models.Chat,
		Messages:  []Message{{Role: RoleUser, Content: p}},
		MaxTokens: GenerationMaxTokens,
	})
	if err != nil {
		return GenerationBatch{}, fmt.Errorf("failed to generate recipes: %w", err)
	}

	promptID := g.record(ctx, Interaction{UserID: userID, Prompt: p, Response: completion.Raw, Model: completion.Model})
	if promptID == "" {
		promptID = NullPromptID
	}

	parsed := ParseRecipes(completion.Text)
	if !parsed.OK() {
		logger.Warn("failed to parse recipe generation reply",
			zap.String("reason", string(parsed.Failure.Reason)),
			zap.String("raw", completion.Text),
			zap.Error(parsed.Failure.Err),
		)
		return GenerationBatch{PromptID: promptID, Failure: parsed.Failure}, nil
	}

	recipes := parsed.Value
	for i := range recipes {
		recipes[i].OpenAIPromptID = fmt.Sprintf("%s-%d", promptID, i)
	}
	return GenerationBatch{PromptID: promptID, Recipes: recipes}, nil
}

// GenerateImages creates one image per recipe concurrently. The first failure
// cancels the remaining calls and fails the whole batch. Results keep input order.
func (g *Gateway) GenerateImages(ctx context.Context, recipes []types.CandidateRecipe, userID string) ([]RecipeImage, error) {
	images := make([]GeneratedImage, len(recipes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, r := range recipes {
		eg.Go(func() error {
			if err := g.limiter.Wait(egCtx); err != nil {
				return err
			}
			start := time.Now()
			img, err := g.imager.GenerateImage(egCtx, ImageRequest{
				Model:  g.models.Image,
				Prompt: prompt.ImageGeneration(r.Name, r.Ingredients),
				Size:   imageSize,
			})
			logCall("generate_image", g.models.Image, start, err)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate images: %w", err)
	}

	names := make([]string, len(recipes))
	raws := make([]json.RawMessage, len(images))
	out := make([]RecipeImage, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
		raws[i] = rawJSON(images[i].Raw)
		out[i] = RecipeImage{Name: r.Name, ImgLink: images[i].URL}
	}
	response, _ := json.Marshal(raws)
	g.record(ctx, Interaction{
		UserID:   userID,
		Prompt:   "Image generation for recipe names " + strings.Join(names, ", "),
		Response: string(response),
		Model:    g.models.Image,
	})
	return out, nil
}

// ValidateIngredient asks whether name is a cooking ingredient. Replies that
// cannot be parsed yield a negative verdict with no suggestions.
func (g *Gateway) ValidateIngredient(ctx context.Context, name, userID string) (IngredientValidation, error) {
	p := prompt.IngredientValidation(name)
	completion, err := g.complete(ctx, "validate_ingredient", CompletionRequest{
		Model:     g.models.Chat,
		Messages:  []Message{{Role: RoleUser, Content: p}},
		MaxTokens: ValidationMaxTokens,
	})
	if err != nil {
		return IngredientValidation{}, fmt.Errorf("failed to validate ingredient: %w", err)
	}
	g.record(ctx, Interaction{UserID: userID, Prompt: p, Response: completion.Raw, Model: completion.Model})

	parsed := ParseJSON[IngredientValidation](completion.Text)
	if !parsed.OK() {
		logger.Warn("failed to parse ingredient validation reply",
			zap.String("reason", string(parsed.Failure.Reason)),
			zap.String("raw", completion.Text),
		)
		return IngredientValidation{PossibleVariations: []string{}}, nil
	}
	v := parsed.Value
	if v.PossibleVariations == nil {
		v.PossibleVariations = []string{}
	}
	return v, nil
}

// Speech narrates a recipe and synthesizes the narration with the voice
// chosen by the gateway's VoiceSelector. It returns mp3 bytes.
func (g *Gateway) Speech(ctx context.Context, recipe types.CandidateRecipe, userID string) ([]byte, error) {
	p := prompt.Narration(recipe)
	completion, err := g.complete(ctx, "narration", CompletionRequest{
		Model:     g.models.Chat,
		Messages:  []Message{{Role: RoleUser, Content: p}},
		MaxTokens: NarrationMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipe narration: %w", err)
	}
	g.record(ctx, Interaction{UserID: userID, Prompt: p, Response: completion.Raw, Model: completion.Model})

	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return nil, ErrEmptyNarration
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	voice := g.voices.Voice()
	start := time.Now()
	audio, err := g.speaker.Speech(ctx, SpeechRequest{Model: g.models.Speech, Voice: voice, Input: text})
	logCall("speech", g.models.Speech, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tts: %w", err)
	}

	g.record(ctx, Interaction{
		UserID:   userID,
		Prompt:   text,
		Response: fmt.Sprintf(`{"voice":%q,"bytes":%d}`, voice, len(audio)),
		Model:    g.models.Speech,
	})
	return audio, nil
}

// GenerateTags derives up to MaxTags lowercase tags for a saved recipe and
// stores them through the TagWriter. A reply that is not a JSON array of
// strings yields a *TagGenerationError. An empty reply stores nothing.
func (g *Gateway) GenerateTags(ctx context.Context, recipeID string, recipe types.CandidateRecipe, userID string) ([]string, error) {
	p := prompt.Tagging(recipe)
	completion, err := g.complete(ctx, "generate_tags", CompletionRequest{
		Model:     g.models.Chat,
		Messages:  []Message{{Role: RoleUser, Content: p}},
		MaxTokens: TaggingMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tags for the recipe: %w", err)
	}
	g.record(ctx, Interaction{UserID: userID, Prompt: p, Response: completion.Raw, Model: completion.Model})

	parsed := ParseTags(completion.Text)
	if !parsed.OK() {
		if parsed.Failure.Reason == ReasonEmpty {
			return nil, nil
		}
		logger.Warn("received malformed tags",
			zap.String("recipe_id", recipeID),
			zap.String("reason", string(parsed.Failure.Reason)),
			zap.String("raw", completion.Text),
		)
		return nil, &TagGenerationError{Failure: parsed.Failure}
	}

	tags := normalizeTags(parsed.Value)
	if len(tags) == 0 {
		return nil, nil
	}
	if err := g.tags.UpdateTags(ctx, recipeID, tags); err != nil {
		return nil, fmt.Errorf("failed to store tags: %w", err)
	}
	logger.Info("added tags to recipe",
		zap.String("recipe_id", recipeID),
		zap.Strings("tags", tags),
	)
	return tags, nil
}

// Chat answers one message about a recipe. It never fails: any error yields
// ChatApology with zero tokens. Only the first exchange is audited.
func (g *Gateway) Chat(ctx context.Context, message string, recipe types.CandidateRecipe, history []types.ChatMessage, userID string) types.ChatResponse {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: prompt.ChatSystem(recipe)})
	for _, h := range history {
		messages = append(messages, Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: message})

	completion, err := g.complete(ctx, "chat", CompletionRequest{
		Model:     g.models.Chat,
		Messages:  messages,
		MaxTokens: ChatMaxTokens,
	})
	if err != nil {
		logger.Error("failed to generate chat response", zap.Error(err))
		return types.ChatResponse{Reply: ChatApology, TotalTokens: 0}
	}

	reply := completion.Text
	if strings.TrimSpace(reply) == "" {
		reply = ChatApology
	}

	if len(history) == 1 {
		g.record(ctx, Interaction{
			UserID:   userID,
			Prompt:   fmt.Sprintf("Chat session started for recipe: %s, first message: %s", recipe.Name, message),
			Response: completion.Raw,
			Model:    completion.Model,
		})
	}
	return types.ChatResponse{Reply: reply, TotalTokens: completion.TotalTokens}
}

// normalizeTags lowercases, drops blanks and duplicates, and keeps at most MaxTags
func normalizeTags(raw []string) []string {
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, MaxTags)
	for _, t := range raw {
		t = strings.TrimSpace(lower.String(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

func (g *Gateway) complete(ctx context.Context, op string, req CompletionRequest) (Completion, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return Completion{}, err
	}
	start := time.Now()
	completion, err := g.completer.Complete(ctx, req)
	logCall(op, req.Model, start, err)
	if completion.Model == "" {
		completion.Model = req.Model
	}
	return completion, err
}

// record writes an audit entry. Failures are logged and swallowed; the
// returned id is empty in that case.
func (g *Gateway) record(ctx context.Context, in Interaction) string {
	if g.audit == nil {
		return ""
	}
	id, err := g.audit.Record(ctx, in)
	if err != nil {
		logger.Error("failed to save generative service response",
			zap.String("user_id", in.UserID),
			zap.String("model", in.Model),
			zap.Error(err),
		)
		return ""
	}
	return id
}

func logCall(op, model string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Error("generative service call failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("generative service call", fields...)
}

func rawJSON(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}
