package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// ChatAssistant answers questions about a recipe
type ChatAssistant interface {
	Chat(ctx context.Context, message string, recipe types.CandidateRecipe, history []types.ChatMessage, userID string) types.ChatResponse
}

// GenerationHandler serves the endpoints that call the generative service
type GenerationHandler struct {
	generator   wizard.Generator
	chat        ChatAssistant
	recipes     service.IRecipeService
	ingredients service.IIngredientService
	audio       service.IAudioService
}

func NewGenerationHandler(generator wizard.Generator, chat ChatAssistant, recipes service.IRecipeService, ingredients service.IIngredientService, audio service.IAudioService) *GenerationHandler {
	return &GenerationHandler{
		generator:   generator,
		chat:        chat,
		recipes:     recipes,
		ingredients: ingredients,
		audio:       audio,
	}
}

// RegisterRoutes registers the generation routes
func (h *GenerationHandler) RegisterRoutes(router *gin.RouterGroup, guards RouteGuards) {
	router.POST("/generate-recipes", guards.generate(h.GenerateRecipes)...)
	router.POST("/validate-ingredient", guards.generate(h.ValidateIngredient)...)
	router.POST("/chat-assistant", h.ChatAssistant)
	router.POST("/tts", h.TextToSpeech)
}

// GenerateRecipes returns three candidate recipes for the given ingredients
func (h *GenerationHandler) GenerateRecipes(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.GenerateRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Ingredients) == 0 {
		respondError(c, types.BadRequest("Ingredients are required"))
		return
	}
	for _, p := range req.DietaryPreferences {
		if !p.Valid() {
			respondError(c, types.BadRequest("unknown dietary preference: "+string(p)))
			return
		}
	}

	batch, err := h.generator.GenerateRecipes(c.Request.Context(), req.Ingredients, req.DietaryPreferences, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if batch.Failure != nil {
		respondError(c, &wizard.GenerationError{Failure: batch.Failure})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes":        batch.Recipes,
		"openaiPromptId": batch.PromptID,
	})
}

// ValidateIngredient asks the model whether a name is an ingredient and adds
// it to the catalog when it is
func (h *GenerationHandler) ValidateIngredient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ValidateIngredientRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = user.ID
	}

	resp, err := h.ingredients.Validate(c.Request.Context(), req.IngredientName, req.UserID)
	if err != nil {
		respondError(c, upstreamAsInternal(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// upstreamAsInternal reports generative service failures as 500 while
// keeping their code and message
func upstreamAsInternal(err error) error {
	if !errors.Is(err, ai.ErrUpstream) && !errors.Is(err, ai.ErrQuotaExceeded) {
		return err
	}
	appErr := middleware.ToAppError(err)
	return types.NewAppError(appErr.Code, appErr.Message, http.StatusInternalServerError, err)
}

// ChatAssistant answers one chat message about a stored recipe. Upstream
// failures produce the apology reply, never an error status.
func (h *GenerationHandler) ChatAssistant(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" || req.RecipeID == "" {
		respondError(c, types.BadRequest("message and recipeId are required"))
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), req.RecipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.chat.Chat(c.Request.Context(), req.Message, recipe.Candidate(), req.History, user.ID))
}

// TextToSpeech returns the narration link of a recipe
func (h *GenerationHandler) TextToSpeech(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.RecipeIDRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.RecipeID == "" {
		respondError(c, types.BadRequest("recipeId is required"))
		return
	}

	link, err := h.audio.RecipeAudio(c.Request.Context(), req.RecipeID, user.ID)
	if err != nil {
		if ai.IsTransport(err) {
			logger.Warn("narration unavailable", zap.String("recipe_id", req.RecipeID), zap.Error(err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio": link})
}
