// Package mocks holds testify mocks of the service and gateway interfaces
// shared by handler tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// MockGenerator mocks recipe generation
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateRecipes(ctx context.Context, ingredients []types.Ingredient, prefs []types.DietaryPreference, userID string) (ai.GenerationBatch, error) {
	args := m.Called(ctx, ingredients, prefs, userID)
	return args.Get(0).(ai.GenerationBatch), args.Error(1)
}

// MockChatAssistant mocks the recipe chat
type MockChatAssistant struct {
	mock.Mock
}

func (m *MockChatAssistant) Chat(ctx context.Context, message string, recipe types.CandidateRecipe, history []types.ChatMessage, userID string) types.ChatResponse {
	args := m.Called(ctx, message, recipe, history, userID)
	return args.Get(0).(types.ChatResponse)
}

// MockIngredientService mocks the ingredient catalog
type MockIngredientService struct {
	mock.Mock
}

func (m *MockIngredientService) List(ctx context.Context) ([]model.Ingredient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ingredient), args.Error(1)
}

func (m *MockIngredientService) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockIngredientService) Create(ctx context.Context, name string, createdBy *string) (*model.Ingredient, error) {
	args := m.Called(ctx, name, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ingredient), args.Error(1)
}

func (m *MockIngredientService) Validate(ctx context.Context, name, userID string) (*types.ValidateIngredientResponse, error) {
	args := m.Called(ctx, name, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ValidateIngredientResponse), args.Error(1)
}

// MockAudioService mocks recipe narration
type MockAudioService struct {
	mock.Mock
}

func (m *MockAudioService) RecipeAudio(ctx context.Context, recipeID, userID string) (string, error) {
	args := m.Called(ctx, recipeID, userID)
	return args.String(0), args.Error(1)
}

// MockQuota mocks the quota checker
type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Reached(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

var (
	_ service.IRecipeService     = (*MockRecipeService)(nil)
	_ service.IIngredientService = (*MockIngredientService)(nil)
	_ service.IAudioService      = (*MockAudioService)(nil)
	_ wizard.Generator           = (*MockGenerator)(nil)
	_ wizard.QuotaChecker        = (*MockQuota)(nil)
)
