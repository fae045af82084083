package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// SaveRecipes mocks the SaveRecipes method
func (m *MockRecipeService) SaveRecipes(ctx context.Context, owner types.UserSummary, recipes []types.CandidateRecipe) ([]*model.Recipe, error) {
	args := m.Called(ctx, owner, recipes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Recipe), args.Error(1)
}

// GetRecipe mocks the GetRecipe method
func (m *MockRecipeService) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

// UpdateTags mocks the UpdateTags method
func (m *MockRecipeService) UpdateTags(ctx context.Context, id string, tags []string) error {
	return m.Called(ctx, id, tags).Error(0)
}

// SetAudio mocks the SetAudio method
func (m *MockRecipeService) SetAudio(ctx context.Context, id, link string) error {
	return m.Called(ctx, id, link).Error(0)
}

// ToggleLike mocks the ToggleLike method
func (m *MockRecipeService) ToggleLike(ctx context.Context, recipeID string, user types.UserSummary) (*types.RecipeResponse, error) {
	args := m.Called(ctx, recipeID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

// ListRecipes mocks the ListRecipes method
func (m *MockRecipeService) ListRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error) {
	args := m.Called(ctx, q, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipePage), args.Error(1)
}

// SearchRecipes mocks the SearchRecipes method
func (m *MockRecipeService) SearchRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error) {
	args := m.Called(ctx, q, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipePage), args.Error(1)
}
