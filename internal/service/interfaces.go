package service

import (
	"context"

	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	SaveRecipes(ctx context.Context, owner types.UserSummary, recipes []types.CandidateRecipe) ([]*model.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
	SetAudio(ctx context.Context, id, link string) error
	ToggleLike(ctx context.Context, recipeID string, user types.UserSummary) (*types.RecipeResponse, error)
	ListRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error)
	SearchRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error)
}

// IIngredientService defines the interface for the ingredient catalog
type IIngredientService interface {
	List(ctx context.Context) ([]model.Ingredient, error)
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string, createdBy *string) (*model.Ingredient, error)
	Validate(ctx context.Context, name, userID string) (*types.ValidateIngredientResponse, error)
}

// IAudioService defines the interface for recipe narration
type IAudioService interface {
	RecipeAudio(ctx context.Context, recipeID, userID string) (string, error)
}

var (
	_ IRecipeService     = (*RecipeService)(nil)
	_ IIngredientService = (*IngredientService)(nil)
	_ IAudioService      = (*AudioService)(nil)
)
