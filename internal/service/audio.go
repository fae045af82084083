package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// Narrator synthesizes a spoken version of a recipe
type Narrator interface {
	Speech(ctx context.Context, recipe types.CandidateRecipe, userID string) ([]byte, error)
}

// AudioStore keeps synthesized audio and returns its link
type AudioStore interface {
	StoreAudio(ctx context.Context, audio []byte) (string, error)
}

// AudioService produces recipe narrations. Audio is generated once per recipe
// and the stored link is reused afterwards.
type AudioService struct {
	recipes  *RecipeService
	narrator Narrator
	store    AudioStore
}

func NewAudioService(recipes *RecipeService, narrator Narrator, store AudioStore) *AudioService {
	return &AudioService{recipes: recipes, narrator: narrator, store: store}
}

// RecipeAudio returns the narration link of a recipe, generating it on first use
func (s *AudioService) RecipeAudio(ctx context.Context, recipeID, userID string) (string, error) {
	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return "", err
	}
	if recipe.Audio != "" {
		return recipe.Audio, nil
	}

	audio, err := s.narrator.Speech(ctx, recipe.Candidate(), userID)
	if err != nil {
		return "", err
	}
	link, err := s.store.StoreAudio(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	if err := s.recipes.SetAudio(ctx, recipeID, link); err != nil {
		return "", err
	}
	logger.Info("recipe narration stored", zap.String("recipe_id", recipeID))
	return link, nil
}
