package wizard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

func candidates(n int) []types.CandidateRecipe {
	out := make([]types.CandidateRecipe, n)
	for i := range out {
		out[i] = types.CandidateRecipe{
			Name:           fmt.Sprintf("Recipe %d", i),
			OpenAIPromptID: fmt.Sprintf("prompt-%d", i),
		}
	}
	return out
}

func sessionAt(step Step, ingredients int) *Session {
	s := NewSession("user-1", time.Now())
	for i := 0; i < ingredients; i++ {
		_, _ = s.AddIngredient(fmt.Sprintf("ingredient %d", i), nil)
	}
	s.Step = step
	return s
}

func TestAddIngredient(t *testing.T) {
	s := NewSession("user-1", time.Now())

	qty := 2.0
	ing, err := s.AddIngredient("  Egg ", &qty)
	require.NoError(t, err)
	assert.Equal(t, "Egg", ing.Name)
	assert.NotEmpty(t, ing.ID)
	assert.Equal(t, 2.0, *ing.Quantity)

	_, err = s.AddIngredient("EGG", nil)
	assert.ErrorIs(t, err, ErrDuplicateIngredient)

	_, err = s.AddIngredient("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyIngredient)

	for i := 1; i < MaxIngredients; i++ {
		_, err := s.AddIngredient(fmt.Sprintf("item %d", i), nil)
		require.NoError(t, err)
	}
	_, err = s.AddIngredient("one too many", nil)
	assert.ErrorIs(t, err, ErrTooManyIngredients)
	assert.Len(t, s.Ingredients, MaxIngredients)
}

func TestRemoveIngredientKeepsIDs(t *testing.T) {
	s := NewSession("user-1", time.Now())
	a, _ := s.AddIngredient("a", nil)
	b, _ := s.AddIngredient("b", nil)
	c, _ := s.AddIngredient("c", nil)

	require.NoError(t, s.RemoveIngredient(b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, []string{s.Ingredients[0].ID, s.Ingredients[1].ID})
	assert.ErrorIs(t, s.RemoveIngredient(b.ID), ErrIngredientNotFound)
}

func TestIngredientsLockedAfterGeneration(t *testing.T) {
	s := sessionAt(ReviewAndGenerate, 3)
	s.SetCandidates(candidates(3))

	_, err := s.AddIngredient("salt", nil)
	assert.ErrorIs(t, err, ErrIngredientsLocked)
	assert.ErrorIs(t, s.RemoveIngredient(s.Ingredients[0].ID), ErrIngredientsLocked)
	assert.ErrorIs(t, s.TogglePreference(types.Vegan), ErrPreferencesLocked)
}

func TestTogglePreference(t *testing.T) {
	s := NewSession("user-1", time.Now())

	require.NoError(t, s.TogglePreference(types.Vegan))
	require.NoError(t, s.TogglePreference(types.Keto))
	assert.Equal(t, []types.DietaryPreference{types.Vegan, types.Keto}, s.Preferences)

	require.NoError(t, s.TogglePreference(types.Vegan))
	assert.Equal(t, []types.DietaryPreference{types.Keto}, s.Preferences)

	assert.ErrorIs(t, s.TogglePreference("Carnivore"), ErrInvalidPreference)

	require.NoError(t, s.TogglePreference(""))
	assert.Empty(t, s.Preferences)
}

func TestNavigation(t *testing.T) {
	t.Run("back at first step is a no-op", func(t *testing.T) {
		s := sessionAt(IngredientSelection, 0)
		require.NoError(t, s.Back())
		assert.Equal(t, IngredientSelection, s.Step)
	})

	t.Run("next at last step is a no-op", func(t *testing.T) {
		s := sessionAt(ReviewAndSave, 3)
		require.NoError(t, s.Next())
		assert.Equal(t, ReviewAndSave, s.Step)
	})

	t.Run("first two steps are unrestricted", func(t *testing.T) {
		s := sessionAt(IngredientSelection, 0)
		require.NoError(t, s.Next())
		require.NoError(t, s.Next())
		assert.Equal(t, ReviewAndGenerate, s.Step)
	})

	t.Run("leaving generation needs candidates", func(t *testing.T) {
		s := sessionAt(ReviewAndGenerate, 3)
		assert.ErrorIs(t, s.Next(), ErrNoCandidates)
		assert.Equal(t, ReviewAndGenerate, s.Step)

		s.Candidates = candidates(3)
		require.NoError(t, s.Next())
		assert.Equal(t, RecipeSelection, s.Step)
	})

	t.Run("pending blocks navigation", func(t *testing.T) {
		s := sessionAt(DietarySelection, 0)
		s.Pending = true
		assert.ErrorIs(t, s.Next(), ErrPending)
		assert.ErrorIs(t, s.Back(), ErrPending)
		assert.Equal(t, DietarySelection, s.Step)
	})

	t.Run("limit reached blocks everything", func(t *testing.T) {
		s := sessionAt(IngredientSelection, 0)
		s.LimitReached = true
		assert.ErrorIs(t, s.Next(), ErrLimitReached)
		_, err := s.AddIngredient("egg", nil)
		assert.ErrorIs(t, err, ErrLimitReached)
	})
}

func TestCanGenerate(t *testing.T) {
	assert.ErrorIs(t, sessionAt(DietarySelection, 3).CanGenerate(), ErrWrongStep)
	assert.ErrorIs(t, sessionAt(ReviewAndGenerate, 2).CanGenerate(), ErrNotEnoughIngredients)
	assert.NoError(t, sessionAt(ReviewAndGenerate, 3).CanGenerate())
}

func TestSelectionAndFinalRecipes(t *testing.T) {
	s := sessionAt(ReviewAndGenerate, 3)
	s.SetCandidates(candidates(3))
	assert.Equal(t, RecipeSelection, s.Step)

	require.NoError(t, s.ToggleSelection("prompt-2"))
	require.NoError(t, s.ToggleSelection("prompt-0"))
	require.NoError(t, s.ToggleSelection("prompt-1"))
	require.NoError(t, s.ToggleSelection("prompt-1"))
	assert.ErrorIs(t, s.ToggleSelection("prompt-9"), ErrUnknownCandidate)

	final := s.FinalRecipes()
	require.Len(t, final, 2)
	assert.Equal(t, "prompt-0", final[0].OpenAIPromptID)
	assert.Equal(t, "prompt-2", final[1].OpenAIPromptID)

	assert.ErrorIs(t, s.CanSubmit(), ErrWrongStep)
	require.NoError(t, s.Next())
	assert.NoError(t, s.CanSubmit())
}

func TestSetCandidatesReplacesBatch(t *testing.T) {
	s := sessionAt(ReviewAndGenerate, 3)
	batch := candidates(3)
	s.SetCandidates(batch)
	require.NoError(t, s.ToggleSelection("prompt-0"))

	batch[0].Name = "mutated"
	assert.Equal(t, "Recipe 0", s.Candidates[0].Name)

	s.SetCandidates(candidates(2))
	assert.Len(t, s.Candidates, 2)
	assert.Empty(t, s.Selected)
}

func TestReset(t *testing.T) {
	s := sessionAt(ReviewAndSave, 4)
	require.NoError(t, s.TogglePreference(types.Paleo))
	s.Candidates = candidates(3)
	s.Selected = []string{"prompt-1"}

	s.Reset()
	assert.Equal(t, IngredientSelection, s.Step)
	assert.Empty(t, s.Ingredients)
	assert.Empty(t, s.Preferences)
	assert.Empty(t, s.Candidates)
	assert.Empty(t, s.Selected)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "ReviewAndGenerate", ReviewAndGenerate.String())
	assert.Equal(t, "Unknown", Step(9).String())
}
