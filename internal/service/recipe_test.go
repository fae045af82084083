package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/testdb"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

type fakeImages struct {
	err error
}

func (f fakeImages) GenerateImages(_ context.Context, recipes []types.CandidateRecipe, _ string) ([]ai.RecipeImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]ai.RecipeImage, len(recipes))
	for i, r := range recipes {
		out[i] = ai.RecipeImage{Name: r.Name, ImgLink: fmt.Sprintf("https://upstream.example/%d/%s.png", i, r.Name)}
	}
	return out, nil
}

type prefixHost string

func (p prefixHost) RehostImage(_ context.Context, imageURL string) string {
	return string(p) + imageURL
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) ScheduleTags(_ context.Context, recipeID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, recipeID)
	return nil
}

var (
	ada   = types.UserSummary{ID: "user-ada", Name: "Ada", Image: "https://img.example/ada.png"}
	grace = types.UserSummary{ID: "user-grace", Name: "Grace", Image: "https://img.example/grace.png"}
)

func candidate(name string, ingredients ...string) types.CandidateRecipe {
	c := types.CandidateRecipe{
		Name:         name,
		Instructions: []string{"Cook"},
	}
	for _, ing := range ingredients {
		c.Ingredients = append(c.Ingredients, types.RecipeIngredient{Name: ing, Quantity: "1"})
	}
	return c
}

func newRecipeService(t *testing.T) (*RecipeService, *gorm.DB, *recordingScheduler) {
	t.Helper()
	db := testdb.SQLite(t)
	svc := NewRecipeService(db, NewEmbeddingService(), fakeImages{}, prefixHost("https://bucket.example/?src="))
	sched := &recordingScheduler{}
	svc.SetTagScheduler(sched)
	return svc, db, sched
}

func TestSaveRecipes(t *testing.T) {
	svc, db, sched := newRecipeService(t)
	ctx := context.Background()

	saved, err := svc.SaveRecipes(ctx, ada, []types.CandidateRecipe{
		candidate("Tomato Soup", "tomato", "onion"),
		candidate("Omelette", "egg"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	assert.Equal(t, "https://bucket.example/?src=https://upstream.example/0/Tomato Soup.png", saved[0].ImgLink)
	assert.Len(t, saved[0].Embedding.Slice(), model.EmbeddingDimensions)
	assert.Equal(t, []string{saved[0].ID.String(), saved[1].ID.String()}, sched.ids)

	var owner model.User
	require.NoError(t, db.First(&owner, "id = ?", ada.ID).Error)
	assert.Equal(t, "Ada", owner.Name)

	loaded, err := svc.GetRecipe(ctx, saved[1].ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Omelette", loaded.Name)
	assert.Equal(t, "egg", loaded.Ingredients[0].Name)
	assert.Empty(t, loaded.Tags)
}

func TestSaveRecipesSameNameKeepsOwnImage(t *testing.T) {
	svc, _, _ := newRecipeService(t)

	saved, err := svc.SaveRecipes(context.Background(), ada, []types.CandidateRecipe{
		candidate("Omelette", "egg"),
		candidate("Omelette", "egg", "cheese"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "https://bucket.example/?src=https://upstream.example/0/Omelette.png", saved[0].ImgLink)
	assert.Equal(t, "https://bucket.example/?src=https://upstream.example/1/Omelette.png", saved[1].ImgLink)
}

func TestSaveRecipesImageFailure(t *testing.T) {
	db := testdb.SQLite(t)
	svc := NewRecipeService(db, NewEmbeddingService(), fakeImages{err: ai.ErrUpstream}, nil)

	_, err := svc.SaveRecipes(context.Background(), ada, []types.CandidateRecipe{candidate("Soup")})
	assert.ErrorIs(t, err, ai.ErrUpstream)

	var count int64
	db.Model(&model.Recipe{}).Count(&count)
	assert.Zero(t, count)
}

func TestSaveRecipesEmpty(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	_, err := svc.SaveRecipes(context.Background(), ada, nil)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
}

func TestGetRecipeNotFound(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	for _, id := range []string{"not-a-uuid", "7b0a6f55-3c1e-4f0e-9a55-2b8f7f1c9d11"} {
		_, err := svc.GetRecipe(context.Background(), id)
		var appErr *types.AppError
		require.True(t, errors.As(err, &appErr), id)
		assert.Equal(t, types.ErrCodeNotFound, appErr.Code)
	}
}

func TestUpdateTagsAndAudio(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	ctx := context.Background()
	saved, err := svc.SaveRecipes(ctx, ada, []types.CandidateRecipe{candidate("Soup", "tomato")})
	require.NoError(t, err)
	id := saved[0].ID.String()

	require.NoError(t, svc.UpdateTags(ctx, id, []string{"soup", "vegan"}))
	require.NoError(t, svc.SetAudio(ctx, id, "https://bucket.example/a.mp3"))

	loaded, err := svc.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JSONBStringArray{"soup", "vegan"}, loaded.Tags)
	assert.Equal(t, "https://bucket.example/a.mp3", loaded.Audio)

	err = svc.UpdateTags(ctx, "7b0a6f55-3c1e-4f0e-9a55-2b8f7f1c9d11", []string{"x"})
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFound, appErr.Code)
}

func TestToggleLike(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	ctx := context.Background()
	saved, err := svc.SaveRecipes(ctx, ada, []types.CandidateRecipe{candidate("Soup")})
	require.NoError(t, err)
	id := saved[0].ID.String()

	resp, err := svc.ToggleLike(ctx, id, grace)
	require.NoError(t, err)
	assert.True(t, resp.Liked)
	assert.False(t, resp.Owns)
	require.Len(t, resp.LikedBy, 1)
	assert.Equal(t, "Grace", resp.LikedBy[0].Name)

	loaded, err := svc.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.LikeCount)

	resp, err = svc.ToggleLike(ctx, id, grace)
	require.NoError(t, err)
	assert.False(t, resp.Liked)
	assert.Empty(t, resp.LikedBy)

	loaded, err = svc.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.LikeCount)
}

func TestListRecipes(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	ctx := context.Background()

	saved, err := svc.SaveRecipes(ctx, ada, []types.CandidateRecipe{
		candidate("Tomato Soup", "tomato"),
		candidate("Pancakes", "flour", "egg"),
		candidate("Egg Fried Rice", "rice", "egg"),
	})
	require.NoError(t, err)
	soup, pancakes, rice := saved[0].ID.String(), saved[1].ID.String(), saved[2].ID.String()

	require.NoError(t, svc.UpdateTags(ctx, soup, []string{"soup", "vegan", "quick"}))
	require.NoError(t, svc.UpdateTags(ctx, pancakes, []string{"breakfast", "quick"}))
	_, err = svc.ToggleLike(ctx, pancakes, grace)
	require.NoError(t, err)

	t.Run("popular puts liked recipes first", func(t *testing.T) {
		page, err := svc.ListRecipes(ctx, types.ParsePageQuery("", "", "", ""), grace.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalRecipes)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Data, 3)
		assert.Equal(t, pancakes, page.Data[0].ID)
		assert.True(t, page.Data[0].Liked)
		assert.False(t, page.Data[0].Owns)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		page, err := svc.ListRecipes(ctx, types.ParsePageQuery("1", "12", types.SortRecent, ""), ada.ID)
		require.NoError(t, err)
		require.Len(t, page.Data, 3)
		assert.True(t, page.Data[0].Owns)
		assert.NotNil(t, page.Data[0].Owner)
		assert.Equal(t, "Ada", page.Data[0].Owner.Name)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := svc.ListRecipes(ctx, types.ParsePageQuery("2", "2", types.SortRecent, ""), ada.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Data, 1)
	})

	t.Run("search matches name ingredients and tags", func(t *testing.T) {
		page, err := svc.SearchRecipes(ctx, types.ParsePageQuery("", "", "", "EGG"), ada.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalRecipes)

		page, err = svc.SearchRecipes(ctx, types.ParsePageQuery("", "", "", "vegan"), ada.ID)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, soup, page.Data[0].ID)

		page, err = svc.SearchRecipes(ctx, types.ParsePageQuery("", "", "", "rice"), ada.ID)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, rice, page.Data[0].ID)
	})

	t.Run("popular tags", func(t *testing.T) {
		page, err := svc.ListRecipes(ctx, types.ParsePageQuery("", "", "", ""), "")
		require.NoError(t, err)
		require.NotEmpty(t, page.PopularTags)
		assert.Equal(t, types.TagCount{ID: "quick", Count: 2}, page.PopularTags[0])
		assert.Len(t, page.PopularTags, 4)
	})
}

func TestPopularTagsLimit(t *testing.T) {
	svc, _, _ := newRecipeService(t)
	ctx := context.Background()
	saved, err := svc.SaveRecipes(ctx, ada, []types.CandidateRecipe{candidate("A"), candidate("B")})
	require.NoError(t, err)

	many := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	require.NoError(t, svc.UpdateTags(ctx, saved[0].ID.String(), many))
	require.NoError(t, svc.UpdateTags(ctx, saved[1].ID.String(), []string{"l"}))

	tags, err := svc.PopularTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, PopularTagLimit)
	assert.Equal(t, "l", tags[0].ID)
	assert.Equal(t, "a", tags[1].ID)
}
