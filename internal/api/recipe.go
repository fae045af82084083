package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// RecipeHandler serves saved recipes
type RecipeHandler struct {
	recipes service.IRecipeService
}

func NewRecipeHandler(recipes service.IRecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// RegisterRoutes registers the recipe routes. Likes toggle, so only saving
// is guarded against repeats.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, guards RouteGuards) {
	router.POST("/save-recipes", guards.submit(h.SaveRecipes)...)
	router.GET("/get-recipes", h.ListRecipes)
	router.GET("/search-recipes", h.SearchRecipes)
	router.PUT("/like-recipe", h.LikeRecipe)
}

// SaveRecipes stores the selected candidates for the current user
func (h *RecipeHandler) SaveRecipes(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.SaveRecipesRequest
	if !bindJSON(c, &req) {
		return
	}

	saved, err := h.recipes.SaveRecipes(c.Request.Context(), user, req.Recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]string, 0, len(saved))
	for _, r := range saved {
		ids = append(ids, r.ID.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "Saved Recipes and generated images!",
		"savedRecipes": ids,
	})
}

// ListRecipes returns one page of recipes
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.recipes.ListRecipes(c.Request.Context(), pageQuery(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchRecipes returns one page of recipes matching ?query=
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.recipes.SearchRecipes(c.Request.Context(), pageQuery(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// LikeRecipe toggles the current user's like on a recipe
func (h *RecipeHandler) LikeRecipe(c *gin.Context) {
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

	resp, err := h.recipes.ToggleLike(c.Request.Context(), req.RecipeID, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pageQuery(c *gin.Context) types.PageQuery {
	return types.ParsePageQuery(c.Query("page"), c.Query("limit"), c.Query("sortOption"), c.Query("query"))
}
