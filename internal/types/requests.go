package types

import "time"

// GenerateRecipesRequest is the body of POST /api/generate-recipes
type GenerateRecipesRequest struct {
	Ingredients        []Ingredient        `json:"ingredients"`
	DietaryPreferences []DietaryPreference `json:"dietaryPreferences"`
}

// ValidateIngredientRequest is the body of POST /api/validate-ingredient
type ValidateIngredientRequest struct {
	IngredientName string `json:"ingredientName"`
	UserID         string `json:"userId"`
}

// ValidateIngredientResponse reports the model's verdict and, when valid,
// the catalog entry created for the ingredient
type ValidateIngredientResponse struct {
	IsValid            bool                `json:"isValid"`
	PossibleVariations []string            `json:"possibleVariations"`
	Message            string              `json:"message"`
	NewIngredient      *IngredientResponse `json:"newIngredient,omitempty"`
	Suggested          []string            `json:"suggested"`
}

// SaveRecipesRequest is the body of POST /api/save-recipes
type SaveRecipesRequest struct {
	Recipes []CandidateRecipe `json:"recipes"`
}

// ChatRequest is the body of POST /api/chat-assistant
type ChatRequest struct {
	Message  string        `json:"message"`
	RecipeID string        `json:"recipeId"`
	History  []ChatMessage `json:"history"`
}

// ChatResponse carries the assistant reply and token usage
type ChatResponse struct {
	Reply       string `json:"reply"`
	TotalTokens int    `json:"totalTokens"`
}

// RecipeIDRequest is the body of endpoints acting on one recipe
type RecipeIDRequest struct {
	RecipeID string `json:"recipeId"`
}

// IngredientResponse is a catalog entry
type IngredientResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	CreatedBy *string   `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// IngredientListResponse is the body of GET /api/get-ingredients
type IngredientListResponse struct {
	IngredientList []IngredientResponse `json:"ingredientList"`
	ReachedLimit   bool                 `json:"reachedLimit"`
}

// UserSummary is the public view of a recipe owner or liker
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Tag is one AI-derived recipe tag
type Tag struct {
	Tag string `json:"tag"`
}

// TagCount is one entry of the popular tag aggregate
type TagCount struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// RecipeResponse is a stored recipe as seen by the requesting user
type RecipeResponse struct {
	CandidateRecipe
	ID        string        `json:"_id"`
	ImgLink   string        `json:"imgLink"`
	Owner     *UserSummary  `json:"owner"`
	LikedBy   []UserSummary `json:"likedBy"`
	Owns      bool          `json:"owns"`
	Liked     bool          `json:"liked"`
	Audio     string        `json:"audio,omitempty"`
	Tags      []Tag         `json:"tags"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RecipePage is the paginated listing response
type RecipePage struct {
	Data         []RecipeResponse `json:"data"`
	TotalRecipes int64            `json:"totalRecipes"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	PopularTags  []TagCount       `json:"popularTags"`
}

// CreateWizardRequest starts a wizard session, optionally seeded with ingredient names
type CreateWizardRequest struct {
	OldIngredients []string `json:"oldIngredients"`
}

// AddIngredientRequest adds one ingredient to a wizard session
type AddIngredientRequest struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
}

// TogglePreferenceRequest toggles a dietary preference. An empty preference
// selects "no preference".
type TogglePreferenceRequest struct {
	Preference DietaryPreference `json:"preference"`
}

// ToggleSelectionRequest toggles one candidate in or out of the selection
type ToggleSelectionRequest struct {
	OpenAIPromptID string `json:"openaiPromptId"`
}
