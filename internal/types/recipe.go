package types

// DietaryPreference is one of a fixed set of diet restrictions
type DietaryPreference string

const (
	Vegetarian DietaryPreference = "Vegetarian"
	Vegan      DietaryPreference = "Vegan"
	GlutenFree DietaryPreference = "Gluten-Free"
	Keto       DietaryPreference = "Keto"
	Paleo      DietaryPreference = "Paleo"
)

// DietaryPreferences lists every accepted preference in display order
var DietaryPreferences = []DietaryPreference{Vegetarian, Vegan, GlutenFree, Keto, Paleo}

// Valid reports whether p belongs to the closed preference set
func (p DietaryPreference) Valid() bool {
	for _, known := range DietaryPreferences {
		if p == known {
			return true
		}
	}
	return false
}

// Ingredient is a wizard ingredient. Quantity is optional and serializes as null.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	ID       string   `json:"id"`
}

// RecipeIngredient is an ingredient line of a generated recipe
type RecipeIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// AdditionalInformation holds the free-text extras of a generated recipe
type AdditionalInformation struct {
	Tips                   string `json:"tips"`
	Variations             string `json:"variations"`
	ServingSuggestions     string `json:"servingSuggestions"`
	NutritionalInformation string `json:"nutritionalInformation"`
}

// CandidateRecipe is a recipe proposed by the generative service.
// OpenAIPromptID is "<batch id>-<index>" and is unique within a batch.
type CandidateRecipe struct {
	Name                  string                `json:"name"`
	Ingredients           []RecipeIngredient    `json:"ingredients"`
	Instructions          []string              `json:"instructions"`
	DietaryPreference     []string              `json:"dietaryPreference"`
	AdditionalInformation AdditionalInformation `json:"additionalInformation"`
	OpenAIPromptID        string                `json:"openaiPromptId"`
}

// IngredientNames returns the recipe's ingredient names in order
func (r CandidateRecipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// ChatMessage is one turn of a recipe chat
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
