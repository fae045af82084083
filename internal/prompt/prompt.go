// Package prompt builds the text prompts sent to the generative service.
// Every function is pure: equal input yields byte-identical output.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// MaxImagePromptLength caps image prompts below the image model's input limit
const MaxImagePromptLength = 900

// InvalidRecipeNarration is returned by Narration for recipes missing required fields
const InvalidRecipeNarration = "Invalid recipe data."

const recipeShape = `[
    {
        "name": "Recipe name",
        "ingredients": [
            {"name": "Ingredient name", "quantity": "Quantity with unit"},
            {"name": "Ingredient name", "quantity": "Quantity with unit"},
            ...
        ],
        "instructions": [
            "First step.",
            "Next step.",
            ...
        ],
        "dietaryPreference": ["Restriction 1", "Restriction 2", ...],
        "additionalInformation": {
            "tips": "Useful tips such as tools or substitute ingredients.",
            "variations": "Variation ideas (for example extra vegetables or another protein).",
            "servingSuggestions": "How to serve the dish (for example with a salad or a sauce).",
            "nutritionalInformation": "Approximate calories, protein, fat and so on."
        }
    },
    ...
]`

// RecipeGeneration asks for exactly three recipes as a bare JSON array
func RecipeGeneration(ingredients []types.Ingredient, prefs []types.DietaryPreference) string {
	list, err := json.Marshal(ingredients)
	if err != nil {
		list = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("I have the following ingredients: ")
	b.Write(list)
	if len(prefs) > 0 {
		names := make([]string, len(prefs))
		for i, p := range prefs {
			names[i] = string(p)
		}
		b.WriteString(", and these dietary restrictions: ")
		b.WriteString(strings.Join(names, ", "))
	}
	b.WriteString(". Suggest **3 different recipes with distinct flavors and variety** that use these ingredients. ")
	b.WriteString("Respond in the **JSON format** below, as pure JSON **without text, markdown or code formatting**:\n")
	b.WriteString(recipeShape)
	b.WriteString("\nDraw the recipes from **different cuisines and world kitchens**. Use as many of the ingredients as possible, ")
	b.WriteString("and recommend substitutes where dietary restrictions or practicality call for it. ")
	b.WriteString("Quantities must include **exact units (g, cups, teaspoons and so on)**. ")
	b.WriteString("Write the steps **clearly enough for a beginner**. The JSON must be **well formed with no syntax errors**.\n")
	return b.String()
}

// ImageGeneration describes a plated dish for the image model
func ImageGeneration(recipeName string, ingredients []types.RecipeIngredient) string {
	parts := make([]string, len(ingredients))
	for i, ing := range ingredients {
		parts[i] = fmt.Sprintf("%s (%s)", ing.Name, ing.Quantity)
	}

	p := fmt.Sprintf(
		"Create a high-resolution, photorealistic image of %s. The ingredients used are: %s. "+
			"Plate the dish attractively on a clean white plate in natural light so that it looks delicious.",
		recipeName, strings.Join(parts, ", "),
	)
	if len(p) > MaxImagePromptLength {
		p = truncate(p, MaxImagePromptLength)
	}
	return p
}

// IngredientValidation asks whether name is a cooking ingredient
func IngredientValidation(name string) string {
	return fmt.Sprintf(`You are an ingredient validation assistant. Review the ingredient name: %s. Return the result as JSON in this format:

{ "isValid": true/false, "possibleVariations": ["alternative1", "alternative2", "alternative3"] }

- "isValid" is true if the ingredient is commonly used in cooking, otherwise false.
- "possibleVariations" lists 2 or 3 substitutes, similar ingredients, or the corrected name when misspelled.
- Return an empty array when there are no alternatives.
- Return **JSON only, without text or markdown formatting**.

Examples:
Input: "cheese" Output: { "isValid": true, "possibleVariations": ["cheddar", "mozzarella", "parmesan"] }
Input: "breakfast" Output: { "isValid": false, "possibleVariations": [] }
Input: "cuscus" Output: { "isValid": false, "possibleVariations": ["couscous"] }
`, name)
}

// Narration turns a recipe into a spoken script. Recipes without a name,
// ingredients or instructions yield InvalidRecipeNarration.
func Narration(r types.CandidateRecipe) string {
	if r.Name == "" || len(r.Ingredients) == 0 || len(r.Instructions) == 0 {
		return InvalidRecipeNarration
	}

	var b strings.Builder
	b.WriteString("Turn the following recipe into a **clear, natural spoken narration**.\n")
	b.WriteString("- Use the **natural, confident tone of a professional chef**, calm and efficient.\n")
	b.WriteString("- Keep explanations **short and to the point**, never overly emotional or wordy.\n")
	b.WriteString("- Link the steps with **smooth but brief transitions**.\n")
	b.WriteString("- Aim for **60 to 90 seconds** of speech.\n\n---\n\n")
	fmt.Fprintf(&b, "**Recipe: %s**\n\n**Ingredients**:\n", r.Name)
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "- %s %s\n", ing.Name, ing.Quantity)
	}
	b.WriteString("\n**Steps**:\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	info := r.AdditionalInformation
	extras := []struct{ label, value string }{
		{"Tips", info.Tips},
		{"Variations", info.Variations},
		{"Serving suggestions", info.ServingSuggestions},
		{"Nutrition", info.NutritionalInformation},
	}
	b.WriteString("\n")
	for _, e := range extras {
		if e.value != "" {
			fmt.Fprintf(&b, "**%s**: %s\n", e.label, e.value)
		}
	}
	b.WriteString("\nFinish with a **short, professional closing line** that highlights the appeal of the dish.\n")
	return b.String()
}

// Tagging asks for ten one-word search tags as a JSON array
func Tagging(r types.CandidateRecipe) string {
	info := r.AdditionalInformation
	return fmt.Sprintf(`Generate **10 unique one-word tags** for the following recipe as a **JSON array**.

**Rules:**
1. Return a **JSON array** only, without text or markdown.
2. Base the tags on the recipe's **name, ingredients, dietary restrictions and additional information**.
3. Include **frequently searched keywords** and keep words short and easy to understand.
4. **Avoid jargon** and prefer everyday words.

Recipe name: %s
Main ingredients: %s
Dietary restrictions: %s
Additional information: tips: %s, variations: %s, serving: %s, nutrition: %s
`,
		r.Name,
		strings.Join(r.IngredientNames(), ", "),
		strings.Join(r.DietaryPreference, ", "),
		info.Tips, info.Variations, info.ServingSuggestions, info.NutritionalInformation,
	)
}

// ChatSystem scopes a chat assistant to one recipe
func ChatSystem(r types.CandidateRecipe) string {
	ings := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ings[i] = strings.TrimSpace(ing.Quantity + " " + ing.Name)
	}
	info := r.AdditionalInformation

	return strings.TrimSpace(fmt.Sprintf(`
You are a **cooking recipe assistant**. You may only answer questions about the following recipe.

Recipe name: %s
Ingredients: %s
Dietary restrictions: %s
Steps: %s
Tips: %s
Variations: %s
Serving suggestions: %s
Nutrition: %s

Only answer questions about this recipe (ingredient substitutions, cooking tips, serving ideas and so on).
Politely decline other topics (science, history, entertainment and so on) and steer the user back to the recipe.
`,
		r.Name,
		strings.Join(ings, ", "),
		strings.Join(r.DietaryPreference, ", "),
		strings.Join(r.Instructions, " / "),
		info.Tips, info.Variations, info.ServingSuggestions, info.NutritionalInformation,
	))
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
