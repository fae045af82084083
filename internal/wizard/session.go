// Package wizard holds the recipe creation wizard: a five step state machine
// over a draft session, and the stores that keep drafts between requests.
package wizard

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// Step is a wizard step
type Step int

const (
	IngredientSelection Step = iota
	DietarySelection
	ReviewAndGenerate
	RecipeSelection
	ReviewAndSave
)

// LastStep is the terminal step
const LastStep = ReviewAndSave

func (s Step) String() string {
	switch s {
	case IngredientSelection:
		return "IngredientSelection"
	case DietarySelection:
		return "DietarySelection"
	case ReviewAndGenerate:
		return "ReviewAndGenerate"
	case RecipeSelection:
		return "RecipeSelection"
	case ReviewAndSave:
		return "ReviewAndSave"
	default:
		return "Unknown"
	}
}

const (
	// MaxIngredients bounds the ingredients of one session
	MaxIngredients = 10
	// MinIngredientsToGenerate is required before recipes can be generated
	MinIngredientsToGenerate = 3
	// ProfileRedirect is where the client goes after a successful submit
	ProfileRedirect = "/Profile"
)

var (
	ErrEmptyIngredient       = errors.New("ingredient name is required")
	ErrDuplicateIngredient   = errors.New("ingredient already added")
	ErrTooManyIngredients    = errors.New("no more than 10 ingredients can be added")
	ErrIngredientNotFound    = errors.New("ingredient not found")
	ErrIngredientsLocked     = errors.New("ingredients cannot change once recipes are generated")
	ErrInvalidPreference     = errors.New("unknown dietary preference")
	ErrPreferencesLocked     = errors.New("dietary preferences cannot change once recipes are generated")
	ErrWrongStep             = errors.New("operation not allowed at the current step")
	ErrNotEnoughIngredients  = errors.New("at least 3 ingredients are required to generate recipes")
	ErrNoCandidates          = errors.New("generate recipes before continuing")
	ErrUnknownCandidate      = errors.New("unknown recipe")
	ErrNoSelection           = errors.New("select at least one recipe")
	ErrPending               = errors.New("a generation or save is in progress")
	ErrLimitReached          = errors.New("recipe creation limit reached")
	ErrSessionNotFound       = errors.New("wizard session not found")
	ErrSessionBusy           = errors.New("wizard session is busy")
	ErrGenerationUnparseable = errors.New("generative service returned invalid JSON")
)

// Session is the draft state of one wizard run
type Session struct {
	ID           string                    `json:"id"`
	UserID       string                    `json:"userId"`
	Step         Step                      `json:"step"`
	Ingredients  []types.Ingredient        `json:"ingredients"`
	Preferences  []types.DietaryPreference `json:"preferences"`
	Candidates   []types.CandidateRecipe   `json:"generatedRecipes"`
	Selected     []string                  `json:"selectedRecipeIds"`
	Pending      bool                      `json:"pending"`
	LimitReached bool                      `json:"limitReached"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// NewSession creates an empty session at the first step
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Step:        IngredientSelection,
		Ingredients: []types.Ingredient{},
		Preferences: []types.DietaryPreference{},
		Candidates:  []types.CandidateRecipe{},
		Selected:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// guard rejects every mutation on a limited or busy session
func (s *Session) guard() error {
	if s.LimitReached {
		return ErrLimitReached
	}
	if s.Pending {
		return ErrPending
	}
	return nil
}

// AddIngredient appends an ingredient with a fresh id. Names are trimmed and
// must be unique ignoring case.
func (s *Session) AddIngredient(name string, quantity *float64) (types.Ingredient, error) {
	if err := s.guard(); err != nil {
		return types.Ingredient{}, err
	}
	if len(s.Candidates) > 0 {
		return types.Ingredient{}, ErrIngredientsLocked
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Ingredient{}, ErrEmptyIngredient
	}
	if s.hasIngredient(name) {
		return types.Ingredient{}, ErrDuplicateIngredient
	}
	if len(s.Ingredients) >= MaxIngredients {
		return types.Ingredient{}, ErrTooManyIngredients
	}

	ing := types.Ingredient{Name: name, Quantity: quantity, ID: uuid.NewString()}
	s.Ingredients = append(s.Ingredients, ing)
	return ing, nil
}

// RemoveIngredient deletes one ingredient by id
func (s *Session) RemoveIngredient(id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(s.Candidates) > 0 {
		return ErrIngredientsLocked
	}
	for i, ing := range s.Ingredients {
		if ing.ID == id {
			s.Ingredients = append(s.Ingredients[:i], s.Ingredients[i+1:]...)
			return nil
		}
	}
	return ErrIngredientNotFound
}

func (s *Session) hasIngredient(name string) bool {
	fold := cases.Fold()
	key := fold.String(name)
	for _, ing := range s.Ingredients {
		if fold.String(ing.Name) == key {
			return true
		}
	}
	return false
}

// TogglePreference adds p when absent and removes it when present. The empty
// preference means "no preference" and clears the set.
func (s *Session) TogglePreference(p types.DietaryPreference) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(s.Candidates) > 0 {
		return ErrPreferencesLocked
	}
	if p == "" {
		s.Preferences = []types.DietaryPreference{}
		return nil
	}
	if !p.Valid() {
		return ErrInvalidPreference
	}
	for i, existing := range s.Preferences {
		if existing == p {
			s.Preferences = append(s.Preferences[:i], s.Preferences[i+1:]...)
			return nil
		}
	}
	s.Preferences = append(s.Preferences, p)
	return nil
}

// Next moves one step forward. Leaving ReviewAndGenerate requires candidates;
// Next on the last step is a no-op.
func (s *Session) Next() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.Step >= LastStep {
		return nil
	}
	if s.Step == ReviewAndGenerate && len(s.Candidates) == 0 {
		return ErrNoCandidates
	}
	s.Step++
	return nil
}

// Back moves one step backward. Back on the first step is a no-op.
func (s *Session) Back() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.Step <= IngredientSelection {
		return nil
	}
	s.Step--
	return nil
}

// CanGenerate reports why generation is not allowed, or nil
func (s *Session) CanGenerate() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.Step != ReviewAndGenerate {
		return ErrWrongStep
	}
	if len(s.Ingredients) < MinIngredientsToGenerate {
		return ErrNotEnoughIngredients
	}
	return nil
}

// SetCandidates stores a generated batch and advances to recipe selection.
// A previous batch and selection are discarded.
func (s *Session) SetCandidates(recipes []types.CandidateRecipe) {
	s.Candidates = append([]types.CandidateRecipe(nil), recipes...)
	s.Selected = []string{}
	s.Step = RecipeSelection
}

// ToggleSelection adds or removes a candidate from the selection
func (s *Session) ToggleSelection(promptID string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.Step != RecipeSelection && s.Step != ReviewAndSave {
		return ErrWrongStep
	}
	if !s.hasCandidate(promptID) {
		return ErrUnknownCandidate
	}
	for i, id := range s.Selected {
		if id == promptID {
			s.Selected = append(s.Selected[:i], s.Selected[i+1:]...)
			return nil
		}
	}
	s.Selected = append(s.Selected, promptID)
	return nil
}

func (s *Session) hasCandidate(promptID string) bool {
	for _, c := range s.Candidates {
		if c.OpenAIPromptID == promptID {
			return true
		}
	}
	return false
}

// CanSubmit reports why submission is not allowed, or nil
func (s *Session) CanSubmit() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.Step != ReviewAndSave {
		return ErrWrongStep
	}
	if len(s.Selected) == 0 {
		return ErrNoSelection
	}
	return nil
}

// FinalRecipes returns the selected candidates in generation order
func (s *Session) FinalRecipes() []types.CandidateRecipe {
	selected := make(map[string]bool, len(s.Selected))
	for _, id := range s.Selected {
		selected[id] = true
	}
	var out []types.CandidateRecipe
	for _, c := range s.Candidates {
		if selected[c.OpenAIPromptID] {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards all draft state: ingredients, preferences, candidates and
// selection, in that order, then returns to the first step
func (s *Session) Reset() {
	s.Ingredients = []types.Ingredient{}
	s.Preferences = []types.DietaryPreference{}
	s.Candidates = []types.CandidateRecipe{}
	s.Selected = []string{}
	s.Step = IngredientSelection
}
