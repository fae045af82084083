package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// MaxIngredientNameLength bounds catalog ingredient names
const MaxIngredientNameLength = 20

// Validation outcome messages
const (
	ValidationSuccess = "Success"
	ValidationInvalid = "Invalid"
)

// IngredientValidator asks the generative service about an ingredient name
type IngredientValidator interface {
	ValidateIngredient(ctx context.Context, name, userID string) (ai.IngredientValidation, error)
}

// IngredientService manages the ingredient catalog
type IngredientService struct {
	db        *gorm.DB
	validator IngredientValidator
}

func NewIngredientService(db *gorm.DB, validator IngredientValidator) *IngredientService {
	return &IngredientService{db: db, validator: validator}
}

// List returns the whole catalog sorted by name
func (s *IngredientService) List(ctx context.Context) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// Variants returns the lowercased name with its plural and singular forms
func Variants(name string) []string {
	base := strings.ToLower(strings.TrimSpace(name))
	seen := map[string]bool{}
	var out []string
	for _, v := range []string{base, inflection.Plural(base), inflection.Singular(base)} {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Exists reports whether name, its plural or its singular is in the catalog
func (s *IngredientService) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Ingredient{}).
		Where("LOWER(name) IN ?", Variants(name)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up ingredient: %w", err)
	}
	return count > 0, nil
}

// Create adds a catalog entry. The name is title-cased.
func (s *IngredientService) Create(ctx context.Context, name string, createdBy *string) (*model.Ingredient, error) {
	ing := &model.Ingredient{
		Name:      cases.Title(language.English).String(strings.TrimSpace(name)),
		CreatedBy: createdBy,
	}
	if err := s.db.WithContext(ctx).Create(ing).Error; err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return ing, nil
}

// Validate checks a user-submitted ingredient name and, when the generative
// service accepts it, adds it to the catalog.
func (s *IngredientService) Validate(ctx context.Context, name, userID string) (*types.ValidateIngredientResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" || userID == "" {
		return nil, types.BadRequest("Ingredient name and user id are required")
	}
	if len([]rune(name)) > MaxIngredientNameLength {
		return nil, types.BadRequest("Ingredient name is too long")
	}

	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewAppError(types.ErrCodeConflict, "Ingredient already exists", http.StatusConflict, nil)
	}

	verdict, err := s.validator.ValidateIngredient(ctx, name, userID)
	if err != nil {
		return nil, err
	}

	resp := &types.ValidateIngredientResponse{
		IsValid:            verdict.IsValid,
		PossibleVariations: verdict.PossibleVariations,
		Message:            ValidationInvalid,
		Suggested:          s.unknownVariations(ctx, verdict.PossibleVariations),
	}
	if !verdict.IsValid {
		return resp, nil
	}

	ing, err := s.Create(ctx, name, &userID)
	if err != nil {
		return nil, err
	}
	logger.Info("ingredient added to catalog", zap.String("name", ing.Name), zap.String("user_id", userID))

	resp.Message = ValidationSuccess
	resp.NewIngredient = ToIngredientResponse(ing)
	return resp, nil
}

// unknownVariations keeps the suggestions not already in the catalog
func (s *IngredientService) unknownVariations(ctx context.Context, variations []string) []string {
	out := []string{}
	for _, v := range variations {
		exists, err := s.Exists(ctx, v)
		if err != nil {
			logger.Warn("failed to check suggested ingredient", zap.String("name", v), zap.Error(err))
			continue
		}
		if !exists {
			out = append(out, v)
		}
	}
	return out
}

// ToIngredientResponse maps a catalog row to its API shape
func ToIngredientResponse(ing *model.Ingredient) *types.IngredientResponse {
	return &types.IngredientResponse{
		ID:        ing.ID.String(),
		Name:      ing.Name,
		CreatedBy: ing.CreatedBy,
		CreatedAt: ing.CreatedAt,
	}
}

// IsNotFound reports whether err is a missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
