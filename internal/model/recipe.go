package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// EmbeddingDimensions is the width of recipes.embedding
const EmbeddingDimensions = 64

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), a)
}

// RecipeIngredients stores the ingredient lines of a recipe as JSONB
type RecipeIngredients []types.RecipeIngredient

// Value implements the driver.Valuer interface
func (r RecipeIngredients) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (r *RecipeIngredients) Scan(value interface{}) error {
	if value == nil {
		*r = RecipeIngredients{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), r)
}

// AdditionalInfo stores the additional information block as JSONB
type AdditionalInfo types.AdditionalInformation

// Value implements the driver.Valuer interface
func (a AdditionalInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *AdditionalInfo) Scan(value interface{}) error {
	if value == nil {
		*a = AdditionalInfo{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), a)
}

func jsonBytes(value interface{}) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return []byte(fmt.Sprint(v))
	}
}

// Recipe is a saved recipe. LikeCount mirrors len(Likes) so listings can sort
// by popularity in SQL.
type Recipe struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	Name                  string            `gorm:"size:255;not null" json:"name"`
	Ingredients           RecipeIngredients `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions          JSONBStringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	DietaryPreference     JSONBStringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_preference"`
	AdditionalInformation AdditionalInfo    `gorm:"type:jsonb" json:"additional_information"`
	OpenAIPromptID        string            `gorm:"column:openai_prompt_id;size:100" json:"openai_prompt_id"`
	ImgLink               string            `gorm:"type:text" json:"img_link"`
	Audio                 string            `gorm:"type:text" json:"audio"`
	Tags                  JSONBStringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	LikeCount             int               `gorm:"not null;default:0;index" json:"like_count"`
	Embedding             pgvector.Vector   `gorm:"type:vector(64)" json:"-"`
	OwnerID               string            `gorm:"size:64;not null;index" json:"owner_id"`
	Owner                 *User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Likes                 []RecipeLike      `gorm:"foreignKey:RecipeID" json:"likes,omitempty"`
}

// BeforeCreate assigns an id when none is set. The embedding column is not
// nullable in practice, so a missing embedding becomes the zero vector.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if len(r.Embedding.Slice()) == 0 {
		r.Embedding = pgvector.NewVector(make([]float32, EmbeddingDimensions))
	}
	return nil
}

// Candidate returns the recipe content in its generated form
func (r *Recipe) Candidate() types.CandidateRecipe {
	return types.CandidateRecipe{
		Name:                  r.Name,
		Ingredients:           []types.RecipeIngredient(r.Ingredients),
		Instructions:          []string(r.Instructions),
		DietaryPreference:     []string(r.DietaryPreference),
		AdditionalInformation: types.AdditionalInformation(r.AdditionalInformation),
		OpenAIPromptID:        r.OpenAIPromptID,
	}
}

// NewRecipeFromCandidate builds an unsaved recipe owned by ownerID
func NewRecipeFromCandidate(c types.CandidateRecipe, ownerID string) *Recipe {
	return &Recipe{
		Name:                  c.Name,
		Ingredients:           RecipeIngredients(c.Ingredients),
		Instructions:          JSONBStringArray(c.Instructions),
		DietaryPreference:     JSONBStringArray(c.DietaryPreference),
		AdditionalInformation: AdditionalInfo(c.AdditionalInformation),
		OpenAIPromptID:        c.OpenAIPromptID,
		Tags:                  JSONBStringArray{},
		OwnerID:               ownerID,
	}
}
