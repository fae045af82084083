package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeLike records that a user likes a recipe
type RecipeLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_likes_recipe_user" json:"recipe_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_recipe_likes_recipe_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (RecipeLike) TableName() string {
	return "recipe_likes"
}

// BeforeCreate assigns an id when none is set
func (l *RecipeLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
