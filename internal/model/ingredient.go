package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient is a catalog entry. CreatedBy is nil for seeded entries.
type Ingredient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedBy *string   `gorm:"size:64" json:"created_by"`
}

// BeforeCreate assigns an id when none is set
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
