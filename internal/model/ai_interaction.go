package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AiInteraction is an append-only record of one generative service call
type AiInteraction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text" json:"response"`
	Model     string    `gorm:"size:100" json:"model"`
}

// BeforeCreate assigns an id when none is set
func (a *AiInteraction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
