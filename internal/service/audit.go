package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
)

// AuditService stores one row per generative service call
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record inserts the interaction and returns its id
func (s *AuditService) Record(ctx context.Context, in ai.Interaction) (string, error) {
	row := model.AiInteraction{
		UserID:   in.UserID,
		Prompt:   in.Prompt,
		Response: in.Response,
		Model:    in.Model,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save ai interaction: %w", err)
	}
	return row.ID.String(), nil
}
