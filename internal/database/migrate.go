package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/parksanggeon/smart-recipe-generator/internal/model"
)

// Models lists every table owned by the application
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Recipe{},
		&model.RecipeLike{},
		&model.Ingredient{},
		&model.AiInteraction{},
	}
}

// AutoMigrate creates or updates the schema from the models. On postgres the
// vector extension is installed first.
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}
