package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/config"
	"github.com/parksanggeon/smart-recipe-generator/internal/database"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
)

func main() {
	file := flag.String("file", "data/ingredients.json", "JSON array of ingredient names")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.L().Fatal("failed to read seed file", zap.String("file", *file), zap.Error(err))
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		logger.L().Fatal("seed file is not a JSON array of names", zap.Error(err))
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}
	if db.Dialector.Name() == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			logger.L().Fatal("failed to migrate database", zap.Error(err))
		}
	}

	ingredients := service.NewIngredientService(db, nil)
	added, err := seed(context.Background(), ingredients, names)
	if err != nil {
		logger.L().Fatal("seeding stopped", zap.Int("added", added), zap.Error(err))
	}
	logger.Info("ingredient catalog seeded", zap.Int("added", added), zap.Int("total", len(names)))
}

// seed adds every name not already in the catalog, counting singular and plural as one
func seed(ctx context.Context, ingredients *service.IngredientService, names []string) (int, error) {
	added := 0
	for _, name := range names {
		exists, err := ingredients.Exists(ctx, name)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		if _, err := ingredients.Create(ctx, name, nil); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
