// Package jobs runs background work that follows a recipe save: tag
// generation through a river queue, or in-process when no queue is available.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

const (
	// QueueTags is the river queue for tag jobs (river disallows colons in queue names)
	QueueTags = "recipe_tags"

	tagJobKind       = "recipe:tags"
	maxRetryAttempts = 3
	tagJobTimeout    = 2 * time.Minute
)

// TagRecipeArgs asks for tags on one saved recipe
type TagRecipeArgs struct {
	RecipeID string `json:"recipe_id" river:"unique"`
	UserID   string `json:"user_id"`
}

// Kind returns the unique identifier for this job type.
func (TagRecipeArgs) Kind() string { return tagJobKind }

// InsertOpts returns the River insert options for this job type.
func (TagRecipeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueTags,
		MaxAttempts: maxRetryAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
}

// RecipeLoader reads a saved recipe
type RecipeLoader interface {
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
}

// Tagger generates and stores tags for a recipe
type Tagger interface {
	GenerateTags(ctx context.Context, recipeID string, recipe types.CandidateRecipe, userID string) ([]string, error)
}

// errPermanent marks failures that retrying cannot fix
var errPermanent = errors.New("permanent tag job failure")

// tagRecipe loads the recipe and generates its tags. Malformed model output
// and missing recipes are wrapped with errPermanent.
func tagRecipe(ctx context.Context, recipes RecipeLoader, tagger Tagger, args TagRecipeArgs) error {
	recipe, err := recipes.GetRecipe(ctx, args.RecipeID)
	if err != nil {
		if appErr := types.AsAppError(err); appErr.Code == types.ErrCodeNotFound {
			return fmt.Errorf("%w: recipe %s not found", errPermanent, args.RecipeID)
		}
		return fmt.Errorf("failed to load recipe: %w", err)
	}

	tags, err := tagger.GenerateTags(ctx, args.RecipeID, recipe.Candidate(), args.UserID)
	if err != nil {
		var tagErr *ai.TagGenerationError
		if errors.As(err, &tagErr) {
			return fmt.Errorf("%w: %w", errPermanent, err)
		}
		return err
	}

	logger.Debug("tag job finished",
		zap.String("recipe_id", args.RecipeID),
		zap.Int("tags", len(tags)),
	)
	return nil
}

// TagWorker processes TagRecipeArgs jobs
type TagWorker struct {
	river.WorkerDefaults[TagRecipeArgs]
	recipes RecipeLoader
	tagger  Tagger
}

func NewTagWorker(recipes RecipeLoader, tagger Tagger) *TagWorker {
	return &TagWorker{recipes: recipes, tagger: tagger}
}

// Timeout bounds one attempt
func (w *TagWorker) Timeout(*river.Job[TagRecipeArgs]) time.Duration {
	return tagJobTimeout
}

func (w *TagWorker) Work(ctx context.Context, job *river.Job[TagRecipeArgs]) error {
	err := tagRecipe(ctx, w.recipes, w.tagger, job.Args)
	if err == nil {
		return nil
	}
	if errors.Is(err, errPermanent) {
		logger.Warn("tag job cancelled",
			zap.String("recipe_id", job.Args.RecipeID),
			zap.Error(err),
		)
		return river.JobCancel(err)
	}

	logger.Error("tag job failed",
		zap.String("recipe_id", job.Args.RecipeID),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)
	return err
}
