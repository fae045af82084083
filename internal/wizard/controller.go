package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// Generator produces candidate recipes
type Generator interface {
	GenerateRecipes(ctx context.Context, ingredients []types.Ingredient, prefs []types.DietaryPreference, userID string) (ai.GenerationBatch, error)
}

// Saver persists the final selection
type Saver interface {
	SaveRecipes(ctx context.Context, owner types.UserSummary, recipes []types.CandidateRecipe) ([]*model.Recipe, error)
}

// QuotaChecker reports whether a user may no longer create recipes
type QuotaChecker interface {
	Reached(ctx context.Context, userID string) (bool, error)
}

// GenerationError is returned when the model reply could not be turned into
// candidates. The session stays at ReviewAndGenerate.
type GenerationError struct {
	Failure *ai.ParseFailure
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGenerationUnparseable, e.Failure.Reason)
}

func (e *GenerationError) Unwrap() error {
	return ErrGenerationUnparseable
}

// SubmitResult is returned after the selection has been saved
type SubmitResult struct {
	SavedRecipes []string `json:"savedRecipes"`
	Redirect     string   `json:"redirect"`
	Session      *Session `json:"session"`
}

// Controller drives wizard sessions held in a DraftStore
type Controller struct {
	store     DraftStore
	generator Generator
	saver     Saver
	quota     QuotaChecker
	now       func() time.Time
}

func NewController(store DraftStore, generator Generator, saver Saver, quota QuotaChecker) *Controller {
	return &Controller{
		store:     store,
		generator: generator,
		saver:     saver,
		quota:     quota,
		now:       time.Now,
	}
}

// Start creates a session seeded with oldIngredients. Quota is checked once
// here; a user over the limit gets a terminal session.
func (c *Controller) Start(ctx context.Context, userID string, oldIngredients []string) (*Session, error) {
	s := NewSession(userID, c.now())

	if c.quota != nil {
		reached, err := c.quota.Reached(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check quota: %w", err)
		}
		s.LimitReached = reached
	}

	if !s.LimitReached {
		for _, name := range oldIngredients {
			if strings.TrimSpace(name) == "" {
				continue
			}
			_, err := s.AddIngredient(name, nil)
			if errors.Is(err, ErrDuplicateIngredient) {
				continue
			}
			if errors.Is(err, ErrTooManyIngredients) {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := c.store.Save(ctx, s); err != nil {
		return nil, err
	}
	logger.Info("wizard session started",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.Bool("limit_reached", s.LimitReached),
		zap.Int("ingredients", len(s.Ingredients)),
	)
	return s, nil
}

// Get loads a session owned by userID
func (c *Controller) Get(ctx context.Context, id, userID string) (*Session, error) {
	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	// Pending is set and cleared under the lock, so a flag older than the
	// lock itself was left by an operation that never finished.
	if s.Pending && c.now().Sub(s.UpdatedAt) > LockTTL {
		logger.Warn("clearing stale pending wizard session", zap.String("session_id", id))
		s.Pending = false
	}
	return s, nil
}

func (c *Controller) AddIngredient(ctx context.Context, id, userID, name string, quantity *float64) (*Session, error) {
	return c.mutate(ctx, id, userID, func(s *Session) error {
		_, err := s.AddIngredient(name, quantity)
		return err
	})
}

func (c *Controller) RemoveIngredient(ctx context.Context, id, userID, ingredientID string) (*Session, error) {
	return c.mutate(ctx, id, userID, func(s *Session) error {
		return s.RemoveIngredient(ingredientID)
	})
}

func (c *Controller) TogglePreference(ctx context.Context, id, userID string, p types.DietaryPreference) (*Session, error) {
	return c.mutate(ctx, id, userID, func(s *Session) error {
		return s.TogglePreference(p)
	})
}

func (c *Controller) Next(ctx context.Context, id, userID string) (*Session, error) {
	return c.mutate(ctx, id, userID, (*Session).Next)
}

func (c *Controller) Back(ctx context.Context, id, userID string) (*Session, error) {
	return c.mutate(ctx, id, userID, (*Session).Back)
}

func (c *Controller) ToggleSelection(ctx context.Context, id, userID, promptID string) (*Session, error) {
	return c.mutate(ctx, id, userID, func(s *Session) error {
		return s.ToggleSelection(promptID)
	})
}

// Delete discards a session
func (c *Controller) Delete(ctx context.Context, id, userID string) error {
	if _, err := c.Get(ctx, id, userID); err != nil {
		return err
	}
	return c.store.Delete(ctx, id)
}

// Generate runs recipe generation for a session at ReviewAndGenerate. The
// session is marked pending for the duration of the call so concurrent
// requests are refused. On success the candidates are stored and the session
// advances to RecipeSelection.
func (c *Controller) Generate(ctx context.Context, id, userID string) (*Session, error) {
	unlock, err := c.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := c.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.CanGenerate(); err != nil {
		return s, err
	}
	if err := c.setPending(ctx, s, true); err != nil {
		return nil, err
	}

	batch, genErr := c.generator.GenerateRecipes(ctx, s.Ingredients, s.Preferences, userID)
	if genErr == nil && batch.Failure == nil {
		s.SetCandidates(batch.Recipes)
	}

	if err := c.setPending(context.WithoutCancel(ctx), s, false); err != nil {
		return nil, err
	}

	switch {
	case genErr != nil:
		logger.Error("wizard generation failed", zap.String("session_id", id), zap.Error(genErr))
		return s, genErr
	case batch.Failure != nil:
		return s, &GenerationError{Failure: batch.Failure}
	}

	logger.Info("wizard candidates generated",
		zap.String("session_id", id),
		zap.String("prompt_id", batch.PromptID),
		zap.Int("candidates", len(s.Candidates)),
	)
	return s, nil
}

// Submit saves the selected candidates for owner, then resets the session.
func (c *Controller) Submit(ctx context.Context, id string, owner types.UserSummary) (*SubmitResult, error) {
	unlock, err := c.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := c.Get(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}
	if err := s.CanSubmit(); err != nil {
		return nil, err
	}
	if err := c.setPending(ctx, s, true); err != nil {
		return nil, err
	}

	saved, saveErr := c.saver.SaveRecipes(ctx, owner, s.FinalRecipes())
	if saveErr == nil {
		s.Reset()
	}
	if err := c.setPending(context.WithoutCancel(ctx), s, false); err != nil {
		return nil, err
	}
	if saveErr != nil {
		logger.Error("wizard submit failed", zap.String("session_id", id), zap.Error(saveErr))
		return nil, saveErr
	}

	ids := make([]string, 0, len(saved))
	for _, r := range saved {
		ids = append(ids, r.ID.String())
	}
	logger.Info("wizard recipes saved", zap.String("session_id", id), zap.Strings("recipe_ids", ids))
	return &SubmitResult{SavedRecipes: ids, Redirect: ProfileRedirect, Session: s}, nil
}

func (c *Controller) setPending(ctx context.Context, s *Session, pending bool) error {
	s.Pending = pending
	s.UpdatedAt = c.now()
	return c.store.Save(ctx, s)
}

// mutate applies fn to the stored session under the session lock and saves
// the result. A failed fn leaves the stored session unchanged.
func (c *Controller) mutate(ctx context.Context, id, userID string, fn func(*Session) error) (*Session, error) {
	unlock, err := c.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := c.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = c.now()
	if err := c.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Controller) lock(ctx context.Context, id string) (func(), error) {
	ok, err := c.store.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	return func() {
		if err := c.store.Release(context.WithoutCancel(ctx), id); err != nil {
			logger.Warn("failed to release wizard session", zap.String("session_id", id), zap.Error(err))
		}
	}, nil
}
