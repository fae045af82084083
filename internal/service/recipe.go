package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/model"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// PopularTagLimit is the number of tags returned with a listing
const PopularTagLimit = 10

// ImageGenerator produces one image per recipe
type ImageGenerator interface {
	GenerateImages(ctx context.Context, recipes []types.CandidateRecipe, userID string) ([]ai.RecipeImage, error)
}

// ImageHost re-hosts a generated image and returns the link to store
type ImageHost interface {
	RehostImage(ctx context.Context, imageURL string) string
}

// TagScheduler arranges for tags to be generated for a saved recipe
type TagScheduler interface {
	ScheduleTags(ctx context.Context, recipeID, userID string) error
}

// RecipeService handles recipe operations
type RecipeService struct {
	db               *gorm.DB
	embeddingService EmbeddingServiceInterface
	images           ImageGenerator
	host             ImageHost
	tags             TagScheduler
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, embeddingService EmbeddingServiceInterface, images ImageGenerator, host ImageHost) *RecipeService {
	return &RecipeService{
		db:               db,
		embeddingService: embeddingService,
		images:           images,
		host:             host,
	}
}

// SetTagScheduler installs the scheduler used after recipes are saved. The
// job runner needs the service itself, so it is wired after construction.
func (s *RecipeService) SetTagScheduler(tags TagScheduler) {
	s.tags = tags
}

// SaveRecipes stores recipes for owner with a generated image each, then
// schedules tag generation. Image generation failing for any recipe fails the
// whole save.
func (s *RecipeService) SaveRecipes(ctx context.Context, owner types.UserSummary, recipes []types.CandidateRecipe) ([]*model.Recipe, error) {
	if len(recipes) == 0 {
		return nil, types.BadRequest("No recipes to save")
	}

	images, err := s.images.GenerateImages(ctx, recipes, owner.ID)
	if err != nil {
		return nil, err
	}
	if len(images) != len(recipes) {
		return nil, fmt.Errorf("expected %d images, got %d", len(recipes), len(images))
	}

	saved := make([]*model.Recipe, 0, len(recipes))
	for i, c := range recipes {
		r := model.NewRecipeFromCandidate(c, owner.ID)
		if link := images[i].ImgLink; link != "" && s.host != nil {
			r.ImgLink = s.host.RehostImage(ctx, link)
		} else {
			r.ImgLink = link
		}
		vec, err := s.embeddingService.GenerateEmbedding(recipeText(c))
		if err != nil {
			return nil, fmt.Errorf("failed to embed recipe: %w", err)
		}
		r.Embedding = vec
		saved = append(saved, r)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertUser(tx, owner); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&saved).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recipes: %w", err)
	}

	for _, r := range saved {
		logger.Info("recipe saved", zap.String("recipe_id", r.ID.String()), zap.String("owner_id", owner.ID))
		if s.tags == nil {
			continue
		}
		if err := s.tags.ScheduleTags(ctx, r.ID.String(), owner.ID); err != nil {
			logger.Error("failed to schedule tag generation", zap.String("recipe_id", r.ID.String()), zap.Error(err))
		}
	}
	return saved, nil
}

// GetRecipe loads a recipe with its owner and likes
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, types.NotFound("Recipe not found")
	}
	var recipe model.Recipe
	err = s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Likes.User").
		First(&recipe, "id = ?", rid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFound("Recipe not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// UpdateTags replaces the tags of a recipe
func (s *RecipeService) UpdateTags(ctx context.Context, id string, tags []string) error {
	return s.updateColumn(ctx, id, "tags", model.JSONBStringArray(tags))
}

// SetAudio stores the narration link of a recipe
func (s *RecipeService) SetAudio(ctx context.Context, id, link string) error {
	return s.updateColumn(ctx, id, "audio", link)
}

func (s *RecipeService) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return types.NotFound("Recipe not found")
	}
	res := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", rid).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update recipe %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFound("Recipe not found")
	}
	return nil
}

// ToggleLike adds the user's like when absent and removes it when present
func (s *RecipeService) ToggleLike(ctx context.Context, recipeID string, user types.UserSummary) (*types.RecipeResponse, error) {
	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertUser(tx, user); err != nil {
			return err
		}
		var like model.RecipeLike
		err := tx.Where("recipe_id = ? AND user_id = ?", recipe.ID, user.ID).First(&like).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&model.RecipeLike{RecipeID: recipe.ID, UserID: user.ID}).Error; err != nil {
				return err
			}
			return tx.Model(&model.Recipe{}).Where("id = ?", recipe.ID).
				Update("like_count", gorm.Expr("like_count + 1")).Error
		case err != nil:
			return err
		default:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			return tx.Model(&model.Recipe{}).Where("id = ? AND like_count > 0", recipe.ID).
				Update("like_count", gorm.Expr("like_count - 1")).Error
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	updated, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	resp := ToRecipeResponse(updated, user.ID)
	return &resp, nil
}

// ListRecipes returns one page of recipes for viewerID. A non-empty Query
// restricts the listing to recipes whose name, ingredients or tags contain it;
// on postgres those matches are ranked by embedding distance.
func (s *RecipeService) ListRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error) {
	db := s.db.WithContext(ctx)
	postgres := db.Dialector.Name() == "postgres"

	term := strings.ToLower(strings.TrimSpace(q.Query))
	filter := func(tx *gorm.DB) *gorm.DB {
		if term == "" {
			return tx
		}
		like := "%" + term + "%"
		if postgres {
			return tx.Where("LOWER(name) LIKE ? OR LOWER(ingredients::text) LIKE ? OR LOWER(tags::text) LIKE ?", like, like, like)
		}
		return tx.Where("LOWER(name) LIKE ? OR LOWER(ingredients) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)
	}

	var total int64
	if err := db.Model(&model.Recipe{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := db.Model(&model.Recipe{}).Scopes(filter)
	if term != "" && postgres {
		vec, err := s.embeddingService.GenerateEmbedding(term)
		if err != nil {
			return nil, err
		}
		query = query.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		})
	}
	if q.SortOption == types.SortRecent {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("like_count DESC").Order("created_at DESC")
	}

	var recipes []*model.Recipe
	err := query.
		Preload("Owner").
		Preload("Likes.User").
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	tags, err := s.PopularTags(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		data = append(data, ToRecipeResponse(r, viewerID))
	}
	return &types.RecipePage{
		Data:         data,
		TotalRecipes: total,
		Page:         q.Page,
		TotalPages:   q.TotalPages(total),
		PopularTags:  tags,
	}, nil
}

// SearchRecipes lists recipes matching q.Query. An empty query lists everything.
func (s *RecipeService) SearchRecipes(ctx context.Context, q types.PageQuery, viewerID string) (*types.RecipePage, error) {
	return s.ListRecipes(ctx, q, viewerID)
}

// PopularTags counts tag usage across all recipes and returns the most used,
// ties broken alphabetically
func (s *RecipeService) PopularTags(ctx context.Context) ([]types.TagCount, error) {
	var rows []model.JSONBStringArray
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Pluck("tags", &rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	counts := map[string]int64{}
	for _, tags := range rows {
		for _, t := range tags {
			counts[t]++
		}
	}
	out := make([]types.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, types.TagCount{ID: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > PopularTagLimit {
		out = out[:PopularTagLimit]
	}
	return out, nil
}

// ToRecipeResponse maps a stored recipe to the view of viewerID
func ToRecipeResponse(r *model.Recipe, viewerID string) types.RecipeResponse {
	resp := types.RecipeResponse{
		CandidateRecipe: r.Candidate(),
		ID:              r.ID.String(),
		ImgLink:         r.ImgLink,
		LikedBy:         []types.UserSummary{},
		Owns:            viewerID != "" && r.OwnerID == viewerID,
		Audio:           r.Audio,
		Tags:            make([]types.Tag, 0, len(r.Tags)),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Owner != nil {
		resp.Owner = &types.UserSummary{ID: r.Owner.ID, Name: r.Owner.Name, Image: r.Owner.Image}
	}
	for _, like := range r.Likes {
		summary := types.UserSummary{ID: like.UserID}
		if like.User != nil {
			summary.Name = like.User.Name
			summary.Image = like.User.Image
		}
		resp.LikedBy = append(resp.LikedBy, summary)
		if like.UserID == viewerID {
			resp.Liked = true
		}
	}
	for _, t := range r.Tags {
		resp.Tags = append(resp.Tags, types.Tag{Tag: t})
	}
	return resp
}

func upsertUser(tx *gorm.DB, u types.UserSummary) error {
	user := model.User{ID: u.ID, Name: u.Name, Image: u.Image, UpdatedAt: time.Now()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image", "updated_at"}),
	}).Create(&user).Error
}
