package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// IngredientHandler serves the ingredient catalog
type IngredientHandler struct {
	ingredients service.IIngredientService
	quota       wizard.QuotaChecker
}

// NewIngredientHandler creates the handler. quota may be nil, in which case
// the limit is never reported as reached.
func NewIngredientHandler(ingredients service.IIngredientService, quota wizard.QuotaChecker) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, quota: quota}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/get-ingredients", h.GetIngredients)
}

// GetIngredients returns the catalog and whether the user may still create recipes
func (h *IngredientHandler) GetIngredients(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	list, err := h.ingredients.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.IngredientListResponse{
		IngredientList: make([]types.IngredientResponse, 0, len(list)),
	}
	for i := range list {
		resp.IngredientList = append(resp.IngredientList, *service.ToIngredientResponse(&list[i]))
	}

	if h.quota != nil {
		reached, err := h.quota.Reached(ctx, user.ID)
		if err != nil {
			logger.Warn("quota check failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		resp.ReachedLimit = reached
	}

	c.JSON(http.StatusOK, resp)
}
