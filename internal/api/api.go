package api

import (
	"github.com/gin-gonic/gin"

	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// Dependencies are the collaborators the handlers need. Quota and Dedup may
// be nil to disable metering and duplicate-submit protection.
type Dependencies struct {
	Tokens      middleware.TokenValidator
	Generator   wizard.Generator
	Chat        ChatAssistant
	Recipes     service.IRecipeService
	Ingredients service.IIngredientService
	Audio       service.IAudioService
	Wizard      *wizard.Controller
	Quota       *middleware.RateLimiter
	Dedup       *middleware.Deduplicator
}

// RegisterRoutes registers the health check and every /api route
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Tokens))

	var guards RouteGuards
	if deps.Dedup != nil {
		guards.Once = []gin.HandlerFunc{deps.Dedup.Middleware()}
	}
	var quota wizard.QuotaChecker
	if deps.Quota != nil {
		guards.Metered = []gin.HandlerFunc{deps.Quota.QuotaMiddleware()}
		quota = deps.Quota
	}

	NewGenerationHandler(deps.Generator, deps.Chat, deps.Recipes, deps.Ingredients, deps.Audio).RegisterRoutes(api, guards)
	NewRecipeHandler(deps.Recipes).RegisterRoutes(api, guards)
	NewIngredientHandler(deps.Ingredients, quota).RegisterRoutes(api)
	if deps.Wizard != nil {
		NewWizardHandler(deps.Wizard).RegisterRoutes(api, guards)
	}
}
