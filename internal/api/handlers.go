package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Smart Recipe Generator API is running",
	})
}

// currentUser returns the authenticated user. It writes a 401 and returns
// false when AuthMiddleware did not run.
func currentUser(c *gin.Context) (types.UserSummary, bool) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.UserID() == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated", "code": types.ErrCodeUnauthorized})
		return types.UserSummary{}, false
	}
	return claims.Summary(), true
}

// bindJSON decodes the body or writes a 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, types.BadRequest("invalid request body"))
		return false
	}
	return true
}

// respondError writes err in its HTTP form and records it on the context
func respondError(c *gin.Context, err error) {
	appErr := middleware.ToAppError(err)
	_ = c.Error(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("handler failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(appErr.Status, gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// RouteGuards are the per-route middlewares. Once rejects a repeated
// submission and belongs only on routes where a repeat would redo work;
// navigation and toggles repeat bodies on purpose. Metered counts the call
// against the user's AI quota.
type RouteGuards struct {
	Once    []gin.HandlerFunc
	Metered []gin.HandlerFunc
}

// submit guards a route that must not run twice for the same request
func (g RouteGuards) submit(handler gin.HandlerFunc) []gin.HandlerFunc {
	return chain(handler, g.Once)
}

// generate guards a route that calls the generative service
func (g RouteGuards) generate(handler gin.HandlerFunc) []gin.HandlerFunc {
	return chain(handler, g.Once, g.Metered)
}

// chain returns a fresh slice of the middleware groups followed by handler
func chain(handler gin.HandlerFunc, groups ...[]gin.HandlerFunc) []gin.HandlerFunc {
	var out []gin.HandlerFunc
	for _, g := range groups {
		out = append(out, g...)
	}
	return append(out, handler)
}
