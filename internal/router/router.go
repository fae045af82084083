package router

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/parksanggeon/smart-recipe-generator/internal/api"
	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
)

// maxBodySize bounds request bodies; the largest is a save of a few recipes
const maxBodySize = 1 << 20

// Options configures the engine around the API routes
type Options struct {
	// AllowedOrigins are the web client origins for CORS
	AllowedOrigins []string
	// Release switches gin to release mode
	Release bool
}

// SetupRouter builds the gin engine with the global middleware chain and
// every API route
func SetupRouter(opts Options, deps api.Dependencies) *gin.Engine {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.ErrorHandler())

	api.RegisterRoutes(router, deps)
	return router
}
