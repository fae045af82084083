package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/config"
	"github.com/parksanggeon/smart-recipe-generator/internal/ai"
	"github.com/parksanggeon/smart-recipe-generator/internal/api"
	"github.com/parksanggeon/smart-recipe-generator/internal/database"
	"github.com/parksanggeon/smart-recipe-generator/internal/jobs"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
	"github.com/parksanggeon/smart-recipe-generator/internal/router"
	"github.com/parksanggeon/smart-recipe-generator/internal/server"
	"github.com/parksanggeon/smart-recipe-generator/internal/service"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.Info("starting smart recipe generator", zap.String("env", string(cfg.Env)))

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	if db.Dialector.Name() == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var pool *pgxpool.Pool
	if cfg.Jobs.Enabled && db.Dialector.Name() == "postgres" {
		pool, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		drafts wizard.DraftStore = wizard.NewMemoryStore()
		quota  *middleware.RateLimiter
		dedup  = middleware.NewDeduplicator(cfg.DedupWindow)
	)
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.Env.IsStrict() {
			return err
		}
		logger.Warn("redis unavailable, using in-memory drafts without generation quota", zap.Error(err))
	} else {
		defer closeRedis(redisClient)
		drafts = wizard.NewRedisStore(redisClient)
		quota = middleware.NewGenerationQuota(redisClient, cfg.Quota.Limit, cfg.Quota.Window)
	}

	bucket, err := config.NewS3Config(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	media := service.NewMediaService(bucket)

	completer, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	openai := ai.NewOpenAIClient(cfg.AI.OpenAIBaseURL, cfg.AI.OpenAIAPIKey, cfg.AI.Timeout)

	// tag writes only touch recipe rows, so the gateway gets a bare store
	tagStore := service.NewRecipeService(db, nil, nil, nil)
	gateway := ai.NewGateway(ai.Config{
		Completer: completer,
		Imager:    openai,
		Speaker:   openai,
		Audit:     service.NewAuditService(db),
		Tags:      tagStore,
		Models: ai.Models{
			Chat:   cfg.AI.ChatModel,
			Image:  cfg.AI.ImageModel,
			Speech: cfg.AI.SpeechModel,
		},
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	})
	recipes := service.NewRecipeService(db, service.NewEmbeddingService(), gateway, media)
	ingredients := service.NewIngredientService(db, gateway)
	audio := service.NewAudioService(recipes, gateway, media)

	runner, err := newRunner(cfg.Jobs, pool, recipes, gateway)
	if err != nil {
		return err
	}
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), jobs.DefaultShutdownTimeout)
		defer cancel()
		if err := runner.Stop(stopCtx); err != nil {
			logger.Warn("job runner did not stop cleanly", zap.Error(err))
		}
	}()
	recipes.SetTagScheduler(runner)

	var quotaChecker wizard.QuotaChecker
	if quota != nil {
		quotaChecker = quota
	}
	controller := wizard.NewController(drafts, gateway, recipes, quotaChecker)

	engine := router.SetupRouter(router.Options{
		AllowedOrigins: []string{cfg.App.PublicBaseURL},
		Release:        cfg.Env.IsStrict(),
	}, api.Dependencies{
		Tokens:      middleware.NewJWTValidator(cfg.Auth.JWTSecret),
		Generator:   gateway,
		Chat:        gateway,
		Recipes:     recipes,
		Ingredients: ingredients,
		Audio:       audio,
		Wizard:      controller,
		Quota:       quota,
		Dedup:       dedup,
	})

	return server.New(cfg.Server, engine).Run(ctx)
}

func newCompleter(ctx context.Context, cfg config.AIConfig) (ai.Completer, error) {
	switch cfg.Provider {
	case "gemini":
		return ai.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
	case "openai", "":
		return ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// newRunner prefers the river queue and falls back to in-process workers
// when jobs are disabled or the store is not postgres
func newRunner(cfg config.JobsConfig, pool *pgxpool.Pool, recipes *service.RecipeService, tagger jobs.Tagger) (jobs.Runner, error) {
	if pool == nil {
		logger.Info("tag jobs run in-process")
		return jobs.NewInProcess(recipes, tagger, cfg.Workers), nil
	}
	queue, err := jobs.NewQueue(jobs.QueueConfig{
		Pool:            pool,
		Concurrency:     cfg.Workers,
		ShutdownTimeout: jobs.DefaultShutdownTimeout,
	}, recipes, tagger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job queue: %w", err)
	}
	return queue, nil
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		logger.Warn("failed to close redis", zap.Error(err))
	}
}

