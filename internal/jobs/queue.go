package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
)

const (
	DefaultConcurrency     = 5
	DefaultShutdownTimeout = 30 * time.Second
)

// ErrStopped is returned when scheduling on a stopped runner
var ErrStopped = errors.New("tag runner stopped")

// Runner schedules tag jobs and owns their workers
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ScheduleTags(ctx context.Context, recipeID, userID string) error
}

var (
	_ Runner = (*Queue)(nil)
	_ Runner = (*InProcess)(nil)
)

// QueueConfig configures the river tag queue
type QueueConfig struct {
	Pool            *pgxpool.Pool
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Queue owns a river client that both inserts and works tag jobs
type Queue struct {
	client          *river.Client[pgx.Tx]
	shutdownTimeout time.Duration
}

func NewQueue(cfg QueueConfig, recipes RecipeLoader, tagger Tagger) (*Queue, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewTagWorker(recipes, tagger)); err != nil {
		return nil, fmt.Errorf("failed to register tag worker: %w", err)
	}

	client, err := river.NewClient(riverpgxv5.New(cfg.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueTags: {MaxWorkers: concurrency},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}

	return &Queue{client: client, shutdownTimeout: shutdownTimeout}, nil
}

func (q *Queue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

func (q *Queue) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.shutdownTimeout)
	defer cancel()
	return q.client.Stop(ctx)
}

// ScheduleTags enqueues tag generation for a saved recipe
func (q *Queue) ScheduleTags(ctx context.Context, recipeID, userID string) error {
	_, err := q.client.Insert(ctx, TagRecipeArgs{RecipeID: recipeID, UserID: userID}, nil)
	if err != nil {
		return fmt.Errorf("failed to enqueue tag job: %w", err)
	}
	return nil
}

// InProcess runs tag jobs on goroutines when no river queue is configured.
// At most `concurrency` jobs run at once; a failed job is not retried.
type InProcess struct {
	recipes RecipeLoader
	tagger  Tagger
	sem     chan struct{}
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewInProcess(recipes RecipeLoader, tagger Tagger, concurrency int) *InProcess {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InProcess{
		recipes: recipes,
		tagger:  tagger,
		sem:     make(chan struct{}, concurrency),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *InProcess) Start(context.Context) error {
	return nil
}

// Stop waits for running jobs, cancelling them when ctx ends first
func (p *InProcess) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// ScheduleTags starts tag generation in the background. The request context
// is not used so the job outlives the request that saved the recipe.
func (p *InProcess) ScheduleTags(_ context.Context, recipeID, userID string) error {
	if p.ctx.Err() != nil {
		return ErrStopped
	}

	args := TagRecipeArgs{RecipeID: recipeID, UserID: userID}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			return
		}
		defer func() { <-p.sem }()

		ctx, cancel := context.WithTimeout(p.ctx, tagJobTimeout)
		defer cancel()
		if err := tagRecipe(ctx, p.recipes, p.tagger, args); err != nil {
			logger.Error("background tag generation failed",
				zap.String("recipe_id", recipeID),
				zap.Error(err),
			)
		}
	}()
	return nil
}
