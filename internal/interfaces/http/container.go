package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/infrastructure/auth"
	"github.com/docsphere/docsphere/internal/infrastructure/cache"
	"github.com/docsphere/docsphere/internal/infrastructure/config"
	"github.com/docsphere/docsphere/internal/infrastructure/database"
	"github.com/docsphere/docsphere/internal/infrastructure/metrics"
	"github.com/docsphere/docsphere/internal/infrastructure/provider"
	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
	"github.com/docsphere/docsphere/internal/infrastructure/scheduler"
	"github.com/docsphere/docsphere/internal/interfaces/http/middleware"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// Container holds the infrastructure components, repositories, use cases
// and handlers of the API process, and tears them down in Shutdown.
type Container struct {
	// Core infrastructure
	engine  *gin.Engine
	db      *gorm.DB
	redis   redis.UniversalClient
	cfg     *config.Config
	log     logger.Interface
	metrics *metrics.Metrics

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	authMiddleware *middleware.AuthMiddleware

	// Shared services
	txMgr         *db.TransactionManager
	limitsService *limits.Service
	provider      retrieval.Provider
	jwtSvc        *auth.JWTService

	schedulerManager *scheduler.SchedulerManager
}

// NewContainer wires every component. The Redis client is owned by the
// caller so that tests can hand in a miniredis-backed client.
func NewContainer(gdb *gorm.DB, redisClient redis.UniversalClient, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     gdb,
		redis:  redisClient,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Repositories, Limits, Provider, Auth
	c.initInfrastructure()

	// Section 2: Use cases
	c.initUseCases()

	// Section 3: Handlers and middlewares
	c.initHandlers()

	// Section 4: Scheduler jobs
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) initInfrastructure() {
	if c.cfg.Metrics.Enabled {
		c.metrics = metrics.New()
	}

	c.repos = newRepositories(c.db, c.redis, c.cfg.Limits.PlanCacheTTL, c.log)
	c.txMgr = db.NewTransactionManager(c.db)

	limiter := ratelimit.NewRedisRateLimiter(c.redis, c.cfg.Limits.RateLimitRPM, c.cfg.Limits.RateLimitFailOpen, c.log)
	guard := cache.NewIdempotencyGuard(c.redis, c.cfg.Limits.IdempotencyTTL)

	var recorder limits.DecisionRecorder
	if c.metrics != nil {
		recorder = c.metrics
	}
	c.limitsService = limits.NewService(limiter, guard, c.repos.subscriptionRepo, c.repos.planRepo, recorder, c.log)

	c.provider = provider.NewOpenAIProvider(c.cfg.OpenAI, c.metrics, c.log)
	c.jwtSvc = auth.NewJWTService(c.cfg.JWT.Secret, c.cfg.JWT.Issuer, c.cfg.JWT.AccessTTL)
}

func (c *Container) initScheduler() error {
	if !c.cfg.Scheduler.Enabled {
		return nil
	}

	mgr, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		return err
	}
	if err := mgr.RegisterUsageReportJob(c.ucs.reportDailyUsage, c.cfg.Scheduler.DailyReportHour); err != nil {
		return err
	}
	dbCheck := scheduler.HealthCheckFunc(func(context.Context) error { return database.Ping(c.db) })
	if err := mgr.RegisterHealthCheckJob(dbCheck, c.cfg.Scheduler.HealthCheckInterval); err != nil {
		return err
	}

	c.schedulerManager = mgr
	return nil
}

// StartBackground starts the scheduler, if one is configured.
func (c *Container) StartBackground() {
	if c.schedulerManager != nil {
		c.schedulerManager.Start()
	}
}

// TokenIssuer exposes the JWT service to the CLI.
func (c *Container) TokenIssuer() *auth.JWTService {
	return c.jwtSvc
}

// Shutdown stops background jobs. The database and Redis clients are
// closed by their owner.
func (c *Container) Shutdown() {
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Warnw("failed to stop scheduler", "error", err)
		}
	}
}

func pingRedis(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}
