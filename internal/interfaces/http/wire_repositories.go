package http

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/domain/message"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/infrastructure/cache"
	"github.com/docsphere/docsphere/internal/infrastructure/repository"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// repositories holds the repository instances used by the application.
type repositories struct {
	tenantRepo       tenant.Repository
	planRepo         subscription.PlanRepository
	subscriptionRepo subscription.SubscriptionRepository
	projectRepo      project.Repository
	messageRepo      message.Repository
	ledger           usage.Ledger
}

// newRepositories builds the gorm repositories. Plan reads go through the
// Redis cache.
func newRepositories(db *gorm.DB, client redis.Cmdable, planTTL time.Duration, log logger.Interface) *repositories {
	return &repositories{
		tenantRepo:       repository.NewTenantRepository(db, log),
		planRepo:         cache.NewCachedPlanRepository(repository.NewPlanRepository(db, log), client, planTTL, log),
		subscriptionRepo: repository.NewSubscriptionRepository(db, log),
		projectRepo:      repository.NewProjectRepository(db, log),
		messageRepo:      repository.NewMessageRepository(db, log),
		ledger:           repository.NewUsageRepository(db, log),
	}
}
