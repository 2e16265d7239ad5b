package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// Manager runs schema migrations with a chosen strategy.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose for versioned databases and gorm AutoMigrate when
// autoMigrate is set.
func NewManager(driver string, autoMigrate bool, log logger.Interface) *Manager {
	var strategy Strategy
	if autoMigrate {
		strategy = NewGormAutoMigrateStrategy(log, models.All()...)
	} else {
		strategy = NewGooseStrategy(driver, log)
	}
	return NewManagerWithStrategy(strategy, log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}
	return nil
}

func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}
