package migrate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/infrastructure/cache"
	"github.com/docsphere/docsphere/internal/infrastructure/config"
	"github.com/docsphere/docsphere/internal/infrastructure/database"
	"github.com/docsphere/docsphere/internal/infrastructure/migration"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/seeds"
	"github.com/docsphere/docsphere/internal/infrastructure/repository"
	"github.com/docsphere/docsphere/internal/interfaces/cli/bootstrap"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

var (
	env        string
	configPath string
	steps      int
	planFile   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or roll back schema migrations, inspect their status and seed the plan catalog.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Directory containing config.yaml (default: ./configs)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newSeedCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the plan catalog",
		Long:  `Upsert the plan catalog, either the built-in tiers or a YAML file given with --file.`,
		RunE:  runSeed,
	}

	cmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML plan catalog to load instead of the built-in one")

	return cmd
}

func initEnv() (*config.Config, *gorm.DB, logger.Interface, error) {
	cfg, log, err := bootstrap.Load(env, configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, db, log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, db, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Infow("running up migrations", "environment", env)

	strategy := migration.NewGooseStrategy(cfg.Database.Driver, log)
	if err := strategy.Migrate(db); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, db, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Infow("running down migrations", "environment", env, "steps", steps)

	strategy := migration.NewGooseStrategy(cfg.Database.Driver, log)
	if err := strategy.MigrateDown(db, steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, db, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Infow("checking migration status", "environment", env)

	strategy := migration.NewGooseStrategy(cfg.Database.Driver, log)
	version, err := strategy.GetVersion(db)
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration Status:\n")
	fmt.Printf("  Environment:     %s\n", env)
	fmt.Printf("  Driver:          %s\n", cfg.Database.Driver)
	fmt.Printf("  Current Version: %d\n", version)

	if err := strategy.Status(db); err != nil {
		log.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, db, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(db)

	plans := seeds.DefaultPlans()
	if planFile != "" {
		data, err := os.ReadFile(planFile)
		if err != nil {
			return fmt.Errorf("failed to read plan catalog: %w", err)
		}
		if plans, err = seeds.ParsePlans(data); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Going through the cache drops stale plan entries. Seeding still
	// works without Redis.
	var repo subscription.PlanRepository = repository.NewPlanRepository(db, log)
	if client, err := bootstrap.NewRedisClient(ctx, cfg); err != nil {
		log.Warnw("redis unavailable, cached plans expire on their own", "error", err)
	} else {
		defer client.Close()
		repo = cache.NewCachedPlanRepository(repo, client, cfg.Limits.PlanCacheTTL, log)
	}

	if err := seeds.SeedPlans(ctx, repo, plans); err != nil {
		log.Errorw("plan seeding failed", "error", err)
		return err
	}

	log.Infow("plan catalog seeded", "plans", len(plans))
	fmt.Printf("Seeded %d plans\n", len(plans))
	return nil
}
