package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/docsphere/docsphere/internal/infrastructure/auth"
	"github.com/docsphere/docsphere/internal/infrastructure/database"
	"github.com/docsphere/docsphere/internal/infrastructure/repository"
	"github.com/docsphere/docsphere/internal/interfaces/cli/bootstrap"
)

var (
	env        string
	configPath string
	tenantID   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Tenant access token tools",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Directory containing config.yaml (default: ./configs)")

	cmd.AddCommand(newIssueCommand())
	return cmd
}

func newIssueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for an existing tenant",
		RunE:  runIssue,
	}

	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "Tenant ID (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runIssue(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
	}

	cfg, log, err := bootstrap.Load(env, configPath)
	if err != nil {
		return err
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	t, err := repository.NewTenantRepository(db, log).Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("tenant %s not found", id)
	}

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	token, expiresAt, err := jwtSvc.Issue(id)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	log.Infow("issued tenant token", "tenant_id", id, "expires_at", expiresAt)
	fmt.Printf("Tenant:     %s (%s)\n", t.Name(), id)
	fmt.Printf("Expires at: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}
