package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/docsphere/docsphere/internal/interfaces/cli/migrate"
	"github.com/docsphere/docsphere/internal/interfaces/cli/server"
	"github.com/docsphere/docsphere/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsphere",
		Short: "Docsphere - multi-tenant document question answering",
		Long:  `Docsphere serves the tenant, billing, ingestion and query API and ships the migration and token tools that go with it.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
