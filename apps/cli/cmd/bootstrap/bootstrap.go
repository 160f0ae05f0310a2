package bootstrap

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// Command applies the registry schema to the target database. Bootstrap is
// idempotent: the DDL uses IF NOT EXISTS throughout.
func Command() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Apply the registry database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_ = godotenv.Load()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.Bootstrap(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			cmd.Println("schema applied")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (required)")
	_ = c.MarkFlagRequired("database-url")

	return c
}
