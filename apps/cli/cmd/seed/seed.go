package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	taxonomyrepo "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/repo"
	taxonomyservice "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/service"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// seedPanchayaths is the initial locality reference set. IDs are fixed so
// re-running the seed is an update, not a duplicate insert.
var seedPanchayaths = map[string]string{
	"6c0a2f4e-82a1-4f33-9b61-0d2b5a7c9e01": "Kadakkal",
	"6c0a2f4e-82a1-4f33-9b61-0d2b5a7c9e02": "Chithara",
	"6c0a2f4e-82a1-4f33-9b61-0d2b5a7c9e03": "Ittiva",
	"6c0a2f4e-82a1-4f33-9b61-0d2b5a7c9e04": "Nilamel",
	"6c0a2f4e-82a1-4f33-9b61-0d2b5a7c9e05": "Kummil",
}

type seedCategory struct {
	nameEnglish   string
	nameMalayalam string
}

var seedCategories = []seedCategory{
	{"Auto Rickshaw", "ഓട്ടോ റിക്ഷ"},
	{"Taxi", "ടാക്സി"},
	{"Goods Carrier", "ചരക്ക് വാഹനം"},
}

// Command loads reference data: panchayaths and an initial set of service
// categories. Categories are matched by english name, so re-running the seed
// leaves existing rows alone.
func Command() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Load panchayath and category reference data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_ = godotenv.Load()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			panchayathStore, err := persistence.NewPanchayathStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init panchayath store: %w", err)
			}
			for rawID, name := range seedPanchayaths {
				id, parseErr := uuid.Parse(rawID)
				if parseErr != nil {
					return fmt.Errorf("parse seed panchayath id %q: %w", rawID, parseErr)
				}
				if err := panchayathStore.Upsert(ctx, id, name); err != nil {
					return fmt.Errorf("seed panchayath %q: %w", name, err)
				}
			}
			cmd.Printf("seeded %d panchayaths\n", len(seedPanchayaths))

			taxonomyStore, err := persistence.NewTaxonomyStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init taxonomy store: %w", err)
			}
			svc := taxonomyservice.New(taxonomyrepo.NewPostgresRepository(taxonomyStore))

			existing, err := svc.ListCategories(ctx, false)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}
			present := make(map[string]bool, len(existing))
			for _, category := range existing {
				present[category.NameEnglish] = true
			}

			created := 0
			for _, category := range seedCategories {
				if present[category.nameEnglish] {
					continue
				}
				if _, err := svc.CreateCategory(ctx, taxonomyservice.CreateCategoryInput{
					NameEnglish:   category.nameEnglish,
					NameMalayalam: category.nameMalayalam,
				}); err != nil {
					return fmt.Errorf("seed category %q: %w", category.nameEnglish, err)
				}
				created++
			}
			cmd.Printf("seeded %d categories\n", created)

			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (required)")
	_ = c.MarkFlagRequired("database-url")

	return c
}
