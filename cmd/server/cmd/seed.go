package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eventhall/server/internal/domain/categories"
	"github.com/eventhall/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the event category taxonomy",
	Long: `Load the category seed file and upsert every entry by slug.

Safe to run repeatedly: existing categories are updated in place and
never duplicated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		data, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}

		var seeds []categories.SeedCategory
		if err := yaml.Unmarshal(data, &seeds); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}

		if err := categories.NewService(repo.Categories()).Seed(ctx, seeds); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories\n", len(seeds))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "db/seed/categories.yaml", "path to the category seed file")
}
