package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"angostura-trivia-service/internal/config"
	"angostura-trivia-service/internal/domain"
	pgstore "angostura-trivia-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads the built-in question set into postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample park questions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := pgstore.NewQuestionStore(pool)
	inserted := 0
	for _, q := range sampleQuestions() {
		if _, err := store.Get(ctx, q.ID); err == nil {
			continue // already seeded
		} else if !errors.Is(err, domain.ErrQuestionNotFound) {
			return err
		}
		if _, err := store.Create(ctx, q); err != nil {
			return err
		}
		inserted++
	}
	log.Printf("seeded %d questions", inserted)
	return nil
}
