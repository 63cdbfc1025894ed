package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"study-portal-service/internal/config"
	"study-portal-service/internal/content"
	"study-portal-service/internal/domain"
	pgstore "study-portal-service/internal/infra/postgres"
	"study-portal-service/internal/logging"
)

// NewSeedCmd copies the YAML content catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var contentPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes and checklists from the content file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if contentPath != "" {
				cfg.Content.Path = contentPath
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runSeed(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&contentPath, "content", "", "content file to seed (overrides content.path)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Content.Path == "" {
		return fmt.Errorf("content path not configured")
	}
	catalog, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}
	if err := runMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return seedCatalog(ctx, pgstore.NewContentLoader(pool), catalog, logger)
}

type contentWriter interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	SaveChecklist(ctx context.Context, list domain.Checklist) error
}

func seedCatalog(ctx context.Context, w contentWriter, catalog *content.Catalog, logger *zap.Logger) error {
	for _, quiz := range catalog.Quizzes {
		if err := w.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("seed quiz %s: %w", quiz.ID, err)
		}
	}
	for _, list := range catalog.Checklists {
		if err := w.SaveChecklist(ctx, list); err != nil {
			return fmt.Errorf("seed checklist %s: %w", list.Subject, err)
		}
	}
	logger.Info("content seeded",
		zap.Int("quizzes", len(catalog.Quizzes)),
		zap.Int("checklists", len(catalog.Checklists)),
	)
	return nil
}
