package main

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/folioworks/portfolio/internal/infra/repository"
	"github.com/folioworks/portfolio/internal/usecase"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Replace stored content with a JSON export",
	Long:  "seed imports a JSON array of content items, defaulting to CONTENT_FILE. Rows missing from the export are removed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		path := conf.Site.ContentFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no content file given")
		}

		// the export file is the source here, not the store
		conf.Site.ContentFile = ""
		repo, err := openRepository(conf)
		if err != nil {
			return err
		}

		content := usecase.NewContentUsecase(repo, nil)
		defer content.Close()

		n, err := content.Seed(cmd.Context(), repository.NewFileRepository(path))
		if err != nil {
			return err
		}

		slog.Info("seeded content", slog.Int("count", n), slog.String("file", path), slog.String("module", "main"))
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d content items\n", n)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the content schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		conf.Site.ContentFile = ""
		repo, err := openRepository(conf)
		if err != nil {
			return err
		}

		err = repo.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}
