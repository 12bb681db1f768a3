package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashmarket/discount-sync/internal/database"
	"github.com/ashmarket/discount-sync/internal/pipeline"
	"github.com/ashmarket/discount-sync/internal/store"
)

var (
	syncFile  string
	syncForce bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync <direct|grouped>",
	Short: "Reconcile pricing rules against the discount spreadsheet",
	Long: `Read the discount spreadsheet and reconcile the pricing rules of the chosen
variant against it. Rules are matched by their generated names, so repeated
runs converge: unchanged input produces no mutations.

An unchanged import file (same modification time as the last recorded run)
skips the run entirely unless --force is given.`,
	Example: `  discount-sync sync direct
  discount-sync sync grouped --file ./upload/discounts.xlsx
  discount-sync sync direct --force`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFile, "file", "", "Import file path (overrides config)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Run even if the import file is unchanged")
}

func runSync(cmd *cobra.Command, args []string) error {
	variant, err := pipeline.ParseVariant(args[0])
	if err != nil {
		return err
	}

	opts := runOptions(variant)
	opts.Force = syncForce
	if syncFile != "" {
		opts.File = syncFile
	}

	runner := newRunner()

	err = runner.Run(context.Background(), opts)
	switch {
	case errors.Is(err, pipeline.ErrUnchanged):
		logger.Info().Str("file", opts.File).Msg("Import file unchanged, nothing to do")
		return nil
	case errors.Is(err, pipeline.ErrFileMissing):
		return fmt.Errorf("import file not found: %s", opts.File)
	case err != nil:
		return err
	}

	logger.Info().Str("variant", string(variant)).Msg("Sync finished")
	return nil
}

func runOptions(variant pipeline.Variant) pipeline.Options {
	return pipeline.Options{
		File:       cfg.Import.File,
		Sheet:      cfg.Import.Sheet,
		ColumnFrom: cfg.Import.ColumnFrom,
		ColumnTo:   cfg.Import.ColumnTo,
		StartRow:   cfg.Import.StartRow,
		EndRow:     cfg.Import.EndRow,
		LogFile:    cfg.Import.LogFile,
		SiteID:     cfg.Import.SiteID,
		Variant:    variant,
	}
}

func newRunner() *pipeline.Runner {
	st := store.New(database.Pool(), *logger)
	return &pipeline.Runner{
		Rules:   st,
		Catalog: st,
		Prices:  st,
		State:   st,
		Logger:  *logger,
	}
}
