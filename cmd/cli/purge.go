package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ashmarket/discount-sync/internal/pipeline"
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge <direct|grouped>",
	Short: "Delete every rule owned by a variant",
	Long: `Delete all pricing rules whose names belong to the chosen variant's
namespace. Rules created by hand or by other tools are never touched.`,
	Example: `  discount-sync purge direct
  discount-sync purge grouped`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	variant, err := pipeline.ParseVariant(args[0])
	if err != nil {
		return err
	}

	runner := newRunner()

	deleted, err := runner.Purge(context.Background(), runOptions(variant))
	if err != nil {
		return err
	}

	logger.Info().Str("variant", string(variant)).Int("deleted", len(deleted)).Msg("Purge finished")
	return nil
}
