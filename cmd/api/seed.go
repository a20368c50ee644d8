package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/georgemunganga/plantshop-backend/internal/config"
	"github.com/georgemunganga/plantshop-backend/internal/logging"
	"github.com/georgemunganga/plantshop-backend/internal/modules/catalog"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog with the contents of a YAML seed file",
	Long: `Deletes every plant and category, then inserts the categories and
plants listed in the seed file. Plants reference categories by key.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "data/seed.yaml", "path to the YAML seed file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	data, err := catalog.DecodeSeed(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := catalog.NewService(repo, logger).Seed(ctx, data)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded",
		zap.String("file", seedFile),
		zap.Int("categories", res.Categories),
		zap.Int("plants", res.Plants),
		zap.Int("skipped", res.Skipped))
	return nil
}
