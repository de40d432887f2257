package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/config"
	"github.com/garyjia/travel-approval/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "travelflow",
		Short:         "Multi-stage travel request approval service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newExportAuditCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

// load reads the configuration and builds the logger.
// A missing default config file falls back to defaults and the environment.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path := o.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}
