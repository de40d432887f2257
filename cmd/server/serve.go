package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/container"
	httpapi "github.com/garyjia/travel-approval/internal/interfaces/http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the workflow HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting travel approval service",
				zap.String("version", httpapi.Version),
				zap.Int("port", cfg.Server.Port))

			c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
			if err != nil {
				return err
			}
			if err := c.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			services := c.Services()
			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:            cfg.Server.Host,
				Port:            cfg.Server.Port,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, c.Workflow(), services.Notification, services.Export, c, container.NewLoggerAdapter(logger.Named("http")))

			// blocks until SIGINT/SIGTERM cancels the command context
			return server.Start(cmd.Context())
		},
	}
}
