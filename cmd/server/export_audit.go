package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-approval/internal/container"
)

func newExportAuditCmd(opts *rootOptions) *cobra.Command {
	var (
		actorID   int64
		requestID int64
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "export-audit",
		Short: "Export the audit trail to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actorID <= 0 {
				return fmt.Errorf("--actor is required")
			}

			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
			if err != nil {
				return err
			}
			if err := c.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			result, err := c.Services().Export.ExportAuditLog(cmd.Context(), actorID, requestID)
			if err != nil {
				return err
			}

			path := result.Path
			if outPath != "" {
				if err := os.WriteFile(outPath, result.Content, 0644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				path = outPath
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d audit entries to %s\n", result.EntryCount, path)
			return nil
		},
	}

	cmd.Flags().Int64Var(&actorID, "actor", 0, "id of the user requesting the export")
	cmd.Flags().Int64Var(&requestID, "request", 0, "limit the export to one request (0 exports all)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the workbook to this path")
	return cmd
}
