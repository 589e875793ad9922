package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
	"github.com/JonMunkholm/platedesk/internal/workbook"
)

func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export ROWS.json",
		Short: "Convert a JSON array of rows into an Excel workbook",
		Long: `export sends the rows in ROWS.json (as printed by extract) to the export
service and saves the workbook it returns.

Rows are checked against the Plate ID format first; nothing is sent if any
row fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rows: %w", err)
			}
			rows, err := core.ParseDataSet(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			for i, row := range rows {
				if err := core.ValidateRow(row); err != nil {
					return fmt.Errorf("row %d: %w", i+1, userError(err))
				}
			}

			cfg, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			d, err := newDesk(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := d.Dispatch(ctx, desk.Load{Rows: rows}); err != nil {
				return userError(err)
			}
			view, err := d.Dispatch(ctx, desk.Export{})
			if err != nil {
				return userError(err)
			}

			if outputPath == "" {
				outputPath = backend.ExportFileName
			}
			if err := os.WriteFile(outputPath, view.Payload.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			if s, err := workbook.Summarize(view.Payload.Data); err == nil && len(s.Sheets) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d rows on sheet %q)\n", outputPath, s.Rows, s.Sheets[0])
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", outputPath, len(view.Payload.Data))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: "+backend.ExportFileName+")")
	return cmd
}
