package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/desk"
)

func newExtractCmd() *cobra.Command {
	var (
		outputPath string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract rows from a PDF, JPEG or PNG invoice",
		Long: `extract uploads FILE to the extraction service and prints the rows it
returns as a JSON array, keeping the service's column order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			d, err := newDesk(cfg)
			if err != nil {
				return err
			}

			f, err := backend.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := d.Dispatch(ctx, desk.SelectFile{File: f}); err != nil {
				return userError(err)
			}
			if _, err := d.Dispatch(ctx, desk.Extract{}); err != nil {
				return userError(err)
			}

			rows := d.Data().Current
			var out []byte
			if pretty {
				out, err = json.MarshalIndent(rows, "", "  ")
			} else {
				out, err = json.Marshal(rows)
			}
			if err != nil {
				return fmt.Errorf("encode rows: %w", err)
			}

			if outputPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outputPath, append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}
