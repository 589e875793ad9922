// Command platedesk serves the invoice review UI and exposes its
// extract/export steps on the command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/platedesk/internal/backend"
	"github.com/JonMunkholm/platedesk/internal/config"
	"github.com/JonMunkholm/platedesk/internal/core"
	"github.com/JonMunkholm/platedesk/internal/desk"
	"github.com/JonMunkholm/platedesk/internal/logging"
)

var envFiles []string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "platedesk",
		Short: "Review and correct invoice data extracted from scanned documents",
		Long: `platedesk sends invoices to an extraction service, lets you review and
correct the rows it finds, and downloads the result as invoice_data.xlsx.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadEnv()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to load (default: .env if present)")

	rootCmd.AddCommand(
		newServeCmd(),
		newExtractCmd(),
		newExportCmd(),
		newCheckPlateCmd(),
	)
	return rootCmd
}

// loadEnv loads .env files. Overload lets the file win over the shell, so a
// checked-out project behaves the same everywhere.
func loadEnv() {
	if err := godotenv.Overload(envFiles...); err != nil {
		if len(envFiles) > 0 {
			slog.Warn("could not load env files", "files", envFiles, "error", err)
		}
		return
	}
	slog.Debug("loaded env files", "files", envFiles)
}

// setup loads configuration and installs the logger writing to w.
func setup(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, w)
	return cfg, nil
}

// newDesk builds the backend clients and the desk from cfg.
func newDesk(cfg *config.Config) (*desk.Desk, error) {
	bc := backend.Config{
		BaseURL:      cfg.Backend.URL,
		UploadPath:   cfg.Backend.UploadPath,
		DownloadPath: cfg.Backend.DownloadPath,
		APIKey:       cfg.Backend.APIKey,
		Timeout:      cfg.Backend.Timeout,
		MaxFileSize:  cfg.Upload.MaxFileSize,
	}
	ex, err := backend.NewExtractionClient(bc)
	if err != nil {
		return nil, err
	}
	exp, err := backend.NewExportClient(bc)
	if err != nil {
		return nil, err
	}

	return desk.New(ex, exp, desk.Options{
		MissingFields: cfg.MissingFieldPolicy(),
		Limiter:       core.NewRequestLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	}), nil
}

// userError keeps the technical cause in the log and returns the message
// users can act on.
func userError(err error) error {
	if err == nil {
		return nil
	}
	slog.Debug("command failed", "error", err)
	if core.IsUserFacing(err) {
		return fmt.Errorf("%s", core.FormatUserError(err))
	}
	return err
}
