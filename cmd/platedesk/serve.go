package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/platedesk/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			slog.Info("configuration loaded", "config", cfg.String())

			d, err := newDesk(cfg)
			if err != nil {
				return err
			}
			server := web.NewServer(d, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Graceful shutdown
			go func() {
				<-ctx.Done()
				slog.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("shutdown error", "error", err)
				}
			}()

			slog.Info("server starting",
				"addr", cfg.Server.Addr(),
				"backend", cfg.Backend.URL,
				"missing_fields", d.Policy().String(),
			)
			if err := server.Start(); err != nil {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}
