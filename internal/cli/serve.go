package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/remedy/internal/control"
	"github.com/vietddude/remedy/internal/recovery/executor"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health and Prometheus metrics for a running audit store",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9090", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	engine, err := control.NewEngine(cfg, executor.Collaborators{})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = engine.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.StartMetricsCollectors(ctx)

	server := control.NewServer(engine, serveAddr)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("Metrics server started", "addr", serveAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
