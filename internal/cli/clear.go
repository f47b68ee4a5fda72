package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/remedy/internal/control"
	"github.com/vietddude/remedy/internal/recovery/executor"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear [session_id]",
	Short: "Clear a session's audit trail, or all sessions with --all",
	Args:  cobra.MaximumNArgs(1),
	Run:   runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "clear every session")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if !clearAll && len(args) == 0 {
		fmt.Println("provide a session id or --all")
		os.Exit(1)
	}

	engine, err := control.NewEngine(cfg, executor.Collaborators{})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = engine.Close()
	}()

	ctx := context.Background()
	if clearAll {
		if err := engine.Ledger.ClearAll(ctx); err != nil {
			slog.Error("Failed to clear sessions", "error", err)
			os.Exit(1)
		}
		slog.Info("All sessions cleared")
		return
	}

	if err := engine.Ledger.ClearSession(ctx, args[0]); err != nil {
		slog.Error("Failed to clear session", "session", args[0], "error", err)
		os.Exit(1)
	}
	slog.Info("Session cleared", "session", args[0])
}
