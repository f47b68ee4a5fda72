package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/remedy/internal/control"
	"github.com/vietddude/remedy/internal/recovery/executor"
)

var statsSession string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recovery statistics for a session, or list all sessions",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsSession, "session", "", "session id")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	engine, err := control.NewEngine(cfg, executor.Collaborators{})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = engine.Close()
	}()

	ctx := context.Background()

	if statsSession == "" {
		sessions, err := engine.Ledger.Sessions(ctx)
		if err != nil {
			slog.Error("Failed to list sessions", "error", err)
			os.Exit(1)
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions recorded")
			return
		}
		for _, id := range sessions {
			fmt.Println(id)
		}
		return
	}

	stats, err := engine.Ledger.GetStatistics(ctx, statsSession)
	if err != nil {
		slog.Error("Failed to compute statistics", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "session\t%s\n", stats.SessionID)
	_, _ = fmt.Fprintf(w, "attempts\t%d\n", stats.TotalAttempts)
	_, _ = fmt.Fprintf(w, "succeeded\t%d\n", stats.Succeeded)
	_, _ = fmt.Fprintf(w, "failed\t%d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "success rate\t%.2f%%\n", stats.SuccessRate)
	_, _ = fmt.Fprintf(w, "total duration\t%s\n", stats.TotalDuration)
	_, _ = fmt.Fprintf(w, "avg duration\t%s\n", stats.AverageDuration)
	_, _ = fmt.Fprintf(w, "files modified\t%d\n", stats.FilesModifiedCount)
	_, _ = fmt.Fprintf(w, "rollbacks\t%d\n", stats.RollbackCount)
	for strategy, count := range stats.StrategyUsage {
		_, _ = fmt.Fprintf(w, "strategy %s\t%d\n", strategy, count)
	}
	for errType, count := range stats.ErrorTypes {
		_, _ = fmt.Fprintf(w, "error %s\t%d\n", errType, count)
	}
	_ = w.Flush()
}
