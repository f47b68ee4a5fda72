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

var (
	exportSession string
	exportFormat  string

	reportSession string
	reportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's audit trail to JSON or CSV",
	Run:   runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a full recovery report for a session",
	Run:   runReport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "session id (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json or csv")
	_ = exportCmd.MarkFlagRequired("session")

	reportCmd.Flags().StringVar(&reportSession, "session", "", "session id (required)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output path (defaults beside the session logs)")
	_ = reportCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	engine, err := control.NewEngine(cfg, executor.Collaborators{})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = engine.Close()
	}()

	path, err := engine.Ledger.ExportTrail(context.Background(), exportSession, exportFormat)
	if err != nil {
		slog.Error("Export failed", "session", exportSession, "error", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	engine, err := control.NewEngine(cfg, executor.Collaborators{})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = engine.Close()
	}()

	path, err := engine.Ledger.GenerateReport(context.Background(), reportSession, reportOut)
	if err != nil {
		slog.Error("Report generation failed", "session", reportSession, "error", err)
		os.Exit(1)
	}
	fmt.Println(path)
}
