package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/remedy/internal/infra/redis"
)

var (
	queueSession string
	queuePop     bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the unresolved-error replay queue",
	Long:  `Shows the number of escalated errors queued for a session, or pops the oldest one with --pop. Requires a configured Redis URL.`,
	Run:   runQueue,
}

func init() {
	queueCmd.Flags().StringVar(&queueSession, "session", "", "session id (required)")
	queueCmd.Flags().BoolVar(&queuePop, "pop", false, "pop and print the oldest queued error")
	_ = queueCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if cfg.Redis.URL == "" {
		fmt.Println("no redis configured; replay queue disabled")
		os.Exit(1)
	}

	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx := context.Background()

	if queuePop {
		item, ok, err := client.PopUnresolved(ctx, queueSession)
		if err != nil {
			slog.Error("Failed to pop queued error", "session", queueSession, "error", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("queue empty")
			return
		}
		out, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			slog.Error("Failed to encode queued error", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	pending, err := client.Pending(ctx, queueSession)
	if err != nil {
		slog.Error("Failed to read queue length", "session", queueSession, "error", err)
		os.Exit(1)
	}
	fmt.Printf("%d pending\n", pending)
}
