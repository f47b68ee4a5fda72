package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/remedy/internal/recovery/classifier"
)

var (
	classifySource   string
	classifyExitCode int
)

var classifyCmd = &cobra.Command{
	Use:   "classify [raw output]",
	Short: "Classify raw failure output and print the structured error",
	Long:  `Reads raw output from the arguments, or from stdin when none are given, and prints the classified error as JSON. Prints nothing when no error is detected.`,
	Run:   runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifySource, "source", "subprocess", "failure source (subprocess, test, filesystem, network, ...)")
	classifyCmd.Flags().IntVar(&classifyExitCode, "exit-code", 0, "process exit code, if any")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	loadConfig()

	raw := strings.Join(args, " ")
	if raw == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			slog.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		raw = string(data)
	}

	var exitCode *int
	if cmd.Flags().Changed("exit-code") {
		exitCode = &classifyExitCode
	}

	result := classifier.Default().Classify(raw, classifySource, exitCode, nil)
	if result == nil {
		fmt.Println("no error detected")
		return
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("Failed to encode classification", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
