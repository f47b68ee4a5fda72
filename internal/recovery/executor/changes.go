package executor

import (
	"fmt"
	"strings"
)

const summaryLimit = 200

// parseChanges extracts change descriptions from fix-generator output.
// Fenced code blocks and bullet lines are recognized; unstructured text
// falls back to a truncated summary.
func parseChanges(text string) []string {
	var changes []string

	lines := strings.Split(text, "\n")
	inBlock := false
	blockLines := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				changes = append(changes, fmt.Sprintf("proposed code change (%d lines)", blockLines))
			}
			inBlock = !inBlock
			blockLines = 0
			continue
		}
		if inBlock {
			blockLines++
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			if item := strings.TrimSpace(trimmed[2:]); item != "" {
				changes = append(changes, item)
			}
		}
	}

	if len(changes) > 0 {
		return changes
	}

	summary := strings.TrimSpace(text)
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit] + "..."
	}
	if summary == "" {
		return nil
	}
	return []string{summary}
}
