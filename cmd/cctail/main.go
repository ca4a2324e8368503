// Command cctail tails Claude Code's on-disk JSONL conversation logs and
// renders them as a live, filterable chat stream.
package main

import (
	"fmt"
	"os"

	"github.com/kenfdev/cctail/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
