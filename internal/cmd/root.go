// Package cmd assembles cctail's Cobra command tree. Grounded on
// blueman82-conductor's internal/cmd/root.go (a thin NewRootCommand
// constructor that wires subcommands) and the rest of the pack's Cobra
// usage; the teacher has no CLI layer at all, reading a single positional
// os.Args[1] in its main(), preserved here as --session's positional
// fallback.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the root "cctail" command: running it with no
// subcommand boots the interactive Bubble Tea program, and "cctail stream"
// boots the headless Streamer.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cctail [session]",
		Short: "Tail Claude Code's on-disk conversation logs in a terminal UI",
		Long: `cctail watches Claude Code's JSONL session transcripts on disk and
renders them as a live, filterable, searchable chat stream.

Running it with no arguments opens the session picker for the current
project. A session id (or unambiguous prefix) may be given positionally or
via --session to open that session directly.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	root.PersistentFlags().String("project", "", "project directory override (defaults to cwd/git-root auto-detection)")
	root.PersistentFlags().String("session", "", "session id or prefix to open directly")
	root.PersistentFlags().Bool("ascii", false, "force ASCII-only line prefixes (stream subcommand only)")
	root.PersistentFlags().Bool("verbose", false, "raise diagnostic logging to debug level")
	root.PersistentFlags().Int64("budget", 0, "ring buffer byte budget override (0 uses the default)")

	root.AddCommand(newStreamCommand())

	return root
}
