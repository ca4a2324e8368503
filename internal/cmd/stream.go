package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kenfdev/cctail/internal/cctail/diag"
	"github.com/kenfdev/cctail/internal/cctail/pathresolve"
	"github.com/kenfdev/cctail/internal/cctail/replay"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
	"github.com/kenfdev/cctail/internal/cctail/stream"
)

// newStreamCommand builds "cctail stream": the headless replay-then-tail
// sibling of the interactive program, for piping cctail's output to a file
// or another process. Grounded on the teacher's --dump mode (a one-shot
// render to stdout) generalized into spec §4.12's replay-then-live-tail
// loop with TTY-aware prefix selection.
func newStreamCommand() *cobra.Command {
	var replayAll bool

	streamCmd := &cobra.Command{
		Use:   "stream [session]",
		Short: "Replay then live-tail a session to stdout, without the interactive UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runStream(c, args, replayAll)
		},
	}

	streamCmd.Flags().BoolVar(&replayAll, "replay-all", false, "replay the entire session history instead of the baseline-visible window")

	return streamCmd
}

func runStream(c *cobra.Command, args []string, replayAll bool) error {
	cfg, err := resolveConfig(c, args)
	if err != nil {
		return err
	}

	logger := diag.New(os.Stderr, cfg.Verbose)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectDir, err := pathresolve.Resolve(wd, cfg.Project, "")
	if err != nil {
		diag.LogFatal(logger, "could not resolve project directory", err)
		return err
	}

	sessions, err := sessionindex.Discover(projectDir)
	if err != nil {
		diag.LogFatal(logger, "could not discover sessions", err)
		return err
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found under %s", projectDir)
	}

	session := sessions[0]
	if cfg.Session != "" {
		session, err = sessionindex.Resolve(sessions, cfg.Session)
		if err != nil {
			diag.LogFatal(logger, "could not resolve session", err)
			return err
		}
	}

	ascii := cfg.ASCII
	if !c.Flags().Changed("ascii") && !cfg.ASCII {
		ascii = stream.DetectASCII(os.Stdout)
	}
	s := stream.New(os.Stdout, ascii)
	s.Verbose = cfg.Verbose

	// 20 matches viewmodel's own SwitchSession default backfill window;
	// --replay-all asks for the full history instead.
	replayN := 20
	if replayAll {
		replayN = replay.All
	}

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	return s.Run(session, replayN, stop)
}
