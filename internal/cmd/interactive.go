package cmd

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/kenfdev/cctail/internal/cctail/config"
	"github.com/kenfdev/cctail/internal/cctail/tui"
	"github.com/spf13/cobra"
)

// runInteractive boots the Bubble Tea program. Grounded on the teacher's
// main(): background detection via termenv before the program takes over
// the screen (OSC 11 queries can fail once the alt screen is active), then
// tea.NewProgram with the alt screen and mouse cell motion the teacher
// enables for scroll-wheel support.
func runInteractive(c *cobra.Command, args []string) error {
	cfg, err := resolveConfig(c, args)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("cctail requires an interactive terminal; use `cctail stream` for non-TTY output")
	}

	hasDarkBg := termenv.HasDarkBackground()
	lipgloss.SetHasDarkBackground(hasDarkBg)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	m, err := tui.New(wd, cfg.Project, cfg.Session, cfg.Budget)
	if err != nil {
		return fmt.Errorf("start cctail: %w", err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// resolveConfig merges flags, CLAUDE_PROJECTS_DIR, and the positional
// session argument (the teacher's sole os.Args[1], preserved as a
// --session fallback) into a config.Config.
func resolveConfig(c *cobra.Command, args []string) (config.Config, error) {
	project, _ := c.Flags().GetString("project")
	session, _ := c.Flags().GetString("session")
	verbose, _ := c.Flags().GetBool("verbose")
	budget, _ := c.Flags().GetInt64("budget")
	asciiFlag := c.Flags().Changed("ascii")
	ascii, _ := c.Flags().GetBool("ascii")

	if session == "" && len(args) == 1 {
		session = args[0]
	}

	return config.Resolve(defaultsFilePath(), config.Flags{
		Project:  project,
		Session:  session,
		ASCII:    ascii,
		HasASCII: asciiFlag,
		Verbose:  verbose,
		Budget:   budget,
	})
}

func defaultsFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.cctail.yml"
}
