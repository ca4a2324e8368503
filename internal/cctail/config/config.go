// Package config resolves cctail's startup configuration from flags,
// environment, and an optional on-disk defaults file. There is no config
// file in the teacher (it reads a single positional os.Args[1]); this
// package generalizes that into the richer flag set cmd/cctail exposes,
// following the defaults-file shape blueman82-conductor/mrf-agent-racer use
// for their own YAML config structs.
package config

import (
	"fmt"
	"os"

	"github.com/kenfdev/cctail/internal/cctail/ringbuffer"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved startup configuration, after flags,
// CLAUDE_PROJECTS_DIR, and an optional .cctail.yml have all been merged.
type Config struct {
	// Project is an explicit project directory override. Empty means
	// auto-detect from the working directory (pathresolve's cwd/git-root
	// walk).
	Project string `yaml:"project"`

	// Session is the session id (or unambiguous prefix) to open directly.
	// Empty opens the session picker instead.
	Session string `yaml:"session"`

	// ASCII forces the Streamer's ASCII-only prefix table regardless of TTY
	// detection. Only consulted by `cctail stream`; the interactive TUI
	// always uses lipgloss styling.
	ASCII bool `yaml:"ascii"`

	// Verbose raises the diagnostic log level to Debug.
	Verbose bool `yaml:"verbose"`

	// Budget overrides the ring buffer's byte budget. Zero means use
	// ringbuffer.DefaultBudget.
	Budget int64 `yaml:"budget"`
}

// Defaults returns the zero-value configuration with Budget set to the ring
// buffer's default, matching the teacher's dumpMode/expandAll flags
// defaulting to false with no file to read.
func Defaults() Config {
	return Config{Budget: ringbuffer.DefaultBudget}
}

// Flags is the subset of Config resolved directly from CLI flags.
// cmd/cctail populates this from cobra's pflag bindings and passes it to
// Resolve alongside the process environment.
type Flags struct {
	Project  string
	Session  string
	ASCII    bool
	Verbose  bool
	Budget   int64
	HasASCII bool // ASCII flag was explicitly set, distinguishing "false" from "unset"
}

// Resolve merges defaults, an optional defaultsFile (read if present, never
// required), the environment, and explicit flags. CLAUDE_PROJECTS_DIR fills
// Project only when the defaults file left it empty; explicit flags
// override both. defaultsFile is typically ".cctail.yml" in the resolved
// project directory or the user's home directory; a missing file is not an
// error.
func Resolve(defaultsFile string, flags Flags) (Config, error) {
	cfg := Defaults()

	if defaultsFile != "" {
		if err := mergeFile(&cfg, defaultsFile); err != nil {
			return Config{}, err
		}
	}

	if dir := os.Getenv("CLAUDE_PROJECTS_DIR"); dir != "" && cfg.Project == "" {
		cfg.Project = dir
	}

	if flags.Project != "" {
		cfg.Project = flags.Project
	}
	if flags.Session != "" {
		cfg.Session = flags.Session
	}
	if flags.HasASCII {
		cfg.ASCII = flags.ASCII
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if flags.Budget > 0 {
		cfg.Budget = flags.Budget
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
