package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/config"
	"github.com/kb-labs/yarn/internal/deps"
	"github.com/kb-labs/yarn/internal/logger"
	"github.com/kb-labs/yarn/internal/pm"
)

// keepLogs is how many run logs survive each start.
const keepLogs = 20

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// app holds everything a command needs, built once per process.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	yarn    *pm.Yarn
	deps    *deps.Resolver
	cfgPath string
	errOut  io.Writer
}

func newApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, path, err := loadConfig(cmd, g)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogDir != "" {
		if err := logger.Prune(cfg.LogDir, keepLogs-1); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: prune logs: %v\n", err)
		}
	}
	log, err := logger.New(cfg.LogDir, level)
	if err != nil {
		return nil, err
	}
	log.Debug("config", "path", path, "root", cfg.Root, "manifest", cfg.ManifestPath, "bin", cfg.Bin)

	y := pm.New(cfg, log)
	y.Stdout = cmd.OutOrStdout()
	y.Stderr = cmd.ErrOrStderr()
	return &app{
		cfg:     cfg,
		cfgPath: path,
		log:     log,
		yarn:    y,
		deps:    deps.New(y, cfg, log),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

func (a *app) close() {
	a.log.Close()
}

// loadConfig reads the config file, applies flag overrides and resolves the project root.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, string, error) {
	path := g.config
	if path == "" {
		// No user config dir (e.g. HOME unset): run on defaults.
		if p, err := config.Path(); err == nil {
			path = p
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, "", err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("bin") {
		cfg.Bin = g.bin
	}
	if flags.Changed("depth") {
		cfg.Depth = g.depth
	}
	if flags.Changed("strict") {
		cfg.Strict = g.strict
	}
	if g.verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = config.DefaultLogDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	cwd := g.cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("working directory: %w", err)
		}
		cwd = wd
	}
	if err := cfg.Resolve(cwd); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// finish maps a Result onto the command's error.
// Launch and manifest errors are returned as is. A non-zero exit becomes the
// process exit code, with a message only in strict mode. Failures point at
// the run log.
func (a *app) finish(res pm.Result) error {
	if res.Err == nil && !res.Exited {
		fmt.Fprintln(a.errOut, dimStyle.Render("Nothing to install."))
		return nil
	}
	if res.Err == nil && res.ExitCode == 0 {
		return nil
	}

	if p := a.log.LogPath(); p != "" {
		fmt.Fprintln(a.errOut, dimStyle.Render("log: "+p))
	}
	if res.Err != nil {
		return res.Err
	}
	if a.cfg.Strict {
		return res.AsError()
	}
	return &silentExit{code: res.ExitCode}
}
