package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kb-labs/yarn/internal/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration kb-yarn would run with: the config file
merged with command-line flags, plus the resolved project root.

This is kb-yarn's configuration. For yarn's own use "kb-yarn -- config ...".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, g)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, g, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)
	return cmd
}

func runConfig(cmd *cobra.Command, g *globalFlags) error {
	cfg, path, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# file: %s\n", orNone(path))
	fmt.Fprintf(out, "# root: %s\n", cfg.Root)
	fmt.Fprintf(out, "# manifest: %s\n", orNone(cfg.ManifestPath))
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, g *globalFlags, force bool) error {
	cfg, path, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("no config location: pass --config")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	// The default log dir is machine specific; keep it implicit.
	if cfg.LogDir == config.DefaultLogDir() {
		cfg.LogDir = ""
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s\n", ok.Render("✓"), path)
	return nil
}
