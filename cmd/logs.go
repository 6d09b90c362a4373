package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/logger"
)

func newLogsCmd(g *globalFlags) *cobra.Command {
	var follow, pathOnly bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show run logs",
		Long: `Show the most recent kb-yarn run log.
Every yarn invocation is recorded there at debug level.
Use --follow to stream new lines in real time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, g, follow, pathOnly)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow log output (like tail -f)")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "print the log file path only")
	return cmd
}

func runLogs(cmd *cobra.Command, g *globalFlags, follow, pathOnly bool) error {
	// Config only: building the app would open a fresh, empty run log.
	cfg, _, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	logPath := logger.LatestLogPath(cfg.LogDir)
	if logPath == "" {
		return fmt.Errorf("no run logs found in %s", cfg.LogDir)
	}
	if pathOnly {
		fmt.Fprintln(cmd.OutOrStdout(), logPath)
		return nil
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if _, err := io.Copy(out, f); err != nil {
		return err
	}

	if !follow {
		return nil
	}

	// Follow mode: poll for new content until interrupted.
	ctx := cmd.Context()
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fmt.Fprintln(out, scanner.Text())
		}
	}
}
