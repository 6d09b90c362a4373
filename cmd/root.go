// Package cmd implements the kb-yarn CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/pm"
)

var (
	rootCmd     = newRootCmd()
	versionText string
)

// SetVersionInfo is called from main.go with values injected at build time via -ldflags.
// It must be called before Execute().
func SetVersionInfo(version, commit, date string) {
	versionText = fmt.Sprintf("kb-yarn %s (commit %s, built %s)\n", version, commit, date)
	rootCmd.SetVersionTemplate(versionText)
	rootCmd.Version = version
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	config  string
	cwd     string
	bin     string
	depth   int
	verbose bool
	strict  bool
}

const rootLong = `kb-yarn runs yarn in the directory of the nearest package.json.

With no known subcommand the arguments are passed to yarn as they are.
kb-yarn's own flags go first; everything from the first other argument on
is handed to yarn unchanged, flags included.

Examples:
  kb-yarn add isobject                 yarn add isobject
  kb-yarn add -D -E mocha              yarn add -D -E mocha
  kb-yarn install --frozen-lockfile    yarn install --frozen-lockfile
  kb-yarn dev                          re-add everything in devDependencies
  kb-yarn global mocha                 yarn global add mocha
  kb-yarn why left-pad                 yarn why left-pad
  kb-yarn info react --json            yarn info react --json
  kb-yarn -C packages/api install      install in the nearest project above packages/api

Names kb-yarn uses itself (config, global, status, logs, ...) are not
forwarded: "kb-yarn config get registry" is kb-yarn's config command and
"kb-yarn global ls" runs "yarn global add ls". Put "--" first to reach
yarn directly:
  kb-yarn -- config get registry       yarn config get registry
  kb-yarn -- global ls                 yarn global ls`

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:                "kb-yarn [command] [args...]",
		Short:              "Run yarn from the nearest package.json",
		Long:               rootLong,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaw(cmd, g, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "config file (default <user config dir>/kb-yarn/config.yaml)")
	pf.StringVarP(&g.cwd, "cwd", "C", "", "directory to search for package.json from (default current directory)")
	pf.StringVar(&g.bin, "bin", "", "yarn executable to run")
	pf.IntVar(&g.depth, "depth", 0, "parent directories to search for package.json")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log every invocation to stderr")
	pf.BoolVar(&g.strict, "strict", false, "report a non-zero yarn exit as an error")

	root.AddCommand(newYarnCommands(g)...)
	root.AddCommand(newCategoryCommands(g)...)
	root.AddCommand(newStatusCmd(g), newLogsCmd(g), newConfigCmd(g))
	return root
}

// silentExit carries a child exit code that needs no extra message.
type silentExit struct{ code int }

func (e *silentExit) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute is the main entry point called from main.go.
func Execute() {
	os.Exit(exitCode(rootCmd.Execute(), os.Stderr))
}

// exitCode reports err on stderr and maps it to the process exit code:
// yarn's own code when yarn ran, 1 for kb-yarn's errors.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var se *silentExit
	if errors.As(err, &se) {
		return se.code
	}

	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	fmt.Fprintf(stderr, "%s %v\n", bad.Render("✗"), err)

	var exitErr *pm.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// runRaw forwards args to yarn: the first argument is the subcommand.
func runRaw(cmd *cobra.Command, g *globalFlags, args []string) error {
	rest, done, err := passthrough(cmd, args)
	if err != nil || done {
		return err
	}

	a, err := newApp(cmd, g)
	if err != nil {
		return err
	}
	defer a.close()

	var primary, extra []string
	if len(rest) > 0 {
		primary, extra = pm.Flatten(rest[0]), rest[1:]
	}
	return a.finish(a.yarn.Exec(cmd.Context(), primary, extra))
}
