package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/pm"
)

// yarnCommands are the fixed-subcommand operations. Everything after
// kb-yarn's own leading flags goes to yarn unchanged, yarn flags included.
var yarnCommands = []struct {
	use   string
	short string
	op    func(*pm.Yarn, context.Context, []string) pm.Result
}{
	{"link [package...]", "Symlink a package folder (yarn link)", (*pm.Yarn).Link},
	{"unlink [package...]", "Remove a symlinked package (yarn unlink)", (*pm.Yarn).Unlink},
	{"add <package...>", "Add packages (yarn add)", (*pm.Yarn).Add},
	{"install", "Install everything in package.json (yarn install)", (*pm.Yarn).Install},
	{"outdated [package...]", "List outdated packages (yarn outdated)", (*pm.Yarn).Outdated},
	{"upgrade [package...]", "Upgrade packages (yarn upgrade)", (*pm.Yarn).Upgrade},
	{"remove <package...>", "Remove packages (yarn remove)", (*pm.Yarn).Remove},
	{"why <package>", "Explain why a package is installed (yarn why)", (*pm.Yarn).Why},
}

func newYarnCommands(g *globalFlags) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(yarnCommands))
	for _, c := range yarnCommands {
		c := c
		cmds = append(cmds, &cobra.Command{
			Use:                c.use,
			Short:              c.short,
			Args:               cobra.ArbitraryArgs,
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				rest, done, err := passthrough(cmd, args)
				if err != nil || done {
					return err
				}
				a, err := newApp(cmd, g)
				if err != nil {
					return err
				}
				defer a.close()
				return a.finish(c.op(a.yarn, cmd.Context(), rest))
			},
		})
	}
	return cmds
}
