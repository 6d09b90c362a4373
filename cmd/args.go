package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// passthrough parses kb-yarn's own flags from the front of args and returns
// the rest for yarn untouched. Parsing stops at the first argument that is
// not a kb-yarn flag; a "--" at that point is dropped. done is true when the
// flags asked for help or version output and yarn must not run.
//
// Commands using it set DisableFlagParsing so yarn flags such as -D or
// --frozen-lockfile are never rejected as unknown.
func passthrough(cmd *cobra.Command, args []string) (rest []string, done bool, err error) {
	cmd.InheritedFlags() // merges persistent flags into cmd.Flags()
	flags := cmd.Flags()

	rest = []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i+1:]...)
			break
		}

		f, val, hasVal := lookupFlag(flags, arg)
		if f == nil {
			rest = append(rest, args[i:]...)
			break
		}
		if !hasVal {
			if f.NoOptDefVal != "" {
				val = f.NoOptDefVal
			} else {
				if i+1 >= len(args) {
					return nil, false, fmt.Errorf("flag needs an argument: %s", arg)
				}
				i++
				val = args[i]
			}
		}
		if err := flags.Set(f.Name, val); err != nil {
			return nil, false, fmt.Errorf("invalid argument %q for %s: %w", val, arg, err)
		}
	}

	if help, _ := flags.GetBool("help"); help {
		return nil, true, cmd.Help()
	}
	if version, _ := flags.GetBool("version"); version && versionText != "" {
		fmt.Fprint(cmd.OutOrStdout(), versionText)
		return nil, true, nil
	}
	return rest, false, nil
}

// lookupFlag resolves "--name", "--name=value" and "-x" against fs.
// Grouped shorthands ("-abc") are not kb-yarn flags and yield nil.
func lookupFlag(fs *pflag.FlagSet, arg string) (f *pflag.Flag, val string, hasVal bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, v, ok := strings.Cut(arg[2:], "=")
		return fs.Lookup(name), v, ok
	case strings.HasPrefix(arg, "-") && len(arg) == 2:
		return fs.ShorthandLookup(arg[1:]), "", false
	}
	return nil, "", false
}
