package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/deps"
	"github.com/kb-labs/yarn/internal/manifest"
	"github.com/kb-labs/yarn/internal/picker"
)

// newCategoryCommands builds one command per dependency category, named and
// aliased from the category table. Without package names a manifest-backed
// category re-adds what package.json already lists there.
func newCategoryCommands(g *globalFlags) []*cobra.Command {
	cats := append(deps.ManifestCategories(), deps.Global)
	cmds := make([]*cobra.Command, 0, len(cats))
	for _, cat := range cats {
		cat := cat
		names := cat.CommandNames()
		var interactive, yes bool
		cmd := &cobra.Command{
			Use:                names[0] + " [package...]",
			Aliases:            names[1:],
			Short:              categoryShort(cat),
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

				if interactive {
					return runPick(cmd, a, cat, rest, yes)
				}
				return a.finish(a.deps.Install(cmd.Context(), cat, rest))
			},
		}
		cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose packages before installing")
		cmd.Flags().BoolVarP(&yes, "yes", "y", false, "with --interactive, accept the list without prompting")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func categoryShort(cat deps.Category) string {
	if cat.Key() == "" {
		return fmt.Sprintf("Install packages globally (yarn %s)", strings.Join(cat.Subcommand(), " "))
	}
	add := strings.Join(append(cat.Subcommand(), cat.Flag()), " ")
	return fmt.Sprintf("Add to %s (yarn %s), defaulting to those already listed", cat.Key(), strings.TrimSpace(add))
}

// runPick shows the resolved package list in the picker and installs the selection.
func runPick(cmd *cobra.Command, a *app, cat deps.Category, args []string, yes bool) error {
	names, err := a.deps.Pending(cat, args)
	if err != nil {
		return err
	}

	selected, err := picker.Run(pickItems(a.cfg.ManifestPath, cat, names), picker.Options{
		Title: cat.String(),
		Yes:   yes,
	})
	if errors.Is(err, picker.ErrCancelled) {
		fmt.Fprintln(a.errOut, dimStyle.Render("Cancelled."))
		return nil
	}
	if err != nil {
		return err
	}
	return a.finish(a.deps.Apply(cmd.Context(), cat, selected))
}

// pickItems attaches manifest ranges to names where the manifest lists them.
func pickItems(manifestPath string, cat deps.Category, names []string) []picker.Item {
	var section manifest.DependencyMap
	if cat.Key() != "" && manifestPath != "" {
		if m, err := manifest.Load(manifestPath); err == nil {
			section = m.Section(cat.Key())
		}
	}

	items := make([]picker.Item, len(names))
	for i, name := range names {
		rng, _ := section.Range(name)
		items[i] = picker.Item{Name: name, Range: rng}
	}
	return items
}
