package cmd

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kb-labs/yarn/internal/deps"
	"github.com/kb-labs/yarn/internal/logger"
	"github.com/kb-labs/yarn/internal/manifest"
	"github.com/kb-labs/yarn/internal/pm"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project, yarn and dependency summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, g)
		},
	}
}

func runStatus(cmd *cobra.Command, g *globalFlags) error {
	cfg, cfgPath, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	val := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	bin := pm.Detect(cfg.Bin)
	binMark := ok.Render("●")
	if resolved, err := exec.LookPath(bin); err == nil {
		bin = resolved
	} else {
		binMark = bad.Render("✗")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s %s\n", label.Render("Project: "), val.Render(cfg.Root))
	fmt.Fprintf(out, "  %s %s %s\n", label.Render("Yarn:    "), binMark, bin)
	fmt.Fprintf(out, "  %s %s\n", label.Render("Config:  "), orNone(cfgPath))
	fmt.Fprintf(out, "  %s %s\n", label.Render("Last log:"), orNone(logger.LatestLogPath(cfg.LogDir)))

	if cfg.ManifestPath == "" {
		fmt.Fprintf(out, "  %s %s\n\n", label.Render("Manifest:"), bad.Render(fmt.Sprintf("no %s within %d parent(s)", manifest.FileName, cfg.Depth)))
		return nil
	}

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		var re *manifest.ReadError
		if errors.As(err, &re) {
			fmt.Fprintf(out, "  %s %s\n\n", label.Render("Manifest:"), bad.Render(re.Error()))
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "  %s %s\n", label.Render("Manifest:"), cfg.ManifestPath)
	if m.Name != "" {
		fmt.Fprintf(out, "  %s %s %s\n", label.Render("Package: "), m.Name, dimStr(m.Version))
	}

	for _, cat := range deps.ManifestCategories() {
		section := m.Section(cat.Key())
		fmt.Fprintf(out, "\n  %s %s\n", label.Render(cat.Key()+":"), dimStr(fmt.Sprintf("(%d)", section.Len())))
		for _, name := range section.Names() {
			rng, _ := section.Range(name)
			fmt.Fprintf(out, "    %s %-30s  %s\n", ok.Render("●"), name, dimStr(rng))
		}
	}

	fmt.Fprintln(out)
	return nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return dimStr("none")
	}
	return s
}

func dimStr(s string) string {
	return dimStyle.Render(s)
}
