package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/curriculum"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List built-in learning modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := curriculum.Builtin()
		if err != nil {
			return fmt.Errorf("load modules: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s  %-32s  %10s  %s\n", "ID", "Title", "Objectives", "Authored")
		fmt.Fprintln(out, strings.Repeat("─", 90))

		for _, m := range mods {
			title := m.Title
			if len(title) > 32 {
				title = title[:29] + "..."
			}
			fmt.Fprintf(out, "%-24s  %-32s  %10d  %s\n", m.ID, title, len(m.Objectives), authoredSummary(m))
		}

		fmt.Fprintf(out, "\n%d modules\n", len(mods))
		return nil
	},
}

// authoredSummary lists how many authored questions each kind has.
func authoredSummary(m curriculum.Module) string {
	var parts []string
	for _, k := range curriculum.AllKinds() {
		if n := len(m.Questions[string(k)]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", k, n))
		}
	}
	if n := len(m.Questions[curriculum.AllKindsKey]); n > 0 {
		parts = append(parts, fmt.Sprintf("any:%d", n))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
