package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show stored progress for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		if learner == "" {
			learner = tutor.ConfigFromEnv().LearnerID
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		syncer := progress.NewSynchronizer(s.ProgressRepo(), logger.Nop())
		records, err := syncer.List(cmd.Context(), learner)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintf(out, "No progress recorded for %q.\n", learner)
			return nil
		}

		fmt.Fprintf(out, "%-24s  %-10s  %8s  %8s  %6s  %-5s  %s\n",
			"Module", "Kind", "Answered", "Correct", "Total", "Done", "Updated")
		fmt.Fprintln(out, strings.Repeat("─", 90))

		for _, r := range records {
			done := "no"
			if r.Completed {
				done = "yes"
			}
			fmt.Fprintf(out, "%-24s  %-10s  %8d  %8d  %6d  %-5s  %s\n",
				r.ModuleID, r.Kind, r.Answered, r.Correct, r.Total, done,
				r.LastUpdated.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().String("learner", "", "Learner ID (defaults to TUTOR_LEARNER or \"local\")")
}
