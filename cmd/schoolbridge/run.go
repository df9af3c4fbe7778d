package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
)

func runCommand(cc *cliContext) *cobra.Command {
	var (
		af      actorFlags
		req     mastery.TriggerRequest
		quarter int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute mastery snapshots for every learner and competency in a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := af.actor()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("quarter") {
				req.Quarter = &quarter
			}

			a, err := openApp(cmd, cc)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Mastery.TriggerRun(cmd.Context(), actor, req)
			if res != nil {
				if perr := printJSON(cmd, res); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	af.register(cmd)
	cmd.Flags().StringVar(&req.ScopeKind, "scope-kind", "", "experience, syllabus, program or section")
	cmd.Flags().StringVar(&req.ScopeID, "scope-id", "", "scope record id")
	cmd.Flags().StringVar(&req.MasteryModelID, "model", "", "mastery model id")
	cmd.Flags().StringVar(&req.SchoolYearID, "school-year", "", "school year id (defaults to the active year)")
	cmd.Flags().StringVar(&req.SnapshotDate, "date", "", "snapshot date YYYY-MM-DD (defaults to today, UTC)")
	cmd.Flags().StringVar(&req.Term, "term", "", "term label")
	cmd.Flags().IntVar(&quarter, "quarter", 0, "quarter 1-4")
	return cmd
}
