package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
)

func reviewCommand(cc *cliContext) *cobra.Command {
	var (
		af  actorFlags
		req mastery.ReviewRequest
	)
	cmd := &cobra.Command{
		Use:   "review <snapshot-id>",
		Short: "Submit, approve, request changes on, or override a snapshot",
		Long: "Action submit moves a draft or changes_requested snapshot to submitted.\n" +
			"Reviewer actions approve, request_changes and override apply to submitted snapshots.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := af.actor()
			if err != nil {
				return err
			}
			snapshotID, err := parseID("snapshot-id", args[0])
			if err != nil {
				return fmt.Errorf("snapshot id must be a uuid")
			}

			a, err := openApp(cmd, cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if req.Action == "submit" {
				snap, err := a.Services.Mastery.SubmitSnapshot(cmd.Context(), actor, snapshotID)
				if err != nil {
					return err
				}
				return printJSON(cmd, snap)
			}
			snap, err := a.Services.Mastery.ReviewSnapshot(cmd.Context(), actor, snapshotID, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"snapshot": snap, "effective_level_id": snap.EffectiveLevelID()})
		},
	}
	af.register(cmd)
	cmd.Flags().StringVar(&req.Action, "action", "", "submit, approve, request_changes or override")
	cmd.Flags().StringVar(&req.ReviewerNotes, "notes", "", "reviewer notes (required for request_changes)")
	cmd.Flags().StringVar(&req.OverrideLevelID, "override-level", "", "mastery level id (required for override)")
	cmd.Flags().StringVar(&req.OverrideJustification, "justification", "", "override justification (required for override)")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
