package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func modelCommand(cc *cliContext) *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Manage mastery models",
	}
	modelCmd.AddCommand(modelImportCommand(cc))
	return modelCmd
}

func modelImportCommand(cc *cliContext) *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create a mastery model and its levels from a YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := parseID("org", orgID)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(cmd, cc)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Mastery.ImportModel(cmd.Context(), org, f)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
