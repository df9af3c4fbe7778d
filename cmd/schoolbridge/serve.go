package main

import (
	"github.com/spf13/cobra"
)

func serveCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the mastery HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cc)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Start()
			return a.Run(cmd.Context())
		},
	}
}
