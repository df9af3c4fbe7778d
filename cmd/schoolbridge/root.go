package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/schoolbridge-backend/internal/app"
	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
)

// cliContext carries settings shared by every subcommand.
type cliContext struct {
	envFile string
	cfg     app.Config
}

// RootCommand builds the schoolbridge command tree.
func RootCommand() *cobra.Command {
	cc := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "schoolbridge",
		Short:         "Mastery snapshot engine for the school operations platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cc.envFile)
			if err != nil {
				return err
			}
			cc.cfg = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cc.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		serveCommand(cc),
		migrateCommand(cc),
		runCommand(cc),
		reviewCommand(cc),
		modelCommand(cc),
	)
	return rootCmd
}

// actorFlags identifies who a CLI action is performed as.
type actorFlags struct {
	userID string
	orgID  string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.userID, "user", "", "acting user id")
	cmd.Flags().StringVar(&f.orgID, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("org")
}

func (f *actorFlags) actor() (mastery.Actor, error) {
	userID, err := parseID("user", f.userID)
	if err != nil {
		return mastery.Actor{}, err
	}
	orgID, err := parseID("org", f.orgID)
	if err != nil {
		return mastery.Actor{}, err
	}
	return mastery.Actor{UserID: userID, OrganizationID: orgID}, nil
}

func parseID(flag, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--%s must be a uuid", flag)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openApp(cmd *cobra.Command, cc *cliContext) (*app.App, error) {
	a, err := app.New(cmd.Context(), cc.cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}
