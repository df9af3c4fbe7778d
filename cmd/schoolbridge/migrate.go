package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/schoolbridge-backend/internal/data/db"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

func migrateCommand(cc *cliContext) *cobra.Command {
	var reference bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the mastery tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewWithOptions(cc.cfg.LogMode, logger.Options{Redact: cc.cfg.LogRedactionEnabled, HashSalt: cc.cfg.LogHashSalt})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			svc, err := db.NewPostgresService(log, cc.cfg.Database.Service())
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := db.AutoMigrateAll(svc.DB(), reference); err != nil {
				return err
			}
			log.Info("migration complete", "reference", reference)
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reference, "reference", false, "also create the school platform tables the engine reads (local and demo databases)")
	return cmd
}
