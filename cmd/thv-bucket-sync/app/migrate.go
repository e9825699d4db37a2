package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-bucket-sync/internal/app/storage"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables used by the synchronizer",
		Long: `Create the bucket tables of the target store and, when the status store is the
database, the cycle status table. With --with-sources the legacy source table is
created too, which is only meant for development and tests.`,
		RunE: runMigrate,
	}

	addConfigFlag(cmd)
	cmd.Flags().Bool("with-sources", false, "Also create the legacy source table (development only)")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	withSources, err := cmd.Flags().GetBool("with-sources")
	if err != nil {
		return fmt.Errorf("failed to get with-sources flag: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage factory: %w", err)
	}
	defer factory.Cleanup()

	if err := factory.Migrate(ctx, withSources); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	slog.Info("Migration completed", "target", cfg.Target.Type, "with_sources", withSources)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Migration completed")
	return err
}
