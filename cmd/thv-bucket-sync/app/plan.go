package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-bucket-sync/internal/app/storage"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// planOutput is the JSON rendering of a dry run
type planOutput struct {
	Create []string `json:"create"`
	Delete []string `json:"delete"`
	Update []string `json:"update"`
	Skip   []string `json:"skip"`
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes the next reconciliation cycle would apply",
		Long: `Compare the source and target indexes and print the create, delete and update
sets without writing anything. Sources whose timestamps do not parse are listed as skipped.
No leadership is required.`,
		RunE: runPlan,
	}

	addConfigFlag(cmd)
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unsupported output format: %q", format)
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

	src, err := factory.CreateSourceStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to create source store: %w", err)
	}
	w, err := factory.CreateBucketWriter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bucket writer: %w", err)
	}

	sourceIndex, err := src.ListIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to list source index: %w", err)
	}
	targetIndex, err := w.ListIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to list target index: %w", err)
	}

	plan := pkgsync.NewPlan(sourceIndex, targetIndex)
	skipped := pkgsync.Skipped(sourceIndex, targetIndex)
	slog.Debug("Computed plan",
		"create", len(plan.Create),
		"delete", len(plan.Delete),
		"update", len(plan.Update),
		"skip", len(skipped))

	if format == formatJSON {
		return writePlanJSON(cmd.OutOrStdout(), plan, skipped)
	}
	return writePlanTable(cmd.OutOrStdout(), plan, skipped)
}

func writePlanJSON(out io.Writer, plan *pkgsync.Plan, skipped []string) error {
	data, err := json.MarshalIndent(planOutput{
		Create: plan.Create,
		Delete: plan.Delete,
		Update: plan.Update,
		Skip:   skipped,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format plan as JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func writePlanTable(out io.Writer, plan *pkgsync.Plan, skipped []string) error {
	if plan.Empty() && len(skipped) == 0 {
		_, err := fmt.Fprintln(out, "Buckets are up to date")
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("ACTION", "ID")

	rows := []struct {
		action string
		ids    []string
	}{
		{string(pkgsync.ActionCreate), plan.Create},
		{string(pkgsync.ActionDelete), plan.Delete},
		{string(pkgsync.ActionUpdate), plan.Update},
		{"skip", skipped},
	}
	for _, row := range rows {
		for _, id := range row.ids {
			if err := table.Append([]string{row.action, id}); err != nil {
				return fmt.Errorf("failed to render plan: %w", err)
			}
		}
	}
	return table.Render()
}
