package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shellq/shellq/store"
)

var dlqListLimit int

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and resurrect dead-lettered jobs",
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-letter entries",
	Args:  cobra.NoArgs,
	RunE:  runDLQList,
}

var dlqRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Resurrect a dead job, flipping it back to pending",
	Args:  cobra.ExactArgs(1),
	RunE:  runDLQRetry,
}

func init() {
	dlqListCmd.Flags().IntVar(&dlqListLimit, "limit", 50, "maximum number of entries to list (0 = unlimited)")
	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqRetryCmd)
}

func runDLQList(cmd *cobra.Command, args []string) error {
	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := store.NewDeadLetters(db).List(ctx, dlqListLimit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job ID", "Reason", "Moved")
	for _, e := range entries {
		_ = table.Append(e.JobID, e.Reason, humanize.Time(e.MovedAt))
	}
	_ = table.Render()
	return nil
}

func runDLQRetry(cmd *cobra.Command, args []string) error {
	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewDeadLetters(db).Retry(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("job %s is pending again\n", args[0])
	return nil
}
