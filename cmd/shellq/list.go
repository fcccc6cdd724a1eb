package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shellq/shellq/job"
	"github.com/shellq/shellq/store"
)

var (
	listState string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate jobs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listState, "state", "", "filter by state: pending, processing, completed, dead (default: all)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of jobs to list (0 = unlimited)")
}

func runList(cmd *cobra.Command, args []string) error {
	status := job.Unknown
	if listState != "" {
		s, err := job.ParseStatus(listState)
		if err != nil {
			return fmt.Errorf("invalid --state: %w", err)
		}
		status = s
	}

	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	jobs, err := store.NewObserver(db).List(ctx, status, listLimit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "State", "Priority", "Attempts/Max", "Created", "Error")
	for _, j := range jobs {
		errMsg := ""
		if j.Error != nil {
			errMsg = *j.Error
		}
		_ = table.Append(
			j.ID,
			j.Status.String(),
			fmt.Sprintf("%d", j.Priority),
			fmt.Sprintf("%d/%d", j.Attempts, j.MaxRetries),
			humanize.Time(j.CreatedAt),
			errMsg,
		)
	}
	_ = table.Render()
	return nil
}
