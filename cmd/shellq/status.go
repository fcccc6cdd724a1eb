package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/job"
	"github.com/shellq/shellq/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job counts per state and active worker PIDs",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := store.NewObserver(db).Counts(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("State", "Count")
	for _, s := range []job.Status{job.Pending, job.Processing, job.Completed, job.Dead} {
		_ = table.Append(s.String(), humanize.Comma(counts[s]))
	}
	_ = table.Render()

	pids, err := shellq.ReadPIDFile(pidFilePath())
	if err != nil {
		fmt.Println("workers: none running (no pid file)")
		return nil
	}
	fmt.Printf("workers: %d running\n", len(pids))
	for _, pid := range pids {
		fmt.Printf("  pid %d\n", pid)
	}
	return nil
}
