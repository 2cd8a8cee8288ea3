package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailarc/mailarc/internal/journal"
)

type historyOptions struct {
	limit int
}

var historyOpts historyOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyOpts.limit, "limit", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if a.cfg.JournalPath == "" {
		return errors.New("JOURNAL_PATH is not set")
	}

	j, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	if err := j.Migrate(ctx); err != nil {
		return err
	}
	runs, err := j.RecentRuns(ctx, historyOpts.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tKIND\tFOLDER\tTOTAL\tPROCESSED\tSKIPPED\tERRORS\tDURATION")
	for _, r := range runs {
		kind := r.Kind
		if r.DryRun {
			kind += " (dry)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format(time.DateTime), kind, r.Folder,
			r.Total, r.Processed, r.Skipped, r.Errors,
			r.Duration().Round(time.Second))
	}
	return w.Flush()
}
