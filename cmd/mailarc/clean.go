package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailarc/mailarc/internal/retention"
	"github.com/mailarc/mailarc/pkg/models"
)

type cleanOptions struct {
	folder      string
	since       string
	dryRun      bool
	interactive bool
}

var cleanOpts cleanOptions

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete messages from a mail folder without downloading",
	RunE:  runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.StringVarP(&cleanOpts.folder, "folder", "f", "", "Folder to clean (see the folders command)")
	f.StringVar(&cleanOpts.since, "since", "", "Delete only messages older than this (30D, 2W, 6M, 1Y)")
	f.BoolVarP(&cleanOpts.dryRun, "dry-run", "n", false, "Report what would be deleted without deleting")
	f.BoolVarP(&cleanOpts.interactive, "interactive", "i", false, "Pick the folder from a list")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	o := cleanOpts

	a, err := newApp()
	if err != nil {
		return err
	}

	cutoff, err := parseCutoff(o.since)
	if err != nil {
		return err
	}
	if cutoff != nil {
		a.logger.Info("deleting messages older than cutoff", "cutoff", cutoff.Format("2006-01-02"))
	}

	sess, err := a.dialMail()
	if err != nil {
		return err
	}
	defer sess.Logout()

	folders, err := sess.ListFolders()
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	folder, err := chooseFolder(o.folder, o.interactive, folders)
	if err != nil {
		return err
	}
	if folder == "" {
		a.logger.Info("no folder selected")
		return nil
	}

	cleaner := retention.New(sess, promptConfirmer{}, a.logger)
	started := time.Now()
	res, err := cleaner.Run(folder, o.dryRun, cutoff)
	if err != nil {
		return err
	}
	if res.Aborted {
		return nil
	}

	a.report(cmd.Context(), &models.RunSummary{
		Kind:       models.RunKindClean,
		Folder:     folder,
		Total:      res.Total,
		Processed:  res.Deleted,
		DryRun:     o.dryRun,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})

	if !o.dryRun {
		fmt.Println("\nClean complete")
		fmt.Printf("  Deleted: %d\n", res.Deleted)
	}
	return nil
}
