package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailarc/mailarc/internal/archive"
	"github.com/mailarc/mailarc/internal/imap"
	"github.com/mailarc/mailarc/internal/retention"
	"github.com/mailarc/mailarc/internal/upload"
	"github.com/mailarc/mailarc/pkg/models"
)

type archiveOptions struct {
	folder      string
	output      string
	nas         bool
	overwrite   bool
	dryRun      bool
	clean       bool
	since       string
	interactive bool
	deleteLocal bool
}

var archiveOpts archiveOptions

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Download a mail folder, optionally mirror it to the NAS and clean it up",
	RunE:  runArchive,
}

func init() {
	f := archiveCmd.Flags()
	f.StringVarP(&archiveOpts.folder, "folder", "f", "", "Folder to archive (see the folders command)")
	f.StringVarP(&archiveOpts.output, "output", "o", "./downloads", "Local output directory")
	f.BoolVar(&archiveOpts.nas, "nas", false, "Upload the archived folder to the NAS afterwards")
	f.BoolVar(&archiveOpts.overwrite, "overwrite", false, "Overwrite existing files on the NAS instead of skipping them")
	f.BoolVarP(&archiveOpts.dryRun, "dry-run", "n", false, "Report what would be done without doing it")
	f.BoolVarP(&archiveOpts.clean, "clean", "c", false, "Delete the archived messages from the server after download")
	f.StringVar(&archiveOpts.since, "since", "", "With --clean: delete only messages older than this (30D, 2W, 6M, 1Y)")
	f.BoolVarP(&archiveOpts.interactive, "interactive", "i", false, "Pick the folder from a list")
	f.BoolVar(&archiveOpts.deleteLocal, "delete-local", false, "Delete local files after a successful NAS upload")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	o := archiveOpts
	if o.since != "" && !o.clean {
		return errors.New("--since requires --clean")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	runStart := time.Now()

	cutoff, err := parseCutoff(o.since)
	if err != nil {
		return err
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

	// Derive and validate the NAS target before touching the mailbox, so a
	// misconfigured share fails the run while it is still side-effect free.
	var uploader *upload.Uploader
	if o.nas {
		if err := a.cfg.NAS.Validate(); err != nil {
			return err
		}
		uploader = upload.New(a.uploadConfig(folder), a.shareDialer(), a.logger)
		a.logger.Info("NAS target", "path", uploader.RemoteBase())

		if !o.dryRun {
			if err := a.validateShare(); err != nil {
				return fmt.Errorf("NAS validation failed, fix the share settings before downloading: %w", err)
			}
		}
	}

	ctx := cmd.Context()

	archiver := archive.New(sess, a.logger)
	started := time.Now()
	res, err := archiver.Run(folder, o.output, o.dryRun)
	if err != nil {
		return err
	}
	a.report(ctx, &models.RunSummary{
		Kind:        models.RunKindArchive,
		Folder:      folder,
		Total:       res.Total,
		Processed:   res.Downloaded,
		Skipped:     res.Skipped,
		Errors:      res.Errors,
		Attachments: res.Attachments,
		DryRun:      o.dryRun,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	})

	uploadedToNAS := false
	if o.nas {
		uploadedToNAS = a.runUploadLeg(ctx, uploader, res, o)
	}

	if o.clean {
		a.runCleanLeg(ctx, sess, folder, res.Downloaded, o.dryRun, cutoff)
	}

	if !o.dryRun {
		location := res.OutputDir
		if abs, err := filepath.Abs(res.OutputDir); err == nil {
			location = abs
		}
		if uploadedToNAS && o.deleteLocal {
			location = fmt.Sprintf("NAS (%s)", a.cfg.NAS.Host)
		}
		fmt.Println("\nArchive complete")
		fmt.Printf("  Emails:      %d\n", res.Downloaded)
		fmt.Printf("  Attachments: %d\n", res.Attachments)
		fmt.Printf("  Location:    %s\n", location)
		fmt.Printf("  Duration:    %s\n", time.Since(runStart).Round(time.Second))
	}
	return nil
}

// runUploadLeg mirrors the downloaded folder to the NAS. Its failures are
// logged but do not abort the remaining steps; counts accumulated so far are
// still reported.
func (a *app) runUploadLeg(ctx context.Context, uploader *upload.Uploader, res archive.Result, o archiveOptions) bool {
	if o.dryRun {
		a.logger.Info("dry run: would upload to NAS",
			"path", uploader.RemoteBase(),
			"overwrite", o.overwrite,
			"delete_local", o.deleteLocal)
		return false
	}
	if res.Downloaded == 0 {
		a.logger.Info("skipping upload: no emails were downloaded")
		return false
	}

	started := time.Now()
	upRes, err := uploader.Run(res.OutputDir, false, o.overwrite)
	if err != nil {
		a.logger.Error("upload failed", "error", err)
		return false
	}
	a.report(ctx, &models.RunSummary{
		Kind:       models.RunKindUpload,
		Folder:     res.Folder,
		Total:      upRes.TotalFiles,
		Processed:  upRes.Uploaded,
		Skipped:    upRes.Skipped,
		Errors:     upRes.Errors,
		Bytes:      upRes.UploadedBytes,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})

	if upRes.Uploaded == 0 {
		return false
	}
	if o.deleteLocal {
		if err := os.RemoveAll(res.OutputDir); err != nil {
			a.logger.Warn("failed to delete local files", "path", res.OutputDir, "error", err)
		} else {
			a.logger.Info("local files deleted", "path", res.OutputDir)
		}
	}
	return true
}

// runCleanLeg deletes archived messages after the download. Dry runs always
// report; a real deletion is skipped when nothing was downloaded.
func (a *app) runCleanLeg(ctx context.Context, sess imap.Session, folder string, downloaded int, dryRun bool, cutoff *time.Time) {
	if !dryRun && downloaded == 0 {
		a.logger.Info("skipping clean: no emails were downloaded")
		return
	}
	if cutoff != nil {
		a.logger.Info("deleting messages older than cutoff", "cutoff", cutoff.Format("2006-01-02"))
	}

	cleaner := retention.New(sess, promptConfirmer{}, a.logger)
	started := time.Now()
	res, err := cleaner.Run(folder, dryRun, cutoff)
	if err != nil {
		a.logger.Error("clean failed", "error", err)
		return
	}
	if res.Aborted {
		return
	}
	a.report(ctx, &models.RunSummary{
		Kind:       models.RunKindClean,
		Folder:     folder,
		Total:      res.Total,
		Processed:  res.Deleted,
		DryRun:     dryRun,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}
