package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailarc/mailarc/internal/fsname"
	"github.com/mailarc/mailarc/internal/upload"
	"github.com/mailarc/mailarc/pkg/models"
)

type uploadOptions struct {
	folder    string
	output    string
	overwrite bool
	dryRun    bool
}

var uploadOpts uploadOptions

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Mirror an already archived folder to the NAS",
	RunE:  runUpload,
}

func init() {
	f := uploadCmd.Flags()
	f.StringVarP(&uploadOpts.folder, "folder", "f", "", "Archived folder to upload")
	f.StringVarP(&uploadOpts.output, "output", "o", "./downloads", "Local directory the folder was archived into")
	f.BoolVar(&uploadOpts.overwrite, "overwrite", false, "Overwrite existing files on the NAS instead of skipping them")
	f.BoolVarP(&uploadOpts.dryRun, "dry-run", "n", false, "Report what would be uploaded without transferring")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	o := uploadOpts
	if o.folder == "" {
		return errors.New("no folder specified: use --folder")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	if a.cfg.Mail.Email == "" {
		return errors.New("MAIL_EMAIL is required to derive the NAS target path")
	}
	if err := a.cfg.NAS.Validate(); err != nil {
		return err
	}

	localRoot := filepath.Join(o.output, fsname.Sanitize(o.folder))
	if _, err := os.Stat(localRoot); err != nil {
		return fmt.Errorf("local folder %s not found: %w", localRoot, err)
	}

	uploader := upload.New(a.uploadConfig(o.folder), a.shareDialer(), a.logger)
	a.logger.Info("NAS target", "path", uploader.RemoteBase())

	started := time.Now()
	res, err := uploader.Run(localRoot, o.dryRun, o.overwrite)
	if err != nil {
		return err
	}
	a.report(cmd.Context(), &models.RunSummary{
		Kind:       models.RunKindUpload,
		Folder:     o.folder,
		Total:      res.TotalFiles,
		Processed:  res.Uploaded,
		Skipped:    res.Skipped,
		Errors:     res.Errors,
		Bytes:      res.UploadedBytes,
		DryRun:     o.dryRun,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})

	if !o.dryRun {
		fmt.Println("\nUpload complete")
		fmt.Printf("  Uploaded: %d\n", res.Uploaded)
		fmt.Printf("  Skipped:  %d\n", res.Skipped)
		fmt.Printf("  Errors:   %d\n", res.Errors)
	}
	return nil
}
