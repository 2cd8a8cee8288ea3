// Package upload implements the per-file NAS upload engine: enumerate a local
// tree, mirror it under a UNC base path, skip or overwrite existing remote
// files.
package upload

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mailarc/mailarc/internal/config"
	"github.com/mailarc/mailarc/internal/smb"
)

// DialFunc establishes the SMB session. It is called only when the run
// actually transfers; dry runs never touch the network.
type DialFunc func() (smb.Session, error)

// Result aggregates one upload run. UploadedBytes sums only the files that
// were actually transferred.
type Result struct {
	TotalFiles    int
	TotalBytes    int64
	Uploaded      int
	Skipped       int
	Errors        int
	UploadedBytes int64
}

// Uploader mirrors a local directory tree to an SMB share.
type Uploader struct {
	uncRoot  string
	basePath string
	dial     DialFunc
	logger   *slog.Logger
}

// New creates an Uploader. The base path is normalized to the share's
// backslash convention once, up front.
func New(cfg config.NASConfig, dial DialFunc, logger *slog.Logger) *Uploader {
	return &Uploader{
		uncRoot:  cfg.UNCRoot(),
		basePath: cfg.NormalizedBasePath(),
		dial:     dial,
		logger:   logger.With("component", "upload"),
	}
}

// RemoteBase returns the UNC destination directory.
func (u *Uploader) RemoteBase() string {
	if u.basePath == "" {
		return u.uncRoot
	}
	return u.uncRoot + `\` + u.basePath
}

type localFile struct {
	path string
	size int64
}

// Run uploads every regular file under localRoot. The file list is fixed
// before any network call. Session establishment failure is fatal to the
// whole run; a single file's failure is logged and counted only.
func (u *Uploader) Run(localRoot string, dryRun, overwrite bool) (Result, error) {
	var res Result

	files, err := collectFiles(localRoot)
	if err != nil {
		return res, fmt.Errorf("failed to enumerate %s: %w", localRoot, err)
	}
	res.TotalFiles = len(files)
	for _, f := range files {
		res.TotalBytes += f.size
	}

	if dryRun {
		u.logger.Info("dry run",
			"files", res.TotalFiles,
			"bytes", res.TotalBytes,
			"destination", u.RemoteBase(),
			"overwrite", overwrite)
		return res, nil
	}

	sess, err := u.dial()
	if err != nil {
		return res, fmt.Errorf("failed to connect to NAS: %w", err)
	}
	defer sess.Close()

	base := u.RemoteBase()
	if err := u.ensureDirectory(sess, base); err != nil {
		return res, fmt.Errorf("failed to create base directory %s: %w", base, err)
	}

	u.logger.Info("uploading", "files", res.TotalFiles, "destination", base)

	created := make(map[string]bool)
	for _, f := range files {
		switch u.uploadFile(sess, f, localRoot, base, overwrite, created) {
		case statusUploaded:
			res.Uploaded++
			res.UploadedBytes += f.size
		case statusSkipped:
			res.Skipped++
		case statusError:
			res.Errors++
		}
	}

	u.logger.Info("upload finished",
		"uploaded", res.Uploaded,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"bytes", res.UploadedBytes)

	return res, nil
}

func collectFiles(root string) ([]localFile, error) {
	var files []localFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, localFile{path: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

type status int

const (
	statusUploaded status = iota
	statusSkipped
	statusError
)

func (u *Uploader) uploadFile(sess smb.Session, file localFile, localRoot, base string, overwrite bool, created map[string]bool) status {
	rel, err := filepath.Rel(localRoot, file.path)
	if err != nil {
		u.logger.Warn("failed to resolve relative path", "file", file.path, "error", err)
		return statusError
	}
	remotePath := base + `\` + strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`)

	parent := parentDir(remotePath)
	if !created[parent] {
		if err := u.ensureDirectory(sess, parent); err != nil {
			u.logger.Warn("failed to create remote directory", "dir", parent, "error", err)
			return statusError
		}
		created[parent] = true
	}

	if !overwrite {
		if err := sess.Stat(remotePath); err == nil {
			return statusSkipped
		}
	}

	if err := u.transfer(sess, file.path, remotePath); err != nil {
		u.logger.Warn("failed to upload file", "file", filepath.Base(file.path), "error", err)
		return statusError
	}

	u.logger.Debug("uploaded", "file", rel)
	return statusUploaded
}

func (u *Uploader) transfer(sess smb.Session, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := sess.Create(remotePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// parentDir returns everything before the last path separator.
func parentDir(remotePath string) string {
	if i := strings.LastIndex(remotePath, `\`); i > 0 {
		return remotePath[:i]
	}
	return remotePath
}

// ensureDirectory creates a remote directory tree. Some SMB servers reject a
// multi-level create with a generic "no such path" status; those fall back to
// creating one segment at a time.
func (u *Uploader) ensureDirectory(sess smb.Session, remoteDir string) error {
	err := sess.MkdirAll(remoteDir)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "No such file") || strings.Contains(err.Error(), "0xc000003a") {
		u.createDirectoriesIncrementally(sess, remoteDir)
		// Per-segment failures are tolerated individually, but the leaf must
		// exist afterwards; otherwise report here rather than from the first
		// file write.
		if statErr := sess.Stat(remoteDir); statErr != nil {
			return fmt.Errorf("directory %s missing after segment-wise create: %w", remoteDir, err)
		}
		return nil
	}
	return err
}

// createDirectoriesIncrementally walks the path left to right, creating one
// level per call. Failures on individual segments are ignored; a segment may
// already exist from a prior or partial run.
func (u *Uploader) createDirectoriesIncrementally(sess smb.Session, remoteDir string) {
	parts := strings.Split(strings.ReplaceAll(remoteDir, "/", `\`), `\`)
	// A UNC path splits into "", "", host, share, then the segments to create.
	if len(parts) <= 4 {
		return
	}
	current := `\\` + parts[2] + `\` + parts[3]
	for _, part := range parts[4:] {
		if part == "" {
			continue
		}
		current += `\` + part
		if err := sess.MkdirAll(current); err != nil {
			u.logger.Debug("incremental create", "dir", current, "error", err)
		}
	}
}
