// Package archive implements the per-message download engine: enumerate a
// folder, fetch each message, skip already-archived ones and extract
// attachments from the rest.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mailarc/mailarc/internal/fsname"
	"github.com/mailarc/mailarc/internal/imap"
)

// RawMessageFile is the fixed name of the raw message inside each message
// directory. Its presence and size are the whole dedup state; there is no
// separate manifest.
const RawMessageFile = "email.raw"

// subjectMaxLen caps the sanitized subject inside directory names.
const subjectMaxLen = 50

// Result aggregates one download run.
type Result struct {
	Folder      string
	Total       int
	Downloaded  int
	Skipped     int
	Attachments int
	Errors      int
	OutputDir   string
}

// Archiver downloads folders from an IMAP session to local storage.
type Archiver struct {
	session imap.Session
	logger  *slog.Logger
}

// New creates an Archiver on top of an established session.
func New(session imap.Session, logger *slog.Logger) *Archiver {
	return &Archiver{
		session: session,
		logger:  logger.With("component", "archive"),
	}
}

// Run downloads every message of a folder into destRoot. In dry-run mode it
// reports the folder's total message count as Downloaded without touching
// storage; computing the real skip-aware count would require fetching every
// message.
func (a *Archiver) Run(folder, destRoot string, dryRun bool) (Result, error) {
	res := Result{
		Folder:    folder,
		OutputDir: filepath.Join(destRoot, fsname.Sanitize(folder)),
	}

	total, err := a.session.Select(folder, true)
	if err != nil {
		return res, err
	}
	res.Total = int(total)

	if total == 0 {
		a.logger.Info("folder is empty", "folder", folder)
		return res, nil
	}

	if dryRun {
		a.logger.Info("dry run", "folder", folder, "messages", total, "output", res.OutputDir)
		res.Downloaded = res.Total
		return res, nil
	}

	if err := os.MkdirAll(res.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	uids, err := a.session.SearchAll()
	if err != nil {
		return res, fmt.Errorf("failed to search folder %q: %w", folder, err)
	}

	a.logger.Info("downloading folder", "folder", folder, "messages", len(uids))

	for _, uid := range uids {
		switch outcome, attachments := a.processMessage(uid, res.OutputDir); outcome {
		case outcomeDownloaded:
			res.Downloaded++
			res.Attachments += attachments
		case outcomeSkipped:
			res.Skipped++
		case outcomeError:
			res.Errors++
		}
	}

	a.logger.Info("download finished",
		"folder", folder,
		"downloaded", res.Downloaded,
		"attachments", res.Attachments,
		"skipped", res.Skipped,
		"errors", res.Errors)

	return res, nil
}

type outcome int

const (
	outcomeDownloaded outcome = iota
	outcomeSkipped
	outcomeError
)

// processMessage fetches and stores one message. Failures are logged and
// reported as outcomeError; one bad message never aborts the folder.
func (a *Archiver) processMessage(uid uint32, outputDir string) (outcome, int) {
	msg, err := a.session.FetchMessage(uid)
	if err != nil {
		a.logger.Warn("failed to fetch message", "uid", uid, "error", err)
		return outcomeError, 0
	}

	entity := a.parseMessage(msg.Raw, uid)

	date := msg.InternalDate
	if date.IsZero() {
		date = time.Now()
	}

	subject := fsname.Truncate(fsname.Sanitize(a.subject(entity)), subjectMaxLen)
	dirName := fmt.Sprintf("%s_%d_%s", date.Format("20060102_150405"), uid, subject)
	messageDir := filepath.Join(outputDir, dirName)
	rawPath := filepath.Join(messageDir, RawMessageFile)

	// Same directory name and same byte length means already archived.
	if info, err := os.Stat(rawPath); err == nil && info.Size() == int64(len(msg.Raw)) {
		return outcomeSkipped, 0
	}

	if err := os.MkdirAll(messageDir, 0o755); err != nil {
		a.logger.Warn("failed to create message directory", "uid", uid, "error", err)
		return outcomeError, 0
	}
	if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
		a.logger.Warn("failed to write raw message", "uid", uid, "error", err)
		return outcomeError, 0
	}

	return outcomeDownloaded, a.saveAttachments(entity, messageDir, uid)
}
