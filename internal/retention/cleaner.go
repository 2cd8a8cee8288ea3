// Package retention implements folder cleanup: select messages older than a
// cutoff (or all of them), ask the operator twice, delete and expunge.
package retention

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mailarc/mailarc/internal/imap"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Result aggregates one cleanup run. Aborted is set when the operator
// declined; that is a normal outcome, not an error.
type Result struct {
	Total   int
	Matched int
	Deleted int
	Aborted bool
}

// Cleaner deletes messages from an IMAP folder.
type Cleaner struct {
	session   imap.Session
	confirmer Confirmer
	logger    *slog.Logger
}

// New creates a Cleaner on top of an established session.
func New(session imap.Session, confirmer Confirmer, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		session:   session,
		confirmer: confirmer,
		logger:    logger.With("component", "retention"),
	}
}

// Run deletes the matching messages of a folder. A nil cutoff selects every
// message. Unless dryRun is set, the operator must confirm twice before the
// messages are flagged deleted and the folder is expunged.
func (c *Cleaner) Run(folder string, dryRun bool, cutoff *time.Time) (Result, error) {
	var res Result

	total, err := c.session.Select(folder, false)
	if err != nil {
		return res, err
	}
	res.Total = int(total)

	if total == 0 {
		c.logger.Info("folder is empty", "folder", folder)
		return res, nil
	}

	var uids []uint32
	if cutoff != nil {
		uids, err = c.session.SearchBefore(*cutoff)
	} else {
		uids, err = c.session.SearchAll()
	}
	if err != nil {
		return res, fmt.Errorf("failed to search folder %q: %w", folder, err)
	}
	res.Matched = len(uids)

	filter := filterDesc(cutoff)
	if len(uids) == 0 {
		c.logger.Info("no messages to delete", "folder", folder, "filter", filter)
		return res, nil
	}

	if dryRun {
		c.logger.Info("dry run",
			"folder", folder,
			"filter", filter,
			"matched", res.Matched,
			"total", res.Total)
		return res, nil
	}

	prompt := fmt.Sprintf("Permanently delete %d messages (%s) from %q?", len(uids), filter, folder)
	ok, err := c.confirmer.Confirm(prompt)
	if err != nil {
		return res, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		c.logger.Info("deletion cancelled", "folder", folder)
		res.Aborted = true
		return res, nil
	}

	ok, err = c.confirmer.Confirm("This cannot be undone. Really delete?")
	if err != nil {
		return res, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		c.logger.Info("deletion cancelled", "folder", folder)
		res.Aborted = true
		return res, nil
	}

	if err := c.session.MarkDeleted(uids); err != nil {
		return res, fmt.Errorf("failed to delete messages: %w", err)
	}
	// Deletion only flags the messages; the expunge makes it permanent.
	if err := c.session.Expunge(); err != nil {
		return res, fmt.Errorf("failed to expunge: %w", err)
	}

	res.Deleted = len(uids)
	c.logger.Info("messages deleted", "folder", folder, "count", res.Deleted)

	return res, nil
}

func filterDesc(cutoff *time.Time) string {
	if cutoff == nil {
		return "all messages"
	}
	return "older than " + cutoff.Format("2006-01-02")
}
