// Package probe runs read-only diagnostic walks against the mailbox and the
// NAS share to validate configuration before real runs.
package probe

import (
	"fmt"
	"log/slog"

	"github.com/mailarc/mailarc/internal/config"
	"github.com/mailarc/mailarc/internal/imap"
	"github.com/mailarc/mailarc/internal/smb"
)

// Mail exercises the basic IMAP operations on an established session. The
// first failing step aborts the probe.
func Mail(sess imap.Session, address string, logger *slog.Logger) error {
	log := logger.With("component", "probe")

	caps, err := sess.Capabilities()
	if err != nil {
		return fmt.Errorf("capability check failed: %w", err)
	}
	log.Info("server capabilities", "count", len(caps))

	folders, err := sess.ListFolders()
	if err != nil {
		return fmt.Errorf("folder listing failed: %w", err)
	}
	log.Info("folders listed", "count", len(folders))

	count, err := sess.Select("INBOX", true)
	if err != nil {
		return fmt.Errorf("INBOX access failed: %w", err)
	}
	log.Info("INBOX accessible", "messages", count)

	log.Info("account verified", "address", address)
	return nil
}

// Share exercises the basic SMB operations on an established session. A
// missing base path is only a warning; it is created on the first upload.
func Share(sess smb.Session, cfg config.NASConfig, logger *slog.Logger) error {
	log := logger.With("component", "probe")
	root := cfg.UNCRoot()

	entries, err := sess.ListDir(root)
	if err != nil {
		return fmt.Errorf("share access failed: %w", err)
	}
	log.Info("share accessible", "entries", len(entries))

	if base := cfg.NormalizedBasePath(); base != "" {
		path := root + `\` + base
		entries, err := sess.ListDir(path)
		if err != nil {
			log.Warn("base path does not exist yet, it will be created on upload", "path", path)
		} else {
			log.Info("base path exists", "path", path, "entries", len(entries))
		}
	}

	if err := sess.Stat(root); err != nil {
		log.Warn("could not stat share root", "error", err)
	} else {
		log.Info("share root stat ok")
	}

	return nil
}
