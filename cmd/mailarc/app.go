package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/mailarc/mailarc/internal/config"
	"github.com/mailarc/mailarc/internal/fsname"
	"github.com/mailarc/mailarc/internal/imap"
	"github.com/mailarc/mailarc/internal/journal"
	"github.com/mailarc/mailarc/internal/notify"
	"github.com/mailarc/mailarc/internal/probe"
	"github.com/mailarc/mailarc/internal/smb"
	"github.com/mailarc/mailarc/internal/timerange"
	"github.com/mailarc/mailarc/internal/upload"
	"github.com/mailarc/mailarc/pkg/models"
)

// app bundles the resolved configuration and logger shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: setupLogger(cfg.LogLevel, cfg.LogFormat)}, nil
}

// resolveProvider picks the provider from the --provider flag, the
// MAIL_PROVIDER variable or the registry default, in that order.
func (a *app) resolveProvider() (config.Provider, error) {
	name := rootOpts.provider
	if name == "" {
		name = a.cfg.Mail.Provider
	}
	if name == "" {
		name = config.DefaultProviderName(rootOpts.config)
	}
	return config.LoadProvider(name, rootOpts.config)
}

// dialMail validates the account credentials and opens a logged-in session.
func (a *app) dialMail() (*imap.Client, error) {
	if err := a.cfg.Mail.Validate(); err != nil {
		return nil, err
	}

	provider, err := a.resolveProvider()
	if err != nil {
		return nil, err
	}
	a.logger.Info("using provider", "provider", provider.Name, "host", provider.IMAPHost)

	return imap.Dial(imap.ClientConfig{
		Email:    a.cfg.Mail.Email,
		Password: a.cfg.Mail.Password,
		Host:     provider.IMAPHost,
		Port:     provider.IMAPPort,
		SSL:      provider.SSL,
	}, a.logger)
}

// dialShare validates the share settings and mounts the share.
func (a *app) dialShare() (*smb.Client, error) {
	if err := a.cfg.NAS.Validate(); err != nil {
		return nil, err
	}
	return smb.Dial(smb.ClientConfig{
		Host:     a.cfg.NAS.Host,
		Share:    a.cfg.NAS.Share,
		Username: a.cfg.NAS.Username,
		Password: a.cfg.NAS.Password,
	}, a.logger)
}

// shareDialer defers the share connection until the uploader actually
// transfers something.
func (a *app) shareDialer() upload.DialFunc {
	return func() (smb.Session, error) {
		client, err := a.dialShare()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// uploadConfig derives the NAS target configuration for one mail folder:
// the base path becomes {NAS_PATH}/{account}/{sanitized folder}.
func (a *app) uploadConfig(folder string) config.NASConfig {
	cfg := a.cfg.NAS
	cfg.BasePath = a.cfg.NAS.FolderPath(a.cfg.Mail.AccountName(), fsname.Sanitize(folder))
	return cfg
}

// probeMail opens a mail session and runs the read-only account probe.
func (a *app) probeMail() error {
	sess, err := a.dialMail()
	if err != nil {
		return err
	}
	defer sess.Logout()

	return probe.Mail(sess, a.cfg.Mail.Email, a.logger)
}

// validateShare opens a throwaway session and runs the read-only share probe.
func (a *app) validateShare() error {
	sess, err := a.dialShare()
	if err != nil {
		return err
	}
	defer sess.Close()

	return probe.Share(sess, a.cfg.NAS, a.logger)
}

// parseCutoff turns a retention expression into an absolute cutoff instant.
// An empty expression means no filter.
func parseCutoff(since string) (*time.Time, error) {
	if since == "" {
		return nil, nil
	}
	t, err := timerange.CutoffFrom(time.Now(), since)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// report persists and announces one finished run. Failures here are logged
// and never fail the command.
func (a *app) report(ctx context.Context, run *models.RunSummary) {
	a.recordRun(ctx, run)
	a.notifyRun(ctx, run)
}

func (a *app) recordRun(ctx context.Context, run *models.RunSummary) {
	if a.cfg.JournalPath == "" {
		return
	}

	j, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		a.logger.Warn("failed to open journal", "error", err)
		return
	}
	defer j.Close()

	if err := j.Migrate(ctx); err != nil {
		a.logger.Warn("failed to migrate journal", "error", err)
		return
	}
	if err := j.Record(ctx, run); err != nil {
		a.logger.Warn("failed to record run", "error", err)
	}
}

func (a *app) notifyRun(ctx context.Context, run *models.RunSummary) {
	if !a.cfg.Telegram.Configured() {
		return
	}

	notifier, err := notify.New(a.cfg.Telegram, a.logger)
	if err != nil {
		a.logger.Warn("failed to create telegram notifier", "error", err)
		return
	}
	if err := notifier.NotifyRun(ctx, run); err != nil {
		a.logger.Warn("failed to send run notification", "error", err)
	}
}

// chooseFolder resolves the folder to operate on, interactively when no
// --folder was given, and validates it against the server's listing. An empty
// name with a nil error means the operator quit the picker.
func chooseFolder(flagValue string, interactive bool, folders []imap.FolderInfo) (string, error) {
	if flagValue == "" {
		if !interactive {
			return "", errors.New("no folder specified: use --folder or --interactive")
		}
		return pickFolder(folders)
	}

	for _, f := range folders {
		if f.Name == flagValue {
			return flagValue, nil
		}
	}

	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.Name)
	}
	return "", fmt.Errorf("folder %q not found (available: %s)", flagValue, strings.Join(names, ", "))
}

func pickFolder(folders []imap.FolderInfo) (string, error) {
	options := make([]huh.Option[string], 0, len(folders))
	for _, f := range folders {
		label := f.Name
		if f.Messages >= 0 {
			label = fmt.Sprintf("%s (%d messages)", f.Name, f.Messages)
		}
		options = append(options, huh.NewOption(label, f.Name))
	}

	var folder string
	err := huh.NewSelect[string]().
		Title("Select a folder").
		Options(options...).
		Value(&folder).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", fmt.Errorf("folder selection failed: %w", err)
	}
	return folder, nil
}

// promptConfirmer asks deletion confirmations on the terminal. Quitting the
// prompt counts as a decline.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(prompt string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// printFolders renders the folder listing. Folders whose message count could
// not be determined show a question mark.
func printFolders(folders []imap.FolderInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tMESSAGES")
	for _, f := range folders {
		count := strconv.Itoa(f.Messages)
		if f.Messages < 0 {
			count = "?"
		}
		fmt.Fprintf(w, "%s\t%s\n", f.Name, count)
	}
	w.Flush()
}
