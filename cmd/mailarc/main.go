package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mailarc",
	Short: "Archive IMAP folders to local storage and a NAS share",
	Long: `mailarc downloads the messages of an IMAP folder into a local directory
tree, extracts attachments, optionally mirrors the tree to an SMB share and
optionally deletes the archived messages from the server.

Credentials come from the environment (or a .env file): MAIL_EMAIL and
MAIL_PASSWORD for the mailbox, NAS_HOST, NAS_SHARE, NAS_USERNAME and
NAS_PASSWORD for the share.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

type rootOptions struct {
	provider string
	config   string
}

var rootOpts rootOptions

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.provider, "provider", "p", "", "Mail provider (gmx, gmail, outlook, custom). Default from config or gmx")
	pf.StringVar(&rootOpts.config, "config", "", "Path to a providers config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger builds the handler from the environment settings. Logs go to
// stderr so table and summary output on stdout stays pipeable.
func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
