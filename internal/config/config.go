package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingMailCredentials is returned when MAIL_EMAIL or MAIL_PASSWORD is unset.
var ErrMissingMailCredentials = errors.New("MAIL_EMAIL and MAIL_PASSWORD environment variables are required")

// ErrMissingNASCredentials is returned when the NAS connection settings are incomplete.
var ErrMissingNASCredentials = errors.New("NAS_HOST, NAS_SHARE, NAS_USERNAME and NAS_PASSWORD environment variables are required")

// Config is the application configuration resolved from the environment.
type Config struct {
	Mail     MailConfig
	NAS      NASConfig
	Telegram TelegramConfig

	// JournalPath points at the run journal database; empty disables it.
	JournalPath string `env:"JOURNAL_PATH"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// MailConfig holds the mailbox account credentials.
type MailConfig struct {
	Email    string `env:"MAIL_EMAIL"`
	Password string `env:"MAIL_PASSWORD"`
	Provider string `env:"MAIL_PROVIDER"`
}

// Configured reports whether the mail credentials are present.
func (c MailConfig) Configured() bool {
	return c.Email != "" && c.Password != ""
}

// Validate returns ErrMissingMailCredentials when the account is not configured.
func (c MailConfig) Validate() error {
	if !c.Configured() {
		return ErrMissingMailCredentials
	}
	return nil
}

// AccountName returns the local part of the account address (before the @).
func (c MailConfig) AccountName() string {
	name, _, _ := strings.Cut(c.Email, "@")
	return name
}

// NASConfig holds the SMB share connection settings.
type NASConfig struct {
	Host     string `env:"NAS_HOST"`
	Share    string `env:"NAS_SHARE"`
	Username string `env:"NAS_USERNAME"`
	Password string `env:"NAS_PASSWORD"`
	BasePath string `env:"NAS_PATH" envDefault:"/mail-archive"`
}

// Configured reports whether all required share settings are present.
func (c NASConfig) Configured() bool {
	return c.Host != "" && c.Share != "" && c.Username != "" && c.Password != ""
}

// Validate returns ErrMissingNASCredentials when the share is not configured.
func (c NASConfig) Validate() error {
	if !c.Configured() {
		return ErrMissingNASCredentials
	}
	return nil
}

// FolderPath builds the share-relative base path for one archived mail folder.
func (c NASConfig) FolderPath(account, folder string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.BasePath, "/"), account, folder)
}

// UNCRoot returns the share's UNC root, \\host\share.
func (c NASConfig) UNCRoot() string {
	return `\\` + c.Host + `\` + c.Share
}

// NormalizedBasePath returns BasePath in the share's backslash convention,
// without leading or trailing separators.
func (c NASConfig) NormalizedBasePath() string {
	path := strings.Trim(c.BasePath, "/")
	path = strings.ReplaceAll(path, "/", `\`)
	return strings.TrimRight(path, `\`)
}

// TelegramConfig holds the optional run notification settings.
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Configured reports whether notifications are enabled.
func (c TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// Load reads configuration from the environment, loading a .env file first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
