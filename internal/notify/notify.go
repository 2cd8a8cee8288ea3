// Package notify sends run summaries to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/mailarc/mailarc/internal/config"
	"github.com/mailarc/mailarc/pkg/models"
)

// Notifier posts run summaries to a single chat.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// New creates a Notifier from the Telegram configuration.
func New(cfg config.TelegramConfig, logger *slog.Logger) (*Notifier, error) {
	tgBot, err := bot.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Notifier{
		bot:    tgBot,
		chatID: cfg.ChatID,
		logger: logger.With("component", "notify"),
	}, nil
}

// NotifyRun sends the summary of one finished run.
func (n *Notifier) NotifyRun(ctx context.Context, run *models.RunSummary) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatRun(run),
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("notification sent", "kind", run.Kind, "folder", run.Folder)
	return nil
}
