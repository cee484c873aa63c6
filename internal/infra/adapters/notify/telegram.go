package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/infra/i18n"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes terminal-state notifications to the owner's
// Telegram chat. Foodie is a single-user service, so one chat id from
// config is enough.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	tr     *i18n.Translator
	log    *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, tr *i18n.Translator, logger *zerolog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatID: chatID, tr: tr, log: &l}, nil
}

func (n *TelegramNotifier) NotifySuccess(ctx context.Context, job *model.CaptureJob, record *model.MealRecord) error {
	text := n.tr.T("notify.success", record.Description, record.Calories)
	return n.send(text)
}

func (n *TelegramNotifier) NotifyFailure(ctx context.Context, job *model.CaptureJob, class failure.Classification) error {
	text := n.tr.T(class.MessageKey)
	if job.Status == model.CaptureJobStatusFailedExhausted {
		text = n.tr.T("notify.exhausted", text)
	}
	return n.send(text)
}

func (n *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Error().Err(err).Msg("failed to send telegram notification")
		return err
	}
	return nil
}
