package notify

import (
	"context"

	"github.com/rs/zerolog"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/infra/i18n"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the log. Used in dev mode and as
// the fallback when no Telegram chat is configured.
type LogNotifier struct {
	tr  *i18n.Translator
	log *zerolog.Logger
}

func NewLogNotifier(tr *i18n.Translator, logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "LogNotifier").Logger()
	return &LogNotifier{tr: tr, log: &l}
}

func (n *LogNotifier) NotifySuccess(ctx context.Context, job *model.CaptureJob, record *model.MealRecord) error {
	n.log.Info().
		Str("job_id", job.ID).
		Str("record_id", record.ID).
		Msg(n.tr.T("notify.success", record.Description, record.Calories))
	return nil
}

func (n *LogNotifier) NotifyFailure(ctx context.Context, job *model.CaptureJob, class failure.Classification) error {
	text := n.tr.T(class.MessageKey)
	if job.Status == model.CaptureJobStatusFailedExhausted {
		text = n.tr.T("notify.exhausted", text)
	}
	n.log.Warn().
		Str("job_id", job.ID).
		Str("error_kind", string(class.Kind)).
		Msg(text)
	return nil
}
