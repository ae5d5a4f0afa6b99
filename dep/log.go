package dep

import (
	"context"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/rs/zerolog/log"
)

// logService only logs outgoing mail. It is the default for local development.
type logService struct {
	from string
}

func NewLogService(_ context.Context, cfg config.Mail) MailService {
	return &logService{
		from: cfg.From,
	}
}

func (s *logService) SendEmail(ctx context.Context, msg *Email) error {
	if err := msg.validate(); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("from", s.from).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_len", len(msg.Html)).
		Msg("mail not delivered, log provider")

	return nil
}

func (s *logService) Provider() string {
	return config.MailProviderLog
}

func (s *logService) Close(_ context.Context) error {
	return nil
}
