package dep

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/config"
)

var (
	ErrEmptyRecipient = errors.New("empty recipient address")
	ErrEmptySender    = errors.New("empty sender address")
)

type Email struct {
	To      string
	ToName  string
	Subject string
	Html    string
	// Tags are passed to providers that support message tagging.
	Tags map[string]string
}

func (e *Email) validate() error {
	if e == nil || e.To == "" {
		return ErrEmptyRecipient
	}
	return nil
}

// MailService delivers one message per call. Implementations are safe for concurrent use.
type MailService interface {
	SendEmail(ctx context.Context, email *Email) error
	Provider() string
	Close(ctx context.Context) error
}

func NewMailService(ctx context.Context, cfg config.Mail) (MailService, error) {
	if cfg.From == "" {
		return nil, ErrEmptySender
	}

	switch cfg.Provider {
	case config.MailProviderSMTP:
		return NewSmtpService(ctx, cfg)
	case config.MailProviderBrevo:
		return NewBrevoService(ctx, cfg)
	case config.MailProviderSES:
		return NewSesService(ctx, cfg)
	case config.MailProviderLog, "":
		return NewLogService(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
