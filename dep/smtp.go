package dep

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/jordan-wright/email"
)

type smtpService struct {
	cfg  config.Mail
	addr string
	auth smtp.Auth
}

func NewSmtpService(_ context.Context, cfg config.Mail) (MailService, error) {
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("empty smtp host")
	}

	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &smtpService{
		cfg:  cfg,
		addr: cfg.SMTP.Addr(),
		auth: auth,
	}, nil
}

func (s *smtpService) SendEmail(_ context.Context, msg *Email) error {
	if err := msg.validate(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = formatAddress(s.cfg.FromName, s.cfg.From)
	e.To = []string{formatAddress(msg.ToName, msg.To)}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.Html)
	if s.cfg.ReplyTo != "" {
		e.ReplyTo = []string{s.cfg.ReplyTo}
	}
	for k, v := range msg.Tags {
		e.Headers.Set(fmt.Sprintf("X-Tag-%s", k), v)
	}

	if err := e.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *smtpService) Provider() string {
	return config.MailProviderSMTP
}

func (s *smtpService) Close(_ context.Context) error {
	return nil
}
