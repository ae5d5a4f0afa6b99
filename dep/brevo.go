package dep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ayushbirla71/survey-backend/config"
	brevo "github.com/getbrevo/brevo-go/lib"
)

const brevoSendEmailPath = "/smtp/email"

type brevoResp struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

type brevoService struct {
	cfg        config.Mail
	sendUrl    string
	httpClient *http.Client
}

func NewBrevoService(_ context.Context, cfg config.Mail) (MailService, error) {
	if cfg.Brevo.APIKey == "" {
		return nil, fmt.Errorf("empty brevo api key")
	}

	return &brevoService{
		cfg:     cfg,
		sendUrl: strings.TrimSuffix(cfg.Brevo.BaseURL, "/") + brevoSendEmailPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (s *brevoService) SendEmail(ctx context.Context, msg *Email) error {
	if err := msg.validate(); err != nil {
		return err
	}

	body := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.cfg.FromName,
			Email: s.cfg.From,
		},
		To: []brevo.SendSmtpEmailTo{
			{
				Email: msg.To,
				Name:  msg.ToName,
			},
		},
		Subject:     msg.Subject,
		HtmlContent: msg.Html,
		Tags:        tagValues(msg.Tags),
		ScheduledAt: time.Now().Add(10 * time.Second).Format(time.RFC3339Nano),
	}
	if s.cfg.ReplyTo != "" {
		body.ReplyTo = &brevo.SendSmtpEmailReplyTo{
			Email: s.cfg.ReplyTo,
		}
	}

	return s.postHttpRequest(ctx, s.sendUrl, body)
}

func (s *brevoService) Provider() string {
	return config.MailProviderBrevo
}

func (s *brevoService) Close(_ context.Context) error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *brevoService) postHttpRequest(ctx context.Context, url string, body interface{}) error {
	js, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(js))
	if err != nil {
		return err
	}

	req.Header.Add("accept", "application/json")
	req.Header.Add("content-type", "application/json")
	req.Header.Add("api-key", s.cfg.Brevo.APIKey)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	resp := new(brevoResp)
	if len(b) > 0 {
		if err := json.Unmarshal(b, resp); err != nil {
			return fmt.Errorf("decode brevo response, status: %d: %w", res.StatusCode, err)
		}
	}

	if resp.Message != "" || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("encounter brevo error: %s, code: %s, status: %d", resp.Message, resp.Code, res.StatusCode)
	}

	return nil
}

func tagValues(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	values := make([]string, 0, len(tags))
	for _, v := range tags {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
