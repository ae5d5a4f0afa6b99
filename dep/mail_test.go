package dep

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailService(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.Mail
		provider string
		wantErr  bool
	}{
		{
			name:     "default to log",
			cfg:      config.Mail{From: "noreply@example.com"},
			provider: config.MailProviderLog,
		},
		{
			name:     "smtp",
			cfg:      config.Mail{Provider: config.MailProviderSMTP, From: "noreply@example.com", SMTP: config.SMTP{Host: "127.0.0.1", Port: 25}},
			provider: config.MailProviderSMTP,
		},
		{
			name:    "brevo without key",
			cfg:     config.Mail{Provider: config.MailProviderBrevo, From: "noreply@example.com"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     config.Mail{Provider: "pigeon", From: "noreply@example.com"},
			wantErr: true,
		},
		{
			name:    "missing sender",
			cfg:     config.Mail{Provider: config.MailProviderLog},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewMailService(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, svc.Provider())
		})
	}
}

func TestLogServiceRejectsEmptyRecipient(t *testing.T) {
	svc := NewLogService(context.Background(), config.Mail{From: "noreply@example.com"})
	assert.ErrorIs(t, svc.SendEmail(context.Background(), &Email{}), ErrEmptyRecipient)
	assert.NoError(t, svc.SendEmail(context.Background(), &Email{To: "a@example.com", Subject: "hi"}))
}

func TestBrevoSendEmail(t *testing.T) {
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/smtp/email", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<m-1@smtp-relay>"}`))
	}))
	defer srv.Close()

	svc, err := NewBrevoService(context.Background(), config.Mail{
		From:  "noreply@example.com",
		Brevo: config.Brevo{APIKey: "secret", BaseURL: srv.URL + "/v3/"},
	})
	require.NoError(t, err)

	err = svc.SendEmail(context.Background(), &Email{
		To:      "jane@example.com",
		ToName:  "Jane",
		Subject: "Survey Invitation: Pulse",
		Html:    "<p>hi</p>",
		Tags:    map[string]string{"campaign_id": "c-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Survey Invitation: Pulse", got["subject"])
	assert.Equal(t, []interface{}{"c-1"}, got["tags"])
}

func TestBrevoSendEmailError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter","message":"email is not valid"}`))
	}))
	defer srv.Close()

	svc, err := NewBrevoService(context.Background(), config.Mail{
		From:  "noreply@example.com",
		Brevo: config.Brevo{APIKey: "secret", BaseURL: srv.URL},
	})
	require.NoError(t, err)

	err = svc.SendEmail(context.Background(), &Email{To: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is not valid")
}
