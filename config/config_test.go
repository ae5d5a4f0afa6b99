package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"metadata_db": {"host": "db", "port": 3307, "database": "surveys"},
		"mail": {"provider": "smtp", "smtp": {"host": "mail", "port": 25}},
		"campaign": {"send_concurrency": 4}
	}`)

	cfg := NewConfig()
	require.NoError(t, cfg.Load(context.Background(), path))

	assert.Equal(t, "db", cfg.MetadataDB.Host)
	assert.Equal(t, 3307, cfg.MetadataDB.Port)
	assert.Equal(t, MailProviderSMTP, cfg.Mail.Provider)
	assert.Equal(t, "mail:25", cfg.Mail.SMTP.Addr())
	assert.Equal(t, 4, cfg.Campaign.SendConcurrency)
	// untouched defaults survive
	assert.Equal(t, 100, cfg.Campaign.QueueSize)
	assert.Equal(t, "noreply@surveyplatform.com", cfg.Mail.From)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
tracking:
  base_url: https://surveys.example.com
mail:
  provider: ses
  ses:
    region: eu-west-1
producer:
  brokers: ["kafka:9092"]
  topics:
    run_campaign: survey.run_campaign
`)

	cfg := NewConfig()
	require.NoError(t, cfg.Load(context.Background(), path))

	assert.Equal(t, "https://surveys.example.com", cfg.Tracking.BaseURL)
	assert.Equal(t, MailProviderSES, cfg.Mail.Provider)
	assert.Equal(t, "eu-west-1", cfg.Mail.SES.Region)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Producer.Brokers)
	assert.Equal(t, "survey.run_campaign", cfg.Producer.Topics["run_campaign"])
}

func TestLoadMissingFile(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, "127.0.0.1", cfg.MetadataDB.Host)
}

func TestToDSN(t *testing.T) {
	m := MySQL{Username: "u", Password: "p", Host: "h", Port: 1, Database: "d"}
	assert.Equal(t, "u:p@tcp(h:1)/d?charset=utf8mb4&parseTime=true", m.ToDSN())
}
