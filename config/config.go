package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayushbirla71/survey-backend/pkg/mq"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MetadataDB MySQL             `json:"metadata_db" yaml:"metadata_db"`
	Redis      Redis             `json:"redis" yaml:"redis"`
	Mail       Mail              `json:"mail" yaml:"mail"`
	Tracking   Tracking          `json:"tracking" yaml:"tracking"`
	Campaign   Campaign          `json:"campaign" yaml:"campaign"`
	Producer   mq.ProducerConfig `json:"producer" yaml:"producer"`
	Consumer   mq.ConsumerConfig `json:"consumer" yaml:"consumer"`
	Log        Log               `json:"log" yaml:"log"`
	Metrics    Metrics           `json:"metrics" yaml:"metrics"`
}

type MySQL struct {
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	Database     string `json:"database" yaml:"database"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	AutoMigrate  bool   `json:"auto_migrate" yaml:"auto_migrate"`
}

func (mysql *MySQL) ToDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
		mysql.Username, mysql.Password, mysql.Host, mysql.Port, mysql.Database)
}

type Redis struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Mail selects and configures the outbound transport. Provider is one of smtp, brevo, ses or log.
type Mail struct {
	Provider string `json:"provider" yaml:"provider"`
	From     string `json:"from" yaml:"from"`
	FromName string `json:"from_name" yaml:"from_name"`
	ReplyTo  string `json:"reply_to" yaml:"reply_to"`
	SMTP     SMTP   `json:"smtp" yaml:"smtp"`
	Brevo    Brevo  `json:"brevo" yaml:"brevo"`
	SES      SES    `json:"ses" yaml:"ses"`
}

type SMTP struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

func (s *SMTP) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Brevo struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

type SES struct {
	Region           string `json:"region" yaml:"region"`
	AccessKeyID      string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey  string `json:"secret_access_key" yaml:"secret_access_key"`
	ConfigurationSet string `json:"configuration_set" yaml:"configuration_set"`
}

type Tracking struct {
	// BaseURL is the public origin used in survey links and open pixels.
	BaseURL string `json:"base_url" yaml:"base_url"`
}

type Campaign struct {
	// SendConcurrency bounds parallel sends within one campaign. 1 sends sequentially.
	SendConcurrency int `json:"send_concurrency" yaml:"send_concurrency"`
	// SyncSend makes send_survey wait for the send loop and return per-recipient results.
	SyncSend          bool   `json:"sync_send" yaml:"sync_send"`
	QueueSize         int    `json:"queue_size" yaml:"queue_size"`
	Workers           int    `json:"workers" yaml:"workers"`
	StaleDraftSeconds uint64 `json:"stale_draft_seconds" yaml:"stale_draft_seconds"`
	LockTTLSeconds    int    `json:"lock_ttl_seconds" yaml:"lock_ttl_seconds"`
	DefaultUserID     string `json:"default_user_id" yaml:"default_user_id"`
}

type Log struct {
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

type Metrics struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

func NewConfig() *Config {
	return &Config{
		MetadataDB: MySQL{
			Username:     "",
			Password:     "",
			Host:         "127.0.0.1",
			Port:         3306,
			Database:     "survey_db",
			MaxOpenConns: 20,
			MaxIdleConns: 10,
			AutoMigrate:  false,
		},
		Redis: Redis{
			Addr: "127.0.0.1:6379",
		},
		Mail: Mail{
			Provider: MailProviderLog,
			From:     "noreply@surveyplatform.com",
			FromName: "Survey Platform",
			SMTP: SMTP{
				Host: "127.0.0.1",
				Port: 587,
			},
			Brevo: Brevo{
				BaseURL: "https://api.brevo.com/v3",
			},
			SES: SES{
				Region: "us-east-1",
			},
		},
		Tracking: Tracking{
			BaseURL: "http://localhost:9090",
		},
		Campaign: Campaign{
			SendConcurrency:   1,
			SyncSend:          false,
			QueueSize:         100,
			Workers:           2,
			StaleDraftSeconds: 300,
			LockTTLSeconds:    600,
			DefaultUserID:     "default-user",
		},
		Log: Log{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    PathMetrics,
		},
	}
}

// Load overlays the file at path on top of the defaults. YAML is used for .yaml and .yml files, JSON otherwise.
func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(c); err != nil {
			return err
		}
	default:
		if err := json.NewDecoder(f).Decode(c); err != nil {
			return err
		}
	}

	return nil
}
