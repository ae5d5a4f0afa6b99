package logutil

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInitZeroLog(t *testing.T) {
	buf := new(bytes.Buffer)
	ctx := InitZeroLog(context.Background(), "INFO", buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Ctx(ctx).Debug().Msg("hidden")
	log.Ctx(ctx).Info().Msg("campaign finalized")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "campaign finalized")
	assert.Contains(t, buf.String(), "logutil_test.go:")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.TraceLevel, parseLevel("bogus"))
}

func TestNewFileWriter(t *testing.T) {
	assert.Nil(t, NewFileWriter(config.Log{}))

	w := NewFileWriter(config.Log{File: filepath.Join(t.TempDir(), "app.log"), MaxSizeMB: 1})
	if assert.NotNil(t, w) {
		_, err := w.Write([]byte("line\n"))
		assert.NoError(t, err)
		assert.NoError(t, w.Close())
	}
}
