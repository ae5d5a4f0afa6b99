package logutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitZeroLog configures the global logger and returns ctx carrying it.
// Output goes to stdout plus any extra writers.
func InitZeroLog(ctx context.Context, level string, writers ...io.Writer) context.Context {
	// use unix time
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	zerolog.SetGlobalLevel(parseLevel(level))

	// show caller: github.com/rs/zerolog#add-file-and-line-number-to-log
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		return fmt.Sprintf("%s:%d", short, line)
	}

	var out io.Writer = os.Stdout
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{os.Stdout}, writers...)...)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()

	return log.Logger.WithContext(ctx)
}

// NewFileWriter returns a size-rotated log file writer, or nil when no file is configured.
func NewFileWriter(cfg config.Log) io.WriteCloser {
	if cfg.File == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case zerolog.LevelDebugValue:
		return zerolog.DebugLevel
	case zerolog.LevelInfoValue:
		return zerolog.InfoLevel
	case zerolog.LevelWarnValue:
		return zerolog.WarnLevel
	case zerolog.LevelErrorValue:
		return zerolog.ErrorLevel
	case zerolog.LevelFatalValue:
		return zerolog.FatalLevel
	default:
		return zerolog.TraceLevel
	}
}
