// backend-go/pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = build(consoleWriter(os.Stdout), zerolog.InfoLevel)
}

// Setup configures level and output format ("console" or "json") and makes
// the result the zerolog global logger used through rs/zerolog/log.
func Setup(levelStr, format string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = consoleWriter(os.Stdout)
	if strings.EqualFold(format, "json") {
		out = os.Stdout
	}

	zerolog.SetGlobalLevel(level)
	Log = build(out, level)
	log.Logger = Log

	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
	}
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func build(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
