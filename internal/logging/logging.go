package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production-like environments log JSON to
// stdout; everything else gets the human console writer.
func New(env string) zerolog.Logger {
	var logger zerolog.Logger
	if strings.EqualFold(env, "production") {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return logger.With().
		Timestamp().
		Str("service", "chart-aggregation").
		Logger()
}
