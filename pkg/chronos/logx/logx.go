// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at a console writer on w and sets the level.
// An empty level means info.
func Setup(w io.Writer, level string, color bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !color})
	return nil
}

// ParseLevel accepts zerolog level names plus "warning".
func ParseLevel(level string) (zerolog.Level, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(l)
}
