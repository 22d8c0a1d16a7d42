package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service is stamped on every line so ledger logs can be told apart in a
// shared platform sink.
const Service = "event-token-ledger"

// New creates the process logger.
// level: debug, info, warn, error. pretty: human-readable console output.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return base(level, w).Caller().Logger()
}

// NewWithWriter creates a logger writing to w. Used by tests.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return base(level, w).Logger()
}

func base(level string, w io.Writer) zerolog.Context {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", Service)
}

// Component returns a child logger tagged with the emitting subsystem,
// e.g. "transfer", "vote", "log_retrier".
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Transfer returns a child logger carrying the fields shared by every line
// about one ledger transfer.
func Transfer(log zerolog.Logger, txID, kind, payer, payee string, amount int64) zerolog.Logger {
	return log.With().
		Str("tx_id", txID).
		Str("kind", kind).
		Str("payer", payer).
		Str("payee", payee).
		Int64("amount", amount).
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "warning":
		return zerolog.WarnLevel
	case "debug", "info", "warn", "error":
		parsed, _ := zerolog.ParseLevel(l)
		return parsed
	default:
		return zerolog.InfoLevel
	}
}
