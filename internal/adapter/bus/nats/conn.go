package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-token-ledger/config"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Connect dials NATS. It returns nil, nil when no URL is configured so the
// ledger can run without realtime fan-out.
func Connect(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("event-token-ledger"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connection established")
	return nc, nil
}

// HealthCheck implements ports.HealthChecker for NATS.
type HealthCheck struct {
	conn *nats.Conn
}

func NewHealthCheck(conn *nats.Conn) *HealthCheck {
	return &HealthCheck{conn: conn}
}

// Ping round-trips a flush to the server.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if h.conn == nil || !h.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return h.conn.FlushWithContext(ctx)
}

func (h *HealthCheck) Name() string {
	return "nats"
}
