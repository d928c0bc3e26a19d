package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("tournament-stages"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes each event as JSON on
// "<prefix>.<tournament id>.<event type>".
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logger *slog.Logger
}

func NewNATSPublisher(nc *nats.Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: nc, prefix: prefix, logger: logger}
}

func (p *NATSPublisher) Subject(e Event) string {
	return fmt.Sprintf("%s.%d.%s", p.prefix, e.TournamentID, e.Type)
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to encode event", slog.String("type", string(e.Type)), slog.Any("error", err))
		return
	}
	if err := p.conn.Publish(p.Subject(e), data); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish event to NATS",
			slog.String("subject", p.Subject(e)), slog.Any("error", err))
	}
}
