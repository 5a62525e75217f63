package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

// Header names on published snapshot messages
const (
	HeaderSnapshotID = "Snapshot-Id"
	HeaderAcceptedAt = "Accepted-At"
)

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	Drain() error
}

// NATSPublisher publishes each accepted snapshot's raw JSON to a subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *zap.Logger
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("treatment-calendar"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	logger.Info("Publishing snapshots to NATS", zap.String("url", url), zap.String("subject", subject))
	return newNATSPublisher(nc, subject, logger), nil
}

func newNATSPublisher(conn natsConn, subject string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

// Notify publishes the snapshot. Failures are logged; delivery to the SSE
// clients does not depend on NATS.
func (p *NATSPublisher) Notify(_ context.Context, snap *program.Snapshot) {
	msg := nats.NewMsg(p.subject)
	msg.Data = snap.Raw
	msg.Header.Set(HeaderSnapshotID, snap.ID.String())
	msg.Header.Set(HeaderAcceptedAt, snap.AcceptedAt.Format(time.RFC3339))
	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("Failed to publish snapshot",
			zap.String("subject", p.subject),
			zap.String("snapshot", snap.ID.String()),
			zap.Error(err))
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
