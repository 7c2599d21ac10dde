package livereload

import (
	"log/slog"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

// NATSPublisher forwards reload notifications to a NATS subject so preview
// proxies on other hosts can follow builds on this one. Publishing is fire
// and forget; an unreachable broker never blocks the build loop.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the broker. The connection reconnects
// automatically; only the initial dial can fail.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("sitebuild-livereload"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, ferrors.NewError(ferrors.CategoryConfig, "connect to reload broker").
			WithContext("url", url).
			WithCause(err).
			Build()
	}

	slog.Info("reload publisher connected",
		slog.String("url", url),
		slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) Notify(n Notification) {
	if err := p.conn.Publish(p.subject, encode(n)); err != nil {
		slog.Warn("reload publish failed",
			slog.String("cycle_id", n.CycleID),
			slog.String("subject", p.subject),
			slog.Any("error", err))
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
