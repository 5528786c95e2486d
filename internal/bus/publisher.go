package bus

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is a fire-and-forget event transport. Publish must never block
// request handling on delivery and must never surface transport failures to
// callers.
type Publisher interface {
	Publish(subject string, payload any)
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials the message bus. The connection is process-wide and shared
// by all requests.
func Connect(url, name string, logger *zap.Logger) (Publisher, error) {
	conn, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, err
	}
	return &natsPublisher{conn: conn, logger: logger}, nil
}

func (p *natsPublisher) Publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (p *natsPublisher) Close() {
	p.conn.Close()
}

type noopPublisher struct{}

// Noop returns a publisher that drops every event. Used when no bus URL is
// configured.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(string, any) {}
func (noopPublisher) Close()              {}
