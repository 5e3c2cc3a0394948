package supervisor

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher is the slice of the NATS connection the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSNotifier publishes supervision events as JSON messages on
// "<prefix>.<supervisor>". Publishing is fire-and-forget: a failed publish
// is logged and the supervision round proceeds.
type NATSNotifier struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

// NewNATSNotifier creates a notifier publishing under prefix, which defaults
// to "supervision".
func NewNATSNotifier(pub Publisher, prefix string, logger *slog.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = "supervision"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{pub: pub, prefix: prefix, logger: logger}
}

// Notify implements the Notifier callback shape.
func (n *NATSNotifier) Notify(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("supervision event marshal failed", "error", err)
		return
	}
	subject := n.prefix + "." + ev.Supervisor
	if err := n.pub.Publish(subject, payload); err != nil {
		n.logger.Warn("supervision event publish failed",
			"subject", subject, "error", err)
	}
}
