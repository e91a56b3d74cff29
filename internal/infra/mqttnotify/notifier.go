package mqttnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"homectl/internal/application"
)

const DefaultTopic = "homectl/toasts"

// Publisher is the part of an MQTT client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Toast is the JSON payload published for every notification.
type Toast struct {
	Level   application.Level `json:"level"`
	Message string            `json:"message"`
	SentAt  time.Time         `json:"sent_at"`
}

// Notifier publishes toasts to an MQTT topic for any UI subscribed to it.
type Notifier struct {
	pub     Publisher
	topic   string
	timeout time.Duration
}

func New(pub Publisher, topic string) *Notifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Notifier{pub: pub, topic: topic, timeout: 5 * time.Second}
}

// Connect dials the broker described by brokerURL (mqtt://, tcp://, ssl://, ws://).
func Connect(brokerURL string, logger *slog.Logger) (mqtt.Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing broker url: %w", err)
	}

	server := u.Host
	switch u.Scheme {
	case "mqtt", "tcp":
		server = "tcp://" + server
	case "ssl", "tls":
		server = "ssl://" + server
	case "ws", "wss":
		server = u.Scheme + "://" + server + u.Path
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(server)
	opts.SetClientID("homectl-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) { logger.Info("mqtt connected", "broker", server) }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) { logger.Error("mqtt connection lost", "error", err) }
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}

	cli := mqtt.NewClient(opts)
	t := cli.Connect()
	if !t.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connecting to broker %s: timed out", server)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	return cli, nil
}

func (n *Notifier) Notify(ctx context.Context, level application.Level, message string) error {
	payload, err := json.Marshal(Toast{Level: level, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling toast: %w", err)
	}

	t := n.pub.Publish(n.topic, 0, false, payload)
	select {
	case <-t.Done():
		if err := t.Error(); err != nil {
			return fmt.Errorf("publishing toast: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.timeout):
		return fmt.Errorf("publishing toast: timed out after %s", n.timeout)
	}
}
