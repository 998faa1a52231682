package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
)

// MQTTConfig describes the broker tank events are forwarded to.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	QoS            byte
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes events as JSON to <prefix>/<device id>/<type>.
type MQTTSink struct {
	client  mqttPublisher
	prefix  string
	qos     byte
	timeout time.Duration
	log     *logger.Logger
}

// DialMQTT connects to the broker and returns a sink for it.
func DialMQTT(cfg MQTTConfig, log *logger.Logger) (*MQTTSink, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	if log != nil {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	}
	return newMQTTSink(c, cfg, log), nil
}

func newMQTTSink(c mqttPublisher, cfg MQTTConfig, log *logger.Logger) *MQTTSink {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = models.EventBusName
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MQTTSink{client: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, timeout: cfg.PublishTimeout, log: log}
}

// Topic returns the topic e is published on.
func (s *MQTTSink) Topic(e models.TankEvent) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, e.DeviceID, e.Type)
}

func (s *MQTTSink) Publish(ctx context.Context, e models.TankEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	topic := s.Topic(e)
	token := s.client.Publish(topic, s.qos, false, payload)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	s.log.Debugw("mqtt_published", "topic", topic)
	return nil
}

// Close disconnects from the broker, allowing in-flight work 250ms.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
