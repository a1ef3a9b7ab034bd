package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTOpts is the configuration for MQTTSubscriber.
type MQTTOpts struct {
	Broker   string // Broker URL, e.g. tcp://127.0.0.1:1883
	ClientID string
	Prefix   string // Topic prefix, subscribed as "<prefix>/#"
	QoS      byte
	Buffer   int // Messages queued for Recv before the oldest is dropped (default: 16)
	Logger   zerolog.Logger
}

// DefaultMQTTBuffer is the default MQTTOpts.Buffer.
const DefaultMQTTBuffer = 16

// MQTTSubscriber receives messages from an MQTT broker. Each message is
// reassembled into the "<topic> <payload>" wire shape.
//
// The broker cannot be slowed down, so messages wait in a bounded queue and
// the oldest is dropped when the queue is full.
type MQTTSubscriber struct {
	client mqtt.Client
	prefix string
	log    zerolog.Logger

	msgs chan []byte
	done chan struct{}
	once sync.Once
}

// NewMQTTSubscriber connects to the broker and subscribes to the prefix.
// Connecting is retried until it succeeds or ctx is cancelled.
func NewMQTTSubscriber(ctx context.Context, opts MQTTOpts) (*MQTTSubscriber, error) {
	s := newMQTTSubscriber(opts.Prefix, opts.Buffer, opts.Logger)
	log := opts.Logger

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)
	// Handlers run in order and must not block, see handle
	co.SetOrderMatters(true)

	filter := opts.Prefix + "/#"
	// Subscriptions are renewed on every (re)connect
	co.OnConnect = func(c mqtt.Client) {
		log.Info().Str("broker", opts.Broker).Msg("mqtt connected")
		if tok := c.Subscribe(filter, opts.QoS, s.handle); tok.Wait() && tok.Error() != nil {
			log.Error().Err(tok.Error()).Str("filter", filter).Msg("mqtt subscribe failed")
		}
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	s.client = mqtt.NewClient(co)
	tok := s.client.Connect()
	select {
	case <-tok.Done():
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: failed to connect to %s: %w", opts.Broker, err)
	}
	return s, nil
}

func newMQTTSubscriber(prefix string, buffer int, log zerolog.Logger) *MQTTSubscriber {
	if buffer <= 0 {
		buffer = DefaultMQTTBuffer
	}
	return &MQTTSubscriber{
		prefix: prefix,
		log:    log,
		msgs:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// handle queues one message for Recv without blocking. When the queue is
// full the oldest message is dropped.
func (s *MQTTSubscriber) handle(_ mqtt.Client, m mqtt.Message) {
	if !strings.HasPrefix(m.Topic(), s.prefix) {
		return
	}
	msg := make([]byte, 0, len(m.Topic())+1+len(m.Payload()))
	msg = append(msg, m.Topic()...)
	msg = append(msg, ' ')
	msg = append(msg, m.Payload()...)

	for {
		select {
		case s.msgs <- msg:
			return
		case <-s.done:
			return
		default:
		}
		select {
		case old := <-s.msgs:
			s.log.Debug().Bytes("message", old).Msg("mqtt queue full, dropping oldest message")
		default:
		}
	}
}

// Recv blocks until the next message arrives.
func (s *MQTTSubscriber) Recv() ([]byte, error) {
	select {
	case msg := <-s.msgs:
		return msg, nil
	case <-s.done:
		return nil, ErrClosed
	}
}

// Close disconnects from the broker. Pending and future Recv calls return ErrClosed.
func (s *MQTTSubscriber) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.client != nil {
			s.client.Disconnect(250)
		}
	})
	return nil
}
