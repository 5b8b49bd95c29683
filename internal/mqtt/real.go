package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/binary-clock/internal/logger"
	"github.com/sweeney/binary-clock/internal/logic"
)

const (
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are held in a ring buffer and replayed, oldest
// first, when it comes back.
type RealPublisher struct {
	client paho.Client
	log    *logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher for the given broker. It does not wait
// for the first connection; the client keeps retrying in the background.
func NewRealPublisher(broker string, bufferSize int, log *logger.Logger) (*RealPublisher, error) {
	if broker == "" {
		return nil, fmt.Errorf("no broker configured")
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &RealPublisher{
		log: log,
		now: time.Now,
		buf: newRingBuffer(bufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("binary-clock-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	log.Infow("mqtt connecting", "broker", broker)

	return p, nil
}

func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	dropped := p.buf.dropped
	pending := p.buf.drainAll()
	p.mu.Unlock()

	p.log.Infow("mqtt connected", "buffered", len(pending), "dropped", dropped)

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
	for _, msg := range pending {
		p.send(msg)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.Warnw("mqtt connection lost", "error", err)
}

// send publishes msg, falling back to the buffer if the broker does not
// acknowledge it in time.
func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	var err error
	if !token.WaitTimeout(publishTimeout) {
		err = fmt.Errorf("publish timeout")
	} else if terr := token.Error(); terr != nil {
		err = fmt.Errorf("publish: %w", terr)
	}
	if err != nil {
		p.hold(msg)
	}
	return err
}

func (p *RealPublisher) hold(msg bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(msg)
	first := dropped && p.buf.dropped == 1
	p.mu.Unlock()

	if first {
		p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", len(p.buf.buf))
	}
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	if !p.IsConnected() {
		p.hold(msg)
		p.log.Debugw("mqtt offline, message buffered", "topic", msg.topic)
		return nil
	}
	return p.send(msg)
}

// Publish sends a clock event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
