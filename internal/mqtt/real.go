package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/power-sensor/internal/logic"
)

// bufferCapacity bounds how many messages are kept while the broker is away.
const bufferCapacity = 64

const publishTimeout = 5 * time.Second

// brokerClient is the part of paho.Client the publisher uses.
type brokerClient interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed, oldest first, on reconnect.
type RealPublisher struct {
	client brokerClient
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // set after the first successful connection
}

// NewRealPublisher creates a publisher for the given broker. It waits up to
// connectWait for the first connection; if the broker is not reachable yet
// the client keeps retrying in the background and messages are buffered.
func NewRealPublisher(broker string, connectWait time.Duration, now func() time.Time, log *zap.Logger) *RealPublisher {
	p := &RealPublisher{
		log: log,
		now: now,
		buf: newRingBuffer(bufferCapacity, log),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: now(),
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("power-sensor-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})

	client := paho.NewClient(opts)
	p.client = client
	token := client.Connect()
	if !token.WaitTimeout(connectWait) {
		log.Warn("mqtt broker not reachable yet, buffering", zap.String("broker", broker))
	} else if err := token.Error(); err != nil {
		log.Warn("mqtt connect failed, retrying in background", zap.String("broker", broker), zap.Error(err))
	}
	return p
}

// onConnect runs on the paho goroutine after every (re)connection.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.resume(c)
}

// resume replays buffered messages through c.
func (p *RealPublisher) resume(c brokerClient) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	p.log.Info("mqtt connected", zap.Int("replaying", len(pending)))
	for _, m := range pending {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			p.log.Warn("mqtt replay failed", zap.String("topic", m.topic), zap.Error(token.Error()))
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: EventReconnected})
		c.Publish(TopicSystem, 1, false, payload)
	}
}

// Publish sends a power transition to the MQTT broker.
// Transitions are retained so late subscribers see the current line state.
func (p *RealPublisher) Publish(t logic.Transition) error {
	payload, err := FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(bufferedMsg{topic: Topic, payload: payload, qos: 1, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(m bufferedMsg) error {
	// The check and the push share the lock with resume's drain, so a
	// message is either replayed by resume or sent here.
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
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
