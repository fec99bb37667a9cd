package mqtt

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/garage-controller/internal/logic"
)

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 100

const publishTimeout = 5 * time.Second

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Prefix     string
	BufferSize int
	// OnCall receives calls published on the functions topic. Nil disables
	// the subscription.
	OnCall CallHandler
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are kept in a ring buffer and replayed, oldest
// first, when it comes back.
type RealPublisher struct {
	client paho.Client
	topics Topics
	onCall CallHandler

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher and starts connecting to the broker in
// the background. It does not wait for the connection: until it is up,
// messages are buffered.
func NewRealPublisher(opts Options) *RealPublisher {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	p := &RealPublisher{
		topics: NewTopics(opts.Prefix),
		onCall: opts.OnCall,
		buffer: newRingBuffer(opts.BufferSize),
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetKeepAlive(30*time.Second).
		SetMaxReconnectInterval(2*time.Minute).
		SetBinaryWill(p.topics.System(), willPayload(time.Now()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(clientOpts)
	p.client.Connect()
	return p
}

// onConnect runs on every (re)connection: it restores the subscription and
// replays the buffer.
func (p *RealPublisher) onConnect(c paho.Client) {
	log.Printf("mqtt: connected")

	if p.onCall != nil {
		token := c.Subscribe(p.topics.Functions(), 1, p.handleCall)
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt: subscribe %s: timeout", p.topics.Functions())
		} else if err := token.Error(); err != nil {
			log.Printf("mqtt: subscribe %s: %v", p.topics.Functions(), err)
		}
	}

	p.mu.Lock()
	pending, dropped := p.buffer.drainAll()
	p.mu.Unlock()
	if dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", dropped)
	}
	if len(pending) > 0 {
		log.Printf("mqtt: replaying %d buffered messages", len(pending))
	}
	for _, msg := range pending {
		if err := p.send(msg); err != nil {
			log.Printf("mqtt: replay %s: %v", msg.topic, err)
		}
	}
}

func (p *RealPublisher) handleCall(_ paho.Client, msg paho.Message) {
	fn, ok := p.topics.ParseFunction(msg.Topic())
	if !ok {
		return
	}
	// A retained call would be replayed by the broker on every reconnect.
	if msg.Retained() {
		log.Printf("mqtt: ignoring retained call on %s", msg.Topic())
		return
	}
	p.onCall(fn, string(msg.Payload()))
}

// willPayload is the OFFLINE system message the broker publishes when the
// connection drops without a disconnect.
func willPayload(now time.Time) []byte {
	will, err := FormatSystemPayload(SystemEvent{Timestamp: now, Event: "OFFLINE"})
	if err != nil {
		log.Printf("mqtt: format will: %v", err)
		return []byte(`{"system":{"event":"OFFLINE"}}`)
	}
	return will
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends an audit event: the raw payload on the per-name topic and the
// JSON envelope on the events topic.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := p.publish(bufferedMsg{topic: p.topics.Event(event.Name), payload: []byte(event.Payload), qos: 1}); err != nil {
		return err
	}
	return p.publish(bufferedMsg{topic: p.topics.Events(), payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - lifecycle events should be delivered
	return p.publish(bufferedMsg{topic: p.topics.System(), payload: payload, qos: 1, retained: event.Retained})
}

// PublishVariable sends the retained value of a variable.
func (p *RealPublisher) PublishVariable(name string, value int) error {
	return p.publish(bufferedMsg{topic: p.topics.Variable(name), payload: []byte(strconv.Itoa(value)), qos: 1, retained: true})
}

// PublishResult sends the result of a remote call.
func (p *RealPublisher) PublishResult(result CallResult) error {
	payload, err := FormatResult(result)
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.FunctionResult(result.Function), payload: payload})
}

// publish sends msg, or buffers it when the connection is down or the send
// fails.
func (p *RealPublisher) publish(msg bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buffer.push(msg)
		p.mu.Unlock()
		return nil
	}
	if err := p.send(msg); err != nil {
		p.mu.Lock()
		p.buffer.push(msg)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if n := p.Buffered(); n > 0 {
		log.Printf("mqtt: discarding %d buffered messages on close", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
