package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriberBuffer is how many undelivered messages a subscription holds
// before it starts dropping.
const subscriberBuffer = 64

func connect(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	all := append([]nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts...)
	nc, err := nats.Connect(url, all...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes canvas events as JSON on NATS subjects named after
// their topic. The canvas id travels in CanvasHeader.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := connect(url, "fundrazor-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	if ce, ok := event.(canvasEvent); ok && ce.canvasRef() != "" {
		msg.Header.Set(CanvasHeader, ce.canvasRef())
	}
	return p.conn.PublishMsg(msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers canvas events from NATS. It reconnects forever;
// pass nats.DisconnectErrHandler / nats.ReconnectHandler options to observe
// connection changes.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to the NATS server at url.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "fundrazor-subscriber", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// subscription forwards NATS messages to a buffered channel. A slow reader
// loses messages instead of stalling the NATS client.
type subscription struct {
	mu     sync.Mutex
	ch     chan Message
	sub    *nats.Subscription
	closed bool
}

func (s *subscription) deliver(msg *nats.Msg) {
	m := Message{Topic: msg.Subject, Data: msg.Data}
	if msg.Header != nil {
		m.CanvasID = msg.Header.Get(CanvasHeader)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- m:
	default:
	}
}

func (s *subscription) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.sub.Unsubscribe()
	close(s.ch)
}

func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	sub := &subscription{ch: make(chan Message, subscriberBuffer)}
	ns, err := s.conn.Subscribe(topic, sub.deliver)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	sub.sub = ns
	// Make sure the server has the interest registered before returning, or
	// events published right after Subscribe can be missed.
	if err := s.conn.Flush(); err != nil {
		_ = ns.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	return sub.ch, sub.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
