package events

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func newTestBus(t *testing.T) (*NATSPublisher, *NATSSubscriber) {
	t.Helper()
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })
	return pub, sub
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNATSSubscriber_MessageCarriesTopicAndCanvas(t *testing.T) {
	pub, sub := newTestBus(t)

	ch, cancel, err := sub.Subscribe(TopicCanvasAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	if err := pub.Publish(context.Background(), TopicCanvasDeleted, CanvasDeleted{CanvasID: "cv-gone"}); err != nil {
		t.Fatalf("publishing: %v", err)
	}

	m := receive(t, ch)
	if m.Topic != TopicCanvasDeleted {
		t.Errorf("topic = %q, want %q", m.Topic, TopicCanvasDeleted)
	}
	if m.CanvasID != "cv-gone" {
		t.Errorf("canvas = %q, want cv-gone", m.CanvasID)
	}
	if id, err := CanvasIDOf(m.Data); err != nil || id != "cv-gone" {
		t.Errorf("CanvasIDOf(%s) = %q, %v", m.Data, id, err)
	}
}

func TestNATSSubscriber_RawPublishHasNoCanvasHeader(t *testing.T) {
	pub, sub := newTestBus(t)

	ch, cancel, err := sub.Subscribe(TopicCanvasAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	topics := []string{TopicCanvasCreated, TopicCanvasUpdated, TopicCanvasRenamed}
	for _, topic := range topics {
		if err := pub.conn.Publish(topic, []byte(`{"canvasId":"cv-raw"}`)); err != nil {
			t.Fatalf("publishing to %s: %v", topic, err)
		}
	}

	for _, want := range topics {
		m := receive(t, ch)
		if m.Topic != want {
			t.Errorf("topic = %q, want %q", m.Topic, want)
		}
		if m.CanvasID != "" {
			t.Errorf("expected no canvas header, got %q", m.CanvasID)
		}
	}
}

func TestNATSSubscriber_ExactTopic(t *testing.T) {
	pub, sub := newTestBus(t)

	ch, cancel, err := sub.Subscribe(TopicCanvasRenamed)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	_ = pub.Publish(ctx, TopicCanvasDeleted, CanvasDeleted{CanvasID: "cv-1"})
	_ = pub.Publish(ctx, TopicCanvasRenamed, CanvasRenamed{Changes: map[string]any{"name": "x"}})

	if m := receive(t, ch); m.Topic != TopicCanvasRenamed {
		t.Errorf("got %q, only renamed should match", m.Topic)
	}
}

func TestNATSSubscriber_CancelClosesChannel(t *testing.T) {
	pub, sub := newTestBus(t)

	ch, cancel, err := sub.Subscribe(TopicCanvasAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = pub.conn.Publish(TopicCanvasCreated, []byte(`{"canvasId":"cv-x"}`))
		}
		pub.conn.Flush()
	}()

	// Cancel while messages are in flight, twice: neither may panic.
	cancel()
	cancel()
	<-done

	for range ch {
	}
}

func TestNATSSubscriber_Options(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url,
		nats.ReconnectHandler(func(*nats.Conn) {}),
		nats.DisconnectErrHandler(func(*nats.Conn, error) {}),
	)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	if !sub.conn.IsConnected() {
		t.Fatal("expected subscriber to be connected")
	}
	var _ Subscriber = sub
}
