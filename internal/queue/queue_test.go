package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu     sync.Mutex
	fail   bool
	sent   chan amqp.Publishing
	keys   []string
	closed int
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection reset")
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.sent <- msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func TestPublisherRoutesByKind(t *testing.T) {
	fc := &fakeChannel{sent: make(chan amqp.Publishing, 1)}
	p := NewPublisher("amqp://unused", nil)
	p.dial = func(string) (channel, func(), error) { return fc, func() {}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Notify(ctx, Notification{Kind: KindMessageReceived, UserID: 5, TargetType: "message", TargetID: 9})

	select {
	case msg := <-fc.sent:
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
		var n Notification
		require.NoError(t, json.Unmarshal(msg.Body, &n))
		assert.Equal(t, uint64(5), n.UserID)
		assert.False(t, n.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("notification not published")
	}
	fc.mu.Lock()
	assert.Equal(t, []string{"notifications/message.received"}, fc.keys)
	fc.mu.Unlock()
}

func TestPublisherRedialsAfterFailure(t *testing.T) {
	broken := &fakeChannel{fail: true, sent: make(chan amqp.Publishing, 1)}
	healthy := &fakeChannel{sent: make(chan amqp.Publishing, 1)}
	var dials int
	p := NewPublisher("amqp://unused", nil)
	p.dial = func(string) (channel, func(), error) {
		dials++
		if dials == 1 {
			return broken, func() {}, nil
		}
		return healthy, func() {}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Notify(ctx, Notification{Kind: KindListingModerated, UserID: 1})
	p.Notify(ctx, Notification{Kind: KindListingModerated, UserID: 2})

	select {
	case msg := <-healthy.sent:
		var n Notification
		require.NoError(t, json.Unmarshal(msg.Body, &n))
		assert.Equal(t, uint64(2), n.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("second notification not published")
	}
}

func TestNotifyDropsWhenBufferFull(t *testing.T) {
	p := NewPublisher("amqp://unused", nil)
	p.buf = make(chan Notification, 1)
	p.Notify(context.Background(), Notification{Kind: KindReplyPosted, UserID: 1})
	assert.NotPanics(t, func() {
		p.Notify(context.Background(), Notification{Kind: KindReplyPosted, UserID: 2})
	})
	assert.Len(t, p.buf, 1)
}

func TestConsumerHandleAppendsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifications.log")
	c := &Consumer{LogPath: path}
	n := Notification{Kind: KindApplicationDecided, UserID: 3, Subject: "Application approved",
		TargetType: "seller_application", TargetID: 12, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	body, err := json.Marshal(n)
	require.NoError(t, err)

	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `[2025-01-02T03:04:05Z] application.decided | user_id=3 | seller_application=12 | subject="Application approved"` + "\n"
	assert.Equal(t, want+want, string(data))
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
	c := &Consumer{LogPath: filepath.Join(t.TempDir(), "n.log")}
	assert.Error(t, c.Handle([]byte("{not json")))
	assert.Error(t, c.Handle([]byte(`{"kind":""}`)))
}
