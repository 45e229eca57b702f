// Package events carries fire-and-forget side effects (such as comment
// notification emails) off the request path.
package events

import (
	"context"
	"fmt"
	"sync"

	"folio/app/logging"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// TopicCommentCreated is published after a comment is stored.
const TopicCommentCreated = "comment.created"

// CommentCreated is the payload of TopicCommentCreated
type CommentCreated struct {
	CommentID int64  `json:"commentId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	BlogURL   string `json:"blogUrl"`
}

// Handler processes one message payload. Errors are logged and the message
// is still acknowledged; delivery is at most once.
type Handler func(ctx context.Context, payload []byte) error

// Bus is an in-process publish/subscribe bus
type Bus struct {
	pubsub *gochannel.GoChannel
	wg     sync.WaitGroup
}

func NewBus() *Bus {
	logger := NewLoggerAdapter(logging.With().Str("component", "events").Logger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
	}
}

// Publish JSON-encodes payload and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe runs h for every message on topic until ctx is cancelled or the
// bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string, h Handler) error {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			msgCtx := logging.ContextWithRequestID(context.Background(), msg.Metadata.Get("request_id"))
			if err := h(msgCtx, msg.Payload); err != nil {
				logging.Ctx(msgCtx).Warn().Err(err).Str("topic", topic).Msg("event handler failed")
			}
			msg.Ack()
		}
	}()
	return nil
}

// Close stops delivery and waits for running handlers to return.
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
