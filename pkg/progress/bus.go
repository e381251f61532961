package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicName is the in-process topic progress events are published on.
const TopicName = "extraction.progress"

// Event is a purely informational status update emitted while a pipeline
// runs. Consumers display it; it never affects control flow.
type Event struct {
	AttachmentID string    `json:"attachment_id"`
	Stage        string    `json:"stage"`
	Message      string    `json:"message"`
	At           time.Time `json:"at"`
}

// Sink receives progress events. Implementations must not block the
// pipeline for long; publishing is fire-and-forget from its perspective.
type Sink interface {
	Publish(event Event)
}

// NopSink discards all events. Used when the caller does not care about
// progress (library embedding, tests).
type NopSink struct{}

func (NopSink) Publish(Event) {}

// Bus is a Sink backed by a watermill gochannel pub/sub, so multiple
// consumers (HTTP pollers, CLI printers) can subscribe independently.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

func (b *Bus) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	// Ignore publish errors: a closed bus just drops status updates.
	_ = b.pubSub.Publish(TopicName, msg)
}

// Subscribe returns a channel of decoded events. The channel closes when
// ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubSub.Subscribe(ctx, TopicName)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
