package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/codyborn/agent-rts/engine/core"
)

// Topic carries every simulation event
const Topic = "game.events"

// Metadata keys set on every published message
const (
	metaKeyEventType = "event_type"
	metaKeyTick      = "tick"
)

// Envelope is the wire form of one simulation event
type Envelope struct {
	MessageID string    `json:"message_id"`
	Tick      uint64    `json:"tick"`
	Type      string    `json:"type"`
	EmittedAt time.Time `json:"emitted_at"`
	Payload   any       `json:"payload,omitempty"`
}

// Bridge forwards every simulation event onto a message publisher so
// observers (UIs, bots, recorders) can consume the game without touching
// the simulation. Publishing is fire and forget; a broken observer never
// stalls a tick.
type Bridge struct {
	pub    message.Publisher
	bus    *core.EventBus
	logger *slog.Logger
	subs   []core.Subscription
}

func NewBridge(pub message.Publisher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		pub:    pub,
		logger: logger.With("component", "observer"),
	}
}

// NewGoChannelPubSub builds the in-memory pub/sub the headless runner
// uses. Callers owning both ends pass it as publisher and subscriber.
func NewGoChannelPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
}

// Attach subscribes the bridge to every event type on the bus
func (br *Bridge) Attach(bus *core.EventBus) {
	br.bus = bus
	for _, t := range core.EventTypes() {
		br.subs = append(br.subs, bus.Subscribe(t, br.forward))
	}
}

// Detach unsubscribes from the bus; the publisher stays open
func (br *Bridge) Detach() {
	if br.bus == nil {
		return
	}
	for _, sub := range br.subs {
		br.bus.Unsubscribe(sub)
	}
	br.subs = nil
	br.bus = nil
}

func (br *Bridge) forward(e core.Event) {
	env := Envelope{
		MessageID: uuid.NewString(),
		Tick:      e.Tick,
		Type:      e.Type.String(),
		EmittedAt: e.Time,
		Payload:   e.Payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		br.logger.Error("encode event envelope", "type", env.Type, "err", err)
		return
	}

	msg := message.NewMessage(env.MessageID, body)
	msg.Metadata.Set(metaKeyEventType, env.Type)
	msg.Metadata.Set(metaKeyTick, strconv.FormatUint(e.Tick, 10))

	if err := br.pub.Publish(Topic, msg); err != nil {
		br.logger.Error("publish event", "type", env.Type, "err", err)
	}
}

// DecodeEnvelope parses a consumed message. The payload comes back as
// decoded JSON; consumers that care about its shape switch on Type.
func DecodeEnvelope(msg *message.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope %s: %w", msg.UUID, err)
	}
	return env, nil
}

// Consume subscribes to the event topic and feeds every envelope to the
// handler until the context ends. It returns once the subscription is
// live; handling runs in the background.
func Consume(ctx context.Context, sub message.Subscriber, handler func(Envelope)) error {
	messages, err := sub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Topic, err)
	}

	go func() {
		for msg := range messages {
			env, err := DecodeEnvelope(msg)
			if err != nil {
				slog.Error("drop malformed envelope", "msg_id", msg.UUID, "err", err)
				msg.Ack()
				continue
			}
			handler(env)
			msg.Ack()
		}
	}()

	return nil
}
