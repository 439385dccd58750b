package observer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
)

func TestBridgeForwardsBusEvents(t *testing.T) {
	ps := NewGoChannelPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := ps.Subscribe(ctx, Topic)
	require.NoError(t, err)

	bus := core.NewEventBus()
	br := NewBridge(ps, nil)
	br.Attach(bus)

	bus.SetTick(9)
	bus.Emit(core.EvtUnitSpawned, core.UnitSpawnedPayload{
		UnitID:   4,
		PlayerID: 1,
		UnitType: core.UnitMarine,
		Pos:      core.GridPosition{Col: 3, Row: 5},
	})

	var msg *message.Message
	select {
	case msg = <-msgs:
	case <-time.After(2 * time.Second):
		t.Fatal("no message forwarded")
	}
	msg.Ack()

	assert.Equal(t, "UNIT_SPAWNED", msg.Metadata.Get(metaKeyEventType))
	assert.Equal(t, "9", msg.Metadata.Get(metaKeyTick))

	env, err := DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, "UNIT_SPAWNED", env.Type)
	assert.Equal(t, uint64(9), env.Tick)
	assert.Equal(t, msg.UUID, env.MessageID)
	assert.False(t, env.EmittedAt.IsZero())

	pay, ok := env.Payload.(map[string]any)
	require.True(t, ok, "payload should decode as an object")
	assert.Equal(t, float64(4), pay["unit_id"])
	assert.Equal(t, "marine", pay["unit_type"])
}

func TestConsumeFeedsHandler(t *testing.T) {
	ps := NewGoChannelPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Envelope
	err := Consume(ctx, ps, func(env Envelope) {
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
	})
	require.NoError(t, err)

	bus := core.NewEventBus()
	br := NewBridge(ps, nil)
	br.Attach(bus)

	bus.SetTick(1)
	bus.Emit(core.EvtTick, core.TickPayload{Units: 2, Buildings: 1})
	bus.SetTick(2)
	bus.Emit(core.EvtTick, core.TickPayload{Units: 2, Buildings: 1})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	ticks := []uint64{got[0].Tick, got[1].Tick}
	assert.ElementsMatch(t, []uint64{1, 2}, ticks)
	for _, env := range got {
		assert.Equal(t, "TICK", env.Type)
	}
}

func TestDetachStopsForwarding(t *testing.T) {
	ps := NewGoChannelPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := ps.Subscribe(ctx, Topic)
	require.NoError(t, err)

	bus := core.NewEventBus()
	br := NewBridge(ps, nil)
	br.Attach(bus)

	bus.SetTick(1)
	bus.Emit(core.EvtTick, core.TickPayload{Units: 1})

	select {
	case msg := <-msgs:
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no message before detach")
	}

	br.Detach()

	bus.SetTick(2)
	bus.Emit(core.EvtTick, core.TickPayload{Units: 1})

	select {
	case <-msgs:
		t.Fatal("event forwarded after detach")
	case <-time.After(150 * time.Millisecond):
	}

	// Detaching an unattached bridge is harmless.
	NewBridge(ps, nil).Detach()
}

func TestConsumeSkipsMalformedMessages(t *testing.T) {
	ps := NewGoChannelPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Envelope
	err := Consume(ctx, ps, func(env Envelope) {
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, ps.Publish(Topic, message.NewMessage(watermill.NewUUID(), []byte("{broken"))))

	bus := core.NewEventBus()
	br := NewBridge(ps, nil)
	br.Attach(bus)
	bus.SetTick(3)
	bus.Emit(core.EvtTick, core.TickPayload{Units: 1})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "TICK", got[0].Type)
	assert.Equal(t, uint64(3), got[0].Tick)
	mu.Unlock()

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 1
	}, 250*time.Millisecond, 25*time.Millisecond)
}
