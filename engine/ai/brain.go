package ai

import (
	"context"
	"sync"

	"github.com/codyborn/agent-rts/engine/core"
)

// Result is one finished decision waiting in a unit's mailbox
type Result struct {
	Action Action
	Err    error
}

// UnitBrain schedules decisions for individual units. Each unit thinks at
// most once per interval and has at most one request in flight; finished
// results wait in a per-unit mailbox until the simulation collects them
// at the start of a tick, so decisions land between ticks, never during
// one.
//
// In synchronous mode the client is called inline and the result is
// mailboxed immediately. Local clients run that way so identical inputs
// replay identically; network clients run on goroutines instead.
type UnitBrain struct {
	client      Client
	interval    uint64
	synchronous bool

	mu       sync.Mutex
	inflight map[core.UnitID]bool
	mailbox  map[core.UnitID]Result
	nextEval map[core.UnitID]uint64
}

func NewUnitBrain(client Client, interval uint64, synchronous bool) *UnitBrain {
	if interval == 0 {
		interval = 1
	}
	return &UnitBrain{
		client:      client,
		interval:    interval,
		synchronous: synchronous,
		inflight:    make(map[core.UnitID]bool),
		mailbox:     make(map[core.UnitID]Result),
		nextEval:    make(map[core.UnitID]uint64),
	}
}

// Due reports whether the unit should think this tick
func (b *UnitBrain) Due(id core.UnitID, tick uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight[id] {
		return false
	}
	if _, ok := b.mailbox[id]; ok {
		return false
	}
	return tick >= b.nextEval[id]
}

// Think launches one decision for the unit in the perception. Duplicate
// launches while a request is out are dropped.
func (b *UnitBrain) Think(p UnitPerception, tick uint64) {
	id := p.Self.ID

	b.mu.Lock()
	if b.inflight[id] {
		b.mu.Unlock()
		return
	}
	b.inflight[id] = true
	b.nextEval[id] = tick + b.interval
	b.mu.Unlock()

	if b.synchronous {
		action, err := b.client.DecideAction(context.Background(), p)
		b.deliver(id, Result{Action: action, Err: err})
		return
	}

	go func() {
		action, err := b.client.DecideAction(context.Background(), p)
		b.deliver(id, Result{Action: action, Err: err})
	}()
}

// deliver mailboxes a finished decision unless the unit was discarded
// while the request was out, in which case the result is dropped.
func (b *UnitBrain) deliver(id core.UnitID, r Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inflight[id] {
		return
	}
	delete(b.inflight, id)
	b.mailbox[id] = r
}

// Collect pops the unit's mailbox
func (b *UnitBrain) Collect(id core.UnitID) (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.mailbox[id]
	if !ok {
		return Result{}, false
	}
	delete(b.mailbox, id)
	return r, true
}

// Discard forgets the unit. Any in-flight request keeps running but its
// result is thrown away on delivery.
func (b *UnitBrain) Discard(id core.UnitID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, id)
	delete(b.mailbox, id)
	delete(b.nextEval, id)
}
