package ai

import (
	"context"
	"sync"
)

// PlanResult is one finished plan waiting to be collected
type PlanResult struct {
	Plans []DirectivePlan
	Err   error
}

// StrategicCommander plans directives for one local player's whole army
// in a single batched decision. It evaluates on a fixed interval, and
// player commands can request an earlier evaluation, still rate limited
// by a minimum gap so a burst of clicks does not become a burst of calls.
type StrategicCommander struct {
	client      Client
	playerID    int
	interval    uint64
	minGap      uint64
	synchronous bool

	mu        sync.Mutex
	inflight  bool
	pending   *PlanResult
	requested bool
	everRan   bool
	lastEval  uint64
}

func NewStrategicCommander(client Client, playerID int, interval, minGap uint64, synchronous bool) *StrategicCommander {
	if interval == 0 {
		interval = 1
	}
	return &StrategicCommander{
		client:      client,
		playerID:    playerID,
		interval:    interval,
		minGap:      minGap,
		synchronous: synchronous,
	}
}

// PlayerID identifies the army this commander plans for
func (c *StrategicCommander) PlayerID() int { return c.playerID }

// RequestEvaluation asks for a plan sooner than the regular interval.
// Requests coalesce; the next Due check honors them once the gap allows.
func (c *StrategicCommander) RequestEvaluation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requested = true
}

// Due reports whether the commander should plan this tick
func (c *StrategicCommander) Due(tick uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight || c.pending != nil {
		return false
	}
	if !c.everRan {
		return true
	}
	if c.requested && tick >= c.lastEval+c.minGap {
		return true
	}
	return tick >= c.lastEval+c.interval
}

// Plan launches one batched evaluation
func (c *StrategicCommander) Plan(p CommandPerception, tick uint64) {
	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return
	}
	c.inflight = true
	c.requested = false
	c.everRan = true
	c.lastEval = tick
	c.mu.Unlock()

	if c.synchronous {
		plans, err := c.client.PlanDirectives(context.Background(), p)
		c.deliver(plans, err)
		return
	}

	go func() {
		plans, err := c.client.PlanDirectives(context.Background(), p)
		c.deliver(plans, err)
	}()
}

func (c *StrategicCommander) deliver(plans []DirectivePlan, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inflight {
		return
	}
	c.inflight = false
	c.pending = &PlanResult{Plans: plans, Err: err}
}

// Collect pops the finished plan, if one is waiting
func (c *StrategicCommander) Collect() (PlanResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PlanResult{}, false
	}
	r := *c.pending
	c.pending = nil
	return r, true
}
