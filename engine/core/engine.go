package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultTickRate is the fixed simulation rate in ticks per second
const DefaultTickRate = 20.0

// System is one simulation stage, run once per tick. Systems run in
// registration order, which is part of the deterministic contract.
type System interface {
	Name() string
	Update(tick uint64, dt float64)
}

// Engine drives the fixed-timestep simulation: drain scheduled commands,
// publish them, run every system, emit the tick event, advance the
// counter. All mutation happens on the goroutine calling Step; Submit is
// safe from anywhere.
type Engine struct {
	State *GameState
	Bus   *EventBus
	Queue *CommandQueue

	TickRate float64

	systems []System
	byName  map[string]System

	tick        atomic.Uint64
	accumulator float64

	recorder *ReplayRecorder
	logger   *slog.Logger
}

func NewEngine(state *GameState, tickRate float64, logger *slog.Logger) *Engine {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		State:    state,
		Bus:      state.Bus,
		Queue:    NewCommandQueue(),
		TickRate: tickRate,
		byName:   make(map[string]System),
		logger:   logger,
	}
}

// AddSystem registers a system at the end of the update order. Registering
// two systems under one name is a wiring bug.
func (e *Engine) AddSystem(s System) {
	if _, dup := e.byName[s.Name()]; dup {
		panic(fmt.Sprintf("engine: system %q registered twice", s.Name()))
	}
	e.systems = append(e.systems, s)
	e.byName[s.Name()] = s
}

// System returns a registered system by name. Asking for a system that was
// never registered is a wiring bug, not a runtime condition, so it panics.
func (e *Engine) System(name string) System {
	s, ok := e.byName[name]
	if !ok {
		panic(fmt.Sprintf("engine: unknown system %q", name))
	}
	return s
}

// Tick returns the next tick to be processed
func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

// DT returns the fixed per-tick timestep in seconds
func (e *Engine) DT() float64 {
	return 1.0 / e.TickRate
}

// SetRecorder attaches a replay recorder; every subsequently submitted
// command is written through after clamping.
func (e *Engine) SetRecorder(r *ReplayRecorder) {
	e.recorder = r
}

// Submit schedules a command. Commands aimed at the current or an already
// processed tick are moved to the next tick rather than dropped. Returns
// the tick the command will execute on.
func (e *Engine) Submit(cmd GameCommand) uint64 {
	if cur := e.tick.Load(); cmd.Tick <= cur {
		cmd.Tick = cur + 1
	}
	if e.recorder != nil {
		if err := e.recorder.Record(cmd); err != nil {
			e.logger.Error("replay record failed", "err", err)
		}
	}
	e.Queue.Add(cmd)
	return cmd.Tick
}

// Step runs exactly one simulation tick
func (e *Engine) Step() {
	t := e.tick.Load()
	e.Bus.SetTick(t)

	for _, cmd := range e.Queue.Drain(t) {
		e.Bus.Emit(EvtCommandReceived, CommandReceivedPayload{Command: cmd})
	}

	dt := e.DT()
	for _, s := range e.systems {
		s.Update(t, dt)
	}

	e.Bus.Emit(EvtTick, TickPayload{
		Units:     len(e.State.units),
		Buildings: len(e.State.buildings),
	})
	e.tick.Add(1)
}

// StepN runs n ticks back to back
func (e *Engine) StepN(n int) {
	for i := 0; i < n; i++ {
		e.Step()
	}
}

// Advance feeds wall-clock time into the fixed-timestep accumulator and
// runs however many whole ticks fit. Frame time is capped to avoid the
// spiral of death after a stall. Returns the number of ticks run.
func (e *Engine) Advance(elapsed time.Duration) int {
	frameTime := elapsed.Seconds()
	if frameTime > 0.25 {
		frameTime = 0.25
	}

	dt := e.DT()
	e.accumulator += frameTime

	steps := 0
	for e.accumulator >= dt {
		e.Step()
		e.accumulator -= dt
		steps++
	}
	return steps
}

// Run drives the simulation in real time until the context is cancelled
// or untilTick is reached (0 = run forever).
func (e *Engine) Run(ctx context.Context, untilTick uint64) error {
	interval := time.Duration(float64(time.Second) / e.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("engine running", "tick_rate", e.TickRate)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "tick", e.Tick())
			return ctx.Err()
		case now := <-ticker.C:
			e.Advance(now.Sub(last))
			last = now
			if untilTick > 0 && e.Tick() >= untilTick {
				e.logger.Info("engine finished", "tick", e.Tick())
				return nil
			}
		}
	}
}
