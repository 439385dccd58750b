package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/systems"
)

// Options tunes the decision layer's cadence, in ticks
type Options struct {
	// BrainInterval is the minimum gap between two decisions for the
	// same unit.
	BrainInterval uint64
	// CommandInterval is the regular gap between commander evaluations.
	CommandInterval uint64
	// CommandMinGap bounds how soon a player command can force an early
	// evaluation.
	CommandMinGap uint64
	// RateLimitCooldown is the pause after a rate limit response that
	// carried no retry hint.
	RateLimitCooldown uint64
	// MessageMemory caps how many recent communications perceptions
	// carry.
	MessageMemory int
	// Synchronous makes every decision call inline. Local clients run
	// this way so runs replay identically.
	Synchronous bool
}

// DefaultOptions paces decisions for the standard 20Hz tick rate
func DefaultOptions() Options {
	return Options{
		BrainInterval:     40,
		CommandInterval:   100,
		CommandMinGap:     40,
		RateLimitCooldown: 200,
		MessageMemory:     20,
	}
}

// AISystem is the decision layer. Units of autonomous players think for
// themselves through per-unit brains; units of local players follow
// directives planned by a per-player strategic commander and carried out
// by the executor. It must run after every simulation system so decisions
// see the tick's settled state.
type AISystem struct {
	state  *core.GameState
	defs   *systems.Defs
	bus    *core.EventBus
	opts   Options
	logger *slog.Logger

	tickRate float64

	brain      *UnitBrain
	executor   *DirectiveExecutor
	commanders map[int]*StrategicCommander
	client     Client

	// endpoint health, shared across brains and commanders
	disabled      bool
	cooldownUntil uint64

	messages []Message

	subs []core.Subscription
}

func NewAISystem(state *core.GameState, defs *systems.Defs, client Client, tickRate float64, opts Options, logger *slog.Logger) *AISystem {
	if logger == nil {
		logger = slog.Default()
	}
	if tickRate <= 0 {
		tickRate = core.DefaultTickRate
	}
	return &AISystem{
		state:      state,
		defs:       defs,
		opts:       opts,
		logger:     logger.With("system", "ai"),
		tickRate:   tickRate,
		brain:      NewUnitBrain(client, opts.BrainInterval, opts.Synchronous),
		executor:   NewDirectiveExecutor(state, defs),
		commanders: make(map[int]*StrategicCommander),
		client:     client,
	}
}

func (s *AISystem) Name() string { return "ai" }

// Executor exposes the directive table for perception building and tests
func (s *AISystem) Executor() *DirectiveExecutor { return s.executor }

// Attach wires the decision layer into the event bus: player commands
// supersede directives and request re-planning, destroyed units are
// forgotten, proximity sightings wake moving units, and communications
// feed the shared message memory.
func (s *AISystem) Attach(bus *core.EventBus) {
	s.bus = bus
	s.subs = append(s.subs,
		bus.Subscribe(core.EvtCommandReceived, s.onCommand),
		bus.Subscribe(core.EvtUnitDestroyed, s.onUnitDestroyed),
		bus.Subscribe(core.EvtResourceNearby, s.executor.HandleProximity),
		bus.Subscribe(core.EvtEnemyNearby, s.executor.HandleProximity),
		bus.Subscribe(core.EvtUnitCommunication, s.onCommunication),
	)
}

// Detach removes the bus subscriptions
func (s *AISystem) Detach() {
	if s.bus == nil {
		return
	}
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *AISystem) onCommand(e core.Event) {
	p, ok := e.Payload.(core.CommandReceivedPayload)
	if !ok {
		return
	}
	player := s.state.Player(p.Command.PlayerID)
	if player == nil || !player.IsLocal {
		return
	}
	// The player spoke for these units directly; their directives yield.
	for _, id := range p.Command.TargetUnitIDs {
		s.executor.Supersede(id)
	}
	if c, ok := s.commanders[player.ID]; ok {
		c.RequestEvaluation()
	}
}

func (s *AISystem) onUnitDestroyed(e core.Event) {
	p, ok := e.Payload.(core.UnitDestroyedPayload)
	if !ok {
		return
	}
	s.brain.Discard(p.UnitID)
	s.executor.Remove(p.UnitID)
}

func (s *AISystem) onCommunication(e core.Event) {
	p, ok := e.Payload.(core.UnitCommunicationPayload)
	if !ok {
		return
	}
	s.messages = append(s.messages, Message{
		Tick:     e.Tick,
		UnitID:   p.UnitID,
		PlayerID: p.PlayerID,
		Text:     p.Message,
	})
	if max := s.opts.MessageMemory; max > 0 && len(s.messages) > max {
		s.messages = s.messages[len(s.messages)-max:]
	}
}

// Update runs one decision pass: deliver finished unit decisions, launch
// the next round of thinks, deliver and launch commander plans, then let
// the executor drive directive holders.
func (s *AISystem) Update(tick uint64, dt float64) {
	s.collectBrainResults(tick)
	s.scheduleThinks(tick)
	s.runCommanders(tick)
	s.runExecutor(tick)
}

func (s *AISystem) decisionsAllowed(tick uint64) bool {
	return s.client != nil && !s.disabled && tick >= s.cooldownUntil
}

func (s *AISystem) collectBrainResults(tick uint64) {
	for _, u := range s.state.Units() {
		if !s.autonomous(u) {
			continue
		}
		r, ok := s.brain.Collect(u.ID)
		if !ok {
			continue
		}
		if r.Err != nil {
			s.classify(r.Err, tick, "unit", uint64(u.ID))
			continue
		}
		s.applyAction(u, r.Action, tick)
	}
}

func (s *AISystem) scheduleThinks(tick uint64) {
	if !s.decisionsAllowed(tick) {
		return
	}
	for _, u := range s.state.Units() {
		if !s.autonomous(u) || !receptive(u) {
			continue
		}
		if !s.brain.Due(u.ID, tick) {
			continue
		}
		directive := ""
		if d := s.executor.Directive(u.ID); d != nil && d.Active(tick) {
			directive = string(d.Type)
		}
		s.brain.Think(BuildUnitPerception(s.state, u, directive, s.messages, tick), tick)
	}
}

func (s *AISystem) runCommanders(tick uint64) {
	for _, p := range s.state.Players() {
		if !p.IsLocal || p.Defeated {
			continue
		}
		c := s.commander(p.ID)

		if r, ok := c.Collect(); ok {
			if r.Err != nil {
				s.classify(r.Err, tick, "player", uint64(p.ID))
			} else {
				s.installPlans(r.Plans, tick)
			}
		}

		if s.decisionsAllowed(tick) && c.Due(tick) {
			c.Plan(BuildCommandPerception(s.state, p.ID, s.executor, s.messages, tick), tick)
		}
	}
}

func (s *AISystem) commander(playerID int) *StrategicCommander {
	if c, ok := s.commanders[playerID]; ok {
		return c
	}
	c := NewStrategicCommander(s.client, playerID, s.opts.CommandInterval, s.opts.CommandMinGap, s.opts.Synchronous)
	s.commanders[playerID] = c
	return c
}

func (s *AISystem) installPlans(plans []DirectivePlan, tick uint64) {
	for _, plan := range plans {
		if !plan.Type.Valid() {
			s.logger.Warn("dropping unknown directive", "type", plan.Type, "unit", plan.UnitID)
			continue
		}
		u := s.state.Unit(plan.UnitID)
		if u == nil || !u.Alive() {
			continue
		}
		d := NewDirective(plan, tick)
		s.executor.Set(d)
		u.AddLog(tick, fmt.Sprintf("assigned directive %s", d.Type))
		if s.bus != nil {
			s.bus.Emit(core.EvtDirectiveIssued, core.DirectiveIssuedPayload{
				DirectiveID: d.ID,
				UnitID:      d.UnitID,
				Directive:   string(d.Type),
				Priority:    d.Priority,
				TTL:         d.TTL,
			})
		}
	}
}

func (s *AISystem) runExecutor(tick uint64) {
	for _, p := range s.state.Players() {
		if !p.IsLocal || p.Defeated {
			continue
		}
		for _, u := range s.state.UnitsForPlayer(p.ID) {
			if u.Alive() {
				s.executor.ExecuteUnit(u, tick)
			}
		}
	}
}

// autonomous units belong to non-local, undefeated players and decide for
// themselves.
func (s *AISystem) autonomous(u *core.Unit) bool {
	if !u.Alive() {
		return false
	}
	p := s.state.Player(u.PlayerID)
	return p != nil && !p.IsLocal && !p.Defeated
}

// receptive states are the only ones a new decision may interrupt
func receptive(u *core.Unit) bool {
	return u.State == core.StateIdle || u.State == core.StateMoving
}

// applyAction turns a brain decision into unit orders. The unit may have
// entered a busy state while the decision was in flight; if so the result
// is stale and dropped.
func (s *AISystem) applyAction(u *core.Unit, act Action, tick uint64) {
	if !receptive(u) {
		s.logger.Debug("dropping stale decision", "unit", u.ID, "state", u.State.String(), "action", act.Type)
		return
	}
	if act.Reasoning != "" {
		u.LastThought = act.Reasoning
	}

	applied := false
	switch act.Type {
	case ActionIdle:
		systems.OrderStop(u)
		applied = true
	case ActionMove:
		if act.TargetPos != nil {
			applied = systems.OrderMove(s.state, u, *act.TargetPos)
		}
	case ActionAttack:
		if act.TargetUnitID != 0 {
			applied = systems.OrderAttackUnit(s.state, u, act.TargetUnitID)
		}
	case ActionGather:
		applied = s.applyGather(u, act)
	case ActionBuild:
		applied = s.applyBuild(u, act)
	case ActionCommunicate:
		applied = s.applyCommunicate(u, act)
	}

	if applied {
		u.AddLog(tick, fmt.Sprintf("decided to %s", act.Type))
	}
}

func (s *AISystem) applyGather(u *core.Unit, act Action) bool {
	target := act.TargetPos
	if target == nil {
		pos, _, ok := s.state.NearestResourceTile(u.Pos, s.state.Fog(u.PlayerID))
		if !ok {
			return false
		}
		target = &pos
	}
	return systems.OrderGather(s.state, u, *target)
}

func (s *AISystem) applyBuild(u *core.Unit, act Action) bool {
	if act.BuildingType == "" || act.TargetPos == nil {
		return false
	}
	return systems.OrderBuild(s.state, s.defs, u, act.BuildingType, *act.TargetPos)
}

// applyCommunicate broadcasts on the bus at energy cost; the unit's
// simulation state is untouched.
func (s *AISystem) applyCommunicate(u *core.Unit, act Action) bool {
	if act.Message == "" {
		return false
	}
	if !u.UseEnergy(systems.CommunicateEnergyCost) {
		return false
	}
	if s.bus != nil {
		s.bus.Emit(core.EvtUnitCommunication, core.UnitCommunicationPayload{
			UnitID:   u.ID,
			PlayerID: u.PlayerID,
			Message:  act.Message,
		})
	}
	return true
}

// classify sorts an endpoint error into the recovery buckets: transient
// failures retry on the next cycle, rate limits pause all traffic,
// permanent failures disable the endpoint for the rest of the game.
func (s *AISystem) classify(err error, tick uint64, scope string, id uint64) {
	var rateLimited *RateLimitError
	var permanent *PermanentError

	switch {
	case errors.Is(err, ErrDecisionDisabled):
		if !s.disabled {
			s.logger.Info("decision endpoint not configured, decisions off")
		}
		s.disabled = true
	case errors.As(err, &rateLimited):
		cooldown := s.ticksFor(rateLimited.RetryAfter)
		until := tick + cooldown
		if until > s.cooldownUntil {
			s.cooldownUntil = until
		}
		s.logger.Warn("decision endpoint rate limited",
			"retry_after", rateLimited.RetryAfter, "resume_tick", s.cooldownUntil)
	case errors.As(err, &permanent):
		s.disabled = true
		s.logger.Error("decision endpoint disabled", "reason", permanent.Reason)
	default:
		s.logger.Warn("decision failed, will retry", "scope", scope, "id", id, "err", err)
	}
}

// ticksFor converts a wall-clock pause into simulation ticks
func (s *AISystem) ticksFor(d time.Duration) uint64 {
	if d <= 0 {
		return s.opts.RateLimitCooldown
	}
	ticks := uint64(d.Seconds() * s.tickRate)
	if ticks == 0 {
		ticks = 1
	}
	return ticks
}
