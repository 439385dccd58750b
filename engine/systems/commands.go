package systems

import (
	"log/slog"

	"github.com/codyborn/agent-rts/engine/core"
)

// CommandApplier turns published commands into state mutations. The engine
// emits every drained command as COMMAND_RECEIVED; the applier handles
// them synchronously during that emit, so commands apply exactly once, in
// drain order, before any system runs. Commands referencing units or
// buildings the player does not own (or that no longer exist) are dropped
// silently.
type CommandApplier struct {
	state *core.GameState
	defs  *Defs
	log   *slog.Logger
	sub   core.Subscription
}

func NewCommandApplier(state *core.GameState, defs *Defs, logger *slog.Logger) *CommandApplier {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandApplier{state: state, defs: defs, log: logger}
}

// Attach subscribes the applier to the command stream
func (a *CommandApplier) Attach(bus *core.EventBus) {
	a.sub = bus.Subscribe(core.EvtCommandReceived, a.handle)
}

// Detach unsubscribes the applier
func (a *CommandApplier) Detach(bus *core.EventBus) {
	bus.Unsubscribe(a.sub)
}

func (a *CommandApplier) handle(e core.Event) {
	p, ok := e.Payload.(core.CommandReceivedPayload)
	if !ok {
		return
	}
	cmd := p.Command
	a.log.Debug("apply command", "type", cmd.Type.String(), "player", cmd.PlayerID, "tick", e.Tick)

	switch cmd.Type {
	case core.CmdMoveUnits:
		if cmd.Payload.TargetPos == nil {
			return
		}
		for _, u := range a.ownedUnits(cmd) {
			OrderMove(a.state, u, *cmd.Payload.TargetPos)
			u.AddLog(e.Tick, "ordered to move")
		}

	case core.CmdAttackTarget:
		for _, u := range a.ownedUnits(cmd) {
			if cmd.Payload.TargetUnitID != 0 {
				OrderAttackUnit(a.state, u, cmd.Payload.TargetUnitID)
			} else if cmd.Payload.TargetBuildingID != 0 {
				OrderAttackBuilding(a.state, u, cmd.Payload.TargetBuildingID)
			}
			u.AddLog(e.Tick, "ordered to attack")
		}

	case core.CmdGatherResource:
		if cmd.Payload.TargetPos == nil {
			return
		}
		for _, u := range a.ownedUnits(cmd) {
			OrderGather(a.state, u, *cmd.Payload.TargetPos)
			u.AddLog(e.Tick, "ordered to gather")
		}

	case core.CmdBuildStructure:
		if cmd.Payload.TargetPos == nil || cmd.Payload.BuildingType == "" {
			return
		}
		for _, u := range a.ownedUnits(cmd) {
			if OrderBuild(a.state, a.defs, u, cmd.Payload.BuildingType, *cmd.Payload.TargetPos) {
				u.AddLog(e.Tick, "ordered to build")
			}
		}

	case core.CmdTrainUnit:
		a.applyTrain(cmd)

	case core.CmdSetRally:
		if cmd.Payload.TargetPos == nil {
			return
		}
		b := a.state.Building(cmd.Payload.TargetBuildingID)
		if b == nil || b.PlayerID != cmd.PlayerID {
			return
		}
		pos := *cmd.Payload.TargetPos
		b.RallyPoint = &pos

	case core.CmdStopUnits:
		for _, u := range a.ownedUnits(cmd) {
			OrderStop(u)
			u.AddLog(e.Tick, "ordered to stop")
		}

	case core.CmdToggleSiege:
		for _, u := range a.ownedUnits(cmd) {
			OrderToggleSiege(u)
		}

	case core.CmdStandingOrder:
		player := a.state.Player(cmd.PlayerID)
		if player == nil {
			return
		}
		for _, u := range a.ownedUnits(cmd) {
			player.SetStandingOrder(u.ID, cmd.Payload.Message)
			u.AddLog(e.Tick, "standing order: "+cmd.Payload.Message)
		}
	}
}

func (a *CommandApplier) applyTrain(cmd core.GameCommand) {
	b := a.state.Building(cmd.Payload.TargetBuildingID)
	if b == nil || b.PlayerID != cmd.PlayerID || b.IsConstructing {
		return
	}
	def := a.defs.Unit(cmd.Payload.UnitType)
	if def == nil || !a.defs.CanProduce(b.Type, def.Type) {
		return
	}
	player := a.state.Player(cmd.PlayerID)
	if player == nil || !player.Spend(def.Cost) {
		a.log.Debug("train rejected: insufficient credits", "player", cmd.PlayerID, "unit", def.Type)
		return
	}
	b.Queue = append(b.Queue, def.Type)
}

// ownedUnits resolves the command's targets to living units the issuing
// player owns, in the order given.
func (a *CommandApplier) ownedUnits(cmd core.GameCommand) []*core.Unit {
	out := make([]*core.Unit, 0, len(cmd.TargetUnitIDs))
	for _, id := range cmd.TargetUnitIDs {
		u := a.state.Unit(id)
		if u == nil || !u.Alive() || u.PlayerID != cmd.PlayerID {
			continue
		}
		out = append(out, u)
	}
	return out
}
