package ai

import (
	"fmt"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/systems"
)

// DirectiveExecutor holds the active directive per unit and turns it into
// concrete orders whenever the unit is receptive: idle, or moving with a
// wake flag raised by a proximity event relevant to the directive.
type DirectiveExecutor struct {
	state      *core.GameState
	defs       *systems.Defs
	directives map[core.UnitID]*Directive
	wake       map[core.UnitID]bool
	nextID     uint64
}

func NewDirectiveExecutor(state *core.GameState, defs *systems.Defs) *DirectiveExecutor {
	return &DirectiveExecutor{
		state:      state,
		defs:       defs,
		directives: make(map[core.UnitID]*Directive),
		wake:       make(map[core.UnitID]bool),
	}
}

// Set installs a directive, replacing whatever the unit had, and stamps
// its ID from the executor's own counter so identical runs name their
// directives identically. Arbitration between competing goals is the
// commander's job, not the executor's.
func (x *DirectiveExecutor) Set(d *Directive) {
	if d.ID == "" {
		x.nextID++
		d.ID = fmt.Sprintf("directive-%d", x.nextID)
	}
	x.directives[d.UnitID] = d
	delete(x.wake, d.UnitID)
}

// Directive returns the unit's current directive, nil when it has none
func (x *DirectiveExecutor) Directive(id core.UnitID) *Directive {
	return x.directives[id]
}

// Supersede marks the unit's directive completed without removing it, so
// a direct player command wins but the assignment stays inspectable.
func (x *DirectiveExecutor) Supersede(id core.UnitID) {
	if d, ok := x.directives[id]; ok {
		d.Completed = true
	}
	delete(x.wake, id)
}

// Remove forgets the unit entirely
func (x *DirectiveExecutor) Remove(id core.UnitID) {
	delete(x.directives, id)
	delete(x.wake, id)
}

// HandleProximity raises the wake flag when a sighting is relevant to the
// unit's directive. Resource sightings only matter to gatherers; enemy
// sightings matter to attackers and holders, never to gatherers, which
// would otherwise abandon their route for every passing scout.
func (x *DirectiveExecutor) HandleProximity(e core.Event) {
	switch p := e.Payload.(type) {
	case core.ResourceNearbyPayload:
		if d := x.directives[p.UnitID]; d != nil && d.Type == DirectiveGatherResources {
			x.wake[p.UnitID] = true
		}
	case core.EnemyNearbyPayload:
		d := x.directives[p.UnitID]
		if d == nil {
			return
		}
		if d.Type == DirectiveAttackEnemy || d.Type == DirectiveHoldPosition {
			x.wake[p.UnitID] = true
		}
	}
}

// ExecuteUnit runs one unit's directive for this tick. It acts only when
// the unit is idle, or moving with its wake flag raised; the flag is
// consumed either way. Reports whether an order was issued.
func (x *DirectiveExecutor) ExecuteUnit(u *core.Unit, tick uint64) bool {
	d := x.directives[u.ID]
	if d == nil {
		return false
	}
	if !d.Active(tick) {
		return false
	}

	switch u.State {
	case core.StateIdle:
	case core.StateMoving:
		if !x.wake[u.ID] {
			return false
		}
		delete(x.wake, u.ID)
	default:
		return false
	}

	if x.completed(u, d) {
		d.Completed = true
		return false
	}

	acted := x.issue(u, d)
	if acted {
		u.LastThought = "directive: " + string(d.Type)
		u.AddLog(tick, fmt.Sprintf("executing directive %s", d.Type))
	}
	return acted
}

// completed checks the directive's goal against the world
func (x *DirectiveExecutor) completed(u *core.Unit, d *Directive) bool {
	switch d.Type {
	case DirectiveMoveTo:
		return d.TargetPos != nil && u.Pos == *d.TargetPos
	case DirectiveAttackEnemy:
		if d.TargetUnitID == 0 {
			return false
		}
		t := x.state.Unit(d.TargetUnitID)
		return t == nil || !t.Alive()
	case DirectiveBuildStructure:
		if d.TargetPos == nil {
			return false
		}
		b := x.state.BuildingAt(*d.TargetPos)
		return b != nil && b.Type == d.BuildingType && !b.IsConstructing
	}
	return false
}

func (x *DirectiveExecutor) issue(u *core.Unit, d *Directive) bool {
	switch d.Type {
	case DirectiveGatherResources:
		return x.issueGather(u, d)
	case DirectiveAttackEnemy:
		return x.issueAttack(u, d)
	case DirectiveMoveTo:
		if d.TargetPos == nil {
			return false
		}
		return systems.OrderMove(x.state, u, *d.TargetPos)
	case DirectiveBuildStructure:
		if d.TargetPos == nil {
			return false
		}
		return systems.OrderBuild(x.state, x.defs, u, d.BuildingType, *d.TargetPos)
	case DirectiveHoldPosition:
		return x.issueHold(u, d)
	}
	return false
}

// issueGather mines the directive's deposit while it lasts, then the
// nearest deposit the player has scouted.
func (x *DirectiveExecutor) issueGather(u *core.Unit, d *Directive) bool {
	if d.TargetPos != nil {
		if tile := x.state.TileAt(*d.TargetPos); tile != nil && tile.HasResource() {
			return systems.OrderGather(x.state, u, *d.TargetPos)
		}
	}
	pos, _, ok := x.state.NearestResourceTile(u.Pos, x.state.Fog(u.PlayerID))
	if !ok {
		d.Completed = true
		return false
	}
	return systems.OrderGather(x.state, u, pos)
}

// issueAttack pursues the named target while it lives, then whatever
// enemy is in sight, then the directive's position as an attack-move.
func (x *DirectiveExecutor) issueAttack(u *core.Unit, d *Directive) bool {
	if d.TargetUnitID != 0 {
		if t := x.state.Unit(d.TargetUnitID); t != nil && t.Alive() {
			return systems.OrderAttackUnit(x.state, u, t.ID)
		}
	}
	if enemies := x.state.EnemyUnitsInRange(u, u.Vision); len(enemies) > 0 {
		return systems.OrderAttackUnit(x.state, u, enemies[0].ID)
	}
	if buildings := x.state.EnemyBuildingsInRange(u, u.Vision); len(buildings) > 0 {
		return systems.OrderAttackBuilding(x.state, u, buildings[0].ID)
	}
	if d.TargetPos != nil && u.Pos != *d.TargetPos {
		return systems.OrderMove(x.state, u, *d.TargetPos)
	}
	return false
}

// issueHold keeps the unit at its post and engages anything that comes
// into vision.
func (x *DirectiveExecutor) issueHold(u *core.Unit, d *Directive) bool {
	if enemies := x.state.EnemyUnitsInRange(u, u.Vision); len(enemies) > 0 {
		return systems.OrderAttackUnit(x.state, u, enemies[0].ID)
	}
	if d.TargetPos != nil && u.Pos != *d.TargetPos && u.State == core.StateIdle {
		return systems.OrderMove(x.state, u, *d.TargetPos)
	}
	if u.State == core.StateMoving && d.TargetPos != nil && u.Pos == *d.TargetPos {
		systems.OrderStop(u)
		return true
	}
	return false
}
