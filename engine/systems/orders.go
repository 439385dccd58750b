package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// Order helpers are the single mutation surface shared by the command
// applier and the decision layer. Each clears previous orders, sets the
// new goal and moves the behavior state. They report false when the order
// cannot be taken (wrong role, sieged, unreachable, unaffordable).

// OrderMove paths the unit to goal and sets it moving
func OrderMove(s *core.GameState, u *core.Unit, goal core.GridPosition) bool {
	if u.SiegeMode {
		return false
	}
	u.ClearOrders()
	path := s.FindPath(u.Pos, goal)
	if path == nil {
		u.State = core.StateIdle
		return false
	}
	g := goal
	u.TargetPos = &g
	u.Path = path
	u.State = core.StateMoving
	return true
}

// OrderAttackUnit sets the unit on an enemy unit. Range checks and pursuit
// are the combat system's job.
func OrderAttackUnit(s *core.GameState, u *core.Unit, target core.UnitID) bool {
	if !u.CanFight {
		return false
	}
	t := s.Unit(target)
	if t == nil || !t.Alive() {
		return false
	}
	if core.AreAllies(s.Player(u.PlayerID), s.Player(t.PlayerID)) {
		return false
	}
	u.ClearOrders()
	u.TargetUnitID = target
	u.State = core.StateAttacking
	return true
}

// OrderAttackBuilding sets the unit on an enemy building
func OrderAttackBuilding(s *core.GameState, u *core.Unit, target core.BuildingID) bool {
	if !u.CanFight {
		return false
	}
	b := s.Building(target)
	if b == nil || !b.Alive() {
		return false
	}
	if core.AreAllies(s.Player(u.PlayerID), s.Player(b.PlayerID)) {
		return false
	}
	u.ClearOrders()
	u.TargetBuildingID = target
	u.State = core.StateAttacking
	return true
}

// OrderGather sends a gatherer toward a resource tile. The gather system
// flips it to gathering once adjacent.
func OrderGather(s *core.GameState, u *core.Unit, target core.GridPosition) bool {
	if !u.CanGather || u.SiegeMode {
		return false
	}
	u.ClearOrders()
	t := target
	u.GatherTarget = &t
	if u.Pos.WithinRange(target, GatherRange) {
		u.State = core.StateGathering
		u.GatherProgress = 0
		return true
	}
	path := s.FindPath(u.Pos, target)
	if path == nil {
		// Deposit tile itself may be blocked; try its neighbors in the
		// fixed scan order.
		for _, n := range target.Neighbors() {
			if path = s.FindPath(u.Pos, n); path != nil {
				break
			}
		}
	}
	if path == nil {
		u.State = core.StateIdle
		return false
	}
	u.TargetPos = &t
	u.Path = path
	u.State = core.StateMoving
	return true
}

// OrderBuild charges the player, places a construction site if one is not
// already at pos, and sends the builder. Builders already adjacent start
// building immediately; others walk over and the production system puts
// them to work once they arrive.
func OrderBuild(s *core.GameState, defs *Defs, u *core.Unit, typ core.BuildingType, pos core.GridPosition) bool {
	if !u.CanBuild || u.SiegeMode {
		return false
	}
	def := defs.Building(typ)
	if def == nil {
		return false
	}
	player := s.Player(u.PlayerID)
	if player == nil {
		return false
	}

	site := s.BuildingAt(pos)
	if site != nil && (!site.IsConstructing || site.PlayerID != u.PlayerID || site.Type != typ) {
		return false
	}
	if site == nil {
		if !player.Spend(def.Cost) {
			return false
		}
		site = s.PlaceBuilding(u.PlayerID, typ, pos, def.Stats, true, def.ConstructionTime)
		if site == nil {
			player.AddCredits(def.Cost) // refund rejected placement
			return false
		}
	}

	u.ClearOrders()
	u.BuildTarget = site.ID
	if site.AdjacentTo(u.Pos) {
		u.State = core.StateBuilding
		return true
	}
	path := s.PathToBuilding(u.Pos, site)
	if path == nil {
		u.State = core.StateIdle
		return false
	}
	u.Path = path
	u.State = core.StateMoving
	return true
}

// OrderStop drops all orders and idles the unit
func OrderStop(u *core.Unit) {
	u.ClearOrders()
	if u.State != core.StateDead {
		u.State = core.StateIdle
	}
}

// OrderToggleSiege flips siege mode, spending energy. Entering siege
// drops any path; a sieged unit cannot move.
func OrderToggleSiege(u *core.Unit) bool {
	if !u.CanSiege {
		return false
	}
	if !u.UseEnergy(SiegeEnergyCost) {
		return false
	}
	u.SiegeMode = !u.SiegeMode
	if u.SiegeMode {
		u.Path = nil
		u.TargetPos = nil
		if u.State == core.StateMoving {
			u.State = core.StateIdle
		}
	}
	return true
}
