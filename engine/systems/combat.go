package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// CombatSystem resolves attacks. Units with a live cooldown only tick it
// down. Attacking units strike in range, pursue when not, and revert to
// idle when their target is gone. Idle combat units of autonomous players
// auto-engage the nearest visible enemy.
type CombatSystem struct {
	state *core.GameState
	bus   *core.EventBus
}

func NewCombatSystem(state *core.GameState) *CombatSystem {
	return &CombatSystem{state: state, bus: state.Bus}
}

func (s *CombatSystem) Name() string { return "combat" }

func (s *CombatSystem) Update(tick uint64, dt float64) {
	for _, u := range s.state.Units() {
		if !u.Alive() || !u.CanFight {
			continue
		}
		if u.AttackCooldown > 0 {
			u.AttackCooldown--
			continue
		}
		switch u.State {
		case core.StateAttacking:
			s.updateAttacker(u, tick)
		case core.StateIdle:
			s.autoEngage(u)
		}
	}
}

func (s *CombatSystem) updateAttacker(u *core.Unit, tick uint64) {
	switch {
	case u.TargetUnitID != 0:
		t := s.state.Unit(u.TargetUnitID)
		if t == nil || !t.Alive() {
			u.TargetUnitID = 0
			u.State = core.StateIdle
			return
		}
		if u.Pos.WithinRange(t.Pos, effectiveRange(u)) {
			s.strikeUnit(u, t, tick)
			return
		}
		s.pursue(u, t.Pos)

	case u.TargetBuildingID != 0:
		b := s.state.Building(u.TargetBuildingID)
		if b == nil || !b.Alive() {
			u.TargetBuildingID = 0
			u.State = core.StateIdle
			return
		}
		if b.DistanceTo(u.Pos) <= effectiveRange(u) {
			s.strikeBuilding(u, b, tick)
			return
		}
		if u.SiegeMode || len(u.Path) > 0 {
			return
		}
		if path := s.state.PathToBuilding(u.Pos, b); path != nil {
			u.Path = path
		}

	default:
		u.State = core.StateIdle
	}
}

func (s *CombatSystem) pursue(u *core.Unit, goal core.GridPosition) {
	// Sieged units hold position and wait for the target to come back
	// into range.
	if u.SiegeMode || len(u.Path) > 0 {
		return
	}
	if path := s.state.FindPath(u.Pos, goal); path != nil {
		u.Path = path
	}
}

func (s *CombatSystem) strikeUnit(u, t *core.Unit, tick uint64) {
	dealt := t.TakeDamage(effectiveAttack(u))
	u.AttackCooldown = u.CooldownTicks
	u.Path = nil

	s.bus.Emit(core.EvtUnitAttack, core.UnitAttackPayload{
		AttackerID:   u.ID,
		TargetUnitID: t.ID,
		Damage:       dealt,
	})
	s.bus.Emit(core.EvtUnitDamaged, core.UnitDamagedPayload{
		UnitID:     t.ID,
		AttackerID: u.ID,
		Amount:     dealt,
		Remaining:  t.Health,
	})

	if t.Health == 0 {
		s.state.DestroyUnit(t.ID, u.ID)
		u.TargetUnitID = 0
		u.State = core.StateIdle
	}
}

func (s *CombatSystem) strikeBuilding(u *core.Unit, b *core.Building, tick uint64) {
	dealt := b.TakeDamage(effectiveAttack(u))
	u.AttackCooldown = u.CooldownTicks
	u.Path = nil

	s.bus.Emit(core.EvtUnitAttack, core.UnitAttackPayload{
		AttackerID:       u.ID,
		TargetBuildingID: b.ID,
		Damage:           dealt,
	})

	if b.Health == 0 {
		s.state.DestroyBuilding(b.ID)
		u.TargetBuildingID = 0
		u.State = core.StateIdle
	}
}

// autoEngage puts idle combat units of autonomous players onto the nearest
// visible enemy. Units of local players never self-engage; their player or
// directive layer decides.
func (s *CombatSystem) autoEngage(u *core.Unit) {
	p := s.state.Player(u.PlayerID)
	if p == nil || p.IsLocal {
		return
	}
	if enemies := s.state.EnemyUnitsInRange(u, u.Vision); len(enemies) > 0 {
		u.TargetUnitID = enemies[0].ID
		u.State = core.StateAttacking
		return
	}
	if buildings := s.state.EnemyBuildingsInRange(u, u.Vision); len(buildings) > 0 {
		u.TargetBuildingID = buildings[0].ID
		u.State = core.StateAttacking
	}
}

func effectiveRange(u *core.Unit) int {
	if u.SiegeMode {
		return u.Range + SiegeRangeBonus
	}
	return u.Range
}

func effectiveAttack(u *core.Unit) int {
	if u.SiegeMode {
		return u.Attack + SiegeAttackBonus
	}
	return u.Attack
}
