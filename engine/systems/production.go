package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// ProductionSystem advances building construction and unit production.
// Construction only progresses while an allied builder-role unit stands
// adjacent in the building state; otherwise it freezes where it is, never
// decaying. Production runs an explicit start step per queue item so a
// queued-but-unstarted item accrues nothing.
type ProductionSystem struct {
	state *core.GameState
	defs  *Defs
	bus   *core.EventBus
}

func NewProductionSystem(state *core.GameState, defs *Defs) *ProductionSystem {
	return &ProductionSystem{state: state, defs: defs, bus: state.Bus}
}

func (s *ProductionSystem) Name() string { return "production" }

func (s *ProductionSystem) Update(tick uint64, dt float64) {
	s.syncBuilders()

	for _, b := range s.state.Buildings() {
		if !b.Alive() {
			continue
		}
		if b.IsConstructing {
			s.updateConstruction(b)
			continue
		}
		s.updateProduction(b)
	}
}

// syncBuilders keeps builder state and sites in step: units still in the
// building state after their site completed or was destroyed go idle, and
// idle units that walked over to a live site resume building the moment
// they stand adjacent. A stop order clears BuildTarget, so stopped
// builders stay stopped.
func (s *ProductionSystem) syncBuilders() {
	for _, u := range s.state.Units() {
		switch u.State {
		case core.StateBuilding:
			b := s.state.Building(u.BuildTarget)
			if b == nil || !b.IsConstructing {
				u.BuildTarget = 0
				u.State = core.StateIdle
			}
		case core.StateIdle:
			if u.BuildTarget == 0 {
				continue
			}
			b := s.state.Building(u.BuildTarget)
			if b == nil || !b.IsConstructing {
				u.BuildTarget = 0
				continue
			}
			if b.AdjacentTo(u.Pos) {
				u.State = core.StateBuilding
			}
		}
	}
}

func (s *ProductionSystem) updateConstruction(b *core.Building) {
	if !s.builderPresent(b) {
		return
	}

	b.ConstructionTicks++
	if b.ConstructionTicks < b.ConstructionTime {
		return
	}

	b.IsConstructing = false
	b.Health = b.MaxHealth
	s.bus.Emit(core.EvtBuildingCompleted, core.BuildingCompletedPayload{
		BuildingID:   b.ID,
		PlayerID:     b.PlayerID,
		BuildingType: b.Type,
	})
}

func (s *ProductionSystem) builderPresent(b *core.Building) bool {
	owner := s.state.Player(b.PlayerID)
	for _, u := range s.state.Units() {
		if !u.CanBuild || u.State != core.StateBuilding {
			continue
		}
		if !core.AreAllies(owner, s.state.Player(u.PlayerID)) {
			continue
		}
		if b.AdjacentTo(u.Pos) {
			return true
		}
	}
	return false
}

func (s *ProductionSystem) updateProduction(b *core.Building) {
	if len(b.Queue) == 0 {
		b.ProductionStarted = false
		b.ProductionTicks = 0
		return
	}

	def := s.defs.Unit(b.Queue[0])
	if def == nil {
		b.Queue = b.Queue[1:]
		b.ProductionStarted = false
		b.ProductionTicks = 0
		return
	}

	if !b.ProductionStarted {
		b.ProductionStarted = true
		b.ProductionTicks = 0
		s.bus.Emit(core.EvtProductionStarted, core.ProductionStartedPayload{
			BuildingID: b.ID,
			UnitType:   def.Type,
		})
	}

	b.ProductionTicks++
	if b.ProductionTicks < def.ProductionTime {
		return
	}

	pos := s.spawnPos(b)
	u := s.state.SpawnUnit(b.PlayerID, def.Type, pos, def.Stats)
	if u != nil {
		s.bus.Emit(core.EvtProductionCompleted, core.ProductionCompletedPayload{
			BuildingID: b.ID,
			UnitID:     u.ID,
			UnitType:   def.Type,
		})
	}

	b.Queue = b.Queue[1:]
	if len(b.Queue) == 0 {
		b.ProductionStarted = false
		b.ProductionTicks = 0
		return
	}

	// The next item starts immediately at zero progress; its first tick
	// of work happens next update.
	next := s.defs.Unit(b.Queue[0])
	b.ProductionStarted = next != nil
	b.ProductionTicks = 0
	if next != nil {
		s.bus.Emit(core.EvtProductionStarted, core.ProductionStartedPayload{
			BuildingID: b.ID,
			UnitType:   next.Type,
		})
	}
}

// spawnPos picks the first walkable of the 8 fixed-order neighbors around
// the rally point (or the building anchor), falling back to the anchor
// itself when everything is blocked.
func (s *ProductionSystem) spawnPos(b *core.Building) core.GridPosition {
	anchor := b.Pos
	if b.RallyPoint != nil {
		anchor = *b.RallyPoint
	}
	for _, n := range anchor.Neighbors() {
		if s.state.Map.IsWalkable(n.Col, n.Row) {
			return n
		}
	}
	return b.Pos
}
