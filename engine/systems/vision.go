package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// VisionSystem maintains per-player fog of war, emits proximity events
// when a unit first sights an enemy or a resource deposit, and marks
// players defeated once everything they had is gone.
type VisionSystem struct {
	state *core.GameState
	bus   *core.EventBus

	// Per-unit sighting memory so proximity events fire on entry into
	// vision, not every tick. Rebuilt each pass, which also forgets
	// sightings that left range so they can fire again on return.
	seenEnemies map[core.UnitID]map[core.UnitID]bool
	seenTiles   map[core.UnitID]map[core.GridPosition]bool

	everAlive map[int]bool
}

func NewVisionSystem(state *core.GameState) *VisionSystem {
	s := &VisionSystem{
		state:       state,
		bus:         state.Bus,
		seenEnemies: make(map[core.UnitID]map[core.UnitID]bool),
		seenTiles:   make(map[core.UnitID]map[core.GridPosition]bool),
		everAlive:   make(map[int]bool),
	}
	state.Bus.Subscribe(core.EvtUnitDestroyed, func(e core.Event) {
		if p, ok := e.Payload.(core.UnitDestroyedPayload); ok {
			delete(s.seenEnemies, p.UnitID)
			delete(s.seenTiles, p.UnitID)
		}
	})
	return s
}

func (s *VisionSystem) Name() string { return "vision" }

func (s *VisionSystem) Update(tick uint64, dt float64) {
	players := s.state.Players()
	units := s.state.Units()

	// Demote, then reveal current sight
	for _, p := range players {
		if fog := s.state.Fog(p.ID); fog != nil {
			fog.DemoteVisible()
		}
	}
	for _, u := range units {
		s.reveal(u, players)
	}

	for _, u := range units {
		s.emitProximity(u)
	}

	s.checkDefeats(players)
}

func (s *VisionSystem) reveal(u *core.Unit, players []*core.Player) {
	owner := s.state.Player(u.PlayerID)
	r := u.Vision
	for _, p := range players {
		if p.ID != u.PlayerID && !core.AreAllies(owner, p) {
			continue
		}
		fog := s.state.Fog(p.ID)
		if fog == nil {
			continue
		}
		for dr := -r; dr <= r; dr++ {
			for dc := -r; dc <= r; dc++ {
				if dc*dc+dr*dr <= r*r {
					fog.Reveal(core.GridPosition{Col: u.Pos.Col + dc, Row: u.Pos.Row + dr})
				}
			}
		}
	}
}

func (s *VisionSystem) emitProximity(u *core.Unit) {
	// Enemy sightings
	prevEnemies := s.seenEnemies[u.ID]
	nowEnemies := make(map[core.UnitID]bool)
	for _, e := range s.state.EnemyUnitsInRange(u, u.Vision) {
		nowEnemies[e.ID] = true
		if !prevEnemies[e.ID] {
			s.bus.Emit(core.EvtEnemyNearby, core.EnemyNearbyPayload{
				UnitID:      u.ID,
				EnemyUnitID: e.ID,
			})
		}
	}
	s.seenEnemies[u.ID] = nowEnemies

	// Resource sightings, scanned row-major inside the vision circle
	prevTiles := s.seenTiles[u.ID]
	nowTiles := make(map[core.GridPosition]bool)
	r := u.Vision
	for dr := -r; dr <= r; dr++ {
		for dc := -r; dc <= r; dc++ {
			if dc*dc+dr*dr > r*r {
				continue
			}
			pos := core.GridPosition{Col: u.Pos.Col + dc, Row: u.Pos.Row + dr}
			tile := s.state.TileAt(pos)
			if tile == nil || !tile.HasResource() {
				continue
			}
			nowTiles[pos] = true
			if !prevTiles[pos] {
				s.bus.Emit(core.EvtResourceNearby, core.ResourceNearbyPayload{
					UnitID:   u.ID,
					Pos:      pos,
					Resource: string(tile.Resource),
				})
			}
		}
	}
	s.seenTiles[u.ID] = nowTiles
}

// checkDefeats flags players who had units or buildings and now have
// neither. The defeat event fires once.
func (s *VisionSystem) checkDefeats(players []*core.Player) {
	for _, p := range players {
		if p.Defeated {
			continue
		}
		holdings := len(s.state.UnitsForPlayer(p.ID)) + len(s.state.BuildingsForPlayer(p.ID))
		if holdings > 0 {
			s.everAlive[p.ID] = true
			continue
		}
		if s.everAlive[p.ID] {
			p.Defeated = true
			s.bus.Emit(core.EvtPlayerDefeated, core.PlayerDefeatedPayload{PlayerID: p.ID})
		}
	}
}
