package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/codyborn/agent-rts/engine/maplib"
	"github.com/codyborn/agent-rts/engine/pathfind"
)

// GameState is the authoritative store of everything in the simulation:
// map, players, units, buildings, per-player fog and selection. Mutation
// happens only on the tick goroutine; readers that need iteration get
// ID-sorted slices so no behavior ever depends on map iteration order.
type GameState struct {
	Map *maplib.TileMap
	Bus *EventBus

	nav *pathfind.NavGrid

	players   map[int]*Player
	units     map[UnitID]*Unit
	buildings map[BuildingID]*Building
	fog       map[int]*FogGrid
	selection map[int][]UnitID

	// ID counters are per-state, not global, so two states in one
	// process produce identical ID sequences for identical inputs.
	nextUnitID     uint64
	nextBuildingID uint64
}

func NewGameState(m *maplib.TileMap, bus *EventBus) *GameState {
	return &GameState{
		Map:       m,
		Bus:       bus,
		nav:       pathfind.NewNavGrid(m),
		players:   make(map[int]*Player),
		units:     make(map[UnitID]*Unit),
		buildings: make(map[BuildingID]*Building),
		fog:       make(map[int]*FogGrid),
		selection: make(map[int][]UnitID),
	}
}

// ---- Players ----

// AddPlayer registers a player and allocates their fog grid
func (s *GameState) AddPlayer(p *Player) {
	s.players[p.ID] = p
	s.fog[p.ID] = NewFogGrid(s.Map.Width, s.Map.Height)
}

// Player returns the player with the given ID, nil if absent
func (s *GameState) Player(id int) *Player {
	return s.players[id]
}

// Players returns all players sorted by ID
func (s *GameState) Players() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fog returns a player's fog grid, nil for unknown players
func (s *GameState) Fog(playerID int) *FogGrid {
	return s.fog[playerID]
}

// ---- Units ----

// Unit returns the unit with the given ID, nil if absent or destroyed
func (s *GameState) Unit(id UnitID) *Unit {
	return s.units[id]
}

// Units returns all units sorted by ID
func (s *GameState) Units() []*Unit {
	out := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnitsForPlayer returns a player's units sorted by ID
func (s *GameState) UnitsForPlayer(playerID int) []*Unit {
	out := make([]*Unit, 0)
	for _, u := range s.units {
		if u.PlayerID == playerID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnitAt returns the lowest-ID unit standing on pos, nil if none
func (s *GameState) UnitAt(pos GridPosition) *Unit {
	var found *Unit
	for _, u := range s.units {
		if u.Pos == pos && (found == nil || u.ID < found.ID) {
			found = u
		}
	}
	return found
}

// EnemyUnitsInRange returns enemy units within r tiles of u, nearest
// first; ties break on lower ID.
func (s *GameState) EnemyUnitsInRange(u *Unit, r int) []*Unit {
	self := s.players[u.PlayerID]
	out := make([]*Unit, 0)
	for _, other := range s.units {
		if other.ID == u.ID || !other.Alive() {
			continue
		}
		if AreAllies(self, s.players[other.PlayerID]) {
			continue
		}
		if u.Pos.WithinRange(other.Pos, r) {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := u.Pos.DistanceTo(out[i].Pos), u.Pos.DistanceTo(out[j].Pos)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EnemyBuildingsInRange returns enemy buildings within r tiles of u,
// nearest first; ties break on lower ID.
func (s *GameState) EnemyBuildingsInRange(u *Unit, r int) []*Building {
	self := s.players[u.PlayerID]
	out := make([]*Building, 0)
	for _, b := range s.buildings {
		if !b.Alive() {
			continue
		}
		if AreAllies(self, s.players[b.PlayerID]) {
			continue
		}
		if b.DistanceTo(u.Pos) <= r {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DistanceTo(u.Pos), out[j].DistanceTo(u.Pos)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SpawnUnit creates a unit, stores it and emits UNIT_SPAWNED. Returns nil
// when pos is out of bounds.
func (s *GameState) SpawnUnit(playerID int, typ UnitType, pos GridPosition, stats UnitStats) *Unit {
	if !s.Map.InBounds(pos.Col, pos.Row) {
		return nil
	}
	s.nextUnitID++
	u := NewUnit(UnitID(s.nextUnitID), typ, playerID, pos, stats)
	s.units[u.ID] = u
	s.Bus.Emit(EvtUnitSpawned, UnitSpawnedPayload{
		UnitID:   u.ID,
		PlayerID: playerID,
		UnitType: typ,
		Pos:      pos,
	})
	return u
}

// DestroyUnit removes a unit from play, cleans up selection and standing
// orders, and emits UNIT_DESTROYED. Unknown IDs are ignored.
func (s *GameState) DestroyUnit(id UnitID, killer UnitID) {
	u, ok := s.units[id]
	if !ok {
		return
	}
	u.Health = 0
	u.State = StateDead
	delete(s.units, id)

	if sel, ok := s.selection[u.PlayerID]; ok {
		for i, sid := range sel {
			if sid == id {
				s.selection[u.PlayerID] = append(sel[:i:i], sel[i+1:]...)
				break
			}
		}
	}
	if p := s.players[u.PlayerID]; p != nil {
		p.ClearStandingOrder(id)
	}

	s.Bus.Emit(EvtUnitDestroyed, UnitDestroyedPayload{
		UnitID:   u.ID,
		PlayerID: u.PlayerID,
		UnitType: u.Type,
		Pos:      u.Pos,
		KillerID: killer,
	})
}

// ---- Buildings ----

// Building returns the building with the given ID, nil if absent
func (s *GameState) Building(id BuildingID) *Building {
	return s.buildings[id]
}

// Buildings returns all buildings sorted by ID
func (s *GameState) Buildings() []*Building {
	out := make([]*Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuildingsForPlayer returns a player's buildings sorted by ID
func (s *GameState) BuildingsForPlayer(playerID int) []*Building {
	out := make([]*Building, 0)
	for _, b := range s.buildings {
		if b.PlayerID == playerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuildingAt returns the building whose footprint covers pos, nil if none
func (s *GameState) BuildingAt(pos GridPosition) *Building {
	for _, b := range s.buildings {
		if b.DistanceTo(pos) == 0 {
			return b
		}
	}
	return nil
}

// PlaceBuilding validates the footprint, marks its tiles occupied, stores
// the building and emits BUILDING_PLACED. Constructing buildings start at
// 1 health and reach full health on completion. Returns nil when any
// footprint tile is out of bounds, unwalkable or already occupied.
func (s *GameState) PlaceBuilding(playerID int, typ BuildingType, pos GridPosition, stats BuildingStats, constructing bool, constructionTime int) *Building {
	for r := 0; r < stats.Footprint; r++ {
		for c := 0; c < stats.Footprint; c++ {
			if !s.Map.IsWalkable(pos.Col+c, pos.Row+r) {
				return nil
			}
		}
	}

	s.nextBuildingID++
	b := &Building{
		ID:               BuildingID(s.nextBuildingID),
		Type:             typ,
		PlayerID:         playerID,
		Pos:              pos,
		Footprint:        stats.Footprint,
		Health:           stats.MaxHealth,
		MaxHealth:        stats.MaxHealth,
		Depot:            stats.Depot,
		IsConstructing:   constructing,
		ConstructionTime: constructionTime,
	}
	if constructing {
		b.Health = 1
	}
	s.buildings[b.ID] = b

	for _, t := range b.OccupiedTiles() {
		s.Map.SetOccupied(t.Col, t.Row, true)
	}

	s.Bus.Emit(EvtBuildingPlaced, BuildingPlacedPayload{
		BuildingID:   b.ID,
		PlayerID:     playerID,
		BuildingType: typ,
		Pos:          pos,
	})
	return b
}

// DestroyBuilding removes a building, frees its footprint and emits
// BUILDING_DESTROYED. Unknown IDs are ignored.
func (s *GameState) DestroyBuilding(id BuildingID) {
	b, ok := s.buildings[id]
	if !ok {
		return
	}
	delete(s.buildings, id)
	for _, t := range b.OccupiedTiles() {
		s.Map.SetOccupied(t.Col, t.Row, false)
	}
	s.Bus.Emit(EvtBuildingDestroyed, BuildingDestroyedPayload{
		BuildingID:   b.ID,
		PlayerID:     b.PlayerID,
		BuildingType: b.Type,
		Pos:          b.Pos,
	})
}

// NearestDepot returns the unit's nearest allied depot, nil if none
func (s *GameState) NearestDepot(u *Unit) *Building {
	var best *Building
	bestDist := 0
	for _, b := range s.Buildings() {
		if !b.Depot || b.IsConstructing || !b.Alive() {
			continue
		}
		if !AreAllies(s.players[u.PlayerID], s.players[b.PlayerID]) {
			continue
		}
		d := b.DistanceTo(u.Pos)
		if best == nil || d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

// ---- Selection ----

// Select replaces a player's unit selection, keeping only units they own
func (s *GameState) Select(playerID int, ids []UnitID) {
	sel := make([]UnitID, 0, len(ids))
	for _, id := range ids {
		if u := s.units[id]; u != nil && u.PlayerID == playerID {
			sel = append(sel, id)
		}
	}
	s.selection[playerID] = sel
}

// Selection returns a copy of the player's current selection
func (s *GameState) Selection(playerID int) []UnitID {
	sel := s.selection[playerID]
	out := make([]UnitID, len(sel))
	copy(out, sel)
	return out
}

// ---- Map queries ----

// TileAt returns the tile at pos, nil out of bounds
func (s *GameState) TileAt(pos GridPosition) *maplib.Tile {
	return s.Map.At(pos.Col, pos.Row)
}

// FindPath computes a path between tiles. The result excludes the start
// tile; nil means unreachable.
func (s *GameState) FindPath(from, to GridPosition) []GridPosition {
	pts := pathfind.FindPath(s.nav, pathfind.Point{Col: from.Col, Row: from.Row}, pathfind.Point{Col: to.Col, Row: to.Row})
	if pts == nil {
		return nil
	}
	out := make([]GridPosition, len(pts))
	for i, p := range pts {
		out[i] = GridPosition{Col: p.Col, Row: p.Row}
	}
	return out
}

// PathToBuilding computes a path from a tile to any walkable tile adjacent
// to the building's footprint. Already-adjacent starts yield an empty
// path. Candidates are tried nearest first with a fixed tiebreak so the
// chosen approach tile never depends on iteration order.
func (s *GameState) PathToBuilding(from GridPosition, b *Building) []GridPosition {
	if b.AdjacentTo(from) {
		return []GridPosition{}
	}

	var ring []GridPosition
	for row := b.Pos.Row - 1; row <= b.Pos.Row+b.Footprint; row++ {
		for col := b.Pos.Col - 1; col <= b.Pos.Col+b.Footprint; col++ {
			p := GridPosition{Col: col, Row: row}
			if b.DistanceTo(p) == 1 && s.Map.IsWalkable(col, row) {
				ring = append(ring, p)
			}
		}
	}
	sort.SliceStable(ring, func(i, j int) bool {
		return from.DistanceTo(ring[i]) < from.DistanceTo(ring[j])
	})

	for _, goal := range ring {
		if path := s.FindPath(from, goal); path != nil {
			return path
		}
	}
	return nil
}

// NearestResourceTile finds the closest tile holding a resource deposit.
// When fog is non-nil only tiles the player has seen count. Ties break
// row-major. The second return is the resource name.
func (s *GameState) NearestResourceTile(from GridPosition, fog *FogGrid) (GridPosition, string, bool) {
	var best GridPosition
	bestRes := ""
	bestDist := -1
	for row := 0; row < s.Map.Height; row++ {
		for col := 0; col < s.Map.Width; col++ {
			t := s.Map.At(col, row)
			if t == nil || !t.HasResource() {
				continue
			}
			p := GridPosition{Col: col, Row: row}
			if fog != nil && !fog.Seen(p) {
				continue
			}
			d := from.DistanceTo(p)
			if bestDist < 0 || d < bestDist {
				best, bestRes, bestDist = p, string(t.Resource), d
			}
		}
	}
	return best, bestRes, bestDist >= 0
}

// ---- Snapshots ----

// GameSnapshot is the full observer view of the simulation state
type GameSnapshot struct {
	Players   []PlayerSnapshot   `json:"players"`
	Units     []UnitSnapshot     `json:"units"`
	Buildings []BuildingSnapshot `json:"buildings"`
}

// Snapshot captures the current state with all slices ID-sorted
func (s *GameState) Snapshot() GameSnapshot {
	snap := GameSnapshot{}
	for _, p := range s.Players() {
		snap.Players = append(snap.Players, p.Snapshot())
	}
	for _, u := range s.Units() {
		snap.Units = append(snap.Units, u.Snapshot())
	}
	for _, b := range s.Buildings() {
		snap.Buildings = append(snap.Buildings, b.Snapshot())
	}
	return snap
}

// Digest returns a hex hash of the snapshot. Two states with identical
// observable state produce identical digests, which is how divergence
// between runs is caught.
func (s *GameState) Digest() string {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
