package core

// BuildingID uniquely identifies a building within one game state
type BuildingID uint64

// BuildingType names a building archetype from the definition tables
type BuildingType string

const (
	BuildingCommandCenter BuildingType = "command_center"
	BuildingBarracks      BuildingType = "barracks"
	BuildingFactory       BuildingType = "factory"
)

// BuildingStats are the archetype stats copied onto a building at placement
type BuildingStats struct {
	MaxHealth int
	Footprint int // square side length in tiles
	Depot     bool
}

// Building is a static structure anchored at Pos, occupying a square
// Footprint of tiles extending right and down from the anchor.
type Building struct {
	ID       BuildingID
	Type     BuildingType
	PlayerID int

	Pos       GridPosition
	Footprint int

	Health    int
	MaxHealth int

	// Depot buildings accept resource deposits
	Depot bool

	// Construction. Progress is tracked in whole ticks so completion
	// lands on an exact tick.
	IsConstructing    bool
	ConstructionTicks int
	ConstructionTime  int

	// Production. The head of Queue only accrues ticks after the start
	// step has run for it.
	Queue             []UnitType
	ProductionStarted bool
	ProductionTicks   int

	RallyPoint *GridPosition
}

// Alive reports whether the building still stands
func (b *Building) Alive() bool {
	return b.Health > 0
}

// TakeDamage applies damage with no defense reduction, clamping at 0.
// Returns the damage dealt.
func (b *Building) TakeDamage(amount int) int {
	if amount < 1 {
		amount = 1
	}
	b.Health -= amount
	if b.Health < 0 {
		b.Health = 0
	}
	return amount
}

// ConstructionProgress reports construction completion in 0.0 to 1.0
func (b *Building) ConstructionProgress() float64 {
	if b.ConstructionTime <= 0 {
		return 1.0
	}
	p := float64(b.ConstructionTicks) / float64(b.ConstructionTime)
	if p > 1.0 {
		p = 1.0
	}
	return p
}

// OccupiedTiles returns every tile of the footprint, row-major
func (b *Building) OccupiedTiles() []GridPosition {
	out := make([]GridPosition, 0, b.Footprint*b.Footprint)
	for r := 0; r < b.Footprint; r++ {
		for c := 0; c < b.Footprint; c++ {
			out = append(out, GridPosition{Col: b.Pos.Col + c, Row: b.Pos.Row + r})
		}
	}
	return out
}

// DistanceTo returns the Chebyshev distance from pos to the nearest
// footprint tile (0 when pos is inside the footprint).
func (b *Building) DistanceTo(pos GridPosition) int {
	dc := 0
	if pos.Col < b.Pos.Col {
		dc = b.Pos.Col - pos.Col
	} else if pos.Col > b.Pos.Col+b.Footprint-1 {
		dc = pos.Col - (b.Pos.Col + b.Footprint - 1)
	}
	dr := 0
	if pos.Row < b.Pos.Row {
		dr = b.Pos.Row - pos.Row
	} else if pos.Row > b.Pos.Row+b.Footprint-1 {
		dr = pos.Row - (b.Pos.Row + b.Footprint - 1)
	}
	if dc > dr {
		return dc
	}
	return dr
}

// AdjacentTo reports whether pos touches the footprint (distance <= 1)
func (b *Building) AdjacentTo(pos GridPosition) bool {
	return b.DistanceTo(pos) <= 1
}

// BuildingSnapshot is the JSON view of a building for observers and the
// decision layer.
type BuildingSnapshot struct {
	ID                   BuildingID   `json:"id"`
	Type                 BuildingType `json:"type"`
	PlayerID             int          `json:"player_id"`
	Pos                  GridPosition `json:"pos"`
	Footprint            int          `json:"footprint"`
	Health               int          `json:"health"`
	MaxHealth            int          `json:"max_health"`
	IsConstructing       bool         `json:"is_constructing,omitempty"`
	ConstructionProgress float64      `json:"construction_progress,omitempty"`
	QueueLen             int          `json:"queue_len,omitempty"`
}

// Snapshot returns the building's observer view
func (b *Building) Snapshot() BuildingSnapshot {
	return BuildingSnapshot{
		ID:                   b.ID,
		Type:                 b.Type,
		PlayerID:             b.PlayerID,
		Pos:                  b.Pos,
		Footprint:            b.Footprint,
		Health:               b.Health,
		MaxHealth:            b.MaxHealth,
		IsConstructing:       b.IsConstructing,
		ConstructionProgress: b.ConstructionProgress(),
		QueueLen:             len(b.Queue),
	}
}
