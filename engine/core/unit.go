package core

// UnitID uniquely identifies a unit within one game state
type UnitID uint64

// UnitType names a unit archetype from the definition tables
type UnitType string

const (
	UnitEngineer  UnitType = "engineer"
	UnitMarine    UnitType = "marine"
	UnitSiegeTank UnitType = "siege_tank"
	UnitScout     UnitType = "scout"
)

// BehaviorState is the unit behavior state machine
type BehaviorState uint8

const (
	StateIdle BehaviorState = iota
	StateMoving
	StateGathering
	StateReturning
	StateAttacking
	StateBuilding
	StateDead
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateMoving:    "moving",
	StateGathering: "gathering",
	StateReturning: "returning",
	StateAttacking: "attacking",
	StateBuilding:  "building",
	StateDead:      "dead",
}

func (s BehaviorState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// UnitStats are the archetype stats copied onto a unit at spawn
type UnitStats struct {
	MaxHealth      int
	MaxEnergy      int
	Attack         int
	Defense        int
	Range          int
	Vision         int
	Speed          float64 // tiles per second
	AttackCooldown int     // ticks between attacks

	CanGather bool
	CanBuild  bool
	CanFight  bool
	CanSiege  bool
}

// maxUnitLog caps the per-unit audit log; older entries are dropped
const maxUnitLog = 50

// LogEntry is one line of a unit's audit log
type LogEntry struct {
	Tick    uint64 `json:"tick"`
	Message string `json:"message"`
}

// Unit is a mobile entity. All fields are simulation state; systems mutate
// them directly during their update pass.
type Unit struct {
	ID       UnitID
	Type     UnitType
	PlayerID int

	Pos       GridPosition
	Health    int
	MaxHealth int
	Energy    int
	MaxEnergy int
	Attack    int
	Defense   int
	Range     int
	Vision    int
	Speed     float64

	CanGather bool
	CanBuild  bool
	CanFight  bool
	CanSiege  bool

	State BehaviorState

	// Movement
	Path         []GridPosition
	TargetPos    *GridPosition
	MoveCooldown int

	// Combat
	TargetUnitID     UnitID
	TargetBuildingID BuildingID
	AttackCooldown   int
	CooldownTicks    int

	// Gathering
	GatherTarget   *GridPosition
	GatherProgress int
	Carrying       string
	CarryAmount    int

	// Construction
	BuildTarget BuildingID

	SiegeMode bool

	// LastThought is the most recent reasoning string from the decision
	// layer, kept for observability.
	LastThought string

	log []LogEntry
}

// NewUnit creates a unit with archetype stats applied
func NewUnit(id UnitID, typ UnitType, playerID int, pos GridPosition, stats UnitStats) *Unit {
	return &Unit{
		ID:            id,
		Type:          typ,
		PlayerID:      playerID,
		Pos:           pos,
		Health:        stats.MaxHealth,
		MaxHealth:     stats.MaxHealth,
		Energy:        stats.MaxEnergy,
		MaxEnergy:     stats.MaxEnergy,
		Attack:        stats.Attack,
		Defense:       stats.Defense,
		Range:         stats.Range,
		Vision:        stats.Vision,
		Speed:         stats.Speed,
		CooldownTicks: stats.AttackCooldown,
		CanGather:     stats.CanGather,
		CanBuild:      stats.CanBuild,
		CanFight:      stats.CanFight,
		CanSiege:      stats.CanSiege,
		State:         StateIdle,
	}
}

// Alive reports whether the unit is still in play
func (u *Unit) Alive() bool {
	return u.Health > 0 && u.State != StateDead
}

// TakeDamage applies damage reduced by defense. At least 1 point always
// lands, and health never goes below 0. Returns the damage actually dealt.
func (u *Unit) TakeDamage(amount int) int {
	dealt := amount - u.Defense/2
	if dealt < 1 {
		dealt = 1
	}
	u.Health -= dealt
	if u.Health < 0 {
		u.Health = 0
	}
	return dealt
}

// UseEnergy deducts energy if enough is available. The check and deduction
// are a single step so callers cannot overdraw.
func (u *Unit) UseEnergy(amount int) bool {
	if u.Energy < amount {
		return false
	}
	u.Energy -= amount
	return true
}

// ClearOrders drops all movement, combat, gather and build targets. State
// is left for the caller to set.
func (u *Unit) ClearOrders() {
	u.Path = nil
	u.TargetPos = nil
	u.TargetUnitID = 0
	u.TargetBuildingID = 0
	u.GatherTarget = nil
	u.GatherProgress = 0
	u.BuildTarget = 0
}

// AddLog appends a line to the unit's audit log, dropping the oldest entry
// once the cap is reached.
func (u *Unit) AddLog(tick uint64, msg string) {
	u.log = append(u.log, LogEntry{Tick: tick, Message: msg})
	if len(u.log) > maxUnitLog {
		u.log = u.log[len(u.log)-maxUnitLog:]
	}
}

// LogEntries returns a copy of the unit's audit log, oldest first
func (u *Unit) LogEntries() []LogEntry {
	out := make([]LogEntry, len(u.log))
	copy(out, u.log)
	return out
}

// UnitSnapshot is the JSON view of a unit handed to observers and the
// decision layer.
type UnitSnapshot struct {
	ID          UnitID       `json:"id"`
	Type        UnitType     `json:"type"`
	PlayerID    int          `json:"player_id"`
	Pos         GridPosition `json:"pos"`
	Health      int          `json:"health"`
	MaxHealth   int          `json:"max_health"`
	Energy      int          `json:"energy"`
	MaxEnergy   int          `json:"max_energy"`
	State       string       `json:"state"`
	Carrying    string       `json:"carrying,omitempty"`
	CarryAmount int          `json:"carry_amount,omitempty"`
	SiegeMode   bool         `json:"siege_mode,omitempty"`
	LastThought string       `json:"last_thought,omitempty"`
}

// Snapshot returns the unit's observer view
func (u *Unit) Snapshot() UnitSnapshot {
	return UnitSnapshot{
		ID:          u.ID,
		Type:        u.Type,
		PlayerID:    u.PlayerID,
		Pos:         u.Pos,
		Health:      u.Health,
		MaxHealth:   u.MaxHealth,
		Energy:      u.Energy,
		MaxEnergy:   u.MaxEnergy,
		State:       u.State.String(),
		Carrying:    u.Carrying,
		CarryAmount: u.CarryAmount,
		SiegeMode:   u.SiegeMode,
		LastThought: u.LastThought,
	}
}
