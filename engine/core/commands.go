package core

import (
	"sort"
	"sync"
)

// CommandType identifies a kind of player command
type CommandType uint8

const (
	CmdMoveUnits CommandType = iota
	CmdAttackTarget
	CmdGatherResource
	CmdBuildStructure
	CmdTrainUnit
	CmdSetRally
	CmdStopUnits
	CmdToggleSiege
	CmdStandingOrder
)

var commandNames = [...]string{
	CmdMoveUnits:      "move_units",
	CmdAttackTarget:   "attack_target",
	CmdGatherResource: "gather_resource",
	CmdBuildStructure: "build_structure",
	CmdTrainUnit:      "train_unit",
	CmdSetRally:       "set_rally",
	CmdStopUnits:      "stop_units",
	CmdToggleSiege:    "toggle_siege",
	CmdStandingOrder:  "standing_order",
}

func (t CommandType) String() string {
	if int(t) < len(commandNames) {
		return commandNames[t]
	}
	return "unknown"
}

// CommandPayload carries the type-specific arguments of a command. Unused
// fields stay zero.
type CommandPayload struct {
	TargetPos        *GridPosition `json:"target_pos,omitempty"`
	TargetUnitID     UnitID        `json:"target_unit_id,omitempty"`
	TargetBuildingID BuildingID    `json:"target_building_id,omitempty"`
	UnitType         UnitType      `json:"unit_type,omitempty"`
	BuildingType     BuildingType  `json:"building_type,omitempty"`
	Message          string        `json:"message,omitempty"`
}

// GameCommand is a player-issued order scheduled for a specific tick
type GameCommand struct {
	Tick          uint64         `json:"tick"`
	PlayerID      int            `json:"player_id"`
	Type          CommandType    `json:"type"`
	TargetUnitIDs []UnitID       `json:"target_unit_ids,omitempty"`
	Payload       CommandPayload `json:"payload"`
}

// CommandQueue holds pending commands ordered by scheduled tick. Commands
// for the same tick keep their insertion order. Safe for concurrent use;
// external surfaces submit from their own goroutines while the tick loop
// drains.
type CommandQueue struct {
	mu   sync.Mutex
	cmds []GameCommand
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Add inserts a command at its tick-ordered position. Equal-tick commands
// land after existing ones, preserving submission order.
func (q *CommandQueue) Add(cmd GameCommand) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := sort.Search(len(q.cmds), func(i int) bool { return q.cmds[i].Tick > cmd.Tick })
	q.cmds = append(q.cmds, GameCommand{})
	copy(q.cmds[i+1:], q.cmds[i:])
	q.cmds[i] = cmd
}

// Drain removes and returns every command scheduled for exactly the given
// tick, in insertion order. Commands for other ticks stay queued.
func (q *CommandQueue) Drain(tick uint64) []GameCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := sort.Search(len(q.cmds), func(i int) bool { return q.cmds[i].Tick >= tick })
	end := sort.Search(len(q.cmds), func(i int) bool { return q.cmds[i].Tick > tick })
	if start == end {
		return nil
	}

	out := make([]GameCommand, end-start)
	copy(out, q.cmds[start:end])
	q.cmds = append(q.cmds[:start], q.cmds[end:]...)
	return out
}

// PeekNextTick returns the tick of the earliest pending command
func (q *CommandQueue) PeekNextTick() (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return 0, false
	}
	return q.cmds[0].Tick, true
}

// Len returns the number of pending commands
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
