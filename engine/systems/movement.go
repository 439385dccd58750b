package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// MovementSystem advances units along their paths, one tile per step with
// a per-unit cooldown derived from speed. It owns the MOVING to IDLE
// transition; other work states keep their paths moving here too.
type MovementSystem struct {
	state *core.GameState
}

func NewMovementSystem(state *core.GameState) *MovementSystem {
	return &MovementSystem{state: state}
}

func (s *MovementSystem) Name() string { return "movement" }

func (s *MovementSystem) Update(tick uint64, dt float64) {
	for _, u := range s.state.Units() {
		if u.State == core.StateDead || u.SiegeMode {
			continue
		}

		if len(u.Path) == 0 {
			if u.State == core.StateMoving {
				u.State = core.StateIdle
				u.TargetPos = nil
			}
			continue
		}

		if u.MoveCooldown > 0 {
			u.MoveCooldown--
			continue
		}

		next := u.Path[0]
		if !s.state.Map.IsWalkable(next.Col, next.Row) {
			// Route blocked since it was planned, usually by a new
			// building. Re-path to the original goal.
			goal := u.Path[len(u.Path)-1]
			if u.TargetPos != nil {
				goal = *u.TargetPos
			}
			if path := s.state.FindPath(u.Pos, goal); path != nil {
				u.Path = path
			} else {
				u.Path = nil
				if u.State == core.StateMoving {
					u.State = core.StateIdle
					u.TargetPos = nil
				}
			}
			continue
		}

		u.Pos = next
		u.Path = u.Path[1:]
		u.MoveCooldown = stepInterval(u.Speed, dt) - 1
	}
}

// stepInterval converts tiles-per-second speed into whole ticks per tile
func stepInterval(speed, dt float64) int {
	if speed <= 0 {
		return 1
	}
	n := int(1.0/(speed*dt) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
