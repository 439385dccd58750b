package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
)

// GatherSystem runs the harvest cycle for gatherer units: walk to the
// deposit, accrue progress while adjacent, carry a trip load home, deposit
// into the player ledger. Gatherers of local players idle after each
// deposit so the directive layer decides the next trip; autonomous
// gatherers loop back to the same deposit until it runs dry.
type GatherSystem struct {
	state *core.GameState
	bus   *core.EventBus
}

func NewGatherSystem(state *core.GameState) *GatherSystem {
	return &GatherSystem{state: state, bus: state.Bus}
}

func (s *GatherSystem) Name() string { return "gather" }

func (s *GatherSystem) Update(tick uint64, dt float64) {
	for _, u := range s.state.Units() {
		if !u.Alive() || !u.CanGather {
			continue
		}
		switch u.State {
		case core.StateIdle, core.StateMoving:
			if u.GatherTarget != nil && u.Pos.WithinRange(*u.GatherTarget, GatherRange) {
				u.Path = nil
				u.TargetPos = nil
				u.State = core.StateGathering
				u.GatherProgress = 0
			}
		case core.StateGathering:
			s.updateGathering(u)
		case core.StateReturning:
			s.updateReturning(u)
		}
	}
}

func (s *GatherSystem) updateGathering(u *core.Unit) {
	if u.GatherTarget == nil {
		u.State = core.StateIdle
		return
	}
	target := *u.GatherTarget

	tile := s.state.TileAt(target)
	if tile == nil || !tile.HasResource() {
		// Deposit ran out from under us; bank what we hold
		if u.CarryAmount > 0 {
			s.startReturn(u)
		} else {
			u.GatherTarget = nil
			u.State = core.StateIdle
		}
		return
	}

	if !u.Pos.WithinRange(target, GatherRange) {
		// Walking back for another trip. Progress only accrues while
		// adjacent.
		if len(u.Path) == 0 {
			if path := s.state.FindPath(u.Pos, target); path != nil {
				u.Path = path
			} else {
				u.State = core.StateIdle
			}
		}
		return
	}

	u.Path = nil
	u.GatherProgress++
	if u.GatherProgress < GatherTicks {
		return
	}

	// One trip load, capped by what is left
	take := GatherTripAmount
	if take > tile.ResourceAmount {
		take = tile.ResourceAmount
	}
	tile.ResourceAmount -= take
	u.Carrying = string(tile.Resource)
	u.CarryAmount = take
	u.GatherProgress = 0

	s.bus.Emit(core.EvtResourceHarvested, core.ResourceHarvestedPayload{
		UnitID:    u.ID,
		Pos:       target,
		Resource:  string(tile.Resource),
		Amount:    take,
		Remaining: tile.ResourceAmount,
	})

	if tile.ResourceAmount <= 0 {
		res := string(tile.Resource)
		tile.Resource = maplib.ResourceNone
		s.bus.Emit(core.EvtResourceDepleted, core.ResourceDepletedPayload{
			Pos:      target,
			Resource: res,
		})
	}

	s.startReturn(u)
}

func (s *GatherSystem) startReturn(u *core.Unit) {
	u.State = core.StateReturning
	u.Path = nil
	if depot := s.state.NearestDepot(u); depot != nil {
		if path := s.state.PathToBuilding(u.Pos, depot); path != nil {
			u.Path = path
		}
	}
}

func (s *GatherSystem) updateReturning(u *core.Unit) {
	depot := s.state.NearestDepot(u)
	if depot == nil {
		// Nowhere to unload; hold the cargo and await orders
		u.State = core.StateIdle
		return
	}

	if depot.AdjacentTo(u.Pos) {
		s.deposit(u, depot)
		return
	}

	if len(u.Path) == 0 {
		// Re-try every tick until a route opens
		if path := s.state.PathToBuilding(u.Pos, depot); path != nil {
			u.Path = path
		}
	}
}

func (s *GatherSystem) deposit(u *core.Unit, depot *core.Building) {
	player := s.state.Player(u.PlayerID)
	amount := u.CarryAmount
	total := 0
	if player != nil {
		total = player.AddCredits(amount * ResourceValue(maplib.ResourceType(u.Carrying)))
	}

	s.bus.Emit(core.EvtResourceDeposited, core.ResourceDepositedPayload{
		UnitID:   u.ID,
		PlayerID: u.PlayerID,
		Amount:   amount,
		Total:    total,
	})

	u.Carrying = ""
	u.CarryAmount = 0
	u.Path = nil

	if player != nil && player.IsLocal {
		// Cede the next decision to the directive layer. The target is
		// dropped too, or a deposit inside gather range would flip the
		// idle unit straight back to work with no new order.
		u.GatherTarget = nil
		u.State = core.StateIdle
		return
	}

	// Autonomous gatherers loop on the same deposit while it lasts
	if u.GatherTarget != nil {
		if tile := s.state.TileAt(*u.GatherTarget); tile != nil && tile.HasResource() {
			u.State = core.StateGathering
			u.GatherProgress = 0
			if path := s.state.FindPath(u.Pos, *u.GatherTarget); path != nil {
				u.Path = path
			}
			return
		}
	}
	u.GatherTarget = nil
	u.State = core.StateIdle
}
