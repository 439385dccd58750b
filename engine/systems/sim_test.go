package systems

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
)

// buildSkirmish assembles the full system pipeline on a small symmetric
// map: two players, a command center and a starting force each, deposits
// near both bases.
func buildSkirmish() (*core.Engine, *core.GameState) {
	m := maplib.NewTileMap("proving-grounds", 24, 24)
	m.PlaceResource(8, 4, maplib.ResourceMinerals, 200)
	m.PlaceResource(16, 20, maplib.ResourceMinerals, 200)

	s := core.NewGameState(m, core.NewEventBus())
	local := core.NewPlayer(0, "commander", true)
	raider := core.NewPlayer(1, "raider", false)
	s.AddPlayer(local)
	s.AddPlayer(raider)
	local.AddCredits(400)
	raider.AddCredits(400)

	defs := DefaultDefs()
	cc := defs.Building(core.BuildingCommandCenter)
	s.PlaceBuilding(0, core.BuildingCommandCenter, core.GridPosition{Col: 3, Row: 3}, cc.Stats, false, 0)
	s.PlaceBuilding(1, core.BuildingCommandCenter, core.GridPosition{Col: 18, Row: 18}, cc.Stats, false, 0)

	eng := defs.Unit(core.UnitEngineer)
	mar := defs.Unit(core.UnitMarine)
	s.SpawnUnit(0, core.UnitEngineer, core.GridPosition{Col: 7, Row: 4}, eng.Stats)
	s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 7, Row: 7}, mar.Stats)
	s.SpawnUnit(1, core.UnitEngineer, core.GridPosition{Col: 17, Row: 20}, eng.Stats)
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 16, Row: 16}, mar.Stats)

	e := core.NewEngine(s, 20, nil)
	e.AddSystem(NewMovementSystem(s))
	e.AddSystem(NewCombatSystem(s))
	e.AddSystem(NewGatherSystem(s))
	e.AddSystem(NewProductionSystem(s, defs))
	e.AddSystem(NewVisionSystem(s))
	NewCommandApplier(s, defs, nil).Attach(s.Bus)
	return e, s
}

// submitScenario schedules one of everything: a gather trip, a march into
// enemy sight and a production order.
func submitScenario(e *core.Engine, s *core.GameState) {
	mine := s.UnitsForPlayer(0)
	depot := s.BuildingsForPlayer(0)[0]

	e.Submit(core.GameCommand{
		Tick: 1, PlayerID: 0, Type: core.CmdGatherResource,
		TargetUnitIDs: []core.UnitID{mine[0].ID},
		Payload:       core.CommandPayload{TargetPos: &core.GridPosition{Col: 8, Row: 4}},
	})
	e.Submit(core.GameCommand{
		Tick: 2, PlayerID: 0, Type: core.CmdMoveUnits,
		TargetUnitIDs: []core.UnitID{mine[1].ID},
		Payload:       core.CommandPayload{TargetPos: &core.GridPosition{Col: 12, Row: 12}},
	})
	e.Submit(core.GameCommand{
		Tick: 5, PlayerID: 0, Type: core.CmdTrainUnit,
		Payload: core.CommandPayload{TargetBuildingID: depot.ID, UnitType: core.UnitScout},
	})
}

func TestFullPipelineIsDeterministic(t *testing.T) {
	type run struct {
		digest string
		events []core.Event
		state  *core.GameState
	}
	play := func() run {
		e, s := buildSkirmish()
		submitScenario(e, s)
		e.StepN(80)
		return run{digest: s.Digest(), events: s.Bus.Log(), state: s}
	}

	a, b := play(), play()

	require.Equal(t, a.digest, b.digest, "identical inputs must converge on one state")
	require.Equal(t, len(a.events), len(b.events))
	for i := range a.events {
		assert.Equal(t, a.events[i].Type, b.events[i].Type, "event %d", i)
		assert.Equal(t, a.events[i].Tick, b.events[i].Tick, "event %d", i)
		assert.Equal(t, a.events[i].Payload, b.events[i].Payload, "event %d", i)
	}

	// The run actually did something worth reproducing.
	assert.Greater(t, a.state.Player(0).Credits, 340, "gather trips banked credits after paying for the scout")
	assert.Len(t, a.state.UnitsForPlayer(0), 3, "the scout finished training")
	assert.NotEmpty(t, eventsOfType(a.state, core.EvtUnitAttack), "the march provoked the raider marine")
	assert.NotEmpty(t, eventsOfType(a.state, core.EvtResourceDeposited))
}

func TestReplayReproducesRun(t *testing.T) {
	fs := afero.NewMemMapFs()

	first, s1 := buildSkirmish()
	rec, err := core.NewReplayRecorder(fs, "match.jsonl")
	require.NoError(t, err)
	first.SetRecorder(rec)
	submitScenario(first, s1)
	first.StepN(80)
	require.NoError(t, rec.Close())

	cmds, err := core.LoadReplay(fs, "match.jsonl")
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	second, s2 := buildSkirmish()
	for _, cmd := range cmds {
		second.Submit(cmd)
	}
	second.StepN(80)

	assert.Equal(t, s1.Digest(), s2.Digest(), "a replayed command stream reproduces the run")
}
