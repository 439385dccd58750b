package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
	"github.com/codyborn/agent-rts/engine/systems"
)

func TestUnitPerceptionSeesOnlyInsideVision(t *testing.T) {
	s := newWorld(20, 20)
	local, _ := addPlayers(s)
	local.Credits = 275

	u := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 10, Row: 10}, soldierStats())
	near := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 14, Row: 10}, soldierStats())
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 10, Row: 17}, soldierStats())
	// Chebyshev distance 5 but euclidean 41 > 36: outside the circle
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 15, Row: 14}, soldierStats())

	require.NotNil(t, s.PlaceBuilding(1, core.BuildingBarracks, core.GridPosition{Col: 14, Row: 14}, core.BuildingStats{MaxHealth: 300, Footprint: 2}, false, 0))
	require.NotNil(t, s.PlaceBuilding(1, core.BuildingBarracks, core.GridPosition{Col: 1, Row: 1}, core.BuildingStats{MaxHealth: 300, Footprint: 2}, false, 0))

	s.Map.PlaceResource(12, 12, maplib.ResourceCrystals, 30)
	local.SetStandingOrder(u.ID, "screen the flank")

	p := BuildUnitPerception(s, u, "hold_position", nil, 42)

	assert.Equal(t, uint64(42), p.Tick)
	assert.Equal(t, u.ID, p.Self.ID)
	assert.Equal(t, "hold_position", p.Directive)
	assert.Equal(t, "screen the flank", p.StandingOrder)
	assert.Equal(t, 275, p.Credits)

	ids := make([]core.UnitID, 0, len(p.VisibleUnits))
	for _, v := range p.VisibleUnits {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []core.UnitID{near.ID}, ids, "sight is a euclidean circle, not a square")

	require.Len(t, p.VisibleBuildings, 1, "the far barracks stays hidden")
	require.Len(t, p.VisibleResources, 1)
	assert.Equal(t, "crystals", p.VisibleResources[0].Resource)
	assert.Equal(t, 30, p.VisibleResources[0].Amount)
}

func TestUnitPerceptionKeepsOnlyAlliedChatter(t *testing.T) {
	s := newWorld(12, 12)
	addPlayers(s)
	u := s.SpawnUnit(0, core.UnitScout, core.GridPosition{Col: 2, Row: 2}, soldierStats())

	msgs := []Message{
		{Tick: 5, UnitID: 8, PlayerID: 0, Text: "mine the east field"},
		{Tick: 6, UnitID: 9, PlayerID: 1, Text: "enemy chatter"},
	}
	p := BuildUnitPerception(s, u, "", msgs, 10)

	require.Len(t, p.Messages, 1)
	assert.Equal(t, "mine the east field", p.Messages[0].Text)
}

func TestThreatAssessmentWeighsProximity(t *testing.T) {
	s := newWorld(20, 20)
	addPlayers(s)
	u := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 10, Row: 10}, soldierStats())

	assert.Zero(t, ThreatAssessment(s, u), "empty field")

	// attack 10 at distance 1 with vision 6: weight 1 - 1/7
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 11, Row: 10}, soldierStats())
	nearThreat := ThreatAssessment(s, u)
	assert.InDelta(t, 10*(1-1.0/7.0), nearThreat, 1e-9)

	// a second attacker at the vision edge barely registers
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 16, Row: 10}, soldierStats())
	total := ThreatAssessment(s, u)
	assert.InDelta(t, nearThreat+10*(1-6.0/7.0), total, 1e-9)

	// unarmed units scare nobody
	s.SpawnUnit(1, core.UnitEngineer, core.GridPosition{Col: 10, Row: 11}, workerStats())
	assert.InDelta(t, total, ThreatAssessment(s, u), 1e-9)

	// sieged tanks count their bonus
	tank := s.SpawnUnit(1, core.UnitSiegeTank, core.GridPosition{Col: 10, Row: 9}, soldierStats())
	tank.SiegeMode = true
	assert.InDelta(t, total+float64(10+systems.SiegeAttackBonus)*(1-1.0/7.0), ThreatAssessment(s, u), 1e-9)
}

func TestCommandPerceptionSurveysTheWholeArmy(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	s.Map.PlaceResource(3, 9, maplib.ResourceMinerals, 50)
	s.Fog(0).Reveal(core.GridPosition{Col: 3, Row: 9})
	s.Player(0).Credits = 180

	a := s.SpawnUnit(0, core.UnitEngineer, core.GridPosition{Col: 2, Row: 2}, workerStats())
	b := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 4, Row: 2}, soldierStats())
	s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 14, Row: 14}, soldierStats())
	require.NotNil(t, s.PlaceBuilding(0, core.BuildingCommandCenter, core.GridPosition{Col: 8, Row: 8}, core.BuildingStats{MaxHealth: 1500, Footprint: 3, Depot: true}, false, 0))

	x := NewDirectiveExecutor(s, systems.DefaultDefs())
	x.Set(NewDirective(DirectivePlan{UnitID: a.ID, Type: DirectiveGatherResources}, 90))

	p := BuildCommandPerception(s, 0, x, nil, 100)

	assert.Equal(t, 0, p.PlayerID)
	assert.Equal(t, 180, p.Credits)

	require.Len(t, p.Units, 2, "only this player's army")
	assert.Equal(t, a.ID, p.Units[0].Self.ID)
	assert.Equal(t, "gather_resources", p.Units[0].Directive)
	assert.Equal(t, b.ID, p.Units[1].Self.ID)
	assert.Empty(t, p.Units[1].Directive)

	require.Len(t, p.Buildings, 1)
	require.Len(t, p.KnownResources, 1)
	assert.Equal(t, core.GridPosition{Col: 3, Row: 9}, p.KnownResources[0].Pos)
}
