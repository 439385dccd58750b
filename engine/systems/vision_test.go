package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
)

func scoutStats(vision int) core.UnitStats {
	return core.UnitStats{MaxHealth: 50, Vision: vision, Speed: 20}
}

func TestVisionRevealsCircle(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	s.SpawnUnit(0, core.UnitScout, core.GridPosition{Col: 5, Row: 5}, scoutStats(2))

	NewVisionSystem(s).Update(0, testDT)

	fog := s.Fog(0)
	assert.True(t, fog.Visible(core.GridPosition{Col: 5, Row: 5}))
	assert.True(t, fog.Visible(core.GridPosition{Col: 7, Row: 5}), "straight edge of the circle")
	assert.True(t, fog.Visible(core.GridPosition{Col: 6, Row: 6}))
	assert.False(t, fog.Visible(core.GridPosition{Col: 7, Row: 7}), "corner falls outside the circle")
	assert.False(t, fog.Seen(core.GridPosition{Col: 12, Row: 12}))
}

func TestVisionDemotesLeftTilesToExplored(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	u := s.SpawnUnit(0, core.UnitScout, core.GridPosition{Col: 5, Row: 5}, scoutStats(2))

	v := NewVisionSystem(s)
	v.Update(0, testDT)
	require.True(t, s.Fog(0).Visible(core.GridPosition{Col: 5, Row: 5}))

	u.Pos = core.GridPosition{Col: 12, Row: 12}
	v.Update(1, testDT)

	fog := s.Fog(0)
	assert.False(t, fog.Visible(core.GridPosition{Col: 5, Row: 5}))
	assert.True(t, fog.Seen(core.GridPosition{Col: 5, Row: 5}), "explored ground stays known")
	assert.True(t, fog.Visible(core.GridPosition{Col: 12, Row: 12}))
}

func TestVisionSharedBetweenAllies(t *testing.T) {
	s := newWorld(16, 16)
	p0, p1 := addPlayers(s)
	p1.TeamID = p0.TeamID
	s.SpawnUnit(0, core.UnitScout, core.GridPosition{Col: 5, Row: 5}, scoutStats(2))

	NewVisionSystem(s).Update(0, testDT)

	assert.True(t, s.Fog(1).Visible(core.GridPosition{Col: 5, Row: 5}), "allied fog shares sight")
}

func TestEnemyNearbyFiresOnEntryAndReentry(t *testing.T) {
	s := newWorld(32, 32)
	addPlayers(s)
	watcher := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	intruder := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 5, Row: 2}, fastStats())

	sightings := func() []core.Event {
		var out []core.Event
		for _, e := range eventsOfType(s, core.EvtEnemyNearby) {
			if e.Payload.(core.EnemyNearbyPayload).UnitID == watcher.ID {
				out = append(out, e)
			}
		}
		return out
	}

	v := NewVisionSystem(s)
	v.Update(0, testDT)
	require.Len(t, sightings(), 1, "first contact fires")
	assert.Equal(t, intruder.ID, sightings()[0].Payload.(core.EnemyNearbyPayload).EnemyUnitID)

	v.Update(1, testDT)
	assert.Len(t, sightings(), 1, "continued contact stays quiet")

	intruder.Pos = core.GridPosition{Col: 25, Row: 25}
	v.Update(2, testDT)
	assert.Len(t, sightings(), 1)

	intruder.Pos = core.GridPosition{Col: 5, Row: 2}
	v.Update(3, testDT)
	assert.Len(t, sightings(), 2, "re-entry fires again")
}

func TestResourceNearbyFiresOnFirstSight(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	s.Map.PlaceResource(4, 2, maplib.ResourceCrystals, 300)
	u := s.SpawnUnit(0, core.UnitScout, core.GridPosition{Col: 2, Row: 2}, scoutStats(5))

	v := NewVisionSystem(s)
	v.Update(0, testDT)

	found := eventsOfType(s, core.EvtResourceNearby)
	require.Len(t, found, 1)
	p := found[0].Payload.(core.ResourceNearbyPayload)
	assert.Equal(t, u.ID, p.UnitID)
	assert.Equal(t, core.GridPosition{Col: 4, Row: 2}, p.Pos)
	assert.Equal(t, "crystals", p.Resource)

	v.Update(1, testDT)
	assert.Len(t, eventsOfType(s, core.EvtResourceNearby), 1, "known deposits stay quiet")
}

func TestDefeatDeclaredOnceEverythingIsGone(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	doomed := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 12, Row: 12}, fastStats())

	v := NewVisionSystem(s)
	v.Update(0, testDT)
	assert.Empty(t, eventsOfType(s, core.EvtPlayerDefeated))

	s.DestroyUnit(doomed.ID, 0)
	v.Update(1, testDT)

	defeats := eventsOfType(s, core.EvtPlayerDefeated)
	require.Len(t, defeats, 1)
	assert.Equal(t, 1, defeats[0].Payload.(core.PlayerDefeatedPayload).PlayerID)
	assert.True(t, s.Player(1).Defeated)
	assert.False(t, s.Player(0).Defeated)

	v.Update(2, testDT)
	assert.Len(t, eventsOfType(s, core.EvtPlayerDefeated), 1, "defeat is declared once")
}

func TestPlayerWithNoHoldingsEverIsNotDefeated(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	s.AddPlayer(core.NewPlayer(2, "spectator", false))
	s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())

	v := NewVisionSystem(s)
	v.Update(0, testDT)
	v.Update(1, testDT)

	assert.False(t, s.Player(2).Defeated, "never had anything to lose")
	assert.Empty(t, eventsOfType(s, core.EvtPlayerDefeated))
}
