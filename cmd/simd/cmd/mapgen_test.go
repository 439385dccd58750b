package cmd

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
	"github.com/codyborn/agent-rts/engine/systems"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGeneratedMapIsPlayable(t *testing.T) {
	tm := generateSkirmishMap("proving grounds", 64, 64)

	assert.Equal(t, 64, tm.Width)
	assert.Equal(t, 64, tm.Height)
	assert.Equal(t, 2, tm.MaxPlayers)
	require.Len(t, tm.StartPositions, 2)

	for _, sp := range tm.StartPositions {
		assert.True(t, tm.IsWalkable(sp.Col, sp.Row), "start (%d,%d) must be walkable", sp.Col, sp.Row)
	}

	// The river really splits the banks
	assert.False(t, tm.IsWalkable(0, 32))

	minerals, crystals := 0, 0
	for i := range tm.Tiles {
		switch tm.Tiles[i].Resource {
		case maplib.ResourceMinerals:
			minerals++
		case maplib.ResourceCrystals:
			crystals++
		}
	}
	assert.Equal(t, 12, minerals, "each base gets a six tile mineral field")
	assert.Equal(t, 4, crystals, "contested field by the western bridge")

	// The bridges must connect the two bases
	state := core.NewGameState(tm, core.NewEventBus())
	from := core.GridPosition{Col: tm.StartPositions[0].Col, Row: tm.StartPositions[0].Row}
	to := core.GridPosition{Col: tm.StartPositions[1].Col, Row: tm.StartPositions[1].Row}
	assert.NotNil(t, state.FindPath(from, to))
}

func TestMapgenRejectsTinyMaps(t *testing.T) {
	origW, origH := mapgenWidth, mapgenHeight
	defer func() { mapgenWidth, mapgenHeight = origW, origH }()

	mapgenWidth, mapgenHeight = 10, 64
	err := mapgenCmd.RunE(mapgenCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 24x24")
}

func TestOpenTileNearScansRowMajor(t *testing.T) {
	tm := maplib.NewTileMap("scratch", 9, 9)
	state := core.NewGameState(tm, core.NewEventBus())
	anchor := core.GridPosition{Col: 4, Row: 4}

	pos, ok := openTileNear(state, anchor, 1)
	require.True(t, ok)
	assert.Equal(t, core.GridPosition{Col: 3, Row: 3}, pos)

	stats := systems.DefaultDefs().Unit(core.UnitMarine).Stats
	require.NotNil(t, state.SpawnUnit(0, core.UnitMarine, pos, stats))

	pos, ok = openTileNear(state, anchor, 1)
	require.True(t, ok)
	assert.Equal(t, core.GridPosition{Col: 4, Row: 3}, pos, "occupied tiles are skipped")

	tm.SetTerrain(4, 3, 4, 3, maplib.TerrainWater)
	pos, ok = openTileNear(state, anchor, 1)
	require.True(t, ok)
	assert.Equal(t, core.GridPosition{Col: 5, Row: 3}, pos, "unwalkable tiles are skipped")

	flooded := maplib.NewTileMap("flooded", 3, 3)
	flooded.SetTerrain(0, 0, 2, 2, maplib.TerrainWater)
	_, ok = openTileNear(core.NewGameState(flooded, core.NewEventBus()), core.GridPosition{Col: 1, Row: 1}, 1)
	assert.False(t, ok)
}

func TestGameOverNeedsOneStandingPlayer(t *testing.T) {
	tm := maplib.NewTileMap("scratch", 8, 8)
	state := core.NewGameState(tm, core.NewEventBus())
	a := core.NewPlayer(0, "a", true)
	b := core.NewPlayer(1, "b", false)
	state.AddPlayer(a)
	state.AddPlayer(b)

	assert.False(t, gameOver(state))

	b.Defeated = true
	assert.True(t, gameOver(state))
}

func TestSetupSkirmishFieldsTwoArmies(t *testing.T) {
	tm := generateSkirmishMap("proving grounds", 64, 64)
	state := core.NewGameState(tm, core.NewEventBus())
	defs := systems.DefaultDefs()

	require.NoError(t, setupSkirmish(state, defs, quietLogger()))

	players := state.Players()
	require.Len(t, players, 2)
	assert.True(t, players[0].IsLocal)
	assert.False(t, players[1].IsLocal)

	for _, p := range players {
		assert.Equal(t, startingCredits, p.Credits)

		buildings := state.BuildingsForPlayer(p.ID)
		require.Len(t, buildings, 1)
		assert.Equal(t, core.BuildingCommandCenter, buildings[0].Type)

		byType := make(map[core.UnitType]int)
		for _, u := range state.UnitsForPlayer(p.ID) {
			byType[u.Type]++
		}
		assert.Equal(t, 3, byType[core.UnitEngineer])
		assert.Equal(t, 1, byType[core.UnitScout])
		assert.Equal(t, 2, byType[core.UnitMarine])
	}
}

func TestSetupSkirmishRejectsSoloMaps(t *testing.T) {
	tm := maplib.NewTileMap("solo", 32, 32)
	state := core.NewGameState(tm, core.NewEventBus())

	err := setupSkirmish(state, systems.DefaultDefs(), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start positions")
}
