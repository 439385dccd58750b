package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
)

func TestHeuristicGathererMinesNearestDeposit(t *testing.T) {
	p := UnitPerception{
		Self: core.UnitSnapshot{ID: 1, Type: core.UnitEngineer, Pos: core.GridPosition{Col: 5, Row: 5}},
		VisibleResources: []ResourceSighting{
			{Pos: core.GridPosition{Col: 1, Row: 1}, Resource: "crystals", Amount: 40},
			{Pos: core.GridPosition{Col: 6, Row: 5}, Resource: "minerals", Amount: 80},
		},
	}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionGather, act.Type)
	assert.Equal(t, core.GridPosition{Col: 6, Row: 5}, *act.TargetPos)
	assert.Equal(t, "mining minerals at (6,5)", act.Reasoning)
}

func TestHeuristicGathererIdlesWithNothingInSight(t *testing.T) {
	p := UnitPerception{Self: core.UnitSnapshot{ID: 1, Type: core.UnitEngineer}}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionIdle, act.Type)
	assert.Equal(t, "no deposits in sight", act.Reasoning)
}

func TestHeuristicFighterPicksNearestEnemyThenLowestID(t *testing.T) {
	p := UnitPerception{
		Self: core.UnitSnapshot{ID: 1, Type: core.UnitMarine, PlayerID: 0, Pos: core.GridPosition{Col: 5, Row: 5}},
		VisibleUnits: []core.UnitSnapshot{
			{ID: 2, Type: core.UnitMarine, PlayerID: 0, Pos: core.GridPosition{Col: 5, Row: 6}},
			{ID: 9, Type: core.UnitMarine, PlayerID: 1, Pos: core.GridPosition{Col: 7, Row: 5}},
			{ID: 4, Type: core.UnitScout, PlayerID: 1, Pos: core.GridPosition{Col: 5, Row: 7}},
			{ID: 3, Type: core.UnitMarine, PlayerID: 1, Pos: core.GridPosition{Col: 9, Row: 9}},
		},
	}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionAttack, act.Type)
	assert.Equal(t, core.UnitID(4), act.TargetUnitID, "allies skipped, ties break toward the lower id")
}

func TestHeuristicFighterHoldsWithoutContacts(t *testing.T) {
	p := UnitPerception{Self: core.UnitSnapshot{ID: 1, Type: core.UnitSiegeTank, PlayerID: 0}}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionIdle, act.Type)
	assert.Equal(t, "holding, no contacts", act.Reasoning)
}

func TestHeuristicScoutReportsContacts(t *testing.T) {
	p := UnitPerception{
		Self: core.UnitSnapshot{ID: 1, Type: core.UnitScout, PlayerID: 0, Pos: core.GridPosition{Col: 2, Row: 2}},
		VisibleUnits: []core.UnitSnapshot{
			{ID: 5, Type: core.UnitSiegeTank, PlayerID: 1, Pos: core.GridPosition{Col: 4, Row: 6}},
		},
	}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionCommunicate, act.Type)
	assert.Equal(t, "enemy siege_tank at (4,6)", act.Message)
}

func TestHeuristicHasNoDoctrineForUnknownTypes(t *testing.T) {
	p := UnitPerception{Self: core.UnitSnapshot{ID: 1, Type: core.UnitType("llama")}}

	act, err := NewHeuristicClient().DecideAction(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ActionIdle, act.Type)
	assert.Equal(t, "no doctrine for this unit", act.Reasoning)
}

func TestHeuristicHoldsUntilTheForceMasses(t *testing.T) {
	enemy := core.UnitSnapshot{ID: 50, PlayerID: 1, Type: core.UnitMarine, Pos: core.GridPosition{Col: 9, Row: 9}}
	army := func(n int) CommandPerception {
		p := CommandPerception{PlayerID: 0}
		for i := 0; i < n; i++ {
			up := UnitPerception{Self: core.UnitSnapshot{
				ID: core.UnitID(i + 1), Type: core.UnitMarine, PlayerID: 0,
				Pos: core.GridPosition{Col: i, Row: 0},
			}}
			if i == 0 {
				up.VisibleUnits = []core.UnitSnapshot{enemy}
			}
			p.Units = append(p.Units, up)
		}
		return p
	}

	h := NewHeuristicClient()

	plans, err := h.PlanDirectives(context.Background(), army(3))
	require.NoError(t, err)
	require.Len(t, plans, 3)
	for i, plan := range plans {
		assert.Equal(t, DirectiveHoldPosition, plan.Type)
		assert.Equal(t, PriorityLow, plan.Priority)
		assert.Equal(t, core.GridPosition{Col: i, Row: 0}, *plan.TargetPos, "holders stay at their own posts")
	}

	plans, err = h.PlanDirectives(context.Background(), army(4))
	require.NoError(t, err)
	require.Len(t, plans, 4)
	for _, plan := range plans {
		assert.Equal(t, DirectiveAttackEnemy, plan.Type)
		assert.Equal(t, enemy.ID, plan.TargetUnitID, "the whole force pushes one contact")
		assert.Equal(t, core.GridPosition{Col: 9, Row: 9}, *plan.TargetPos)
		assert.Equal(t, PriorityHigh, plan.Priority)
	}
}

func TestHeuristicPlansKeepEngineersMining(t *testing.T) {
	p := CommandPerception{
		PlayerID: 0,
		Units: []UnitPerception{{
			Self: core.UnitSnapshot{ID: 1, Type: core.UnitEngineer, PlayerID: 0, Pos: core.GridPosition{Col: 3, Row: 3}},
		}},
		KnownResources: []ResourceSighting{
			{Pos: core.GridPosition{Col: 10, Row: 10}, Resource: "minerals", Amount: 60},
			{Pos: core.GridPosition{Col: 5, Row: 3}, Resource: "crystals", Amount: 20},
		},
	}

	plans, err := NewHeuristicClient().PlanDirectives(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, DirectiveGatherResources, plans[0].Type)
	assert.Equal(t, core.GridPosition{Col: 5, Row: 3}, *plans[0].TargetPos, "scouted ground substitutes for line of sight")
	assert.Equal(t, PriorityRoutine, plans[0].Priority)
}
