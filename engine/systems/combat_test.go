package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyborn/agent-rts/engine/core"
)

func TestCombatStrikeInRange(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 4, Row: 2}, fastStats())
	require.True(t, OrderAttackUnit(s, attacker, target.ID))

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	assert.Equal(t, 91, target.Health, "10 attack less half of 2 defense")
	assert.Equal(t, attacker.CooldownTicks, attacker.AttackCooldown)
	assert.Empty(t, attacker.Path, "striking plants the unit")

	attacks := eventsOfType(s, core.EvtUnitAttack)
	require.Len(t, attacks, 1)
	hit := attacks[0].Payload.(core.UnitAttackPayload)
	assert.Equal(t, attacker.ID, hit.AttackerID)
	assert.Equal(t, target.ID, hit.TargetUnitID)
	assert.Equal(t, 9, hit.Damage)

	damaged := eventsOfType(s, core.EvtUnitDamaged)
	require.Len(t, damaged, 1)
	assert.Equal(t, 91, damaged[0].Payload.(core.UnitDamagedPayload).Remaining)
}

func TestCombatCooldownGatesStrikes(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 4, Row: 2}, fastStats())
	require.True(t, OrderAttackUnit(s, attacker, target.ID))

	c := NewCombatSystem(s)
	for i := 0; i < 4; i++ {
		c.Update(uint64(i), testDT)
	}

	// Cooldown 2 means a strike, two cooldown ticks, then the next strike.
	assert.Len(t, eventsOfType(s, core.EvtUnitAttack), 2)
	assert.Equal(t, 82, target.Health)
}

func TestCombatKillIdlesAttacker(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 4, Row: 2}, fastStats())
	target.Health = 5
	require.True(t, OrderAttackUnit(s, attacker, target.ID))

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	assert.Nil(t, s.Unit(target.ID))
	assert.Zero(t, attacker.TargetUnitID)
	assert.Equal(t, core.StateIdle, attacker.State)

	destroyed := eventsOfType(s, core.EvtUnitDestroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, attacker.ID, destroyed[0].Payload.(core.UnitDestroyedPayload).KillerID)
}

func TestCombatDropsDeadTarget(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 4, Row: 2}, fastStats())
	require.True(t, OrderAttackUnit(s, attacker, target.ID))
	s.DestroyUnit(target.ID, 0)

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	assert.Equal(t, core.StateIdle, attacker.State)
	assert.Zero(t, attacker.TargetUnitID)
	assert.Empty(t, eventsOfType(s, core.EvtUnitAttack))
}

func TestCombatPursuesOutOfRangeTarget(t *testing.T) {
	s := newWorld(20, 20)
	addPlayers(s)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 12, Row: 2}, fastStats())
	require.True(t, OrderAttackUnit(s, attacker, target.ID))

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	assert.NotEmpty(t, attacker.Path, "pursuit paths toward the target")
	assert.Empty(t, eventsOfType(s, core.EvtUnitAttack))

	t.Run("sieged attackers hold position instead", func(t *testing.T) {
		sieged := s.SpawnUnit(0, core.UnitSiegeTank, core.GridPosition{Col: 2, Row: 8}, fastStats())
		require.True(t, OrderAttackUnit(s, sieged, target.ID))
		sieged.SiegeMode = true

		c.Update(1, testDT)
		assert.Empty(t, sieged.Path)
	})
}

func TestSiegeModeExtendsRangeAndAttack(t *testing.T) {
	s := newWorld(20, 20)
	addPlayers(s)

	stats := fastStats()
	stats.Range = 5
	stats.Attack = 25
	stats.CanSiege = true
	tank := s.SpawnUnit(0, core.UnitSiegeTank, core.GridPosition{Col: 2, Row: 2}, stats)
	target := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 9, Row: 2}, fastStats()) // distance 7
	require.True(t, OrderAttackUnit(s, tank, target.ID))
	tank.SiegeMode = true

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	attacks := eventsOfType(s, core.EvtUnitAttack)
	require.Len(t, attacks, 1, "siege range 5+3 reaches distance 7")
	assert.Equal(t, 25+SiegeAttackBonus-1, attacks[0].Payload.(core.UnitAttackPayload).Damage, "siege bonus added before defense")
}

func TestAutoEngageOnlyForAutonomousPlayers(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	localIdle := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 2, Row: 2}, fastStats())
	enemyIdle := s.SpawnUnit(1, core.UnitMarine, core.GridPosition{Col: 5, Row: 2}, fastStats())

	c := NewCombatSystem(s)
	c.Update(0, testDT)

	assert.Equal(t, core.StateAttacking, enemyIdle.State, "autonomous idles engage on sight")
	assert.Equal(t, localIdle.ID, enemyIdle.TargetUnitID)
	assert.Equal(t, core.StateIdle, localIdle.State, "local units wait for orders")
	assert.Zero(t, localIdle.TargetUnitID)
}

func TestCombatDestroysBuildings(t *testing.T) {
	s := newWorld(16, 16)
	addPlayers(s)
	b := s.PlaceBuilding(1, core.BuildingBarracks, core.GridPosition{Col: 6, Row: 2}, core.BuildingStats{MaxHealth: 15, Footprint: 2}, false, 0)
	require.NotNil(t, b)
	attacker := s.SpawnUnit(0, core.UnitMarine, core.GridPosition{Col: 3, Row: 2}, fastStats())
	require.True(t, OrderAttackBuilding(s, attacker, b.ID))

	c := NewCombatSystem(s)
	c.Update(0, testDT) // 10 damage
	assert.Equal(t, 5, b.Health)

	for i := 1; i < 4; i++ {
		c.Update(uint64(i), testDT)
	}

	assert.Nil(t, s.Building(b.ID))
	assert.Equal(t, core.StateIdle, attacker.State)
	assert.Zero(t, attacker.TargetBuildingID)
	assert.Len(t, eventsOfType(s, core.EvtBuildingDestroyed), 1)
	assert.True(t, s.Map.IsWalkable(6, 2), "footprint freed after destruction")
}
