package systems

import (
	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
)

// Gathering tuning. A gatherer must sit adjacent to a deposit for
// GatherTicks ticks to fill one trip load.
const (
	GatherTicks      = 8
	GatherTripAmount = 10
	GatherRange      = 1
)

// Energy costs and siege bonuses
const (
	CommunicateEnergyCost = 5
	SiegeEnergyCost       = 10
	SiegeRangeBonus       = 3
	SiegeAttackBonus      = 10
)

// ResourceValue returns credits per unit deposited
func ResourceValue(res maplib.ResourceType) int {
	switch res {
	case maplib.ResourceCrystals:
		return 2
	case maplib.ResourceMinerals:
		return 1
	default:
		return 0
	}
}

// UnitDef defines a producible unit type
type UnitDef struct {
	Type           core.UnitType
	Name           string
	Cost           int
	ProductionTime int // ticks
	Stats          core.UnitStats
}

// BuildingDef defines a placeable building type
type BuildingDef struct {
	Type             core.BuildingType
	Name             string
	Cost             int
	ConstructionTime int // ticks
	Stats            core.BuildingStats
	Produces         []core.UnitType
}

// Defs holds all unit and building definitions
type Defs struct {
	Units     map[core.UnitType]*UnitDef
	Buildings map[core.BuildingType]*BuildingDef
}

// Unit returns the definition for a unit type, nil if unknown
func (d *Defs) Unit(t core.UnitType) *UnitDef {
	return d.Units[t]
}

// Building returns the definition for a building type, nil if unknown
func (d *Defs) Building(t core.BuildingType) *BuildingDef {
	return d.Buildings[t]
}

// CanProduce checks whether a building type trains a unit type
func (d *Defs) CanProduce(b core.BuildingType, u core.UnitType) bool {
	def := d.Building(b)
	if def == nil {
		return false
	}
	for _, t := range def.Produces {
		if t == u {
			return true
		}
	}
	return false
}

// DefaultDefs creates the standard definition tables
func DefaultDefs() *Defs {
	d := &Defs{
		Units:     make(map[core.UnitType]*UnitDef),
		Buildings: make(map[core.BuildingType]*BuildingDef),
	}

	d.Units[core.UnitEngineer] = &UnitDef{
		Type: core.UnitEngineer, Name: "Engineer", Cost: 50, ProductionTime: 60,
		Stats: core.UnitStats{
			MaxHealth: 60, MaxEnergy: 50, Attack: 0, Defense: 0,
			Range: 1, Vision: 5, Speed: 3.0, AttackCooldown: 20,
			CanGather: true, CanBuild: true,
		},
	}
	d.Units[core.UnitMarine] = &UnitDef{
		Type: core.UnitMarine, Name: "Marine", Cost: 100, ProductionTime: 80,
		Stats: core.UnitStats{
			MaxHealth: 100, MaxEnergy: 50, Attack: 10, Defense: 2,
			Range: 4, Vision: 6, Speed: 3.0, AttackCooldown: 15,
			CanFight: true,
		},
	}
	d.Units[core.UnitSiegeTank] = &UnitDef{
		Type: core.UnitSiegeTank, Name: "Siege Tank", Cost: 250, ProductionTime: 160,
		Stats: core.UnitStats{
			MaxHealth: 180, MaxEnergy: 60, Attack: 25, Defense: 6,
			Range: 5, Vision: 7, Speed: 2.0, AttackCooldown: 30,
			CanFight: true, CanSiege: true,
		},
	}
	d.Units[core.UnitScout] = &UnitDef{
		Type: core.UnitScout, Name: "Scout", Cost: 60, ProductionTime: 50,
		Stats: core.UnitStats{
			MaxHealth: 50, MaxEnergy: 40, Attack: 0, Defense: 0,
			Range: 0, Vision: 9, Speed: 4.0, AttackCooldown: 20,
		},
	}

	d.Buildings[core.BuildingCommandCenter] = &BuildingDef{
		Type: core.BuildingCommandCenter, Name: "Command Center",
		Cost: 400, ConstructionTime: 200,
		Stats:    core.BuildingStats{MaxHealth: 1000, Footprint: 3, Depot: true},
		Produces: []core.UnitType{core.UnitEngineer, core.UnitScout},
	}
	d.Buildings[core.BuildingBarracks] = &BuildingDef{
		Type: core.BuildingBarracks, Name: "Barracks",
		Cost: 150, ConstructionTime: 100,
		Stats:    core.BuildingStats{MaxHealth: 500, Footprint: 2},
		Produces: []core.UnitType{core.UnitMarine},
	}
	d.Buildings[core.BuildingFactory] = &BuildingDef{
		Type: core.BuildingFactory, Name: "Factory",
		Cost: 300, ConstructionTime: 150,
		Stats:    core.BuildingStats{MaxHealth: 700, Footprint: 3},
		Produces: []core.UnitType{core.UnitSiegeTank},
	}

	return d
}
