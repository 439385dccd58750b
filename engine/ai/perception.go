package ai

import (
	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/systems"
)

// BuildUnitPerception assembles what one unit can see right now: units
// and buildings inside its own vision radius, resource deposits in sight,
// recent allied chatter, and its current assignments.
func BuildUnitPerception(state *core.GameState, u *core.Unit, directive string, messages []Message, tick uint64) UnitPerception {
	p := UnitPerception{
		Tick:         tick,
		Self:         u.Snapshot(),
		Directive:    directive,
		ThreatNearby: ThreatAssessment(state, u),
	}

	owner := state.Player(u.PlayerID)
	if owner != nil {
		p.Credits = owner.Credits
		p.StandingOrder = owner.StandingOrder(u.ID)
	}

	for _, other := range state.Units() {
		if other.ID == u.ID || !other.Alive() {
			continue
		}
		if visibleFrom(u, other.Pos) {
			p.VisibleUnits = append(p.VisibleUnits, other.Snapshot())
		}
	}

	for _, b := range state.Buildings() {
		if b.Health <= 0 {
			continue
		}
		if b.DistanceTo(u.Pos) <= u.Vision {
			p.VisibleBuildings = append(p.VisibleBuildings, b.Snapshot())
		}
	}

	p.VisibleResources = resourcesInSight(state, u)

	for _, m := range messages {
		sender := state.Player(m.PlayerID)
		if core.AreAllies(owner, sender) {
			p.Messages = append(p.Messages, m)
		}
	}

	return p
}

// BuildCommandPerception assembles the full-army view for one player:
// a unit perception per living unit, every owned building, and all
// resource deposits the player has ever scouted.
func BuildCommandPerception(state *core.GameState, playerID int, executor *DirectiveExecutor, messages []Message, tick uint64) CommandPerception {
	p := CommandPerception{
		Tick:     tick,
		PlayerID: playerID,
	}
	if owner := state.Player(playerID); owner != nil {
		p.Credits = owner.Credits
	}

	for _, u := range state.UnitsForPlayer(playerID) {
		if !u.Alive() {
			continue
		}
		directive := ""
		if d := executor.Directive(u.ID); d != nil && d.Active(tick) {
			directive = string(d.Type)
		}
		p.Units = append(p.Units, BuildUnitPerception(state, u, directive, messages, tick))
	}

	for _, b := range state.BuildingsForPlayer(playerID) {
		p.Buildings = append(p.Buildings, b.Snapshot())
	}

	p.KnownResources = scoutedResources(state, playerID)
	return p
}

// ThreatAssessment sums enemy damage potential around a unit, weighted so
// closer attackers count for more. Zero means nothing hostile in sight.
func ThreatAssessment(state *core.GameState, u *core.Unit) float64 {
	radius := float64(u.Vision)
	threat := 0.0
	for _, e := range state.EnemyUnitsInRange(u, u.Vision) {
		if !e.CanFight {
			continue
		}
		d := float64(u.Pos.DistanceTo(e.Pos))
		threat += float64(effectiveThreatAttack(e)) * (1.0 - d/(radius+1))
	}
	return threat
}

func effectiveThreatAttack(u *core.Unit) int {
	if u.SiegeMode {
		return u.Attack + systems.SiegeAttackBonus
	}
	return u.Attack
}

// visibleFrom checks the same euclidean circle the vision system reveals
func visibleFrom(u *core.Unit, pos core.GridPosition) bool {
	dc := pos.Col - u.Pos.Col
	dr := pos.Row - u.Pos.Row
	return dc*dc+dr*dr <= u.Vision*u.Vision
}

func resourcesInSight(state *core.GameState, u *core.Unit) []ResourceSighting {
	var sightings []ResourceSighting
	for row := u.Pos.Row - u.Vision; row <= u.Pos.Row+u.Vision; row++ {
		for col := u.Pos.Col - u.Vision; col <= u.Pos.Col+u.Vision; col++ {
			pos := core.GridPosition{Col: col, Row: row}
			if !visibleFrom(u, pos) {
				continue
			}
			tile := state.TileAt(pos)
			if tile == nil || !tile.HasResource() {
				continue
			}
			sightings = append(sightings, ResourceSighting{
				Pos:      pos,
				Resource: string(tile.Resource),
				Amount:   tile.ResourceAmount,
			})
		}
	}
	return sightings
}

func scoutedResources(state *core.GameState, playerID int) []ResourceSighting {
	fog := state.Fog(playerID)
	if fog == nil {
		return nil
	}
	var sightings []ResourceSighting
	for row := 0; row < state.Map.Height; row++ {
		for col := 0; col < state.Map.Width; col++ {
			if !fog.Seen(core.GridPosition{Col: col, Row: row}) {
				continue
			}
			tile := state.Map.At(col, row)
			if tile == nil || !tile.HasResource() {
				continue
			}
			sightings = append(sightings, ResourceSighting{
				Pos:      core.GridPosition{Col: col, Row: row},
				Resource: string(tile.Resource),
				Amount:   tile.ResourceAmount,
			})
		}
	}
	return sightings
}
