package ai

import (
	"context"
	"fmt"

	"github.com/codyborn/agent-rts/engine/core"
)

// attackForceSize is how many combat units the heuristic masses before
// committing to a push.
const attackForceSize = 4

// HeuristicClient is the built-in decision source. It plays a plain
// expand-and-push game: gatherers mine the nearest deposit, scouts call
// out contacts, combat units defend until a force has massed and then
// attack the nearest known enemy. Every choice is resolved by distance
// and then by ID, so identical perceptions always produce identical
// decisions.
type HeuristicClient struct{}

func NewHeuristicClient() *HeuristicClient { return &HeuristicClient{} }

// DecideAction implements Client
func (h *HeuristicClient) DecideAction(_ context.Context, p UnitPerception) (Action, error) {
	switch p.Self.Type {
	case core.UnitEngineer:
		return h.decideGatherer(p), nil
	case core.UnitMarine, core.UnitSiegeTank:
		return h.decideFighter(p), nil
	case core.UnitScout:
		return h.decideScout(p), nil
	}
	return Action{Type: ActionIdle, Reasoning: "no doctrine for this unit"}, nil
}

func (h *HeuristicClient) decideGatherer(p UnitPerception) Action {
	if deposit, ok := nearestSighting(p.Self.Pos, p.VisibleResources); ok {
		pos := deposit.Pos
		return Action{
			Type:      ActionGather,
			TargetPos: &pos,
			Reasoning: fmt.Sprintf("mining %s at (%d,%d)", deposit.Resource, pos.Col, pos.Row),
		}
	}
	return Action{Type: ActionIdle, Reasoning: "no deposits in sight"}
}

func (h *HeuristicClient) decideFighter(p UnitPerception) Action {
	if enemy, ok := nearestEnemy(p); ok {
		return Action{
			Type:         ActionAttack,
			TargetUnitID: enemy.ID,
			Reasoning:    fmt.Sprintf("engaging %s %d", enemy.Type, enemy.ID),
		}
	}
	return Action{Type: ActionIdle, Reasoning: "holding, no contacts"}
}

func (h *HeuristicClient) decideScout(p UnitPerception) Action {
	if enemy, ok := nearestEnemy(p); ok {
		return Action{
			Type:    ActionCommunicate,
			Message: fmt.Sprintf("enemy %s at (%d,%d)", enemy.Type, enemy.Pos.Col, enemy.Pos.Row),
		}
	}
	return Action{Type: ActionIdle, Reasoning: "nothing to report"}
}

// PlanDirectives implements Client. Engineers get gather directives,
// combat units hold at their posts until the army is big enough to push,
// then everyone with a gun gets the same attack directive.
func (h *HeuristicClient) PlanDirectives(_ context.Context, p CommandPerception) ([]DirectivePlan, error) {
	enemyPos, enemyID, enemyKnown := firstKnownEnemy(p)

	combatants := 0
	for _, up := range p.Units {
		if isCombatType(up.Self.Type) {
			combatants++
		}
	}
	pushing := enemyKnown && combatants >= attackForceSize

	var plans []DirectivePlan
	for _, up := range p.Units {
		switch up.Self.Type {
		case core.UnitEngineer:
			if deposit, ok := nearestKnownDeposit(up.Self.Pos, p); ok {
				pos := deposit.Pos
				plans = append(plans, DirectivePlan{
					UnitID:    up.Self.ID,
					Type:      DirectiveGatherResources,
					TargetPos: &pos,
					Priority:  PriorityRoutine,
					Reasoning: "keep the economy running",
				})
			}
		case core.UnitMarine, core.UnitSiegeTank:
			if pushing {
				pos := enemyPos
				plans = append(plans, DirectivePlan{
					UnitID:       up.Self.ID,
					Type:         DirectiveAttackEnemy,
					TargetPos:    &pos,
					TargetUnitID: enemyID,
					Priority:     PriorityHigh,
					Reasoning:    "force assembled, push",
				})
			} else {
				pos := up.Self.Pos
				plans = append(plans, DirectivePlan{
					UnitID:    up.Self.ID,
					Type:      DirectiveHoldPosition,
					TargetPos: &pos,
					Priority:  PriorityLow,
					Reasoning: "hold until the force masses",
				})
			}
		}
	}
	return plans, nil
}

func isCombatType(t core.UnitType) bool {
	return t == core.UnitMarine || t == core.UnitSiegeTank
}

// nearestEnemy picks the closest visible unit owned by someone else,
// breaking distance ties by unit ID.
func nearestEnemy(p UnitPerception) (core.UnitSnapshot, bool) {
	var best core.UnitSnapshot
	bestDist := -1
	for _, other := range p.VisibleUnits {
		if other.PlayerID == p.Self.PlayerID {
			continue
		}
		d := p.Self.Pos.DistanceTo(other.Pos)
		if bestDist < 0 || d < bestDist || (d == bestDist && other.ID < best.ID) {
			best = other
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

func nearestSighting(from core.GridPosition, sightings []ResourceSighting) (ResourceSighting, bool) {
	var best ResourceSighting
	bestDist := -1
	for _, s := range sightings {
		d := from.DistanceTo(s.Pos)
		if bestDist < 0 || d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

// nearestKnownDeposit prefers what the unit sees, then everything the
// player has scouted.
func nearestKnownDeposit(from core.GridPosition, p CommandPerception) (ResourceSighting, bool) {
	for _, up := range p.Units {
		if up.Self.Pos == from {
			if s, ok := nearestSighting(from, up.VisibleResources); ok {
				return s, true
			}
			break
		}
	}
	return nearestSighting(from, p.KnownResources)
}

// firstKnownEnemy reports the first hostile contact across the army's
// perceptions, in unit order, so every combat unit pushes the same point.
func firstKnownEnemy(p CommandPerception) (core.GridPosition, core.UnitID, bool) {
	for _, up := range p.Units {
		for _, other := range up.VisibleUnits {
			if other.PlayerID != p.PlayerID {
				return other.Pos, other.ID, true
			}
		}
		for _, b := range up.VisibleBuildings {
			if b.PlayerID != p.PlayerID {
				return b.Pos, 0, true
			}
		}
	}
	return core.GridPosition{}, 0, false
}
