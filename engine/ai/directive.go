package ai

import (
	"github.com/codyborn/agent-rts/engine/core"
)

// DirectiveType enumerates the standing goals a commander can assign
type DirectiveType string

const (
	DirectiveGatherResources DirectiveType = "gather_resources"
	DirectiveAttackEnemy     DirectiveType = "attack_enemy"
	DirectiveMoveTo          DirectiveType = "move_to"
	DirectiveBuildStructure  DirectiveType = "build_structure"
	DirectiveHoldPosition    DirectiveType = "hold_position"
)

// Valid reports whether the type names a known directive
func (t DirectiveType) Valid() bool {
	switch t {
	case DirectiveGatherResources, DirectiveAttackEnemy, DirectiveMoveTo,
		DirectiveBuildStructure, DirectiveHoldPosition:
		return true
	}
	return false
}

// Directive priorities range from routine to critical
const (
	PriorityLow      = 1
	PriorityRoutine  = 2
	PriorityElevated = 3
	PriorityHigh     = 4
	PriorityCritical = 5
)

// DefaultDirectiveTTL is how long a directive stays live when the plan
// does not say, in ticks.
const DefaultDirectiveTTL uint64 = 1200

// Directive is a standing goal for one unit. The executor re-reads it
// whenever the unit is receptive and translates it into concrete orders
// until it completes or expires.
type Directive struct {
	ID           string             `json:"id"`
	UnitID       core.UnitID        `json:"unit_id"`
	Type         DirectiveType      `json:"type"`
	TargetPos    *core.GridPosition `json:"target_pos,omitempty"`
	TargetUnitID core.UnitID        `json:"target_unit_id,omitempty"`
	BuildingType core.BuildingType  `json:"building_type,omitempty"`
	Priority     int                `json:"priority"`
	CreatedTick  uint64             `json:"created_tick"`
	TTL          uint64             `json:"ttl"`
	Completed    bool               `json:"completed"`
}

// NewDirective builds a directive from a plan, clamping priority into
// range and filling the default TTL. The executor stamps the ID when the
// directive is installed.
func NewDirective(plan DirectivePlan, tick uint64) *Directive {
	priority := plan.Priority
	if priority < PriorityLow {
		priority = PriorityLow
	}
	if priority > PriorityCritical {
		priority = PriorityCritical
	}
	ttl := plan.TTL
	if ttl == 0 {
		ttl = DefaultDirectiveTTL
	}
	return &Directive{
		UnitID:       plan.UnitID,
		Type:         plan.Type,
		TargetPos:    plan.TargetPos,
		TargetUnitID: plan.TargetUnitID,
		BuildingType: plan.BuildingType,
		Priority:     priority,
		CreatedTick:  tick,
		TTL:          ttl,
	}
}

// Expired reports whether the directive's TTL has run out
func (d *Directive) Expired(tick uint64) bool {
	return tick >= d.CreatedTick+d.TTL
}

// Active reports whether the directive should still drive the unit
func (d *Directive) Active(tick uint64) bool {
	return !d.Completed && !d.Expired(tick)
}
