package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codyborn/agent-rts/engine/core"
)

// ActionType enumerates what a decision may ask a unit to do
type ActionType string

const (
	ActionIdle        ActionType = "idle"
	ActionMove        ActionType = "move"
	ActionAttack      ActionType = "attack"
	ActionGather      ActionType = "gather"
	ActionBuild       ActionType = "build"
	ActionCommunicate ActionType = "communicate"
)

// Action is one decision for one unit
type Action struct {
	Type         ActionType         `json:"action"`
	TargetPos    *core.GridPosition `json:"target_pos,omitempty"`
	TargetUnitID core.UnitID        `json:"target_unit_id,omitempty"`
	BuildingType core.BuildingType  `json:"building_type,omitempty"`
	Message      string             `json:"message,omitempty"`
	Reasoning    string             `json:"reasoning,omitempty"`
}

// Valid reports whether the action names a known type
func (a Action) Valid() bool {
	switch a.Type {
	case ActionIdle, ActionMove, ActionAttack, ActionGather, ActionBuild, ActionCommunicate:
		return true
	}
	return false
}

// ResourceSighting is a visible resource deposit
type ResourceSighting struct {
	Pos      core.GridPosition `json:"pos"`
	Resource string            `json:"resource"`
	Amount   int               `json:"amount"`
}

// Message is one recent unit communication
type Message struct {
	Tick     uint64      `json:"tick"`
	UnitID   core.UnitID `json:"unit_id"`
	PlayerID int         `json:"player_id"`
	Text     string      `json:"text"`
}

// UnitPerception is everything one unit gets to see for one decision
type UnitPerception struct {
	Tick             uint64                  `json:"tick"`
	Self             core.UnitSnapshot       `json:"self"`
	StandingOrder    string                  `json:"standing_order,omitempty"`
	Directive        string                  `json:"directive,omitempty"`
	VisibleUnits     []core.UnitSnapshot     `json:"visible_units,omitempty"`
	VisibleBuildings []core.BuildingSnapshot `json:"visible_buildings,omitempty"`
	VisibleResources []ResourceSighting      `json:"visible_resources,omitempty"`
	Messages         []Message               `json:"messages,omitempty"`
	ThreatNearby     float64                 `json:"threat_nearby"`
	Credits          int                     `json:"credits"`
}

// CommandPerception is the batched view the strategic commander plans from
type CommandPerception struct {
	Tick           uint64                  `json:"tick"`
	PlayerID       int                     `json:"player_id"`
	Credits        int                     `json:"credits"`
	Units          []UnitPerception        `json:"units"`
	Buildings      []core.BuildingSnapshot `json:"buildings"`
	KnownResources []ResourceSighting      `json:"known_resources,omitempty"`
}

// DirectivePlan is one planned directive in a commander response
type DirectivePlan struct {
	UnitID       core.UnitID        `json:"unit_id"`
	Type         DirectiveType      `json:"type"`
	TargetPos    *core.GridPosition `json:"target_pos,omitempty"`
	TargetUnitID core.UnitID        `json:"target_unit_id,omitempty"`
	BuildingType core.BuildingType  `json:"building_type,omitempty"`
	Priority     int                `json:"priority"`
	TTL          uint64             `json:"ttl,omitempty"`
	Reasoning    string             `json:"reasoning,omitempty"`
}

// Client is a decision source. DecideAction answers for a single unit;
// PlanDirectives answers for a whole local player. Implementations decide
// whether calls block on a network or return inline.
type Client interface {
	DecideAction(ctx context.Context, p UnitPerception) (Action, error)
	PlanDirectives(ctx context.Context, p CommandPerception) ([]DirectivePlan, error)
}

// ErrDecisionDisabled marks a decision source with no endpoint configured.
// Callers treat it as "this game runs without external decisions", not as
// a failure.
var ErrDecisionDisabled = errors.New("decision endpoint not configured")

// RateLimitError asks the caller to pause all decision traffic
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("decision endpoint rate limited, retry after %s", e.RetryAfter)
}

// PermanentError means the source will never recover without operator
// action (bad credentials, wrong endpoint); the caller disables it.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return "decision endpoint failed permanently: " + e.Reason
}

// TransientError means the attempt failed but the next may succeed; the
// caller keeps its state and retries on the next cycle.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "decision endpoint transient failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }
