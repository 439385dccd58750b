package core

import "time"

// EventType identifies a kind of game event
type EventType uint16

const (
	EvtTick EventType = iota
	EvtCommandReceived
	EvtUnitSpawned
	EvtUnitDestroyed
	EvtUnitDamaged
	EvtUnitAttack
	EvtUnitCommunication
	EvtBuildingPlaced
	EvtBuildingCompleted
	EvtBuildingDestroyed
	EvtProductionStarted
	EvtProductionCompleted
	EvtResourceHarvested
	EvtResourceDepleted
	EvtResourceDeposited
	EvtResourceNearby
	EvtEnemyNearby
	EvtDirectiveIssued
	EvtPlayerDefeated
	evtSentinel // keep last
)

var eventNames = [...]string{
	EvtTick:                "TICK",
	EvtCommandReceived:     "COMMAND_RECEIVED",
	EvtUnitSpawned:         "UNIT_SPAWNED",
	EvtUnitDestroyed:       "UNIT_DESTROYED",
	EvtUnitDamaged:         "UNIT_DAMAGED",
	EvtUnitAttack:          "UNIT_ATTACK",
	EvtUnitCommunication:   "UNIT_COMMUNICATION",
	EvtBuildingPlaced:      "BUILDING_PLACED",
	EvtBuildingCompleted:   "BUILDING_COMPLETED",
	EvtBuildingDestroyed:   "BUILDING_DESTROYED",
	EvtProductionStarted:   "PRODUCTION_STARTED",
	EvtProductionCompleted: "PRODUCTION_COMPLETED",
	EvtResourceHarvested:   "RESOURCE_HARVESTED",
	EvtResourceDepleted:    "RESOURCE_DEPLETED",
	EvtResourceDeposited:   "RESOURCE_DEPOSITED",
	EvtResourceNearby:      "RESOURCE_NEARBY",
	EvtEnemyNearby:         "ENEMY_NEARBY",
	EvtDirectiveIssued:     "DIRECTIVE_ISSUED",
	EvtPlayerDefeated:      "PLAYER_DEFEATED",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "UNKNOWN"
}

// EventTypes returns every defined event type in declaration order
func EventTypes() []EventType {
	out := make([]EventType, 0, evtSentinel)
	for t := EventType(0); t < evtSentinel; t++ {
		out = append(out, t)
	}
	return out
}

// Event is a single game occurrence, stamped with the simulation tick it
// happened on and the wall-clock time it was emitted.
type Event struct {
	Type    EventType
	Tick    uint64
	Time    time.Time
	Payload EventPayload
}

// EventPayload is the closed set of event payload types. Each event type
// carries exactly one payload struct; consumers switch on the concrete type.
type EventPayload interface {
	isEventPayload()
}

type TickPayload struct {
	Units     int `json:"units"`
	Buildings int `json:"buildings"`
}

type CommandReceivedPayload struct {
	Command GameCommand `json:"command"`
}

type UnitSpawnedPayload struct {
	UnitID   UnitID       `json:"unit_id"`
	PlayerID int          `json:"player_id"`
	UnitType UnitType     `json:"unit_type"`
	Pos      GridPosition `json:"pos"`
}

type UnitDestroyedPayload struct {
	UnitID   UnitID       `json:"unit_id"`
	PlayerID int          `json:"player_id"`
	UnitType UnitType     `json:"unit_type"`
	Pos      GridPosition `json:"pos"`
	KillerID UnitID       `json:"killer_id,omitempty"`
}

type UnitDamagedPayload struct {
	UnitID     UnitID `json:"unit_id"`
	AttackerID UnitID `json:"attacker_id,omitempty"`
	Amount     int    `json:"amount"`
	Remaining  int    `json:"remaining"`
}

type UnitAttackPayload struct {
	AttackerID       UnitID     `json:"attacker_id"`
	TargetUnitID     UnitID     `json:"target_unit_id,omitempty"`
	TargetBuildingID BuildingID `json:"target_building_id,omitempty"`
	Damage           int        `json:"damage"`
}

type UnitCommunicationPayload struct {
	UnitID   UnitID `json:"unit_id"`
	PlayerID int    `json:"player_id"`
	Message  string `json:"message"`
}

type BuildingPlacedPayload struct {
	BuildingID   BuildingID   `json:"building_id"`
	PlayerID     int          `json:"player_id"`
	BuildingType BuildingType `json:"building_type"`
	Pos          GridPosition `json:"pos"`
}

type BuildingCompletedPayload struct {
	BuildingID   BuildingID   `json:"building_id"`
	PlayerID     int          `json:"player_id"`
	BuildingType BuildingType `json:"building_type"`
}

type BuildingDestroyedPayload struct {
	BuildingID   BuildingID   `json:"building_id"`
	PlayerID     int          `json:"player_id"`
	BuildingType BuildingType `json:"building_type"`
	Pos          GridPosition `json:"pos"`
}

type ProductionStartedPayload struct {
	BuildingID BuildingID `json:"building_id"`
	UnitType   UnitType   `json:"unit_type"`
}

type ProductionCompletedPayload struct {
	BuildingID BuildingID `json:"building_id"`
	UnitID     UnitID     `json:"unit_id"`
	UnitType   UnitType   `json:"unit_type"`
}

type ResourceHarvestedPayload struct {
	UnitID    UnitID       `json:"unit_id"`
	Pos       GridPosition `json:"pos"`
	Resource  string       `json:"resource"`
	Amount    int          `json:"amount"`
	Remaining int          `json:"remaining"`
}

type ResourceDepletedPayload struct {
	Pos      GridPosition `json:"pos"`
	Resource string       `json:"resource"`
}

type ResourceDepositedPayload struct {
	UnitID   UnitID `json:"unit_id"`
	PlayerID int    `json:"player_id"`
	Amount   int    `json:"amount"`
	Total    int    `json:"total"`
}

type ResourceNearbyPayload struct {
	UnitID   UnitID       `json:"unit_id"`
	Pos      GridPosition `json:"pos"`
	Resource string       `json:"resource"`
}

type EnemyNearbyPayload struct {
	UnitID      UnitID `json:"unit_id"`
	EnemyUnitID UnitID `json:"enemy_unit_id"`
}

type DirectiveIssuedPayload struct {
	DirectiveID string       `json:"directive_id"`
	UnitID      UnitID       `json:"unit_id"`
	Directive   string       `json:"directive"`
	Priority    int          `json:"priority"`
	TTL         uint64       `json:"ttl"`
}

type PlayerDefeatedPayload struct {
	PlayerID int `json:"player_id"`
}

func (TickPayload) isEventPayload()                {}
func (CommandReceivedPayload) isEventPayload()     {}
func (UnitSpawnedPayload) isEventPayload()         {}
func (UnitDestroyedPayload) isEventPayload()       {}
func (UnitDamagedPayload) isEventPayload()         {}
func (UnitAttackPayload) isEventPayload()          {}
func (UnitCommunicationPayload) isEventPayload()   {}
func (BuildingPlacedPayload) isEventPayload()      {}
func (BuildingCompletedPayload) isEventPayload()   {}
func (BuildingDestroyedPayload) isEventPayload()   {}
func (ProductionStartedPayload) isEventPayload()   {}
func (ProductionCompletedPayload) isEventPayload() {}
func (ResourceHarvestedPayload) isEventPayload()   {}
func (ResourceDepletedPayload) isEventPayload()    {}
func (ResourceDepositedPayload) isEventPayload()   {}
func (ResourceNearbyPayload) isEventPayload()      {}
func (EnemyNearbyPayload) isEventPayload()         {}
func (DirectiveIssuedPayload) isEventPayload()     {}
func (PlayerDefeatedPayload) isEventPayload()      {}

// EventHandler receives an event synchronously during Emit. Handlers must
// not panic; a panicking handler takes the tick down with it.
type EventHandler func(e Event)

// Subscription is the handle returned by Subscribe, used to unsubscribe
type Subscription struct {
	typ EventType
	id  uint64
}

type subscriber struct {
	id   uint64
	fn   EventHandler
	once bool
}

// EventBus dispatches events synchronously to subscribers and keeps an
// append-only log of everything emitted. Not safe for concurrent use; the
// engine owns it and drives it from the tick loop.
type EventBus struct {
	tick      uint64
	nextSubID uint64
	listeners map[EventType][]subscriber
	log       []Event
}

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]subscriber),
	}
}

// SetTick sets the tick stamped onto subsequently emitted events
func (eb *EventBus) SetTick(tick uint64) {
	eb.tick = tick
}

// Subscribe registers a handler for an event type. Handlers for the same
// type run in subscription order.
func (eb *EventBus) Subscribe(t EventType, h EventHandler) Subscription {
	eb.nextSubID++
	eb.listeners[t] = append(eb.listeners[t], subscriber{id: eb.nextSubID, fn: h})
	return Subscription{typ: t, id: eb.nextSubID}
}

// SubscribeOnce registers a handler that is removed after its first delivery
func (eb *EventBus) SubscribeOnce(t EventType, h EventHandler) Subscription {
	eb.nextSubID++
	eb.listeners[t] = append(eb.listeners[t], subscriber{id: eb.nextSubID, fn: h, once: true})
	return Subscription{typ: t, id: eb.nextSubID}
}

// Unsubscribe removes a previously registered handler. Unknown handles
// are ignored.
func (eb *EventBus) Unsubscribe(s Subscription) {
	subs := eb.listeners[s.typ]
	for i, sub := range subs {
		if sub.id == s.id {
			eb.listeners[s.typ] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit stamps the event with the current tick and wall-clock time, invokes
// every subscribed handler in subscription order, then appends the event to
// the log.
func (eb *EventBus) Emit(t EventType, payload EventPayload) Event {
	e := Event{
		Type:    t,
		Tick:    eb.tick,
		Time:    time.Now(),
		Payload: payload,
	}

	// Snapshot so handlers can subscribe/unsubscribe without corrupting
	// this dispatch pass.
	subs := eb.listeners[t]
	snapshot := make([]subscriber, len(subs))
	copy(snapshot, subs)

	for _, sub := range snapshot {
		sub.fn(e)
		if sub.once {
			eb.Unsubscribe(Subscription{typ: t, id: sub.id})
		}
	}

	eb.log = append(eb.log, e)
	return e
}

// Log returns a copy of the full event log in emission order
func (eb *EventBus) Log() []Event {
	out := make([]Event, len(eb.log))
	copy(out, eb.log)
	return out
}

// LogSince returns a copy of log entries from index start onward
func (eb *EventBus) LogSince(start int) []Event {
	if start < 0 {
		start = 0
	}
	if start >= len(eb.log) {
		return nil
	}
	out := make([]Event, len(eb.log)-start)
	copy(out, eb.log[start:])
	return out
}

// LogLen returns the number of logged events
func (eb *EventBus) LogLen() int {
	return len(eb.log)
}
