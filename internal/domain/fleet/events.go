package fleet

import "time"

// EventType identifies what happened inside a mission.
type EventType string

const (
	EventTradeCompleted    EventType = "trade_completed"
	EventTradeDry          EventType = "trade_dry"
	EventContractFulfilled EventType = "contract_fulfilled"
	EventContractDelivery  EventType = "contract_delivery"
	EventGateDelivery      EventType = "gate_delivery"
	EventGateComplete      EventType = "gate_complete"
	EventScanComplete      EventType = "scan_complete"
	EventMissionCrashed    EventType = "mission_crashed"
	EventMissionEnded      EventType = "mission_ended"
	EventCapitalLow        EventType = "capital_low"
)

// strategicEvents are the event types that trigger a strategy re-evaluation.
// CONTRACT_DELIVERY and SCAN_COMPLETE are deliberately absent: progress
// within a mission does not change what the fleet should be doing.
var strategicEvents = map[EventType]bool{
	EventTradeCompleted:    true,
	EventTradeDry:          true,
	EventContractFulfilled: true,
	EventGateDelivery:      true,
	EventGateComplete:      true,
	EventMissionCrashed:    true,
	EventMissionEnded:      true,
	EventCapitalLow:        true,
}

// IsStrategic reports whether this event type should trigger re-planning.
func (t EventType) IsStrategic() bool {
	return strategicEvents[t]
}

// FleetEvent is an immutable record of something a mission observed or did.
type FleetEvent struct {
	Type EventType
	Ship string
	At   time.Time
	Data map[string]any
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, ship string, data map[string]any) FleetEvent {
	return FleetEvent{
		Type: eventType,
		Ship: ship,
		At:   time.Now(),
		Data: data,
	}
}
