package entities

// EventTrigger is the payload written into the event buffer when a live
// element receives an interaction the core listens for.
type EventTrigger struct {
	// Event holds the serialized fields keyed by event category, e.g.
	// {"MouseEvent": {"altKey": false, ...}}.
	Event   map[string]map[string]any `json:"event"`
	UUID    string                    `json:"uuid"`
	Type    string                    `json:"type"`
	EventID uint64                    `json:"event_id"`
}

// Category returns the single category name carried by the trigger.
func (t EventTrigger) Category() string {
	for name := range t.Event {
		return name
	}
	return ""
}

// Fields returns the serialized event fields.
func (t EventTrigger) Fields() map[string]any {
	return t.Event[t.Category()]
}

// Listener registers interest in an event type on a node.
type Listener struct {
	ID   string `json:"id" cbor:"id"`
	Type string `json:"type" cbor:"type"`
}
