package core

import "sync"

// EventType identifies the kind of event fired on the bus.
type EventType int

const (
	// EventTunnelOutcome fires for every event the tunnel plugin reports
	// to the Tunnel Supervisor over the Event IPC channel (§4.B, §4.C).
	// The session's terminal outcome is returned by Session.Wait, not
	// published.
	EventTunnelOutcome EventType = iota
	// EventRouteChanged is the event type for a change of the Route
	// Manager's default-route next hop (§4.D). The route manager does not
	// publish it; nothing in this repository fires it.
	EventRouteChanged
	// EventVersionInfo fires when the Version Updater refreshes its
	// cached version info (§4.F).
	EventVersionInfo
	// EventShutdownRequested is the event type for a stop/preshutdown
	// control received by the Service Lifecycle Core (§4.E). Nothing in
	// this repository publishes it; shutdown is signalled through
	// ShutdownHandle instead.
	EventShutdownRequested
)

// Event carries data about something that happened in the system.
type Event struct {
	Type    EventType
	Payload any
}

// TunnelOutcomePayload is the payload for EventTunnelOutcome.
type TunnelOutcomePayload struct {
	SessionID string
	Outcome   string // name of the reported event kind (eventipc.EventKind.String)
	Err       error
}

// RouteChangedPayload is the payload for EventRouteChanged.
type RouteChangedPayload struct {
	NewGateway string
	Interface  string
}

// VersionInfoPayload is the payload for EventVersionInfo.
type VersionInfoPayload struct {
	Current          string
	Latest           string
	SuggestedUpgrade string
}

// ShutdownRequestedPayload is the payload for EventShutdownRequested.
type ShutdownRequestedPayload struct {
	Reason string
}

// Handler is a callback for bus subscribers.
type Handler func(Event)

// EventBus provides pub/sub between system components.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a ready-to-use event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a given event type.
func (eb *EventBus) Subscribe(t EventType, h Handler) {
	eb.mu.Lock()
	eb.handlers[t] = append(eb.handlers[t], h)
	eb.mu.Unlock()
}

// Publish fires an event to all subscribed handlers synchronously, in
// subscription order.
func (eb *EventBus) Publish(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// PublishAsync fires an event to all subscribed handlers, each in its own
// goroutine, without waiting for them to return.
func (eb *EventBus) PublishAsync(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()

	for _, h := range handlers {
		go h(e)
	}
}
