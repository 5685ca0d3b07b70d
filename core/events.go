package core

type (
	// Event is an immutable fact carried on the EventBus. Implementations are
	// value snapshots; handlers must not assume the underlying record is still
	// in the same state when they run.
	Event interface {
		Name() string
	}

	EventHandler func(Event)

	// EventBus decouples the latency and failure domain of event handlers from
	// the publishing call. Delivery is asynchronous and best-effort,
	// at-most-once: events published before a crash may be lost, and a
	// handler's failure never propagates back to the publisher.
	EventBus interface {
		// Publish returns before any handler runs.
		Publish(event Event)
		Subscribe(name string, h EventHandler)
		// Close drains pending events and stops the bus.
		Close()
	}
)
