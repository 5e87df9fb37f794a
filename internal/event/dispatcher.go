package event

import "sync"

// Handler processes a single dispatched event.
type Handler func(Event)

// Dispatcher is an in-process pub/sub hub for domain events. It holds
// no package-level mutable state (per the redesign notes, global
// registries are replaced by explicitly constructed, mutex-guarded
// instances passed to whoever needs them); callers construct one
// Dispatcher per application context and share it by reference.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	any      []Handler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a specific event name (e.g.
// "TaskStatusChanged"). Handlers for an aggregate's events run in the
// order they are registered and are invoked in the order events are
// dispatched.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// SubscribeAll registers a handler invoked for every event regardless of
// name, e.g. for a metrics or audit sink.
func (d *Dispatcher) SubscribeAll(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.any = append(d.any, h)
}

// Dispatch delivers evt to all handlers registered for evt.Name(), then
// to all wildcard handlers, synchronously and in registration order.
// Domain events for a single aggregate are always dispatched in the
// order the operations that produced them were invoked, so callers must
// call Dispatch (or DispatchAll) in that same order.
func (d *Dispatcher) Dispatch(evt Event) {
	d.mu.Lock()
	named := append([]Handler(nil), d.handlers[evt.Name()]...)
	wildcard := append([]Handler(nil), d.any...)
	d.mu.Unlock()

	for _, h := range named {
		h(evt)
	}
	for _, h := range wildcard {
		h(evt)
	}
}

// DispatchAll delivers a batch of events in order.
func (d *Dispatcher) DispatchAll(events []Event) {
	for _, evt := range events {
		d.Dispatch(evt)
	}
}
