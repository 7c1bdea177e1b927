package emitter

import "sync"

// Listener receives the payload of an emitted event
type Listener func(data any)

// Emitter dispatches named events to their listeners. Emit is synchronous:
// listeners run in registration order on the emitting goroutine, so a
// listener observes the write that triggered it.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func New() *Emitter {
	return &Emitter{
		listeners: make(map[string][]Listener),
	}
}

// On registers a listener for event
func (e *Emitter) On(event string, listener Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit calls every listener of event with data
func (e *Emitter) Emit(event string, data any) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := make([]Listener, len(e.listeners[event]))
	copy(listeners, e.listeners[event])
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// ListenerCount returns how many listeners are registered for event
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}
