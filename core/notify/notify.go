// Package notify carries the pipeline's notification fan-out.
//
// Notifications are plain typed values dispatched synchronously to every
// registered listener, in registration order. Dispatch order within one
// cycle follows the pipeline itself: load started, then per-stage
// started/finished brackets with any validation or load errors in between,
// then load finished.
package notify

import "sync"

// Event is implemented by every notification value.
type Event interface{ event() }

// LoadStarted marks the beginning of a full load cycle.
type LoadStarted struct {
	Cycle string
}

// StageStarted marks the beginning of one pipeline stage.
type StageStarted struct {
	Stage string
}

// StageFinished marks the completion of one pipeline stage.
type StageFinished struct {
	Stage string
	Items int
}

// ValidationError reports a source rejected by the structure validator.
// The source stays excluded for the rest of the cycle.
type ValidationError struct {
	Source  string
	Message string
}

// ContentLoadError reports a failed entry load or a faulted source group.
// The cycle continues; the failure is informational.
type ContentLoadError struct {
	Source  string
	Path    string
	Message string
}

// ItemReloaded reports an in-place content update during incremental
// polling.
type ItemReloaded struct {
	Stage      string
	Path       string
	Identifier string
}

// LoadFinished marks the end of a full load cycle.
type LoadFinished struct {
	Cycle  string
	Items  int
	Errors int
}

func (LoadStarted) event()      {}
func (StageStarted) event()     {}
func (StageFinished) event()    {}
func (ValidationError) event()  {}
func (ContentLoadError) event() {}
func (ItemReloaded) event()     {}
func (LoadFinished) event()     {}

// Listener receives every published event.
type Listener func(Event)

// Bus is an ordered listener registry. Publish blocks until every listener
// has returned, which is what keeps the stage N+1 start strictly after
// stage N's notifications.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a listener. Listeners are invoked in registration
// order and must not block for long; they run on the pipeline goroutine.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish delivers the event to every listener synchronously.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()
	for _, l := range listeners {
		l(e)
	}
}
