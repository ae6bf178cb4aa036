package jobx

import "sync"

// Event names a lifecycle transition. Listeners can subscribe to an event
// globally or to a single job via the "<event>:<id>" variant.
type Event string

const (
	EventAdded      Event = "added"
	EventProcessing Event = "processing"
	EventProgress   Event = "progress"
	EventCompleted  Event = "completed"
	EventFailed     Event = "failed"
	EventCanceled   Event = "canceled"
)

// Listener receives a job snapshot. Dispatch is synchronous on the worker
// goroutine: listeners are an observability hook, not a durability mechanism,
// and must not block.
type Listener func(job Job)

type emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[string][]Listener)}
}

func (e *emitter) on(key string, fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[key] = append(e.listeners[key], fn)
}

func (e *emitter) emit(event Event, job Job) {
	e.mu.RLock()
	global := e.listeners[string(event)]
	scoped := e.listeners[string(event)+":"+job.ID]
	e.mu.RUnlock()

	for _, fn := range global {
		fn(job)
	}
	for _, fn := range scoped {
		fn(job)
	}
}
