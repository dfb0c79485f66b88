package engine

import "sync"

// EventType names a notification raised by the engine
type EventType string

const (
	EventLevelPackLoaded EventType = "level-pack-loaded"
	EventLevelChanged    EventType = "level-changed"
	EventLevelReset      EventType = "level-reset"
	EventMoveStarted     EventType = "move-started"
	EventMoveEnded       EventType = "move-ended"
	EventLevelCompleted  EventType = "level-completed"
)

// Event is a notification payload. Fields are value copies; observers
// never receive live entities.
type Event struct {
	Type      EventType     `json:"type"`
	Source    string        `json:"source,omitempty"`
	Level     *LevelMetrics `json:"level,omitempty"`
	Direction Direction     `json:"direction,omitempty"`
	Push      bool          `json:"push,omitempty"`
	Stats     *LevelStats   `json:"stats,omitempty"`
}

// Notifier receives engine notifications. Implementations must not call
// back into the level that raised the event.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(event Event)

// Notify calls f(event)
func (f NotifierFunc) Notify(event Event) {
	f(event)
}

// MultiNotifier fans an event out to several notifiers in order
type MultiNotifier []Notifier

// Notify forwards the event to every non-nil notifier
func (m MultiNotifier) Notify(event Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(event)
		}
	}
}

// Recorder collects events until drained
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify appends the event
func (r *Recorder) Notify(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns the recorded events and clears the recorder
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

var nopNotifier Notifier = NotifierFunc(func(Event) {})
