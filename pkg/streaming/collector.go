package streaming

import "sync"

// Collector buffers events in memory for callers that want the full trace
// of a session after the fact, tests mostly.
type Collector struct {
	mu     sync.Mutex
	events []*Event
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) HandleEvent(event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *Collector) HandleError(_ error, _ string) {}

func (c *Collector) Close() error {
	return nil
}

// Events returns a snapshot of everything collected so far, in emission order.
func (c *Collector) Events() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventsOfType filters the snapshot by event type.
func (c *Collector) EventsOfType(t EventType) []*Event {
	var out []*Event
	for _, e := range c.Events() {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}
