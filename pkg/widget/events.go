package widget

import (
	"time"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// EventType names the widget's outbound notifications.
type EventType string

const (
	EventURLEntered      EventType = "url-entered"
	EventRunRequested    EventType = "run-requested"
	EventProgressUpdated EventType = "progress-updated"
	EventResultReady     EventType = "result-ready"
)

// Event is delivered to subscribers in the order it happened.
type Event struct {
	Type     EventType              `json:"type"`
	At       time.Time              `json:"at"`
	URL      string                 `json:"url,omitempty"`
	Trigger  Trigger                `json:"trigger,omitempty"`
	Progress int                    `json:"progress"`
	Check    string                 `json:"check,omitempty"`
	Passed   *bool                  `json:"passed,omitempty"`
	Result   *models.AnalysisResult `json:"result,omitempty"`
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel. A subscriber that falls more than the
// buffer size behind loses events rather than stalling the run.
func (w *Widget) Subscribe() (<-chan Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subscribeLocked()
}

// SubscribeWithSnapshot captures the current state and subscribes under one
// lock, so no event between the two is missed.
func (w *Widget) SubscribeWithSnapshot() (Snapshot, <-chan Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, cancel := w.subscribeLocked()
	return w.snapshotLocked(), ch, cancel
}

func (w *Widget) subscribeLocked() (<-chan Event, func()) {
	id := w.nextSub
	w.nextSub++
	ch := make(chan Event, w.buffer)
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if c, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publishLocked fans an event out. Caller must hold w.mu.
func (w *Widget) publishLocked(ev Event) {
	ev.At = w.clock()
	for id, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			w.logger.WithField("subscriber", id).WithField("event", ev.Type).Warn("subscriber lagging, event dropped")
		}
	}
}

// Close ends every subscription.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}
