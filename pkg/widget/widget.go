// Package widget models the URL checker widget: the current input text, the
// run trigger, progress while a run is in flight, and the last result.
//
// The widget enforces its own guards. A run request is silently ignored when
// the trimmed input is empty or another run is already in flight, so the
// presentation layer never has to replicate that logic.
package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// Analyzer runs one analysis. *engine.URLGuard implements it.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string, onProgress engine.ProgressFunc) (*models.AnalysisResult, error)
}

// Observer is notified about run lifecycle. metrics.Collector implements it.
type Observer interface {
	RunStarted()
	RunFinished(res *models.AnalysisResult)
}

// Trigger identifies what asked for a run.
type Trigger string

const (
	TriggerCheck Trigger = "check"
	TriggerEnter Trigger = "enter"
)

// ConfirmKey is the key that triggers a run from the input field.
const ConfirmKey = "Enter"

// State is the display state derived from the widget's fields.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
)

// Snapshot is a consistent copy of the widget's state.
type Snapshot struct {
	State    State                  `json:"state"`
	URL      string                 `json:"url"`
	Progress int                    `json:"progress"`
	Result   *models.AnalysisResult `json:"result,omitempty"`
}

const defaultEventBuffer = 32

// Widget holds one user's checker state. It is safe for concurrent use.
type Widget struct {
	analyzer Analyzer
	observer Observer
	logger   *logrus.Logger
	clock    func() time.Time
	buffer   int

	mu       sync.Mutex
	url      string
	running  bool
	pending  int // RunFinished notifications not yet delivered
	progress int
	result   *models.AnalysisResult
	subs     map[int]chan Event
	nextSub  int
	idle     *sync.Cond
}

// Option configures a Widget.
type Option func(*Widget)

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(w *Widget) { w.observer = o }
}

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(l *logrus.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

// WithClock sets the clock used to stamp events.
func WithClock(c func() time.Time) Option {
	return func(w *Widget) { w.clock = c }
}

// WithEventBuffer sets the per-subscriber channel capacity.
func WithEventBuffer(n int) Option {
	return func(w *Widget) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// New creates an idle widget.
func New(a Analyzer, opts ...Option) *Widget {
	w := &Widget{
		analyzer: a,
		logger:   logrus.StandardLogger(),
		clock:    time.Now,
		buffer:   defaultEventBuffer,
		subs:     make(map[int]chan Event),
	}
	w.idle = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetURL replaces the input text.
func (w *Widget) SetURL(raw string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.url = raw
	w.publishLocked(Event{Type: EventURLEntered, URL: raw})
}

// KeyPress handles a key typed into the input. Only ConfirmKey does anything.
func (w *Widget) KeyPress(key string) bool {
	if key != ConfirmKey {
		return false
	}
	return w.Request(TriggerEnter)
}

// Request starts a run on the current input and reports whether it did.
// Empty input and an in-flight run are silent no-ops: nothing changes and no
// event is emitted.
func (w *Widget) Request(trigger Trigger) bool {
	w.mu.Lock()
	target := strings.TrimSpace(w.url)
	if target == "" || w.running {
		w.logger.WithFields(logrus.Fields{
			"trigger": trigger,
			"running": w.running,
		}).Debug("run request ignored")
		w.mu.Unlock()
		return false
	}

	w.running = true
	w.progress = 0
	w.result = nil
	w.publishLocked(Event{Type: EventRunRequested, URL: target, Trigger: trigger})
	w.mu.Unlock()

	// Observers are called without the lock so they may read the widget.
	if w.observer != nil {
		w.observer.RunStarted()
	}
	go w.run(target)
	return true
}

// run executes the analysis. Runs are not cancellable once started.
func (w *Widget) run(target string) {
	start := w.clock()
	res, err := w.analyzer.Analyze(context.Background(), target, w.onProgress)

	w.mu.Lock()
	w.running = false
	w.pending++
	if err != nil {
		// Only reachable with a custom Analyzer; the engine cannot fail on
		// non-empty input without a cancelled context.
		w.logger.WithError(err).WithField("url", target).Error("analysis failed")
		w.progress = 0
		res = nil
	} else {
		w.result = res
		w.progress = 100
		w.logger.WithFields(logrus.Fields{
			"url":          target,
			"score":        res.SafetyScore,
			"status":       res.Status,
			"risk_factors": len(res.RiskFactors),
			"elapsed":      w.clock().Sub(start).String(),
		}).Info("analysis complete")
		w.publishLocked(Event{Type: EventResultReady, URL: target, Progress: w.progress, Result: res.Clone()})
	}
	w.mu.Unlock()

	if w.observer != nil {
		w.observer.RunFinished(res)
	}

	w.mu.Lock()
	w.pending--
	w.idle.Broadcast()
	w.mu.Unlock()
}

func (w *Widget) onProgress(u engine.ProgressUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress = u.Progress
	w.publishLocked(Event{
		Type:     EventProgressUpdated,
		Progress: u.Progress,
		Check:    u.Check.Name,
		Passed:   boolPtr(u.Passed),
	})
}

// Snapshot returns the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() Snapshot {
	s := Snapshot{URL: w.url, Progress: w.progress, Result: w.result.Clone()}
	switch {
	case w.running:
		s.State = StateRunning
	case w.result != nil:
		s.State = StateDone
	default:
		s.State = StateIdle
	}
	return s
}

// Running reports whether a run is in flight.
func (w *Widget) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Result returns a copy of the last result, or nil.
func (w *Widget) Result() *models.AnalysisResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result.Clone()
}

// Wait blocks until no run is in flight and the observer has been told
// about every finished run.
func (w *Widget) Wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.running || w.pending > 0 {
		w.idle.Wait()
	}
}

func boolPtr(b bool) *bool { return &b }
