package widget_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEngine(draws ...float64) *engine.URLGuard {
	g := engine.New(engine.Config{Random: engine.NewSequence(draws...), Delayer: engine.NoDelay{}})
	g.AddRules(rules.Default()...)
	return g
}

// gatedAnalyzer blocks every run until a token is sent on release.
type gatedAnalyzer struct {
	inner   widget.Analyzer
	release chan struct{}
	entered chan string
	calls   atomic.Int32
}

func newGated(inner widget.Analyzer) *gatedAnalyzer {
	return &gatedAnalyzer{inner: inner, release: make(chan struct{}, 4), entered: make(chan string, 4)}
}

func (g *gatedAnalyzer) Analyze(ctx context.Context, u string, p engine.ProgressFunc) (*models.AnalysisResult, error) {
	g.calls.Add(1)
	g.entered <- u
	<-g.release
	return g.inner.Analyze(ctx, u, p)
}

type countingObserver struct {
	mu       sync.Mutex
	started  int
	finished []*models.AnalysisResult
}

func (c *countingObserver) RunStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}

func (c *countingObserver) RunFinished(res *models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, res)
}

func drain(ch <-chan widget.Event) []widget.Event {
	var out []widget.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestIdleBeforeAnyRun(t *testing.T) {
	t.Parallel()
	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()))
	snap := w.Snapshot()
	if snap.State != widget.StateIdle || snap.Progress != 0 || snap.Result != nil {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestRequestWithEmptyURLIsNoop(t *testing.T) {
	t.Parallel()
	gated := newGated(newEngine(0))
	w := widget.New(gated, widget.WithLogger(quietLogger()))

	for _, input := range []string{"", "   ", "\t\n"} {
		w.SetURL(input)
		events, cancel := w.Subscribe()
		if w.Request(widget.TriggerCheck) {
			t.Fatalf("Request(%q) started a run", input)
		}
		if w.KeyPress(widget.ConfirmKey) {
			t.Fatalf("KeyPress(%q) started a run", input)
		}
		if got := drain(events); len(got) != 0 {
			t.Fatalf("expected no events, got %v", got)
		}
		cancel()
	}
	if gated.calls.Load() != 0 {
		t.Fatalf("analyzer was called")
	}
	if snap := w.Snapshot(); snap.State != widget.StateIdle {
		t.Fatalf("state = %s, want idle", snap.State)
	}
}

func TestRunToCompletion(t *testing.T) {
	t.Parallel()
	obs := &countingObserver{}
	w := widget.New(newEngine(0, 0, 0, 0, 0, 0.5), widget.WithLogger(quietLogger()), widget.WithObserver(obs))
	w.SetURL("  https://example.com  ")
	events, cancel := w.Subscribe()
	defer cancel()

	if !w.Request(widget.TriggerCheck) {
		t.Fatalf("expected run to start")
	}
	w.Wait()

	snap := w.Snapshot()
	if snap.State != widget.StateDone {
		t.Fatalf("state = %s, want done", snap.State)
	}
	if snap.Progress != 100 {
		t.Fatalf("progress = %d, want 100", snap.Progress)
	}
	if snap.Result == nil || snap.Result.SafetyScore != 100 || snap.Result.Status != models.StatusSafe {
		t.Fatalf("unexpected result: %+v", snap.Result)
	}
	if snap.Result.URL != "https://example.com" {
		t.Fatalf("analyzer received untrimmed url %q", snap.Result.URL)
	}

	got := drain(events)
	wantTypes := []widget.EventType{
		widget.EventRunRequested,
		widget.EventProgressUpdated,
		widget.EventProgressUpdated,
		widget.EventProgressUpdated,
		widget.EventProgressUpdated,
		widget.EventProgressUpdated,
		widget.EventResultReady,
	}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(wantTypes), got)
	}
	wantProgress := []int{0, 20, 45, 60, 85, 100, 100}
	for i, ev := range got {
		if ev.Type != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.Type, wantTypes[i])
		}
		if ev.Progress != wantProgress[i] {
			t.Errorf("event %d progress = %d, want %d", i, ev.Progress, wantProgress[i])
		}
	}
	if got[0].Trigger != widget.TriggerCheck {
		t.Errorf("trigger = %q", got[0].Trigger)
	}
	if got[len(got)-1].Result == nil {
		t.Errorf("result-ready carried no result")
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.started != 1 || len(obs.finished) != 1 || obs.finished[0] == nil {
		t.Fatalf("observer saw started=%d finished=%v", obs.started, obs.finished)
	}
}

func TestOnlyOneRunInFlight(t *testing.T) {
	t.Parallel()
	gated := newGated(newEngine(0))
	w := widget.New(gated, widget.WithLogger(quietLogger()))
	w.SetURL("https://example.com")

	if !w.Request(widget.TriggerCheck) {
		t.Fatalf("first request should start")
	}
	<-gated.entered

	if w.Request(widget.TriggerCheck) {
		t.Fatalf("second request must be ignored while running")
	}
	if w.KeyPress(widget.ConfirmKey) {
		t.Fatalf("enter must be ignored while running")
	}
	if snap := w.Snapshot(); snap.State != widget.StateRunning {
		t.Fatalf("state = %s, want running", snap.State)
	}

	gated.release <- struct{}{}
	w.Wait()
	if n := gated.calls.Load(); n != 1 {
		t.Fatalf("analyzer called %d times, want 1", n)
	}
}

func TestNewRunClearsPreviousResult(t *testing.T) {
	t.Parallel()
	gated := newGated(newEngine(0))
	w := widget.New(gated, widget.WithLogger(quietLogger()))
	w.SetURL("https://example.com")

	gated.release <- struct{}{}
	w.Request(widget.TriggerCheck)
	w.Wait()
	if w.Result() == nil {
		t.Fatalf("expected a result after first run")
	}

	w.SetURL("http://bit.ly/abc")
	if !w.KeyPress(widget.ConfirmKey) {
		t.Fatalf("enter should start the second run")
	}
	<-gated.entered
	<-gated.entered

	snap := w.Snapshot()
	if snap.State != widget.StateRunning || snap.Result != nil || snap.Progress != 0 {
		t.Fatalf("run start did not clear state: %+v", snap)
	}

	gated.release <- struct{}{}
	w.Wait()
	res := w.Result()
	if res == nil || res.URL != "http://bit.ly/abc" {
		t.Fatalf("unexpected second result: %+v", res)
	}
}

func TestEmptyRequestKeepsPriorResult(t *testing.T) {
	t.Parallel()
	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()))
	w.SetURL("https://example.com")
	w.Request(widget.TriggerCheck)
	w.Wait()
	before := w.Snapshot()

	w.SetURL("   ")
	if w.Request(widget.TriggerCheck) {
		t.Fatalf("empty request started a run")
	}
	after := w.Snapshot()
	if after.Progress != before.Progress || after.Result == nil || after.State != widget.StateDone {
		t.Fatalf("empty request changed state: before=%+v after=%+v", before, after)
	}
}

func TestKeyPressIgnoresOtherKeys(t *testing.T) {
	t.Parallel()
	gated := newGated(newEngine(0))
	w := widget.New(gated, widget.WithLogger(quietLogger()))
	w.SetURL("https://example.com")
	for _, k := range []string{"a", "Tab", "enter", " "} {
		if w.KeyPress(k) {
			t.Fatalf("key %q started a run", k)
		}
	}
	if gated.calls.Load() != 0 {
		t.Fatalf("analyzer was called")
	}
}

func TestSubscribeWithSnapshotAndClose(t *testing.T) {
	t.Parallel()
	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()), widget.WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	w.SetURL("https://example.com")
	snap, events, cancel := w.SubscribeWithSnapshot()
	if snap.URL != "https://example.com" || snap.State != widget.StateIdle {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w.SetURL("https://example.org")
	ev := <-events
	if ev.Type != widget.EventURLEntered || ev.URL != "https://example.org" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.At.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("event not stamped with widget clock: %v", ev.At)
	}

	w.Close()
	if _, ok := <-events; ok {
		t.Fatalf("channel should be closed")
	}
	cancel() // no panic after Close
}

func TestSlowSubscriberDoesNotBlockRun(t *testing.T) {
	t.Parallel()
	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()), widget.WithEventBuffer(1))
	_, cancel := w.Subscribe()
	defer cancel()

	w.SetURL("https://example.com")
	w.Request(widget.TriggerCheck)

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run blocked on a lagging subscriber")
	}
}

// reentrantObserver reads the widget from inside its callbacks.
type reentrantObserver struct {
	w      *widget.Widget
	states chan widget.State
}

func (r *reentrantObserver) RunStarted() {
	r.states <- r.w.Snapshot().State
}

func (r *reentrantObserver) RunFinished(*models.AnalysisResult) {
	r.states <- r.w.Snapshot().State
}

func TestObserverMayReadWidget(t *testing.T) {
	t.Parallel()
	obs := &reentrantObserver{states: make(chan widget.State, 2)}
	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()), widget.WithObserver(obs))
	obs.w = w
	w.SetURL("https://example.com")

	done := make(chan struct{})
	go func() {
		w.Request(widget.TriggerCheck)
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("observer callback deadlocked on the widget")
	}

	if got := <-obs.states; got != widget.StateRunning {
		t.Errorf("state seen by RunStarted = %s, want running", got)
	}
	if got := <-obs.states; got != widget.StateDone {
		t.Errorf("state seen by RunFinished = %s, want done", got)
	}
}

func TestCleanResultEncodesEmptyLists(t *testing.T) {
	t.Parallel()
	direct, err := newEngine(0).Analyze(context.Background(), "https://example.com", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	w := widget.New(newEngine(0), widget.WithLogger(quietLogger()))
	w.SetURL("https://example.com")
	w.Request(widget.TriggerCheck)
	w.Wait()

	for name, v := range map[string]any{
		"direct":   direct,
		"snapshot": w.Snapshot(),
		"result":   w.Result(),
	} {
		body, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		if !bytes.Contains(body, []byte(`"risk_factors":[]`)) {
			t.Errorf("%s: want \"risk_factors\":[], got %s", name, body)
		}
	}
}
