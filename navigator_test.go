package voxelnav

import (
	"context"
	"sync"
	"testing"
	"time"

	"voxelnav/internal/calc"
	"voxelnav/internal/exec"
	"voxelnav/internal/pathing"
	"voxelnav/internal/voxelworld"
	"voxelnav/logging"
	pathlog "voxelnav/logging/pathing"
	"voxelnav/logging/sinks"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []PathEvent
}

func (r *eventRecorder) listen(e PathEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []PathEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PathEvent(nil), r.events...)
}

func (r *eventRecorder) count(want PathEvent) int {
	n := 0
	for _, e := range r.all() {
		if e == want {
			n++
		}
	}
	return n
}

type logRecorder struct {
	mu     sync.Mutex
	events []logging.Event
}

func (r *logRecorder) publisher() logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, e logging.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
}

func (r *logRecorder) countType(want logging.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == want {
			n++
		}
	}
	return n
}

func newTestNavigator(t *testing.T, settings pathing.Settings) (*voxelworld.World, *voxelworld.SimAgent, *Navigator, *eventRecorder, *logRecorder) {
	t.Helper()
	world := voxelworld.NewFlat(63)
	agent := voxelworld.NewSimAgent(pathing.Pos{X: 0, Y: 64, Z: 0})
	logs := &logRecorder{}
	nav := NewNavigator(agent, logs.publisher(), nil)
	nav.ctx = pathing.NewCalcContext(world, settings, true)
	rec := &eventRecorder{}
	nav.OnEvent(rec.listen)
	return world, agent, nav, rec, logs
}

func searchPath(t *testing.T, ctx *pathing.CalcContext, start pathing.Pos, goal pathing.Goal) *pathing.Path {
	t.Helper()
	result := calc.NewAStar(start, goal, nil, ctx).Calculate(5*time.Second, 10*time.Second)
	if result.Status != calc.ResultSuccess || result.Path == nil {
		t.Fatalf("setup search failed: %v", result.Status)
	}
	return result.Path
}

func TestTickWithNoGoalIsNoOp(t *testing.T) {
	_, agent, nav, rec, logs := newTestNavigator(t, pathing.DefaultSettings())

	before := agent.Feet()
	for i := 0; i < 5; i++ {
		nav.Tick()
	}

	if got := rec.all(); len(got) != 0 {
		t.Fatalf("idle ticks emitted events: %v", got)
	}
	if agent.Feet() != before {
		t.Fatalf("idle ticks moved the agent")
	}
	if nav.IsPathing() {
		t.Fatalf("idle navigator reports pathing")
	}
	if nav.PathPosition() != -1 {
		t.Fatalf("idle cursor = %d, want -1", nav.PathPosition())
	}
	logs.mu.Lock()
	defer logs.mu.Unlock()
	if len(logs.events) != 0 {
		t.Fatalf("idle ticks published log events: %v", logs.events)
	}
}

func TestNavigatorWalksToGoal(t *testing.T) {
	_, agent, nav, rec, _ := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 6, Y: 64, Z: 6}}

	if !nav.SetGoalAndContext(goal, nil) {
		t.Fatalf("SetGoalAndContext should start a search")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !goal.IsInGoal(agent.Feet()) && time.Now().Before(deadline) {
		nav.Tick()
		time.Sleep(time.Millisecond)
	}

	if !goal.IsInGoal(agent.Feet()) {
		t.Fatalf("agent never reached the goal, at %v", agent.Feet())
	}

	// Keep ticking until the at-goal transition drains.
	for i := 0; i < 10 && rec.count(EventAtGoal) == 0; i++ {
		nav.Tick()
		time.Sleep(time.Millisecond)
	}

	if rec.count(EventCalcStarted) != 1 {
		t.Fatalf("CALC_STARTED count = %d, want 1 (events: %v)", rec.count(EventCalcStarted), rec.all())
	}
	if rec.count(EventCalcFinishedNowExecuting) != 1 {
		t.Fatalf("adoption event count = %d (events: %v)", rec.count(EventCalcFinishedNowExecuting), rec.all())
	}
	if rec.count(EventAtGoal) != 1 {
		t.Fatalf("AT_GOAL count = %d (events: %v)", rec.count(EventAtGoal), rec.all())
	}
}

func TestSetGoalAlreadyThereIsNoOp(t *testing.T) {
	_, agent, nav, rec, _ := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: agent.Feet()}

	if nav.SetGoalAndContext(goal, nil) {
		t.Fatalf("goal at the agent's feet should not start a search")
	}
	nav.Tick()
	if got := rec.count(EventCalcStarted); got != 0 {
		t.Fatalf("no search should start, got %d CALC_STARTED", got)
	}
}

func TestPlannedNextWithSameDestinationIsDiscarded(t *testing.T) {
	settings := pathing.DefaultSettings()
	settings.SplicePath = false
	_, agent, nav, rec, _ := newTestNavigator(t, settings)

	// The goal sits at the active segment's destination so no plan-ahead
	// search launches during the tick.
	dest := pathing.Pos{X: 6, Y: 64, Z: 0}
	nav.goal = pathing.GoalBlock{Pos: dest}

	current := exec.New(nav, agent, searchPath(t, nav.ctx, agent.Feet(), pathing.GoalBlock{Pos: dest}))
	duplicate := exec.New(nav, agent, searchPath(t, nav.ctx, pathing.Pos{X: 2, Y: 64, Z: 0}, pathing.GoalBlock{Pos: dest}))
	nav.current = current
	nav.next = duplicate

	nav.Tick()

	if nav.next != nil {
		t.Fatalf("planned-next with duplicate destination should be discarded")
	}
	if nav.current != current {
		t.Fatalf("active executor must not be replaced by the duplicate")
	}
	if got := rec.count(EventContinuingOntoPlannedNext); got != 0 {
		t.Fatalf("duplicate must never be adopted, got %d adoption events", got)
	}
}

func TestWorldMutationFailsSegmentWithOneFailureEvent(t *testing.T) {
	world, agent, nav, _, logs := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 10, Y: 64, Z: 0}}
	nav.goal = goal

	path := searchPath(t, nav.ctx, agent.Feet(), goal)
	nav.current = exec.New(nav, agent, path)

	// Close the corridor inside the cost verification window.
	blocked := path.Positions()[2]
	world.SetBlock(blocked, pathing.BlockSolid)
	world.SetBlock(blocked.Up(), pathing.BlockSolid)
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			p := pathing.Pos{X: blocked.X + dx, Y: 64, Z: blocked.Z + dz}
			world.SetBlock(p, pathing.BlockSolid)
			world.SetBlock(p.Up(), pathing.BlockSolid)
		}
	}

	nav.Tick()

	if nav.CurrentPath() == path {
		t.Fatalf("failed segment should have been dropped within one tick")
	}
	if got := logs.countType(pathlog.EventExecutionFailed); got != 1 {
		t.Fatalf("execution failure events = %d, want exactly 1", got)
	}

	nav.CancelEverything()
}

func TestCancelEverythingClearsState(t *testing.T) {
	_, agent, nav, rec, _ := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 6, Y: 64, Z: 0}}
	nav.goal = goal
	nav.current = exec.New(nav, agent, searchPath(t, nav.ctx, agent.Feet(), goal))

	nav.CancelEverything()

	if nav.Goal() != nil {
		t.Fatalf("goal should be cleared")
	}
	if nav.HasPath() {
		t.Fatalf("executors should be cleared")
	}
	nav.Tick()
	if rec.count(EventCanceled) != 1 {
		t.Fatalf("CANCELED count = %d, want 1", rec.count(EventCanceled))
	}

	// Cancelling an already idle navigator emits nothing further.
	nav.CancelEverything()
	nav.Tick()
	if rec.count(EventCanceled) != 1 {
		t.Fatalf("idle cancel emitted an extra event")
	}
}

func TestSoftCancelRefusedMidFall(t *testing.T) {
	_, agent, nav, _, _ := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 6, Y: 64, Z: 0}}
	nav.goal = goal
	nav.current = exec.New(nav, agent, searchPath(t, nav.ctx, agent.Feet(), goal))
	nav.safeToCancel = false

	if nav.SoftCancelIfSafe() {
		t.Fatalf("soft cancel must refuse while unsafe")
	}
	if !nav.HasPath() {
		t.Fatalf("refused soft cancel must leave the executor in place")
	}

	nav.safeToCancel = true
	if !nav.SoftCancelIfSafe() {
		t.Fatalf("soft cancel should succeed once safe")
	}
	if nav.HasPath() {
		t.Fatalf("soft cancel should clear executors")
	}
	if nav.Goal() == nil {
		t.Fatalf("soft cancel must keep the goal")
	}
}

func TestRequestPauseHoldsOneTick(t *testing.T) {
	_, agent, nav, _, _ := newTestNavigator(t, pathing.DefaultSettings())
	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 6, Y: 64, Z: 0}}
	nav.goal = goal
	nav.current = exec.New(nav, agent, searchPath(t, nav.ctx, agent.Feet(), goal))
	nav.safeToCancel = true

	before := agent.Feet()
	nav.RequestPause()
	nav.Tick()
	if agent.Feet() != before {
		t.Fatalf("paused tick moved the agent")
	}
	if nav.IsPathing() {
		t.Fatalf("paused navigator reports pathing")
	}

	nav.Tick()
	if agent.Feet() == before {
		t.Fatalf("navigator should resume after the pause tick")
	}
}

func TestTickConcurrentWithSearchAdoption(t *testing.T) {
	_, agent, nav, _, _ := newTestNavigator(t, pathing.DefaultSettings())

	// Tick as fast as possible while background searches finish and reset
	// the progress counters, across several pursuits.
	for round := 0; round < 3; round++ {
		goal := pathing.GoalBlock{Pos: pathing.Pos{X: 5 + round, Y: 64, Z: 5}}
		if !nav.SetGoalAndContext(goal, nil) {
			t.Fatalf("round %d: search should start", round)
		}
		deadline := time.Now().Add(5 * time.Second)
		for !goal.IsInGoal(agent.Feet()) && time.Now().Before(deadline) {
			nav.Tick()
			nav.EstimatedTicksToGoal()
		}
		if !goal.IsInGoal(agent.Feet()) {
			t.Fatalf("round %d: agent stalled at %v", round, agent.Feet())
		}
		nav.CancelEverything()
		nav.Tick()
	}
}

func TestPursuitEventsShareOneTraceThroughRouter(t *testing.T) {
	world := voxelworld.NewFlat(63)
	agent := voxelworld.NewSimAgent(pathing.Pos{X: 0, Y: 64, Z: 0})

	mem := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	nav := NewNavigator(agent, router, nil)
	nav.ctx = pathing.NewCalcContext(world, pathing.DefaultSettings(), true)

	goal := pathing.GoalBlock{Pos: pathing.Pos{X: 4, Y: 64, Z: 4}}
	if !nav.SetGoalAndContext(goal, nil) {
		t.Fatalf("SetGoalAndContext should start a search")
	}
	deadline := time.Now().Add(5 * time.Second)
	for !goal.IsInGoal(agent.Feet()) && time.Now().Before(deadline) {
		nav.Tick()
		time.Sleep(time.Millisecond)
	}
	if !goal.IsInGoal(agent.Feet()) {
		t.Fatalf("agent never reached the goal, at %v", agent.Feet())
	}
	for i := 0; i < 10; i++ {
		nav.Tick()
		time.Sleep(time.Millisecond)
	}

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("router close: %v", err)
	}

	events := mem.Events()
	if len(events) == 0 {
		t.Fatalf("no events reached the sink")
	}
	sawStart := false
	trace := ""
	for _, e := range events {
		if e.Type == pathlog.EventCalcStarted {
			sawStart = true
		}
		if e.TraceID == "" {
			t.Fatalf("event %s has no trace", e.Type)
		}
		if trace == "" {
			trace = e.TraceID
		} else if e.TraceID != trace {
			t.Fatalf("one pursuit produced two traces: %q and %q", trace, e.TraceID)
		}
	}
	if !sawStart {
		t.Fatalf("no search start event was routed, got %v", events)
	}
}

func TestLaunchSearchWithoutProcessLockPanics(t *testing.T) {
	_, _, nav, _, _ := newTestNavigator(t, pathing.DefaultSettings())
	nav.goal = pathing.GoalBlock{Pos: pathing.Pos{X: 5, Y: 64, Z: 0}}

	defer func() {
		if recover() == nil {
			t.Fatalf("launching without the process lock must panic")
		}
	}()
	nav.launchSearchLocked(pathing.Pos{X: 0, Y: 64, Z: 0})
}
