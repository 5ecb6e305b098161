package voxelnav

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxelnav/internal/calc"
	"voxelnav/internal/exec"
	"voxelnav/internal/pathing"
	"voxelnav/internal/telemetry"
	"voxelnav/logging"
	pathlog "voxelnav/logging/pathing"
)

const eventQueueSize = 64

// Navigator owns the control loop that turns a goal into movement: it
// launches background searches, adopts their results as executors, splices
// consecutive segments, and plans the next segment before the current one
// runs out.
//
// Threading: Tick and the control methods (SetGoalAndContext, pause and
// cancel requests, the read queries) belong to the tick goroutine. At most
// one background search goroutine exists at a time; it talks to the tick
// side only through the two mutexes below.
//
// Lock order is planningMu then processMu, never the reverse. planningMu
// guards the (current, next) executor pair and goal adoption; processMu
// guards the in-flight search handle.
type Navigator struct {
	agent pathing.Agent

	publisher logging.Publisher
	metrics   telemetry.Metrics
	actor     logging.EntityRef

	planningMu sync.Mutex
	processMu  sync.Mutex

	current *exec.Executor
	next    *exec.Executor

	goal pathing.Goal
	ctx  *pathing.CalcContext

	// trace groups every log event of one goal pursuit. Regenerated each
	// time a new goal is adopted.
	trace string

	inProgress *calc.AStar

	expectedSegmentStart pathing.Pos

	events    chan PathEvent
	listeners []EventListener

	tick              uint64
	ticksElapsedSoFar int
	startPosition     pathing.Pos
	etaValid          bool

	safeToCancel     bool
	pauseRequested   bool
	unpausedLastTick bool
	pausedThisTick   bool
	cancelRequested  bool
}

func NewNavigator(agent pathing.Agent, pub logging.Publisher, metrics telemetry.Metrics) *Navigator {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Navigator{
		agent:     agent,
		publisher: pub,
		metrics:   metrics,
		actor:     logging.EntityRef{ID: uuid.NewString(), Kind: logging.EntityKindAgent},
		events:    make(chan PathEvent, eventQueueSize),
	}
}

// OnEvent registers a listener for drained lifecycle events. Register
// before the first Tick; the listener slice is not guarded afterwards.
func (n *Navigator) OnEvent(listener EventListener) {
	if listener != nil {
		n.listeners = append(n.listeners, listener)
	}
}

// SetGoalAndContext adopts a new goal and calculation context. It returns
// true when a search was started. Already standing in the goal, or already
// executing or calculating, it adopts the goal and returns false.
func (n *Navigator) SetGoalAndContext(goal pathing.Goal, ctx *pathing.CalcContext) bool {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()

	n.goal = goal
	if ctx != nil {
		n.ctx = ctx
	}
	if goal == nil {
		n.trace = ""
		return false
	}
	n.trace = uuid.NewString()
	n.expectedSegmentStart = n.pathStart()
	if goal.IsInGoal(n.agent.Feet()) || goal.IsInGoal(n.expectedSegmentStart) {
		return false
	}
	if n.current != nil {
		return false
	}

	n.processMu.Lock()
	defer n.processMu.Unlock()
	if n.inProgress != nil {
		return false
	}
	n.queueEvent(EventCalcStarted)
	n.launchSearchLocked(n.expectedSegmentStart)
	return true
}

// Tick advances the navigator by one time step. With no goal and nothing
// executing or calculating it is a pure no-op.
func (n *Navigator) Tick() {
	n.dispatchEvents()

	n.planningMu.Lock()
	if n.goal == nil && n.current == nil && n.next == nil && !n.searchInFlightLocked() {
		n.planningMu.Unlock()
		return
	}
	n.expectedSegmentStart = n.pathStart()
	n.planningMu.Unlock()

	n.tickPath()

	// The search goroutine resets the elapsed counter when it adopts a
	// result, so the increment needs the same lock.
	n.planningMu.Lock()
	n.ticksElapsedSoFar++
	n.tick++
	n.planningMu.Unlock()

	n.dispatchEvents()
}

func (n *Navigator) searchInFlightLocked() bool {
	n.processMu.Lock()
	defer n.processMu.Unlock()
	return n.inProgress != nil
}

func (n *Navigator) tickPath() {
	n.pausedThisTick = false
	if n.pauseRequested && n.safeToCancel {
		n.pauseRequested = false
		if n.unpausedLastTick {
			n.agent.ClearInputs()
		}
		n.unpausedLastTick = false
		n.pausedThisTick = true
		return
	}
	n.unpausedLastTick = true
	if n.cancelRequested {
		n.cancelRequested = false
		n.agent.ClearInputs()
	}

	n.planningMu.Lock()
	defer n.planningMu.Unlock()

	n.cancelStaleSearchLocked()

	if n.current == nil {
		return
	}

	n.safeToCancel = n.current.OnTick()

	if n.current.Failed() || n.current.Finished() {
		n.finishSegmentLocked()
		return
	}

	// Current is mid-flight. A planned-next executor that already contains
	// the agent can be jumped onto without waiting for current to end.
	if n.safeToCancel && n.next != nil && n.next.SpliceIfPossible() {
		n.queueEvent(EventSplicingOntoNextEarly)
		n.current = n.next
		n.next = nil
		n.safeToCancel = n.current.OnTick()
		return
	}

	settings := n.settingsNow()
	if settings.SplicePath {
		n.current = n.current.TrySplice(n.next)
	}
	if n.next != nil && n.current.Path().Dest() == n.next.Path().Dest() {
		// The splice absorbed it, or the planner produced a duplicate.
		n.next = nil
	}

	n.processMu.Lock()
	defer n.processMu.Unlock()
	if n.inProgress != nil || n.next != nil {
		return
	}
	if n.goal == nil || n.goal.IsInGoal(n.current.Path().Dest()) {
		return
	}
	// Exclude the current movement from the estimate so one very long
	// final movement does not postpone planning until it is done.
	remaining := n.current.Path().TicksRemainingFrom(n.current.Position() + 1)
	if remaining < settings.PlanAheadRemainingTicks {
		n.queueEvent(EventNextSegmentCalcStarted)
		n.launchSearchLocked(n.current.Path().Dest())
	}
}

// finishSegmentLocked handles the active executor ending, by failure or by
// completion. Caller holds planningMu.
func (n *Navigator) finishSegmentLocked() {
	failed := n.current.Failed()
	cursor := n.current.Position()
	n.current = nil

	if failed {
		n.metrics.Add("navigator_segments_failed", 1)
		pathlog.ExecutionFailed(context.Background(), n.publisher, n.tick, n.actor, n.trace,
			pathlog.ExecutionFailedPayload{Cursor: cursor}, nil)
	}

	feet := n.agent.Feet()
	if n.goal == nil || n.goal.IsInGoal(feet) {
		n.queueEvent(EventAtGoal)
		n.next = nil
		n.etaValid = false
		return
	}

	if n.next != nil &&
		!n.next.Path().ContainsPos(feet) &&
		!n.next.Path().ContainsPos(n.expectedSegmentStart) {
		// A mid-segment failure left the agent nowhere near the planned
		// continuation; it only makes sense from the old segment's end.
		n.queueEvent(EventDiscardNext)
		n.next = nil
	}

	if n.next != nil {
		n.queueEvent(EventContinuingOntoPlannedNext)
		n.current = n.next
		n.next = nil
		n.safeToCancel = n.current.OnTick()
		return
	}

	n.processMu.Lock()
	defer n.processMu.Unlock()
	if n.inProgress != nil {
		n.queueEvent(EventPathFinishedNextStillCalculating)
		return
	}
	n.queueEvent(EventCalcStarted)
	n.launchSearchLocked(n.expectedSegmentStart)
}

// cancelStaleSearchLocked cancels an in-flight search whose start no longer
// matches anything the navigator could adopt it from. Caller holds
// planningMu.
func (n *Navigator) cancelStaleSearchLocked() {
	n.processMu.Lock()
	defer n.processMu.Unlock()
	if n.inProgress == nil {
		return
	}
	calcFrom := n.inProgress.Start()
	if n.current != nil && n.current.Path().Dest() == calcFrom {
		return
	}
	feet := n.agent.Feet()
	if calcFrom == feet || calcFrom == n.expectedSegmentStart {
		return
	}
	if best := n.inProgress.BestPathSoFar(); best != nil &&
		(best.ContainsPos(feet) || best.ContainsPos(n.expectedSegmentStart)) {
		return
	}
	n.inProgress.Cancel()
}

// launchSearchLocked starts the background search goroutine. The caller
// must hold processMu; launching without it is a programming defect, not a
// runtime condition, and panics. TryLock cannot distinguish our own hold
// from another goroutine's, so the guard is best-effort.
func (n *Navigator) launchSearchLocked(start pathing.Pos) {
	if n.processMu.TryLock() {
		n.processMu.Unlock()
		panic("navigator: launchSearch called without holding the process lock")
	}
	if n.inProgress != nil {
		panic("navigator: a search is already in flight")
	}
	ctx := n.ctx
	if ctx == nil || !ctx.ThreadSafe {
		panic("navigator: calculation context is not safe for background use")
	}
	goal := n.goal
	if goal == nil {
		return
	}

	settings := ctx.Settings
	primary, failure := settings.PrimaryTimeout, settings.FailureTimeout
	var previous *pathing.Path
	if n.current != nil {
		// Plan-ahead searches run while the agent is still busy, so they
		// can afford the longer budget.
		primary, failure = settings.PlanAheadPrimaryTimeout, settings.PlanAheadFailureTimeout
		previous = n.current.Path()
	}
	favoring := pathing.NewFavoring(previous, settings.BacktrackCostFavoringCoefficient)

	search := calc.NewAStar(start, goal, favoring, ctx)
	n.inProgress = search
	n.metrics.Add("navigator_searches_started", 1)
	go n.runSearch(search, primary, failure)
}

// runSearch is the background goroutine body. Result adoption takes
// planningMu then processMu, the same order as the tick side.
func (n *Navigator) runSearch(search *calc.AStar, primary, failure time.Duration) {
	result := search.Calculate(primary, failure)

	n.planningMu.Lock()
	defer n.planningMu.Unlock()

	var executor *exec.Executor
	if result.Path != nil {
		executor = exec.New(n, n.agent, result.Path)
	}

	switch {
	case n.current == nil:
		if executor != nil {
			if executor.Path().ContainsPos(n.expectedSegmentStart) {
				n.queueEvent(EventCalcFinishedNowExecuting)
				n.current = executor
				n.resetEstimatedTicksToGoal(search.Start())
			} else {
				// Stale: the agent moved on while we searched.
				n.metrics.Add("navigator_orphan_paths_discarded", 1)
			}
		} else if result.Status != calc.ResultCancellation && result.Status != calc.ResultException {
			n.queueEvent(EventCalcFailed)
		}
	case n.next == nil:
		if executor != nil {
			if executor.Path().Src() == n.current.Path().Dest() {
				n.queueEvent(EventNextSegmentCalcFinished)
				n.next = executor
			} else {
				n.metrics.Add("navigator_orphan_paths_discarded", 1)
			}
		} else {
			n.queueEvent(EventNextCalcFailed)
		}
	default:
		// Both slots filled while we searched; the goal changed underneath.
		n.metrics.Add("navigator_orphan_paths_discarded", 1)
	}

	n.processMu.Lock()
	if n.inProgress == search {
		n.inProgress = nil
	}
	n.processMu.Unlock()
}

// CancelEverything drops the goal, both executors, and any in-flight
// search. Inputs are cleared on the next tick as well, covering a movement
// that was mid-keypress.
func (n *Navigator) CancelEverything() {
	n.cancelRequested = true
	n.agent.ClearInputs()

	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	n.processMu.Lock()
	if n.inProgress != nil {
		n.inProgress.Cancel()
	}
	n.processMu.Unlock()

	hadWork := n.current != nil || n.next != nil || n.goal != nil
	n.current = nil
	n.next = nil
	n.goal = nil
	n.trace = ""
	n.etaValid = false
	if hadWork {
		n.queueEvent(EventCanceled)
	}
}

// RequestPause asks the navigator to hold still starting from the next tick
// on which the active movement is safe to interrupt. The pause lasts one
// tick; callers wanting a sustained pause re-request each tick.
func (n *Navigator) RequestPause() {
	n.pauseRequested = true
}

// SoftCancelIfSafe cancels the current segment only if the active movement
// can be abandoned safely right now. The goal survives; the next tick will
// replan from wherever the agent stands.
func (n *Navigator) SoftCancelIfSafe() bool {
	n.planningMu.Lock()
	n.processMu.Lock()
	if n.inProgress != nil {
		n.inProgress.Cancel()
	}
	n.processMu.Unlock()
	if n.current != nil && !n.safeToCancel {
		n.planningMu.Unlock()
		return false
	}
	n.current = nil
	n.next = nil
	n.planningMu.Unlock()

	n.cancelRequested = true
	n.agent.ClearInputs()
	return true
}

// Goal returns the active goal, or nil.
func (n *Navigator) Goal() pathing.Goal {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	return n.goal
}

// CurrentPath returns the path being executed, or nil.
func (n *Navigator) CurrentPath() *pathing.Path {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	if n.current == nil {
		return nil
	}
	return n.current.Path()
}

// PathPosition returns the active executor's cursor, or -1 when idle.
func (n *Navigator) PathPosition() int {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	if n.current == nil {
		return -1
	}
	return n.current.Position()
}

// IsPathing reports whether the navigator drove the agent this tick.
func (n *Navigator) IsPathing() bool {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	return n.current != nil && !n.pausedThisTick
}

// HasPath reports whether any segment, active or planned, exists.
func (n *Navigator) HasPath() bool {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	return n.current != nil || n.next != nil
}

// EstimatedTicksToGoal extrapolates arrival time from heuristic progress
// since the current pursuit began. It reports false until enough progress
// exists to extrapolate from.
func (n *Navigator) EstimatedTicksToGoal() (float64, bool) {
	n.planningMu.Lock()
	defer n.planningMu.Unlock()
	if n.goal == nil || !n.etaValid {
		return 0, false
	}
	feet := n.agent.Feet()
	if n.goal.IsInGoal(feet) {
		return 0, true
	}
	if n.ticksElapsedSoFar == 0 {
		return 0, false
	}
	h := n.goal.Heuristic(feet)
	h0 := n.goal.Heuristic(n.startPosition)
	if h >= h0 {
		return 0, false
	}
	return float64(n.ticksElapsedSoFar) * h / (h0 - h), true
}

func (n *Navigator) resetEstimatedTicksToGoal(start pathing.Pos) {
	n.startPosition = start
	n.ticksElapsedSoFar = 0
	n.etaValid = true
}

func (n *Navigator) settingsNow() pathing.Settings {
	if n.ctx != nil {
		return n.ctx.Settings
	}
	return pathing.DefaultSettings()
}

func (n *Navigator) calcWorld() pathing.World {
	if n.ctx == nil {
		return nil
	}
	return n.ctx.World
}

// CalcContext exposes the live calculation context to the executor.
func (n *Navigator) CalcContext() *pathing.CalcContext { return n.ctx }

// InProgressBestPath returns the best partial path of the in-flight search,
// or nil when idle.
func (n *Navigator) InProgressBestPath() *pathing.Path {
	n.processMu.Lock()
	defer n.processMu.Unlock()
	if n.inProgress == nil {
		return nil
	}
	return n.inProgress.BestPathSoFar()
}

// PathStart returns the snapped segment start computed this tick.
func (n *Navigator) PathStart() pathing.Pos { return n.expectedSegmentStart }
