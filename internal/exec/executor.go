package exec

import (
	"voxelnav/internal/pathing"
)

// forwardScanStart is how far past the cursor the deviation recovery scan
// begins. Positions closer than this are already covered by the current
// movement's valid set.
const forwardScanStart = 3

// Host is what the executor needs from its navigator: the live calculation
// context, the best partial path of an in-flight background search (nil
// when idle), and the snapped path-start position.
type Host interface {
	CalcContext() *pathing.CalcContext
	InProgressBestPath() *pathing.Path
	PathStart() pathing.Pos
}

// Executor drives one Path to completion, one tick at a time. It owns the
// cursor, detects and recovers from deviation, re-verifies costs against
// the mutating world, and cancels itself when the plan stops being viable.
// It never reports errors upward; the navigator reads Failed and Finished.
type Executor struct {
	host  Host
	agent pathing.Agent
	path  *pathing.Path

	pos            int
	ticksAway      int
	ticksOnCurrent int

	currentCostEstimate float64
	costEstimateIndex   int
	failed              bool
	sprintNext          bool

	recalcSideEffects bool
	toBreak           pathing.PosSet
	toPlace           pathing.PosSet
	toWalkInto        pathing.PosSet
}

func New(host Host, agent pathing.Agent, path *pathing.Path) *Executor {
	return &Executor{
		host:              host,
		agent:             agent,
		path:              path,
		costEstimateIndex: -1,
		recalcSideEffects: true,
	}
}

func (e *Executor) Path() *pathing.Path { return e.path }

// Position is the cursor: the index of the movement currently executing.
func (e *Executor) Position() int { return e.pos }

func (e *Executor) Failed() bool { return e.failed }

func (e *Executor) Finished() bool { return e.pos >= e.path.Length() }

func (e *Executor) IsSprinting() bool { return e.sprintNext }

// TicksRemaining estimates the cost of the rest of this segment.
func (e *Executor) TicksRemaining() float64 {
	return e.path.TicksRemainingFrom(e.pos)
}

// OnTick advances execution by one tick. The return value means "safe to
// interrupt": true when the executor is finished, has failed, or the
// current movement can be abandoned without leaving the agent stranded.
func (e *Executor) OnTick() bool {
	if e.pos == e.path.Length()-1 {
		// Cursor sits on the final position; nothing left to drive.
		e.pos++
	}
	if e.pos >= e.path.Length() {
		return true
	}

	movements := e.path.Movements()
	movement := movements[e.pos]
	feet := e.agent.Feet()
	ctx := e.host.CalcContext()
	settings := ctx.Settings

	if !e.positionValid(movement, feet) {
		if e.recoverPosition(feet) {
			return false
		}
	}

	if e.proximityExceeded(movement, settings) {
		return true
	}

	if e.recalcSideEffects {
		e.updateSideEffects(ctx.World)
	}

	// Hold at the edge of loaded terrain rather than walking blind.
	if e.pos < len(movements)-1 {
		next := movements[e.pos+1]
		if ctx.World != nil && !ctx.World.ChunkLoaded(next.Dest().X, next.Dest().Z) {
			e.agent.ClearInputs()
			return true
		}
	}

	canCancel := movement.SafeToCancel(e.agent)

	if !e.verifyCosts(movement, ctx, canCancel) {
		return true
	}

	switch movement.Update(e.agent) {
	case pathing.StatusUnreachable, pathing.StatusFailed:
		e.cancel()
		return true
	case pathing.StatusSuccess:
		e.pos++
		e.onCursorChange()
		e.OnTick()
		return true
	}

	e.sprintNext = settings.AllowSprint && shouldSprint(e.path.Movements(), e.pos)
	if !e.sprintNext {
		e.agent.SetSprinting(false)
	}

	e.ticksOnCurrent++
	if float64(e.ticksOnCurrent) > e.currentCostEstimate+float64(settings.MovementTimeoutTicks) {
		// The movement has taken far longer than its estimate; give up on
		// the whole segment rather than grind in place.
		e.cancel()
		return true
	}

	return canCancel
}

// positionValid checks the agent against the current movement's declared
// occupancy. At cursor zero a one-cell tolerance covers the agent standing
// just off the segment's start.
func (e *Executor) positionValid(movement *pathing.Movement, feet pathing.Pos) bool {
	if movement.ValidPositions().Contains(feet) {
		return true
	}
	if e.pos == 0 {
		return feet.WithinOne(movement.Src())
	}
	return false
}

// recoverPosition scans the executed prefix and a bounded forward window
// for a movement whose valid set contains the agent, and jumps the cursor
// there instead of replanning. Returns true when it re-entered the tick.
func (e *Executor) recoverPosition(feet pathing.Pos) bool {
	movements := e.path.Movements()

	for i := 0; i < e.pos && i < len(movements); i++ {
		if !movements[i].ValidPositions().Contains(feet) {
			continue
		}
		// Went backwards; rewind and re-drive the covered movements.
		for j := i; j <= e.pos && j < len(movements); j++ {
			movements[j].Reset()
		}
		e.pos = i
		e.onCursorChange()
		e.OnTick()
		return true
	}

	for i := e.pos + forwardScanStart; i < len(movements); i++ {
		if !movements[i].ValidPositions().Contains(feet) {
			continue
		}
		// Ended up ahead of plan; skip forward so movement i is next.
		e.pos = i - 1
		e.onCursorChange()
		e.OnTick()
		return true
	}

	return false
}

// proximityExceeded applies the two distance thresholds. The soft one must
// persist for MaxTicksAway consecutive ticks before cancelling; the hard
// one cancels immediately. Free-fall movements measure horizontal distance
// only, since mid-drop the agent is legitimately far from every cell.
func (e *Executor) proximityExceeded(movement *pathing.Movement, settings pathing.Settings) bool {
	dist := e.distanceFromPath()

	if e.offPathBeyond(movement, dist, settings.MaxDistFromPath) {
		e.ticksAway++
		if e.ticksAway > settings.MaxTicksAway {
			e.cancel()
			return true
		}
	} else {
		e.ticksAway = 0
	}

	if e.offPathBeyond(movement, dist, settings.MaxMaxDistFromPath) {
		e.cancel()
		return true
	}
	return false
}

// distanceFromPath is the distance from the agent to the nearest position
// on the path.
func (e *Executor) distanceFromPath() float64 {
	precise := e.agent.Position()
	best := -1.0
	for _, p := range e.path.Positions() {
		if d := precise.DistanceToCenter(p); best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func (e *Executor) offPathBeyond(movement *pathing.Movement, dist, leniency float64) bool {
	if dist <= leniency {
		return false
	}
	if movement.Kind() == pathing.MoveFall {
		fallDest := e.path.Positions()[e.pos+1]
		return e.agent.Position().FlatDistanceToCenter(fallDest) >= leniency
	}
	return true
}

// verifyCosts re-checks the plan against the live world. Returns false when
// the tick must stop here (the executor cancelled or chose to hold).
func (e *Executor) verifyCosts(movement *pathing.Movement, ctx *pathing.CalcContext, canCancel bool) bool {
	settings := ctx.Settings

	if e.costEstimateIndex != e.pos {
		e.costEstimateIndex = e.pos
		if cost, ok := movement.CachedCost(); ok {
			e.currentCostEstimate = cost
		} else {
			e.currentCostEstimate = movement.Cost(ctx)
		}
	}

	// A future movement going infinite means the world shifted under the
	// plan; bail out while it is still cheap to do so.
	movements := e.path.Movements()
	for i := 1; i < settings.CostVerificationLookahead && e.pos+i < len(movements); i++ {
		if movements[e.pos+i].RecalculateCost(ctx) >= pathing.CostInf && canCancel {
			e.cancel()
			return false
		}
	}

	currentCost := movement.RecalculateCost(ctx)
	if currentCost >= pathing.CostInf && canCancel {
		e.cancel()
		return false
	}
	if !movement.CalculatedWhileLoaded() &&
		currentCost-e.currentCostEstimate > settings.MaxCostIncrease &&
		canCancel {
		// Planned into unloaded terrain that turned out worse than hoped.
		e.cancel()
		return false
	}

	if e.shouldHoldForBacktrack(movement, ctx) {
		e.agent.ClearInputs()
		return false
	}

	return true
}

// shouldHoldForBacktrack pauses execution when the in-flight search's best
// partial path already runs through the agent's position, because pressing
// on would walk away from the route the replan is about to adopt.
func (e *Executor) shouldHoldForBacktrack(movement *pathing.Movement, ctx *pathing.CalcContext) bool {
	best := e.host.InProgressBestPath()
	if best == nil {
		return false
	}
	if !e.agent.OnGround() {
		return false
	}
	feet := e.agent.Feet()
	if !pathing.CanWalkOn(ctx.World, feet.Down()) {
		return false
	}
	if !pathing.CanWalkThrough(ctx.World, feet) || !pathing.CanWalkThrough(ctx.World, feet.Up()) {
		return false
	}
	if !movement.SafeToCancel(e.agent) {
		return false
	}
	positions := best.Positions()
	if len(positions) < 3 {
		return false
	}
	for _, p := range positions[1:] {
		if p == feet {
			return true
		}
	}
	return false
}

func (e *Executor) updateSideEffects(w pathing.World) {
	toBreak := make(pathing.PosSet)
	toPlace := make(pathing.PosSet)
	toWalkInto := make(pathing.PosSet)
	movements := e.path.Movements()
	for i := e.pos; i < len(movements); i++ {
		for _, p := range movements[i].ToBreak(w) {
			toBreak.Add(p)
		}
		for _, p := range movements[i].ToPlace(w) {
			toPlace.Add(p)
		}
		for _, p := range movements[i].ToWalkInto(w) {
			toWalkInto.Add(p)
		}
	}
	e.toBreak = toBreak
	e.toPlace = toPlace
	e.toWalkInto = toWalkInto
	e.recalcSideEffects = false
}

// ToBreak is the set of cells still pending a break along the remaining
// path. Valid until the cursor next advances.
func (e *Executor) ToBreak() pathing.PosSet { return e.toBreak }

func (e *Executor) ToPlace() pathing.PosSet { return e.toPlace }

func (e *Executor) ToWalkInto() pathing.PosSet { return e.toWalkInto }

func (e *Executor) onCursorChange() {
	e.agent.ClearInputs()
	e.ticksOnCurrent = 0
	e.recalcSideEffects = true
}

func (e *Executor) cancel() {
	e.agent.ClearInputs()
	e.pos = e.path.Length() + 3
	e.failed = true
}

// SpliceIfPossible jumps the cursor directly to the agent's position if it
// lies anywhere on the path. Used when adopting a planned-next executor
// early. Unsafe mid-fall, so airborne agents refuse.
func (e *Executor) SpliceIfPossible() bool {
	if !e.agent.OnGround() && !e.agent.InLiquid() {
		return false
	}
	if e.agent.Velocity().Y < -0.1 {
		// Strictly moving downward; could be falling through liquid.
		return false
	}
	index := e.path.IndexOf(e.agent.Feet())
	if index < 0 {
		return false
	}
	e.pos = index
	e.agent.ClearInputs()
	return true
}

// TrySplice merges this executor with the planned-next one into a single
// executor that preserves the current cursor and movement bookkeeping. With
// no next executor, or no overlap, it falls back to trimming history once
// the cursor has moved past the configured bound.
func (e *Executor) TrySplice(next *Executor) *Executor {
	if next == nil {
		return e.cutIfTooLong()
	}
	spliced, ok := pathing.TrySplice(e.path, next.path)
	if !ok {
		return e.cutIfTooLong()
	}
	merged := New(e.host, e.agent, spliced)
	merged.pos = e.pos
	merged.currentCostEstimate = e.currentCostEstimate
	merged.costEstimateIndex = e.costEstimateIndex
	merged.ticksOnCurrent = e.ticksOnCurrent
	return merged
}

func (e *Executor) cutIfTooLong() *Executor {
	settings := e.host.CalcContext().Settings
	if e.pos <= settings.MaxPathHistoryLength {
		return e
	}
	cutoff := settings.PathHistoryCutoffAmount
	trimmed, err := pathing.Cutoff(e.path, cutoff)
	if err != nil {
		return e
	}
	shortened := New(e.host, e.agent, trimmed)
	shortened.pos = e.pos - cutoff
	shortened.currentCostEstimate = e.currentCostEstimate
	if e.costEstimateIndex >= 0 {
		shortened.costEstimateIndex = e.costEstimateIndex - cutoff
	}
	shortened.ticksOnCurrent = e.ticksOnCurrent
	return shortened
}
