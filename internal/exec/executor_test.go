package exec

import (
	"testing"
	"time"

	"voxelnav/internal/calc"
	"voxelnav/internal/pathing"
	"voxelnav/internal/voxelworld"
)

type stubHost struct {
	ctx   *pathing.CalcContext
	best  *pathing.Path
	start pathing.Pos
}

func (h *stubHost) CalcContext() *pathing.CalcContext { return h.ctx }
func (h *stubHost) InProgressBestPath() *pathing.Path { return h.best }
func (h *stubHost) PathStart() pathing.Pos            { return h.start }

func searchPath(t *testing.T, ctx *pathing.CalcContext, start pathing.Pos, goal pathing.Goal) *pathing.Path {
	t.Helper()
	result := calc.NewAStar(start, goal, nil, ctx).Calculate(5*time.Second, 10*time.Second)
	if result.Status != calc.ResultSuccess || result.Path == nil {
		t.Fatalf("setup search failed: %v", result.Status)
	}
	return result.Path
}

func flatSetup(t *testing.T, settings pathing.Settings, goalPos pathing.Pos) (*voxelworld.World, *voxelworld.SimAgent, *stubHost, *Executor) {
	t.Helper()
	world := voxelworld.NewFlat(63)
	ctx := pathing.NewCalcContext(world, settings, true)
	start := pathing.Pos{X: 0, Y: 64, Z: 0}
	agent := voxelworld.NewSimAgent(start)
	path := searchPath(t, ctx, start, pathing.GoalBlock{Pos: goalPos})
	host := &stubHost{ctx: ctx, start: start}
	return world, agent, host, New(host, agent, path)
}

func drive(e *Executor, maxTicks int) int {
	ticks := 0
	for ; ticks < maxTicks && !e.Finished(); ticks++ {
		e.OnTick()
	}
	return ticks
}

func TestExecutorWalksPathToCompletion(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	_, agent, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	drive(e, 100)

	if !e.Finished() {
		t.Fatalf("executor did not finish, cursor %d of %d", e.Position(), e.Path().Length())
	}
	if e.Failed() {
		t.Fatalf("executor failed on an open path")
	}
	if agent.Feet() != goal {
		t.Fatalf("agent ended at %v, want %v", agent.Feet(), goal)
	}
}

func TestExecutorSprintsStraightRuns(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	_, _, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	e.OnTick()
	if !e.IsSprinting() {
		t.Fatalf("straight flat run should sprint")
	}

	settings := pathing.DefaultSettings()
	settings.AllowSprint = false
	_, _, _, slow := flatSetup(t, settings, goal)
	slow.OnTick()
	if slow.IsSprinting() {
		t.Fatalf("sprint disabled in settings but executor sprints")
	}
}

func TestDeviationForwardJump(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	_, agent, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	// Drop the agent onto the path well ahead of the cursor: the executor
	// must skip forward, not replan or fail.
	ahead := e.Path().Positions()[6]
	agent.Teleport(ahead)
	e.OnTick()

	if e.Failed() {
		t.Fatalf("forward deviation should not fail the executor")
	}
	if got := e.Position(); got != 4 {
		t.Fatalf("cursor = %d after forward jump, want 4", got)
	}
}

func TestDeviationBackwardRewind(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	_, agent, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	// Walk a few movements, then yank the agent back to the start.
	for i := 0; i < 8; i++ {
		e.OnTick()
	}
	if e.Position() < 2 {
		t.Fatalf("setup: cursor did not advance, at %d", e.Position())
	}
	agent.Teleport(e.Path().Src())
	e.OnTick()

	if e.Failed() {
		t.Fatalf("backward deviation should not fail the executor")
	}
	if got := e.Position(); got > 1 {
		t.Fatalf("cursor = %d after rewind, want near 0", got)
	}
}

func TestNextMovementGoingInfiniteCancelsWithinOneTick(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	world, _, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	// Wall off a cell inside the verification lookahead window.
	blocked := e.Path().Positions()[2]
	world.SetBlock(blocked, pathing.BlockSolid)
	world.SetBlock(blocked.Up(), pathing.BlockSolid)

	e.OnTick()

	if !e.Failed() {
		t.Fatalf("executor should cancel on the first tick after the world closed the path")
	}
}

func TestMovementTimeoutCancels(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	settings := pathing.DefaultSettings()
	settings.MovementTimeoutTicks = 10
	_, agent, _, e := flatSetup(t, settings, goal)

	// An agent that needs more ticks than the timeout allows never arrives.
	agent.SetTicksPerMove(100000)

	for i := 0; i < 40 && !e.Failed(); i++ {
		e.OnTick()
	}
	if !e.Failed() {
		t.Fatalf("stuck movement should trip the per-movement timeout")
	}
}

func TestUnloadedChunkAheadHoldsPosition(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	world, agent, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	// Unload the chunk containing the next movement's destination.
	world.SetChunkLoaded(2, 0, false)

	before := agent.Feet()
	e.OnTick()
	if agent.Feet() != before {
		t.Fatalf("agent moved toward unloaded terrain: %v -> %v", before, agent.Feet())
	}
	if e.Failed() {
		t.Fatalf("holding at a chunk edge is not a failure")
	}
}

func TestSpliceIfPossible(t *testing.T) {
	goal := pathing.Pos{X: 10, Y: 64, Z: 0}
	_, agent, _, e := flatSetup(t, pathing.DefaultSettings(), goal)

	on := e.Path().Positions()[3]
	agent.Teleport(on)
	if !e.SpliceIfPossible() {
		t.Fatalf("agent standing on the path should splice")
	}
	if e.Position() != 3 {
		t.Fatalf("cursor = %d after splice, want 3", e.Position())
	}

	agent.Teleport(pathing.Pos{X: 50, Y: 64, Z: 50})
	if e.SpliceIfPossible() {
		t.Fatalf("agent off the path must not splice")
	}

	agent.Teleport(on)
	agent.SetAirborne(-0.5)
	if e.SpliceIfPossible() {
		t.Fatalf("falling agent must not splice")
	}
}

func TestTrySpliceMergesOntoNext(t *testing.T) {
	settings := pathing.DefaultSettings()
	world := voxelworld.NewFlat(63)
	ctx := pathing.NewCalcContext(world, settings, true)
	start := pathing.Pos{X: 0, Y: 64, Z: 0}
	mid := pathing.Pos{X: 5, Y: 64, Z: 0}
	end := pathing.Pos{X: 10, Y: 64, Z: 0}

	agent := voxelworld.NewSimAgent(start)
	host := &stubHost{ctx: ctx, start: start}
	current := New(host, agent, searchPath(t, ctx, start, pathing.GoalBlock{Pos: mid}))
	next := New(host, agent, searchPath(t, ctx, mid, pathing.GoalBlock{Pos: end}))

	for i := 0; i < 4; i++ {
		current.OnTick()
	}
	cursor := current.Position()

	merged := current.TrySplice(next)
	if merged == current {
		t.Fatalf("splice should produce a new executor")
	}
	if merged.Path().Src() != start || merged.Path().Dest() != end {
		t.Fatalf("merged path runs %v -> %v", merged.Path().Src(), merged.Path().Dest())
	}
	if merged.Position() != cursor {
		t.Fatalf("merged cursor = %d, want %d", merged.Position(), cursor)
	}
	if merged.Path().Length() != 11 {
		t.Fatalf("merged length = %d, want 11", merged.Path().Length())
	}
}

func TestTrySpliceNilCutsHistory(t *testing.T) {
	settings := pathing.DefaultSettings()
	settings.MaxPathHistoryLength = 10
	settings.PathHistoryCutoffAmount = 4
	goal := pathing.Pos{X: 30, Y: 64, Z: 0}
	_, _, _, e := flatSetup(t, settings, goal)

	// Below the bound nothing happens.
	if got := e.TrySplice(nil); got != e {
		t.Fatalf("short history should return the executor unchanged")
	}

	dest := e.Path().Dest()
	for i := 0; i < 60 && e.Position() <= settings.MaxPathHistoryLength; i++ {
		e.OnTick()
	}
	if e.Position() <= settings.MaxPathHistoryLength {
		t.Fatalf("setup: cursor did not pass the history bound, at %d", e.Position())
	}

	before := e.Position()
	cut := e.TrySplice(nil)
	if cut == e {
		t.Fatalf("long history should be cut")
	}
	if cut.Path().Dest() != dest {
		t.Fatalf("cut changed destination: %v vs %v", cut.Path().Dest(), dest)
	}
	if got := cut.Position(); got != before-settings.PathHistoryCutoffAmount {
		t.Fatalf("cut cursor = %d, want %d", got, before-settings.PathHistoryCutoffAmount)
	}
}
