package calc

import (
	"container/heap"
	"sync/atomic"
	"time"

	"voxelnav/internal/pathing"
)

// AStar is one anytime search invocation. Nodes live in an arena owned by
// the call to Calculate and are reclaimed in bulk when it returns; nothing
// escapes except immutable Path values. The zero value is not usable.
//
// Cancel and BestPathSoFar may be called from other goroutines while
// Calculate runs; everything else belongs to the search goroutine.
type AStar struct {
	start    pathing.Pos
	goal     pathing.Goal
	favoring *pathing.Favoring
	ctx      *pathing.CalcContext

	cancelled atomic.Bool
	bestSoFar atomic.Pointer[pathing.Path]
}

func NewAStar(start pathing.Pos, goal pathing.Goal, favoring *pathing.Favoring, ctx *pathing.CalcContext) *AStar {
	return &AStar{start: start, goal: goal, favoring: favoring, ctx: ctx}
}

func (a *AStar) Start() pathing.Pos { return a.start }
func (a *AStar) Goal() pathing.Goal { return a.goal }

// Cancel requests a cooperative stop. The search observes the flag at its
// next poll interval; an expansion already underway always completes.
func (a *AStar) Cancel() { a.cancelled.Store(true) }

// BestPathSoFar returns the most recent published partial path, or nil. It
// lags the live search by at most one poll interval.
func (a *AStar) BestPathSoFar() *pathing.Path { return a.bestSoFar.Load() }

// node is a search-local record. Parents are arena indices, not pointers,
// so the whole arena frees in one garbage collection when Calculate
// returns.
type node struct {
	pos     pathing.Pos
	g       float64
	h       float64
	parent  int32
	move    *pathing.Movement
	heapIdx int32
	closed  bool
}

const noParent = int32(-1)

// openHeap orders arena indices by f = g + h. Ties on f optionally break
// toward lower h, which drags the frontier greedily toward the goal; the
// policy is configurable because it changes which of several equal-cost
// paths wins.
type openHeap struct {
	arena     *[]node
	idx       []int32
	tieLowerH bool
}

func (o *openHeap) Len() int { return len(o.idx) }

func (o *openHeap) Less(i, j int) bool {
	a := &(*o.arena)[o.idx[i]]
	b := &(*o.arena)[o.idx[j]]
	fa := a.g + a.h
	fb := b.g + b.h
	if fa != fb {
		return fa < fb
	}
	if o.tieLowerH {
		return a.h < b.h
	}
	return false
}

func (o *openHeap) Swap(i, j int) {
	o.idx[i], o.idx[j] = o.idx[j], o.idx[i]
	(*o.arena)[o.idx[i]].heapIdx = int32(i)
	(*o.arena)[o.idx[j]].heapIdx = int32(j)
}

func (o *openHeap) Push(x any) {
	i := x.(int32)
	(*o.arena)[i].heapIdx = int32(len(o.idx))
	o.idx = append(o.idx, i)
}

func (o *openHeap) Pop() any {
	n := len(o.idx)
	i := o.idx[n-1]
	o.idx = o.idx[:n-1]
	(*o.arena)[i].heapIdx = -1
	return i
}

// Calculate runs the search under a two-tier wall-clock budget. It may run
// past primaryTimeout while the best partial result is not yet good enough,
// and never past failureTimeout. The returned Result always reflects the
// best knowledge at the stop: the exact path on success, the path to the
// lowest-heuristic node visited on a timeout, or nothing when the search
// was stopped before any useful expansion.
func (a *AStar) Calculate(primaryTimeout, failureTimeout time.Duration) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Status: ResultException}
		}
		if result.Path != nil {
			a.bestSoFar.Store(result.Path)
		}
	}()

	settings := a.ctx.Settings
	pollInterval := settings.CancelCheckInterval
	if pollInterval <= 0 {
		pollInterval = 64
	}

	arena := make([]node, 0, 1024)
	byPos := make(map[uint64]int32, 1024)

	startH := a.goal.Heuristic(a.start)
	arena = append(arena, node{pos: a.start, g: 0, h: startH, parent: noParent, heapIdx: -1})
	byPos[a.start.Packed()] = 0

	open := &openHeap{arena: &arena, tieLowerH: settings.TieBreakLowerHeuristic}
	heap.Init(open)
	heap.Push(open, int32(0))

	bestIdx := int32(0)
	numNodes := 0
	startedAt := time.Now()

	for open.Len() > 0 {
		if numNodes%pollInterval == 0 {
			if a.cancelled.Load() {
				return a.finish(ResultCancellation, &arena, bestIdx, numNodes)
			}
			elapsed := time.Since(startedAt)
			if elapsed > failureTimeout {
				break
			}
			if elapsed > primaryTimeout && a.goodEnough(&arena, bestIdx, startH) {
				break
			}
			a.publishBest(&arena, bestIdx, numNodes)
		}

		currentIdx := heap.Pop(open).(int32)
		current := &arena[currentIdx]
		if current.closed {
			continue
		}
		current.closed = true

		if a.goal.IsInGoal(current.pos) {
			return a.finish(ResultSuccess, &arena, currentIdx, numNodes)
		}
		numNodes++

		for _, move := range pathing.PossibleMovements(current.pos, a.ctx) {
			cost := move.Cost(a.ctx)
			if cost >= pathing.CostInf {
				continue
			}
			dest := move.Dest()
			cost *= a.favoring.CoefficientAt(dest)
			tentativeG := current.g + cost

			destKey := dest.Packed()
			destIdx, seen := byPos[destKey]
			if !seen {
				arena = append(arena, node{
					pos:     dest,
					g:       tentativeG,
					h:       a.goal.Heuristic(dest),
					parent:  currentIdx,
					move:    move,
					heapIdx: -1,
				})
				destIdx = int32(len(arena) - 1)
				byPos[destKey] = destIdx
				heap.Push(open, destIdx)
			} else {
				destNode := &arena[destIdx]
				if destNode.closed || tentativeG >= destNode.g {
					continue
				}
				destNode.g = tentativeG
				destNode.parent = currentIdx
				destNode.move = move
				if destNode.heapIdx >= 0 {
					heap.Fix(open, int(destNode.heapIdx))
				} else {
					heap.Push(open, destIdx)
				}
			}

			destNode := &arena[destIdx]
			best := &arena[bestIdx]
			if destNode.h < best.h || (destNode.h == best.h && destNode.g < best.g) {
				bestIdx = destIdx
			}
		}
	}

	if bestIdx == 0 {
		return Result{Status: ResultFailure}
	}
	return a.finish(ResultPartial, &arena, bestIdx, numNodes)
}

// goodEnough decides whether the best partial path justifies stopping at
// the primary timeout: its heuristic must have shrunk to the configured
// fraction of the start heuristic.
func (a *AStar) goodEnough(arena *[]node, bestIdx int32, startH float64) bool {
	if bestIdx == 0 {
		return false
	}
	ratio := a.ctx.Settings.MinImprovementRatio
	if ratio <= 0 {
		return true
	}
	return (*arena)[bestIdx].h <= startH*ratio
}

func (a *AStar) publishBest(arena *[]node, bestIdx int32, numNodes int) {
	if bestIdx == 0 {
		return
	}
	if p := a.reconstruct(arena, bestIdx, numNodes); p != nil {
		a.bestSoFar.Store(p)
	}
}

// finish builds the result path ending at endIdx. A cancellation or
// timeout with no progress past the start node yields no path at all; a
// success at the start node is the one-position path "already there".
func (a *AStar) finish(status ResultStatus, arena *[]node, endIdx int32, numNodes int) Result {
	if endIdx == 0 && status != ResultSuccess {
		return Result{Status: status}
	}
	return Result{Status: status, Path: a.reconstruct(arena, endIdx, numNodes)}
}

func (a *AStar) reconstruct(arena *[]node, endIdx int32, numNodes int) *pathing.Path {
	length := 0
	for i := endIdx; i != noParent; i = (*arena)[i].parent {
		length++
	}
	positions := make([]pathing.Pos, length)
	movements := make([]*pathing.Movement, length-1)
	i := endIdx
	for at := length - 1; at >= 0; at-- {
		n := &(*arena)[i]
		positions[at] = n.pos
		if at > 0 {
			movements[at-1] = n.move
		}
		i = n.parent
	}
	path, err := pathing.NewPath(positions, movements, a.goal, numNodes)
	if err != nil {
		// A broken parent chain is a bug in the relaxation above.
		panic(err)
	}
	return path
}
