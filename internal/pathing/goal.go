package pathing

import (
	"fmt"
	"math"
)

// Goal is the target condition a search tries to satisfy. Implementations
// are immutable once handed to the navigator.
//
// Heuristic must return an estimate of the remaining cost in ticks. It does
// not have to strictly underestimate; the search trades optimality for
// bounded latency anyway.
type Goal interface {
	Heuristic(p Pos) float64
	IsInGoal(p Pos) bool
}

// GoalBlock targets one exact cell.
type GoalBlock struct {
	Pos Pos
}

func (g GoalBlock) IsInGoal(p Pos) bool { return p == g.Pos }

func (g GoalBlock) Heuristic(p Pos) float64 {
	return horizontalHeuristic(float64(g.Pos.X-p.X), float64(g.Pos.Z-p.Z)) +
		verticalHeuristic(g.Pos.Y-p.Y)
}

func (g GoalBlock) String() string {
	return fmt.Sprintf("GoalBlock{%d,%d,%d}", g.Pos.X, g.Pos.Y, g.Pos.Z)
}

// GoalXZ targets a vertical column; any height counts.
type GoalXZ struct {
	X int
	Z int
}

func (g GoalXZ) IsInGoal(p Pos) bool { return p.X == g.X && p.Z == g.Z }

func (g GoalXZ) Heuristic(p Pos) float64 {
	return horizontalHeuristic(float64(g.X-p.X), float64(g.Z-p.Z))
}

func (g GoalXZ) String() string {
	return fmt.Sprintf("GoalXZ{%d,%d}", g.X, g.Z)
}

// GoalComposite is satisfied by any of its sub-goals. Its heuristic is the
// minimum over them.
type GoalComposite []Goal

func (g GoalComposite) IsInGoal(p Pos) bool {
	for _, sub := range g {
		if sub != nil && sub.IsInGoal(p) {
			return true
		}
	}
	return false
}

func (g GoalComposite) Heuristic(p Pos) float64 {
	best := math.Inf(1)
	for _, sub := range g {
		if sub == nil {
			continue
		}
		if h := sub.Heuristic(p); h < best {
			best = h
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// horizontalHeuristic is the octile walk cost over flat ground: move
// diagonally while both axes remain, then straight.
func horizontalHeuristic(dx, dz float64) float64 {
	dx = math.Abs(dx)
	dz = math.Abs(dz)
	diagonal := math.Min(dx, dz)
	straight := math.Abs(dx - dz)
	return (diagonal*math.Sqrt2 + straight) * WalkOneBlockCost
}

// verticalHeuristic prices climbing at jump cost and descending at the
// cheaper falling rate.
func verticalHeuristic(dy int) float64 {
	if dy > 0 {
		return float64(dy) * (WalkOneBlockCost + JumpPenalty)
	}
	return float64(-dy) * (FallNBlocksCost(1) / 2)
}
