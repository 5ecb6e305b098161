package pathing

import (
	"math"
	"testing"
)

func TestGoalBlock(t *testing.T) {
	g := GoalBlock{Pos: Pos{X: 10, Y: 64, Z: 10}}

	if !g.IsInGoal(Pos{X: 10, Y: 64, Z: 10}) {
		t.Fatalf("exact position should be in goal")
	}
	if g.IsInGoal(Pos{X: 10, Y: 65, Z: 10}) {
		t.Fatalf("wrong height should not be in goal")
	}
	if got := g.Heuristic(g.Pos); got != 0 {
		t.Fatalf("heuristic at goal = %v, want 0", got)
	}
}

func TestGoalBlockHeuristicMonotoneOnApproach(t *testing.T) {
	g := GoalBlock{Pos: Pos{X: 10, Y: 64, Z: 0}}
	prev := math.Inf(1)
	for x := 0; x <= 10; x++ {
		h := g.Heuristic(Pos{X: x, Y: 64, Z: 0})
		if h >= prev {
			t.Fatalf("heuristic did not shrink at x=%d: %v >= %v", x, h, prev)
		}
		prev = h
	}
}

func TestGoalXZOctileDecomposition(t *testing.T) {
	// 5 east, 2 south: two diagonal steps cover the short axis, three
	// straight steps cover the remainder.
	g := GoalXZ{X: 5, Z: 2}
	got := g.Heuristic(Pos{X: 0, Y: 64, Z: 0})
	want := (2*math.Sqrt2 + 3) * WalkOneBlockCost
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("octile heuristic = %v, want %v", got, want)
	}
	if g.Heuristic(Pos{X: 10, Y: 64, Z: 4}) != got {
		t.Fatalf("heuristic should be symmetric in the offsets")
	}
}

func TestGoalXZIgnoresHeight(t *testing.T) {
	g := GoalXZ{X: 5, Z: 5}
	for _, y := range []int{0, 64, 200} {
		if !g.IsInGoal(Pos{X: 5, Y: y, Z: 5}) {
			t.Fatalf("column membership should ignore y=%d", y)
		}
	}
	if g.Heuristic(Pos{X: 5, Y: 30, Z: 5}) != 0 {
		t.Fatalf("in-column heuristic should be 0")
	}
}

func TestGoalCompositeTakesMinimum(t *testing.T) {
	near := GoalBlock{Pos: Pos{X: 1, Y: 64, Z: 0}}
	far := GoalBlock{Pos: Pos{X: 100, Y: 64, Z: 0}}
	g := GoalComposite{far, near, nil}

	p := Pos{X: 0, Y: 64, Z: 0}
	if got, want := g.Heuristic(p), near.Heuristic(p); got != want {
		t.Fatalf("composite heuristic = %v, want nearest %v", got, want)
	}
	if !g.IsInGoal(near.Pos) {
		t.Fatalf("membership in any sub-goal should satisfy the composite")
	}
	if !g.IsInGoal(far.Pos) {
		t.Fatalf("membership in the far sub-goal should satisfy the composite")
	}
	if g.IsInGoal(Pos{X: 50, Y: 64, Z: 0}) {
		t.Fatalf("position in neither sub-goal should not satisfy the composite")
	}

	var empty GoalComposite
	if empty.IsInGoal(p) {
		t.Fatalf("empty composite is never satisfied")
	}
	if empty.Heuristic(p) != 0 {
		t.Fatalf("empty composite heuristic should be 0")
	}
}
