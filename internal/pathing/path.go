package pathing

import (
	"errors"
	"fmt"
)

// Path is an immutable computed route: the positions visited and the
// movements connecting them. A Path is produced once by a search and never
// mutated; cutting and splicing build new Path values around it, so readers
// on any goroutine may hold one without locking.
type Path struct {
	positions []Pos
	movements []*Movement
	goal      Goal
	numNodes  int
}

// NewPath validates the invariant chain and wraps the slices. The slices
// are owned by the new Path afterwards; callers must not retain them.
func NewPath(positions []Pos, movements []*Movement, goal Goal, numNodes int) (*Path, error) {
	p := &Path{
		positions: positions,
		movements: movements,
		goal:      goal,
		numNodes:  numNodes,
	}
	if err := p.SanityCheck(); err != nil {
		return nil, err
	}
	return p, nil
}

// SanityCheck verifies the structural invariants: one more position than
// movements, every movement chaining src to dest, and no repeated position.
func (p *Path) SanityCheck() error {
	if p == nil || len(p.positions) == 0 {
		return errors.New("path has no positions")
	}
	if len(p.positions) != len(p.movements)+1 {
		return fmt.Errorf("path has %d positions but %d movements", len(p.positions), len(p.movements))
	}
	seen := make(PosSet, len(p.positions))
	seen.Add(p.positions[0])
	for i, m := range p.movements {
		if m == nil {
			return fmt.Errorf("movement %d is nil", i)
		}
		if m.Src() != p.positions[i] {
			return fmt.Errorf("movement %d source %v does not match position %v", i, m.Src(), p.positions[i])
		}
		if m.Dest() != p.positions[i+1] {
			return fmt.Errorf("movement %d destination %v does not match position %v", i, m.Dest(), p.positions[i+1])
		}
		if seen.Contains(p.positions[i+1]) {
			return fmt.Errorf("path doubles back on itself at %v", p.positions[i+1])
		}
		seen.Add(p.positions[i+1])
	}
	return nil
}

// Positions returns the backing slice. Treat it as read-only.
func (p *Path) Positions() []Pos { return p.positions }

// Movements returns the backing slice. Treat it as read-only. The Movement
// values themselves carry mutable execution state owned by the executor.
func (p *Path) Movements() []*Movement { return p.movements }

func (p *Path) Goal() Goal { return p.goal }

// NumNodesConsidered is how many search nodes were expanded to find this
// path.
func (p *Path) NumNodesConsidered() int { return p.numNodes }

func (p *Path) Src() Pos { return p.positions[0] }

func (p *Path) Dest() Pos { return p.positions[len(p.positions)-1] }

// Length is the number of positions, one more than the movement count.
func (p *Path) Length() int { return len(p.positions) }

// IndexOf returns the index of pos in the path, or -1.
func (p *Path) IndexOf(pos Pos) int {
	for i, candidate := range p.positions {
		if candidate == pos {
			return i
		}
	}
	return -1
}

// ContainsPos reports whether pos lies on the path.
func (p *Path) ContainsPos(pos Pos) bool { return p.IndexOf(pos) >= 0 }

// TicksRemainingFrom sums the cached movement costs from the given index to
// the end, as an ETA for the rest of the segment.
func (p *Path) TicksRemainingFrom(index int) float64 {
	sum := 0.0
	for i := index; i >= 0 && i < len(p.movements); i++ {
		if cost, ok := p.movements[i].CachedCost(); ok {
			sum += cost
		}
	}
	return sum
}
