package pathing

import "fmt"

// Cutoff drops the first amount movements from the path, producing a new
// Path that starts further along but ends at the same destination. The
// original path is untouched; movements are shared, which is safe because
// the truncated prefix is never driven again.
func Cutoff(p *Path, amount int) (*Path, error) {
	if p == nil {
		return nil, fmt.Errorf("cutoff of nil path")
	}
	if amount <= 0 {
		return p, nil
	}
	if amount >= len(p.movements) {
		return nil, fmt.Errorf("cutoff amount %d would consume the whole path of length %d", amount, p.Length())
	}
	trimmed, err := NewPath(
		append([]Pos(nil), p.positions[amount:]...),
		append([]*Movement(nil), p.movements[amount:]...),
		p.goal,
		p.numNodes,
	)
	if err != nil {
		return nil, fmt.Errorf("cutoff produced invalid path: %w", err)
	}
	if trimmed.Dest() != p.Dest() {
		return nil, fmt.Errorf("cutoff changed destination from %v to %v", p.Dest(), trimmed.Dest())
	}
	return trimmed, nil
}
