package pathing

// TrySplice merges two sequential paths into one continuous path: the first
// path's suffix must overlap the second's prefix at some shared position.
// On success the returned path runs from first.Src() to second.Dest() and
// both inputs remain valid and unmodified.
func TrySplice(first, second *Path) (*Path, bool) {
	if first == nil || second == nil {
		return nil, false
	}
	joinAt := second.IndexOf(first.Dest())
	if joinAt < 0 {
		return nil, false
	}
	positions := make([]Pos, 0, len(first.positions)+len(second.positions)-joinAt-1)
	positions = append(positions, first.positions...)
	positions = append(positions, second.positions[joinAt+1:]...)

	movements := make([]*Movement, 0, len(first.movements)+len(second.movements)-joinAt)
	movements = append(movements, first.movements...)
	movements = append(movements, second.movements[joinAt:]...)

	spliced, err := NewPath(positions, movements, second.goal, first.numNodes+second.numNodes)
	if err != nil {
		// The overlap doubled back somewhere; refuse rather than hand the
		// executor a looping path.
		return nil, false
	}
	return spliced, true
}
