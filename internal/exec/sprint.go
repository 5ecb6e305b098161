package exec

import (
	"voxelnav/internal/pathing"
)

// shouldSprint decides, from the shapes of the next few queued movements
// alone, whether sprinting through the movement at cursor is safe. It is a
// pure function of the movement catalog; it never touches the world or the
// agent, and a wrong answer costs speed, never correctness.
func shouldSprint(movements []*pathing.Movement, cursor int) bool {
	if cursor < 0 || cursor >= len(movements) {
		return false
	}
	current := movements[cursor]

	switch current.Kind() {
	case pathing.MoveTraverse:
		return sprintableAfterTraverse(movements, cursor)
	case pathing.MoveDescend:
		return sprintableThroughDescend(movements, cursor)
	case pathing.MoveDiagonal:
		// A flat diagonal is always safe to sprint; the agent never needs
		// to stop short of an edge.
		return current.Direction().Y == 0
	default:
		return false
	}
}

// sprintableAfterTraverse allows sprinting a flat traverse unless the very
// next movement is an ascend in a different direction, where the extra
// momentum overshoots the jump.
func sprintableAfterTraverse(movements []*pathing.Movement, cursor int) bool {
	current := movements[cursor]
	if cursor+1 >= len(movements) {
		return true
	}
	next := movements[cursor+1]
	if next.Kind() != pathing.MoveAscend {
		return true
	}
	return sameFlatDirection(current, next)
}

// sprintableThroughDescend allows carrying sprint momentum off a descend
// when the following movement continues in the same horizontal direction,
// either as another descend or a flat traverse. A descend chain is only
// sprintable while every consecutive pair keeps the direction, otherwise
// the agent flies past the turn.
func sprintableThroughDescend(movements []*pathing.Movement, cursor int) bool {
	current := movements[cursor]
	if cursor+1 >= len(movements) {
		return false
	}
	next := movements[cursor+1]
	if !descendFlowsInto(current, next) {
		return false
	}
	if next.Kind() == pathing.MoveDescend && cursor+2 < len(movements) {
		if !descendFlowsInto(next, movements[cursor+2]) {
			return false
		}
	}
	return true
}

// descendFlowsInto reports whether momentum from a descend carries cleanly
// into the following movement.
func descendFlowsInto(current, next *pathing.Movement) bool {
	switch next.Kind() {
	case pathing.MoveDescend, pathing.MoveTraverse:
		return sameFlatDirection(current, next)
	default:
		return false
	}
}

func sameFlatDirection(a, b *pathing.Movement) bool {
	da := a.Direction()
	db := b.Direction()
	return da.X == db.X && da.Z == db.Z
}
