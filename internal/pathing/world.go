package pathing

// BlockKind classifies a voxel cell for passability and support.
type BlockKind uint8

const (
	BlockAir BlockKind = iota
	BlockSolid
	BlockLiquid
	BlockHazard
)

// World is the read side of the voxel store. Implementations must be safe
// for concurrent readers; the search runs on a background goroutine while
// the executor queries the same world from the tick goroutine.
//
// A cell outside any loaded chunk reports whatever the implementation
// considers its default; callers that care must check ChunkLoaded first.
type World interface {
	BlockAt(p Pos) BlockKind
	ChunkLoaded(x, z int) bool
}

// CanWalkThrough reports whether the agent's body can occupy the cell.
func CanWalkThrough(w World, p Pos) bool {
	if w == nil {
		return false
	}
	switch w.BlockAt(p) {
	case BlockAir, BlockLiquid:
		return true
	default:
		return false
	}
}

// FullyPassable is CanWalkThrough minus liquids, for cells the agent moves
// through at speed rather than occupies.
func FullyPassable(w World, p Pos) bool {
	if w == nil {
		return false
	}
	return w.BlockAt(p) == BlockAir
}

// CanWalkOn reports whether the cell provides support to stand on.
func CanWalkOn(w World, p Pos) bool {
	if w == nil {
		return false
	}
	return w.BlockAt(p) == BlockSolid
}

// IsHazard reports whether the cell must never be pathed into.
func IsHazard(w World, p Pos) bool {
	if w == nil {
		return true
	}
	return w.BlockAt(p) == BlockHazard
}

// IsLiquid reports whether the cell is a liquid the agent can swim in.
func IsLiquid(w World, p Pos) bool {
	if w == nil {
		return false
	}
	return w.BlockAt(p) == BlockLiquid
}

// HasRoomToStand checks the two-cell column the agent occupies at p.
func HasRoomToStand(w World, p Pos) bool {
	return CanWalkThrough(w, p) && CanWalkThrough(w, p.Up())
}
