package voxelworld

import (
	"sync"

	"voxelnav/internal/pathing"
)

// World is an in-memory voxel store: flat ground at a fixed height, sparse
// per-cell overrides on top, and per-chunk loaded flags. All methods are
// safe for concurrent use, so a calculation context over it can be marked
// thread safe.
type World struct {
	mu          sync.RWMutex
	groundLevel int
	overrides   map[uint64]pathing.BlockKind
	unloaded    map[[2]int]struct{}
}

// NewFlat builds a world whose every cell at or below groundLevel is solid
// and everything above is air, with all chunks loaded.
func NewFlat(groundLevel int) *World {
	return &World{
		groundLevel: groundLevel,
		overrides:   make(map[uint64]pathing.BlockKind),
		unloaded:    make(map[[2]int]struct{}),
	}
}

func (w *World) BlockAt(p pathing.Pos) pathing.BlockKind {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if kind, ok := w.overrides[p.Packed()]; ok {
		return kind
	}
	if p.Y <= w.groundLevel {
		return pathing.BlockSolid
	}
	return pathing.BlockAir
}

func (w *World) ChunkLoaded(x, z int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, bad := w.unloaded[chunkKey(x, z)]
	return !bad
}

// SetBlock overrides one cell. Overriding to the terrain's natural kind
// still records the override; use ClearBlock to restore the default.
func (w *World) SetBlock(p pathing.Pos, kind pathing.BlockKind) {
	w.mu.Lock()
	w.overrides[p.Packed()] = kind
	w.mu.Unlock()
}

// ClearBlock removes a cell override, restoring the flat-ground default.
func (w *World) ClearBlock(p pathing.Pos) {
	w.mu.Lock()
	delete(w.overrides, p.Packed())
	w.mu.Unlock()
}

// SetChunkLoaded marks the chunk containing block coordinates (x, z).
func (w *World) SetChunkLoaded(x, z int, loaded bool) {
	w.mu.Lock()
	if loaded {
		delete(w.unloaded, chunkKey(x, z))
	} else {
		w.unloaded[chunkKey(x, z)] = struct{}{}
	}
	w.mu.Unlock()
}

// Wall raises a solid wall spanning the given X range at fixed Z, from the
// ground up to height cells above it. Convenience for scenario setup.
func (w *World) Wall(x0, x1, z, height int) {
	for x := x0; x <= x1; x++ {
		for dy := 1; dy <= height; dy++ {
			w.SetBlock(pathing.Pos{X: x, Y: w.groundLevel + dy, Z: z}, pathing.BlockSolid)
		}
	}
}

func (w *World) GroundLevel() int { return w.groundLevel }

func chunkKey(x, z int) [2]int {
	return [2]int{x >> 4, z >> 4}
}
