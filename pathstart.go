package voxelnav

import (
	"sort"

	"voxelnav/internal/pathing"
)

// pathStart computes the nominal position a new search should start from.
// Standing squarely on a block this is just the feet cell; the interesting
// cases are standing off a block edge (snap sideways to the nearest
// supported, passable neighbor the body still overlaps) and being mid-jump
// or mid-fall (snap down to the cell about to be landed on).
func (n *Navigator) pathStart() pathing.Pos {
	feet := n.agent.Feet()
	w := n.calcWorld()
	if pathing.CanWalkOn(w, feet.Down()) {
		return feet
	}

	if n.agent.OnGround() {
		precise := n.agent.Position()
		candidates := make([]pathing.Pos, 0, 9)
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				candidates = append(candidates, feet.Offset(dx, 0, dz))
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return flatDistSq(precise, candidates[i]) < flatDistSq(precise, candidates[j])
		})
		// The body can only overlap the four nearest cells.
		for i := 0; i < 4 && i < len(candidates); i++ {
			support := candidates[i]
			if offAxis(precise.X, support.X) > 0.8 && offAxis(precise.Z, support.Z) > 0.8 {
				continue
			}
			if pathing.CanWalkOn(w, support.Down()) &&
				pathing.CanWalkThrough(w, support) &&
				pathing.CanWalkThrough(w, support.Up()) {
				return support
			}
		}
		return feet
	}

	// Airborne: if the cell two below is solid, the fall ends one below.
	if pathing.CanWalkOn(w, feet.Down().Down()) {
		return feet.Down()
	}
	return feet
}

func flatDistSq(v pathing.Vec3, p pathing.Pos) float64 {
	dx := float64(p.X) + 0.5 - v.X
	dz := float64(p.Z) + 0.5 - v.Z
	return dx*dx + dz*dz
}

func offAxis(coord float64, cell int) float64 {
	d := coord - (float64(cell) + 0.5)
	if d < 0 {
		return -d
	}
	return d
}
