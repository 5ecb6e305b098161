package pathing

import "math"

// Movement costs are denominated in ticks. The executor compares elapsed
// ticks against these estimates, so the two units must stay in sync.
const (
	// WalkOneBlockCost is the tick cost of walking across one flat block.
	WalkOneBlockCost = 20.0 / 4.317

	// SprintOneBlockCost is the tick cost of the same block at sprint speed.
	SprintOneBlockCost = 20.0 / 5.612

	// WalkOneInWaterCost covers wading through a liquid cell.
	WalkOneInWaterCost = 20.0 / 2.2

	// JumpPenalty is added on top of the walk cost for any move that leaves
	// the ground.
	JumpPenalty = 2.0

	// CenterAfterFallCost accounts for re-centering on the landing block.
	CenterAfterFallCost = WalkOneBlockCost / 2

	// BreakOneBlockCost is a flat estimate for clearing a single cell.
	BreakOneBlockCost = 20.0

	// PlaceOneBlockCost is a flat estimate for placing a support cell.
	PlaceOneBlockCost = 20.0

	// CostInf marks an impossible movement. It is a sentinel, not a real
	// cost; anything at or above it must be skipped, never relaxed.
	CostInf = 1_000_000.0
)

var walkOneBlockDiagonalCost = math.Sqrt2 * WalkOneBlockCost

// fallTicks[n] is the tick count for a free fall of n blocks.
var fallTicks = computeFallTicks()

func computeFallTicks() [maxFallHeight + 1]float64 {
	// Ticks to fall n blocks under the usual gravity curve, found by
	// stepping velocity = (velocity - 0.08) * 0.98 per tick.
	var out [maxFallHeight + 1]float64
	distance := 0.0
	velocity := 0.0
	tick := 0
	next := 1
	for next <= maxFallHeight {
		velocity = (velocity - 0.08) * 0.98
		distance -= velocity
		tick++
		for next <= maxFallHeight && distance >= float64(next) {
			out[next] = float64(tick)
			next++
		}
		if tick > 1000 {
			break
		}
	}
	return out
}

// maxFallHeight is the deepest drop the move catalog will propose.
const maxFallHeight = 3

// FallNBlocksCost returns the tick cost of dropping n blocks, or CostInf
// when the drop is outside the catalog's range.
func FallNBlocksCost(n int) float64 {
	if n <= 0 || n > maxFallHeight {
		return CostInf
	}
	return fallTicks[n] + CenterAfterFallCost
}
