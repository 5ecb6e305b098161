package pathing

// The move catalog. Each entry proposes a candidate movement from a given
// cell; the cost functions below decide whether the world admits it. A cost
// of CostInf means the proposal is impossible and must be skipped.

var cardinals = [4]Pos{
	{X: 0, Z: -1},
	{X: 1, Z: 0},
	{X: 0, Z: 1},
	{X: -1, Z: 0},
}

var diagonals = [4]Pos{
	{X: 1, Z: -1},
	{X: 1, Z: 1},
	{X: -1, Z: 1},
	{X: -1, Z: -1},
}

// PossibleMovements is the Action contract: every movement reachable from p
// in one step, each costed against the context's world snapshot. Impossible
// proposals are included with cost CostInf; the caller filters.
func PossibleMovements(p Pos, ctx *CalcContext) []*Movement {
	out := make([]*Movement, 0, 20)
	for _, d := range cardinals {
		out = append(out,
			newMovement(MoveTraverse, p, p.Offset(d.X, 0, d.Z)),
			newMovement(MoveAscend, p, p.Offset(d.X, 1, d.Z)),
		)
		out = append(out, descendOrFall(p, d, ctx)...)
		if ctx != nil && ctx.Settings.AllowParkour {
			out = append(out, newMovement(MoveParkour, p, p.Offset(2*d.X, 0, 2*d.Z)))
		}
	}
	for _, d := range diagonals {
		out = append(out, newMovement(MoveDiagonal, p, p.Offset(d.X, 0, d.Z)))
	}
	for _, m := range out {
		m.Cost(ctx)
		m.CheckLoadedChunk(ctx)
	}
	return out
}

// descendOrFall probes the column one step over in direction d: a one-block
// drop is a descend, a deeper drop within range is a fall.
func descendOrFall(p Pos, d Pos, ctx *CalcContext) []*Movement {
	over := p.Offset(d.X, 0, d.Z)
	if ctx != nil && ctx.World != nil && !CanWalkOn(ctx.World, over.Down()) {
		depth := dropDepth(ctx.World, over)
		if depth >= 2 {
			return []*Movement{newMovement(MoveFall, p, over.Offset(0, -depth, 0))}
		}
	}
	return []*Movement{newMovement(MoveDescend, p, over.Offset(0, -1, 0))}
}

// dropDepth measures how far the agent would fall if it stepped into the
// column at p. Returns 0 when the column is supported immediately, and
// maxFallHeight+1 when the drop exceeds the catalog's range.
func dropDepth(w World, p Pos) int {
	for depth := 1; depth <= maxFallHeight; depth++ {
		landing := p.Offset(0, -depth, 0)
		if CanWalkOn(w, landing.Down()) || IsLiquid(w, landing) {
			return depth
		}
		if !CanWalkThrough(w, landing) {
			return maxFallHeight + 1
		}
	}
	return maxFallHeight + 1
}

func calculateCost(m *Movement, ctx *CalcContext) float64 {
	if ctx == nil || ctx.World == nil {
		return CostInf
	}
	// Costing proposes side-effect cells from scratch each time.
	m.breakCells = m.breakCells[:0]
	m.placeCells = m.placeCells[:0]
	switch m.kind {
	case MoveTraverse:
		return traverseCost(m, ctx)
	case MoveAscend:
		return ascendCost(m, ctx)
	case MoveDescend:
		return descendCost(m, ctx)
	case MoveDiagonal:
		return diagonalCost(m, ctx)
	case MoveFall:
		return fallCost(m, ctx)
	case MoveParkour:
		return parkourCost(m, ctx)
	default:
		return CostInf
	}
}

// clearBody prices making the agent's two-cell column at p passable.
// Returns CostInf when blocked and breaking is not allowed, and records the
// cells to break on the movement otherwise.
func clearBody(m *Movement, ctx *CalcContext, p Pos) float64 {
	total := 0.0
	for _, cell := range [2]Pos{p, p.Up()} {
		if CanWalkThrough(ctx.World, cell) {
			continue
		}
		if !ctx.Settings.AllowBreak || ctx.World.BlockAt(cell) != BlockSolid {
			return CostInf
		}
		m.breakCells = append(m.breakCells, cell)
		total += BreakOneBlockCost
	}
	return total
}

func standable(w World, p Pos) bool {
	return CanWalkOn(w, p.Down()) || IsLiquid(w, p)
}

func traverseCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	if IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	clear := clearBody(m, ctx, m.dest)
	if clear >= CostInf {
		return CostInf
	}
	if IsLiquid(w, m.dest) {
		return WalkOneInWaterCost + clear
	}
	if !CanWalkOn(w, m.dest.Down()) {
		if !ctx.Settings.AllowBreak {
			return CostInf
		}
		// No support and nothing to stand on; propose placing one.
		m.placeCells = append(m.placeCells, m.dest.Down())
		return WalkOneBlockCost + PlaceOneBlockCost + clear
	}
	return WalkOneBlockCost + clear
}

func ascendCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	if IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	if !CanWalkOn(w, m.dest.Down()) {
		return CostInf
	}
	// Headroom over the takeoff cell.
	if !FullyPassable(w, m.src.Offset(0, 2, 0)) {
		return CostInf
	}
	clear := clearBody(m, ctx, m.dest)
	if clear >= CostInf {
		return CostInf
	}
	return WalkOneBlockCost + JumpPenalty + clear
}

func descendCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	if IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	if !standable(w, m.dest) {
		return CostInf
	}
	// The agent walks off the edge through the cell above the destination.
	if !CanWalkThrough(w, m.dest.Up()) || !CanWalkThrough(w, m.dest) {
		return CostInf
	}
	if !CanWalkThrough(w, m.dest.Offset(0, 2, 0)) {
		return CostInf
	}
	return WalkOneBlockCost/2 + FallNBlocksCost(1)
}

func diagonalCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	if IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	if !standable(w, m.dest) || !HasRoomToStand(w, m.dest) {
		return CostInf
	}
	// No corner cutting: both adjacent columns must be open. Diagonals
	// never break blocks.
	for _, corner := range diagonalCorners(m.src, m.dest) {
		if !HasRoomToStand(w, corner) || IsHazard(w, corner) {
			return CostInf
		}
	}
	if IsLiquid(w, m.dest) || IsLiquid(w, m.src) {
		return walkOneBlockDiagonalCost * (WalkOneInWaterCost / WalkOneBlockCost)
	}
	return walkOneBlockDiagonalCost
}

func fallCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	depth := m.src.Y - m.dest.Y
	if depth < 2 {
		return CostInf
	}
	if !standable(w, m.dest) || IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	// The whole drop shaft, plus the step over the edge, must be clear.
	for y := m.dest.Y; y <= m.src.Y+1; y++ {
		if !CanWalkThrough(w, Pos{X: m.dest.X, Y: y, Z: m.dest.Z}) {
			return CostInf
		}
	}
	cost := FallNBlocksCost(depth)
	if cost >= CostInf {
		return CostInf
	}
	return WalkOneBlockCost/2 + cost
}

func parkourCost(m *Movement, ctx *CalcContext) float64 {
	w := ctx.World
	if !ctx.Settings.AllowParkour {
		return CostInf
	}
	dir := m.Direction()
	gap := m.src.Offset(dir.X/2, 0, dir.Z/2)
	if IsHazard(w, m.dest) || IsHazard(w, m.dest.Down()) {
		return CostInf
	}
	if !CanWalkOn(w, m.dest.Down()) || !HasRoomToStand(w, m.dest) {
		return CostInf
	}
	// Must actually be a gap, with air to jump through and under.
	if CanWalkOn(w, gap.Down()) {
		return CostInf
	}
	for _, cell := range [3]Pos{gap, gap.Up(), gap.Offset(0, 2, 0)} {
		if !FullyPassable(w, cell) {
			return CostInf
		}
	}
	if !FullyPassable(w, m.src.Offset(0, 2, 0)) {
		return CostInf
	}
	return 2*SprintOneBlockCost + 2*JumpPenalty
}

func diagonalCorners(src, dest Pos) [2]Pos {
	return [2]Pos{
		{X: dest.X, Y: src.Y, Z: src.Z},
		{X: src.X, Y: src.Y, Z: dest.Z},
	}
}

func calculateValidPositions(m *Movement) PosSet {
	set := make(PosSet, 4)
	set.Add(m.src)
	set.Add(m.dest)
	switch m.kind {
	case MoveAscend:
		set.Add(m.src.Up())
	case MoveDescend:
		set.Add(m.dest.Up())
	case MoveDiagonal:
		for _, corner := range diagonalCorners(m.src, m.dest) {
			set.Add(corner)
		}
	case MoveFall:
		// Every cell of the drop shaft is a legitimate place to be.
		for y := m.dest.Y; y <= m.src.Y; y++ {
			set.Add(Pos{X: m.dest.X, Y: y, Z: m.dest.Z})
		}
	case MoveParkour:
		dir := m.Direction()
		gap := m.src.Offset(dir.X/2, 0, dir.Z/2)
		set.Add(gap)
		set.Add(gap.Up())
	}
	return set
}
