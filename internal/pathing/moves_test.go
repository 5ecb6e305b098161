package pathing

import "testing"

func findMovement(moves []*Movement, kind MovementKind, dest Pos) *Movement {
	for _, m := range moves {
		if m.Kind() == kind && m.Dest() == dest {
			return m
		}
	}
	return nil
}

func TestPossibleMovementsOnFlatGround(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}

	moves := PossibleMovements(src, ctx)

	walkable := 0
	for _, m := range moves {
		if m.Src() != src {
			t.Fatalf("movement %v does not start at %v", m, src)
		}
		if cost, known := m.CachedCost(); !known {
			t.Fatalf("movement %v was not costed", m)
		} else if cost < CostInf {
			walkable++
		}
	}
	// Four traverses and four diagonals are open on flat ground; ascends
	// have no support, descends have no hole, parkour has no gap.
	if walkable != 8 {
		t.Fatalf("walkable movements = %d, want 8", walkable)
	}

	east := findMovement(moves, MoveTraverse, Pos{X: 1, Y: 64, Z: 0})
	if east == nil {
		t.Fatalf("no eastward traverse proposed")
	}
	if cost, _ := east.CachedCost(); cost != WalkOneBlockCost {
		t.Fatalf("flat traverse cost = %v, want %v", cost, WalkOneBlockCost)
	}
}

func TestAscendRequiresHeadroom(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}
	step := Pos{X: 1, Y: 64, Z: 0}
	w.set(step, BlockSolid)

	moves := PossibleMovements(src, ctx)
	up := findMovement(moves, MoveAscend, Pos{X: 1, Y: 65, Z: 0})
	if up == nil {
		t.Fatalf("no ascend proposed")
	}
	if cost, _ := up.CachedCost(); cost >= CostInf {
		t.Fatalf("one-block step up should be possible, got %v", cost)
	}

	// A ceiling over the takeoff cell blocks the jump.
	w.set(src.Offset(0, 2, 0), BlockSolid)
	if cost := up.RecalculateCost(ctx); cost < CostInf {
		t.Fatalf("ascend under a ceiling should be impossible, got %v", cost)
	}
}

func TestDescendAndFallSelection(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}

	// One-deep hole east of the agent: a descend.
	w.set(Pos{X: 1, Y: 63, Z: 0}, BlockAir)
	moves := PossibleMovements(src, ctx)
	down := findMovement(moves, MoveDescend, Pos{X: 1, Y: 63, Z: 0})
	if down == nil {
		t.Fatalf("no descend proposed into one-deep hole")
	}
	if cost, _ := down.CachedCost(); cost >= CostInf {
		t.Fatalf("descend should be possible, got %v", cost)
	}

	// Three-deep shaft south of the agent: a fall.
	for y := 61; y <= 63; y++ {
		w.set(Pos{X: 0, Y: y, Z: 1}, BlockAir)
	}
	moves = PossibleMovements(src, ctx)
	fall := findMovement(moves, MoveFall, Pos{X: 0, Y: 61, Z: 1})
	if fall == nil {
		t.Fatalf("no fall proposed into three-deep shaft")
	}
	if cost, _ := fall.CachedCost(); cost >= CostInf {
		t.Fatalf("three-block fall should be survivable, got %v", cost)
	}
}

func TestDiagonalRefusesCornerCutting(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}
	dest := Pos{X: 1, Y: 64, Z: 1}

	moves := PossibleMovements(src, ctx)
	diag := findMovement(moves, MoveDiagonal, dest)
	if diag == nil {
		t.Fatalf("no diagonal proposed")
	}
	if cost, _ := diag.CachedCost(); cost >= CostInf {
		t.Fatalf("open diagonal should be walkable, got %v", cost)
	}

	// Blocking either adjacent column forbids the diagonal.
	w.set(Pos{X: 1, Y: 64, Z: 0}, BlockSolid)
	if cost := diag.RecalculateCost(ctx); cost < CostInf {
		t.Fatalf("diagonal past a blocked corner should be impossible, got %v", cost)
	}
}

func TestParkourRequiresRealGap(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}

	// Carve a one-cell chasm at x=1 deeper than any fall.
	for y := 55; y <= 63; y++ {
		w.set(Pos{X: 1, Y: y, Z: 0}, BlockAir)
	}

	moves := PossibleMovements(src, ctx)
	jump := findMovement(moves, MoveParkour, Pos{X: 2, Y: 64, Z: 0})
	if jump == nil {
		t.Fatalf("no parkour proposed")
	}
	if cost, _ := jump.CachedCost(); cost >= CostInf {
		t.Fatalf("two-block gap jump should be possible, got %v", cost)
	}

	// Without AllowParkour the same proposal is rejected.
	strict := DefaultSettings()
	strict.AllowParkour = false
	if cost := jump.RecalculateCost(NewCalcContext(w, strict, true)); cost < CostInf {
		t.Fatalf("parkour disabled should make the jump impossible, got %v", cost)
	}
}

func TestHazardBlocksEverything(t *testing.T) {
	w := newFlatWorld(63)
	ctx := testCtx(w)
	src := Pos{X: 0, Y: 64, Z: 0}
	dest := Pos{X: 1, Y: 64, Z: 0}
	w.set(dest.Down(), BlockHazard)

	moves := PossibleMovements(src, ctx)
	east := findMovement(moves, MoveTraverse, dest)
	if east == nil {
		t.Fatalf("no eastward traverse proposed")
	}
	if cost, _ := east.CachedCost(); cost < CostInf {
		t.Fatalf("walking over a hazard should be impossible, got %v", cost)
	}
}

func TestCheckLoadedChunkRecorded(t *testing.T) {
	w := newFlatWorld(63)
	w.unloaded[[2]int{1, 0}] = true
	ctx := testCtx(w)

	loaded := newMovement(MoveTraverse, Pos{X: 0, Y: 64}, Pos{X: 1, Y: 64})
	loaded.CheckLoadedChunk(ctx)
	if !loaded.CalculatedWhileLoaded() {
		t.Fatalf("movement inside loaded chunk should record loaded")
	}

	edge := newMovement(MoveTraverse, Pos{X: 15, Y: 64}, Pos{X: 16, Y: 64})
	edge.CheckLoadedChunk(ctx)
	if edge.CalculatedWhileLoaded() {
		t.Fatalf("movement into unloaded chunk should record unloaded")
	}
}
