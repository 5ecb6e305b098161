package pathing

import "fmt"

// MovementKind enumerates the closed set of atomic moves. New kinds are a
// deliberate catalog change, not a subclassing point.
type MovementKind uint8

const (
	MoveTraverse MovementKind = iota
	MoveAscend
	MoveDescend
	MoveDiagonal
	MoveFall
	MoveParkour
)

func (k MovementKind) String() string {
	switch k {
	case MoveTraverse:
		return "traverse"
	case MoveAscend:
		return "ascend"
	case MoveDescend:
		return "descend"
	case MoveDiagonal:
		return "diagonal"
	case MoveFall:
		return "fall"
	case MoveParkour:
		return "parkour"
	default:
		return fmt.Sprintf("movement(%d)", uint8(k))
	}
}

// Status is the per-tick outcome of driving a movement.
type Status uint8

const (
	StatusPrepping Status = iota
	StatusWaiting
	StatusRunning
	StatusSuccess
	StatusUnreachable
	StatusFailed
	StatusCanceled
)

// Complete reports whether the movement has reached a terminal status.
func (s Status) Complete() bool { return s >= StatusSuccess }

func (s Status) String() string {
	switch s {
	case StatusPrepping:
		return "prepping"
	case StatusWaiting:
		return "waiting"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusUnreachable:
		return "unreachable"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Agent is the actuation collaborator. The engine decides where to go; how
// the body gets there in continuous space is entirely the agent's problem.
type Agent interface {
	Feet() Pos
	Position() Vec3
	Velocity() Vec3
	OnGround() bool
	InLiquid() bool

	// StepToward drives one tick of actuation toward the movement's
	// destination. It must be cheap and non-blocking.
	StepToward(m *Movement)
	ClearInputs()
	SetSprinting(on bool)
}

// PosSet is a set of voxel cells keyed by packed position.
type PosSet map[uint64]struct{}

func (s PosSet) Add(p Pos)           { s[p.Packed()] = struct{}{} }
func (s PosSet) Contains(p Pos) bool { _, ok := s[p.Packed()]; return ok }

// Movement is one atomic transition between two cells. Cost and the
// valid-position set are computed once and memoized; callers invalidate
// explicitly through RecalculateCost, Reset, and ResetBlockCache. Nothing
// here recomputes behind the caller's back.
type Movement struct {
	kind MovementKind
	src  Pos
	dest Pos

	// Side-effect cells proposed at construction time.
	breakCells []Pos
	placeCells []Pos

	status Status

	cost      float64
	costKnown bool

	calcWhileLoaded bool
	loadedKnown     bool

	validPositions PosSet

	toBreakCached    []Pos
	toPlaceCached    []Pos
	toWalkIntoCached []Pos
	breakCacheOK     bool
	placeCacheOK     bool
	walkIntoCacheOK  bool
}

func newMovement(kind MovementKind, src, dest Pos) *Movement {
	return &Movement{kind: kind, src: src, dest: dest, status: StatusPrepping}
}

func (m *Movement) Kind() MovementKind { return m.kind }
func (m *Movement) Src() Pos           { return m.src }
func (m *Movement) Dest() Pos          { return m.dest }

// Direction is the voxel delta from source to destination.
func (m *Movement) Direction() Pos { return m.dest.Sub(m.src) }

func (m *Movement) String() string {
	return fmt.Sprintf("%s %v->%v", m.kind, m.src, m.dest)
}

// Cost returns the memoized movement cost, computing it on first use.
func (m *Movement) Cost(ctx *CalcContext) float64 {
	if !m.costKnown {
		m.cost = calculateCost(m, ctx)
		m.costKnown = true
	}
	return m.cost
}

// CachedCost returns the memoized cost without computing anything.
func (m *Movement) CachedCost() (float64, bool) {
	return m.cost, m.costKnown
}

// RecalculateCost drops the memoized cost and evaluates it against the live
// world. This is the executor's re-verification hook.
func (m *Movement) RecalculateCost(ctx *CalcContext) float64 {
	m.costKnown = false
	return m.Cost(ctx)
}

// OverrideCost pins the memoized cost, bypassing calculation.
func (m *Movement) OverrideCost(cost float64) {
	m.cost = cost
	m.costKnown = true
}

// CheckLoadedChunk records whether the destination chunk was loaded when
// the movement was costed. The executor is stricter about cost increases on
// movements planned into unloaded terrain.
func (m *Movement) CheckLoadedChunk(ctx *CalcContext) {
	if ctx == nil || ctx.World == nil {
		return
	}
	m.calcWhileLoaded = ctx.World.ChunkLoaded(m.dest.X, m.dest.Z)
	m.loadedKnown = true
}

func (m *Movement) CalculatedWhileLoaded() bool {
	return m.loadedKnown && m.calcWhileLoaded
}

// ValidPositions is the set of cells the agent may occupy while this
// movement is in progress. Memoized; Reset does not clear it because the
// set depends only on geometry, not on world state.
func (m *Movement) ValidPositions() PosSet {
	if m.validPositions == nil {
		m.validPositions = calculateValidPositions(m)
	}
	return m.validPositions
}

// Reset returns the movement to its initial execution state so it can be
// driven again after a cursor rewind.
func (m *Movement) Reset() {
	m.status = StatusPrepping
}

// ResetBlockCache invalidates the memoized side-effect queries.
func (m *Movement) ResetBlockCache() {
	m.toBreakCached = nil
	m.toPlaceCached = nil
	m.toWalkIntoCached = nil
	m.breakCacheOK = false
	m.placeCacheOK = false
	m.walkIntoCacheOK = false
}

// Update advances the movement by one tick, delegating actuation to the
// agent. Success is recognized by arrival at the destination cell.
func (m *Movement) Update(ag Agent) Status {
	if m == nil || ag == nil {
		return StatusFailed
	}
	if m.status.Complete() {
		return m.status
	}
	if ag.Feet() == m.dest {
		m.status = StatusSuccess
		ag.ClearInputs()
		return m.status
	}
	switch m.status {
	case StatusPrepping:
		m.status = StatusWaiting
	case StatusWaiting:
		m.status = StatusRunning
	}
	ag.StepToward(m)
	return m.status
}

// SafeToCancel reports whether abandoning the movement mid-flight leaves
// the agent in a recoverable state. Falls are only safe once grounded.
func (m *Movement) SafeToCancel(ag Agent) bool {
	if m == nil {
		return true
	}
	if m.kind == MoveFall && ag != nil && !ag.OnGround() && !ag.InLiquid() {
		return false
	}
	return true
}

// ToBreak lists the proposed break cells that still block the movement.
func (m *Movement) ToBreak(w World) []Pos {
	if m.breakCacheOK {
		return m.toBreakCached
	}
	out := make([]Pos, 0, len(m.breakCells))
	for _, p := range m.breakCells {
		if !CanWalkThrough(w, p) {
			out = append(out, p)
		}
	}
	m.toBreakCached = out
	m.breakCacheOK = true
	return out
}

// ToPlace lists the proposed support cells that still need placing.
func (m *Movement) ToPlace(w World) []Pos {
	if m.placeCacheOK {
		return m.toPlaceCached
	}
	out := make([]Pos, 0, len(m.placeCells))
	for _, p := range m.placeCells {
		if !CanWalkOn(w, p) {
			out = append(out, p)
		}
	}
	m.toPlaceCached = out
	m.placeCacheOK = true
	return out
}

// ToWalkInto lists cells the agent brushes through without occupying.
// Only diagonals produce any.
func (m *Movement) ToWalkInto(w World) []Pos {
	if m.walkIntoCacheOK {
		return m.toWalkIntoCached
	}
	var out []Pos
	if m.kind == MoveDiagonal {
		for _, corner := range diagonalCorners(m.src, m.dest) {
			if IsLiquid(w, corner) {
				out = append(out, corner)
			}
		}
	}
	m.toWalkIntoCached = out
	m.walkIntoCacheOK = true
	return out
}
