package voxelworld

import (
	"sync"

	"voxelnav/internal/pathing"
)

// SimAgent is a deterministic agent body for simulations and tests. It has
// no physics: StepToward arrives at the movement's destination after a
// configurable number of actuation ticks. Safe for concurrent reads; the
// navigator mutates it only from the tick goroutine.
type SimAgent struct {
	mu        sync.RWMutex
	feet      pathing.Pos
	pos       pathing.Vec3
	vel       pathing.Vec3
	onGround  bool
	inLiquid  bool
	sprinting bool

	ticksPerMove int
	pending      int
}

// NewSimAgent places the agent at start, grounded. Each movement takes one
// actuation tick by default; SetTicksPerMove slows it down.
func NewSimAgent(start pathing.Pos) *SimAgent {
	return &SimAgent{
		feet:         start,
		pos:          start.Center(),
		onGround:     true,
		ticksPerMove: 1,
	}
}

func (a *SimAgent) SetTicksPerMove(n int) {
	a.mu.Lock()
	if n < 1 {
		n = 1
	}
	a.ticksPerMove = n
	a.mu.Unlock()
}

func (a *SimAgent) Feet() pathing.Pos {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.feet
}

func (a *SimAgent) Position() pathing.Vec3 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pos
}

func (a *SimAgent) Velocity() pathing.Vec3 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vel
}

func (a *SimAgent) OnGround() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.onGround
}

func (a *SimAgent) InLiquid() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.inLiquid
}

func (a *SimAgent) StepToward(m *pathing.Movement) {
	if m == nil {
		return
	}
	a.mu.Lock()
	a.pending++
	if a.pending >= a.ticksPerMove {
		a.pending = 0
		a.feet = m.Dest()
		a.pos = a.feet.Center()
	}
	a.mu.Unlock()
}

func (a *SimAgent) ClearInputs() {
	a.mu.Lock()
	a.pending = 0
	a.mu.Unlock()
}

func (a *SimAgent) SetSprinting(on bool) {
	a.mu.Lock()
	a.sprinting = on
	a.mu.Unlock()
}

func (a *SimAgent) Sprinting() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sprinting
}

// Teleport moves the body instantly, for scenario setup and deviation
// injection.
func (a *SimAgent) Teleport(p pathing.Pos) {
	a.mu.Lock()
	a.feet = p
	a.pos = p.Center()
	a.mu.Unlock()
}

// SetPrecisePosition places the body at an exact point without moving the
// feet cell, for standing-on-an-edge scenarios.
func (a *SimAgent) SetPrecisePosition(v pathing.Vec3) {
	a.mu.Lock()
	a.pos = v
	a.mu.Unlock()
}

// SetAirborne marks the agent mid-fall with the given vertical velocity.
func (a *SimAgent) SetAirborne(verticalVelocity float64) {
	a.mu.Lock()
	a.onGround = false
	a.vel.Y = verticalVelocity
	a.mu.Unlock()
}

// SetGrounded restores normal standing state.
func (a *SimAgent) SetGrounded() {
	a.mu.Lock()
	a.onGround = true
	a.vel = pathing.Vec3{}
	a.mu.Unlock()
}

func (a *SimAgent) SetInLiquid(in bool) {
	a.mu.Lock()
	a.inLiquid = in
	a.mu.Unlock()
}
