package pathing

import "math"

// Pos is a voxel cell in the world, addressed by integer block coordinates.
// It is an immutable value type; every operation returns a new Pos.
type Pos struct {
	X int
	Y int
	Z int
}

// Packed serializes the position into a single uint64 key suitable for map
// lookups and arena indices. X and Z get 26 bits, Y gets 12.
func (p Pos) Packed() uint64 {
	return (uint64(p.X)&0x3FFFFFF)<<38 | (uint64(p.Y)&0xFFF)<<26 | uint64(p.Z)&0x3FFFFFF
}

func (p Pos) Offset(dx, dy, dz int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p Pos) Up() Pos   { return Pos{X: p.X, Y: p.Y + 1, Z: p.Z} }
func (p Pos) Down() Pos { return Pos{X: p.X, Y: p.Y - 1, Z: p.Z} }

// Sub returns the componentwise difference p - o.
func (p Pos) Sub(o Pos) Pos {
	return Pos{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Center is the point at the middle of the cell's footprint, at foot level.
func (p Pos) Center() Vec3 {
	return Vec3{X: float64(p.X) + 0.5, Y: float64(p.Y), Z: float64(p.Z) + 0.5}
}

func (p Pos) DistanceTo(o Pos) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// WithinOne reports whether o is at most one cell away on every axis.
func (p Pos) WithinOne(o Pos) bool {
	return abs(p.X-o.X) <= 1 && abs(p.Y-o.Y) <= 1 && abs(p.Z-o.Z) <= 1
}

// Vec3 is a continuous point in world space, used for the agent's precise
// position. Voxel-grid logic works with Pos; Vec3 only feeds distance checks.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// DistanceToCenter measures from the point to the center of cell p.
func (v Vec3) DistanceToCenter(p Pos) float64 {
	c := p.Center()
	dx := v.X - c.X
	dy := v.Y - c.Y
	dz := v.Z - c.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// FlatDistanceToCenter ignores the vertical axis. Used for free-fall
// movements where mid-air height says nothing about being off path.
func (v Vec3) FlatDistanceToCenter(p Pos) float64 {
	c := p.Center()
	dx := v.X - c.X
	dz := v.Z - c.Z
	return math.Sqrt(dx*dx + dz*dz)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
