package math

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB builds a box from its center and half extents.
func NewAABB(center, halfExtents Vec3) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

// Center returns the center point of the AABB.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// HalfExtents returns half the size along each axis.
func (b AABB) HalfExtents() Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b AABB) Radius() float32 {
	return b.HalfExtents().Length()
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Corners returns the eight corner points.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// Transform returns the axis-aligned bounds of the box after an affine transform.
func (b AABB) Transform(m Mat4) AABB {
	c := m.TransformPoint(b.Center())
	h := b.HalfExtents()
	ext := Vec3{
		Abs(m[0])*h.X + Abs(m[4])*h.Y + Abs(m[8])*h.Z,
		Abs(m[1])*h.X + Abs(m[5])*h.Y + Abs(m[9])*h.Z,
		Abs(m[2])*h.X + Abs(m[6])*h.Y + Abs(m[10])*h.Z,
	}
	return AABB{Min: c.Sub(ext), Max: c.Add(ext)}
}

// BoundingSphere is a center and radius.
type BoundingSphere struct {
	Center Vec3
	Radius float32
}
