package math

// Plane is the set of points p with Normal·p + Distance = 0.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// SignedDistance returns the signed distance of p from the plane.
func (p Plane) SignedDistance(v Vec3) float32 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum holds six planes whose positive half-spaces contain the volume.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// FrustumFromMatrix extracts normalized planes from a view-projection matrix
// (Gribb/Hartmann). Element (row, col) lives at index col*4+row.
func FrustumFromMatrix(m Mat4) Frustum {
	row := func(r int) Vec4 { return Vec4{m[r], m[4+r], m[8+r], m[12+r]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	combos := [6]Vec4{}
	for i := 0; i < 4; i++ {
		combos[FrustumLeft][i] = r3[i] + r0[i]
		combos[FrustumRight][i] = r3[i] - r0[i]
		combos[FrustumBottom][i] = r3[i] + r1[i]
		combos[FrustumTop][i] = r3[i] - r1[i]
		combos[FrustumNear][i] = r3[i] + r2[i]
		combos[FrustumFar][i] = r3[i] - r2[i]
	}

	var f Frustum
	for i, c := range combos {
		p := Plane{Normal: Vec3{c[0], c[1], c[2]}, Distance: c[3]}
		if l := p.Normal.Length(); l > 0 {
			p.Normal = p.Normal.Scale(1 / l)
			p.Distance /= l
		}
		f.Planes[i] = p
	}
	return f
}

// IntersectsAABB reports whether the box is at least partially inside.
// Tests the most positive vertex against each plane.
func (f *Frustum) IntersectsAABB(b AABB) bool {
	for _, p := range f.Planes {
		v := b.Min
		if p.Normal.X >= 0 {
			v.X = b.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = b.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = b.Max.Z
		}
		if p.SignedDistance(v) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the sphere is at least partially inside.
func (f *Frustum) IntersectsSphere(s BoundingSphere) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}
