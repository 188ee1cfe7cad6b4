// Package lighting turns scene light descriptions into shadow lights.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/midgard-shadow/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a direction
// vector. Longitude is rotation around Y (0-360), latitude is elevation from
// the horizon (0-90). The result points towards the sun.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lonRad := float64(longitude) * gomath.Pi / 180.0
	latRad := float64(latitude) * gomath.Pi / 180.0

	// Spherical to Cartesian conversion
	x := float32(gomath.Cos(latRad) * gomath.Sin(lonRad))
	y := float32(gomath.Sin(latRad))
	z := float32(gomath.Cos(latRad) * gomath.Cos(lonRad))

	return math.Vec3{X: x, Y: y, Z: z}
}

// ShineRotation returns the light rotation that makes a light shine along
// dir. Lights shine along their local -Y axis.
func ShineRotation(dir math.Vec3) math.Quat {
	up := dir.Scale(-1).Normalize()
	if up.Length() == 0 {
		return math.QuatIdentity()
	}

	ref := math.Vec3Back
	if math.Abs(up.Dot(ref)) > 0.99 {
		ref = math.Vec3Right
	}
	right := up.Cross(ref).Normalize()
	back := right.Cross(up)
	return math.QuatFromBasis(right, up, back)
}

// SunRotation returns the rotation of a directional light placed at the
// given sun angles.
func SunRotation(longitude, latitude float32) math.Quat {
	return ShineRotation(SunDirection(longitude, latitude).Scale(-1))
}
