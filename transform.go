package keywell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid transform: an orthonormal orientation plus a
// translation, no scaling. X, Y and Z are the images of the unit axes
// (the columns of the rotation matrix) and Origin is the translation.
//
// A Transform identifies one key's mounting frame: Origin is the key
// center, X points along the row, Y along the column and Z out of the
// keycap surface.
type Transform struct {
	X, Y, Z r3.Vec
	Origin  r3.Vec
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		X: r3.Vec{X: 1},
		Y: r3.Vec{Y: 1},
		Z: r3.Vec{Z: 1},
	}
}

// Translation returns a pure translation by v.
func Translation(v r3.Vec) Transform {
	t := Identity()
	t.Origin = v
	return t
}

// RotationX returns a rotation about the X axis by angle radians.
func RotationX(angle float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{
		X: r3.Vec{X: 1},
		Y: r3.Vec{Y: cos, Z: sin},
		Z: r3.Vec{Y: -sin, Z: cos},
	}
}

// RotationY returns a rotation about the Y axis by angle radians.
func RotationY(angle float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{
		X: r3.Vec{X: cos, Z: -sin},
		Y: r3.Vec{Y: 1},
		Z: r3.Vec{X: sin, Z: cos},
	}
}

// RotationZ returns a rotation about the Z axis by angle radians.
func RotationZ(angle float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{
		X: r3.Vec{X: cos, Y: sin},
		Y: r3.Vec{X: -sin, Y: cos},
		Z: r3.Vec{Z: 1},
	}
}

// EulerZYX returns the rotation composed from intrinsic rotations about
// Z, then Y, then X, with all angles in radians.
func EulerZYX(z, y, x float64) Transform {
	return RotationZ(z).Mul(RotationY(y)).Mul(RotationX(x))
}

// Mul composes two transforms: the result applies u first, then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		X:      t.rotate(u.X),
		Y:      t.rotate(u.Y),
		Z:      t.rotate(u.Z),
		Origin: t.Apply(u.Origin),
	}
}

// Apply transforms the point p.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.rotate(p), t.Origin)
}

// rotate applies only the rotational part of the transform to v.
func (t Transform) rotate(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, t.X), r3.Scale(v.Y, t.Y)), r3.Scale(v.Z, t.Z))
}

// RotateVec applies only the rotational part of the transform to v.
// Use this for directions, Apply for positions.
func (t Transform) RotateVec(v r3.Vec) r3.Vec {
	return t.rotate(v)
}

// Inverse returns the inverse transform. The rotational part is
// orthonormal, so its inverse is the transpose.
func (t Transform) Inverse() Transform {
	inv := Transform{
		X: r3.Vec{X: t.X.X, Y: t.Y.X, Z: t.Z.X},
		Y: r3.Vec{X: t.X.Y, Y: t.Y.Y, Z: t.Z.Y},
		Z: r3.Vec{X: t.X.Z, Y: t.Y.Z, Z: t.Z.Z},
	}
	inv.Origin = r3.Scale(-1, inv.rotate(t.Origin))
	return inv
}

// approxEq reports whether two vectors agree within tol per component.
func approxEq(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}
