package keywell

import (
	"math"

	"github.com/soypat/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// transformed evaluates a solid in the local frame of a rigid transform.
// Rigid transforms preserve distances, so the field stays a true signed
// distance.
type transformed struct {
	solid  sdf.SDF3
	inv    Transform
	bounds r3.Box
}

// transformSolid places s at the position and orientation given by t.
func transformSolid(s sdf.SDF3, t Transform) sdf.SDF3 {
	return &transformed{
		solid:  s,
		inv:    t.Inverse(),
		bounds: transformBox(t, s.Bounds()),
	}
}

func (t *transformed) Evaluate(p r3.Vec) float64 {
	return t.solid.Evaluate(t.inv.Apply(p))
}

func (t *transformed) Bounds() r3.Box {
	return t.bounds
}

// transformBox returns the axis-aligned box containing the transformed
// corners of b.
func transformBox(t Transform, b r3.Box) r3.Box {
	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < 8; i++ {
		corner := r3.Vec{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}
		if i&1 != 0 {
			corner.X = b.Max.X
		}
		if i&2 != 0 {
			corner.Y = b.Max.Y
		}
		if i&4 != 0 {
			corner.Z = b.Max.Z
		}
		p := t.Apply(corner)
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return r3.Box{Min: min, Max: max}
}

// mirrored reflects a solid across the YZ plane. The field stays an
// exact signed distance, so extraction of the mirrored surface needs no
// special casing.
type mirrored struct {
	solid sdf.SDF3
}

// mirrorSolid returns s reflected across the YZ plane.
func mirrorSolid(s sdf.SDF3) sdf.SDF3 {
	return &mirrored{solid: s}
}

func (m *mirrored) Evaluate(p r3.Vec) float64 {
	p.X = -p.X
	return m.solid.Evaluate(p)
}

func (m *mirrored) Bounds() r3.Box {
	b := m.solid.Bounds()
	return r3.Box{
		Min: r3.Vec{X: -b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		Max: r3.Vec{X: -b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// smoothUnion joins solids with a polynomial smooth minimum of radius k.
// With k == 0 it degrades to an exact union.
func smoothUnion(k float64, solids ...sdf.SDF3) sdf.SDF3 {
	u := sdf.Union3D(solids...)
	if k > 0 {
		u.SetMin(sdf.MinPoly(2, k))
	}
	return u
}

// smoothDifference removes b from a with a polynomial smooth maximum of
// radius k, leaving a fillet of that radius along the cut.
func smoothDifference(k float64, a, b sdf.SDF3) sdf.SDF3 {
	d := sdf.Difference3D(a, b)
	if k > 0 {
		d.SetMax(sdf.MaxPoly(2, k))
	}
	return d
}
