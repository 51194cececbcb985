package keywell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// line is a line in 3D space given by a point and a unit direction.
type line struct {
	point     r3.Vec
	direction r3.Vec
}

func newLine(point, direction r3.Vec) line {
	return line{point: point, direction: r3.Unit(direction)}
}

// at returns the parametric point on the line.
func (l line) at(t float64) r3.Vec {
	return r3.Add(l.point, r3.Scale(t, l.direction))
}

// plane is a plane in 3D space given by a point and a unit normal.
type plane struct {
	point  r3.Vec
	normal r3.Vec
}

func newPlane(point, normal r3.Vec) plane {
	return plane{point: point, normal: r3.Unit(normal)}
}

// intersect returns the intersection point of the plane and the line.
// The second return value is false if line and plane are parallel.
func (pl plane) intersect(l line) (r3.Vec, bool) {
	t := r3.Dot(pl.normal, r3.Sub(pl.point, l.point)) / r3.Dot(l.direction, pl.normal)
	if math.IsInf(t, 0) || math.IsNaN(t) {
		return r3.Vec{}, false
	}
	return l.at(t), true
}

// sideX selects the left or right side of a key along its local X axis.
type sideX int

const (
	sideLeft  sideX = -1
	sideRight sideX = 1
)

func (s sideX) direction() float64 { return float64(s) }

// sideY selects the bottom or top side of a key along its local Y axis.
type sideY int

const (
	sideBottom sideY = -1
	sideTop    sideY = 1
)

func (s sideY) direction() float64 { return float64(s) }

// cornerPoint returns the corner of a key's clearance rectangle given by
// the two sides, e.g. bottom-left.
func cornerPoint(key Transform, sx sideX, sy sideY, clearance r2.Vec) r3.Vec {
	return r3.Add(key.Origin, r3.Add(
		r3.Scale(sx.direction()*clearance.X, key.X),
		r3.Scale(sy.direction()*clearance.Y, key.Y),
	))
}

// boundsFromOutline grows a 2D outline by the given padding and extrudes
// it to the given height, producing an axis-aligned bounding box.
func boundsFromOutline(outline []r2.Vec, height, padding float64) r3.Box {
	minP := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	maxP := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range outline {
		minP.X = math.Min(minP.X, p.X)
		minP.Y = math.Min(minP.Y, p.Y)
		maxP.X = math.Max(maxP.X, p.X)
		maxP.Y = math.Max(maxP.Y, p.Y)
	}
	return r3.Box{
		Min: r3.Vec{X: minP.X - padding, Y: minP.Y - padding, Z: 0},
		Max: r3.Vec{X: maxP.X + padding, Y: maxP.Y + padding, Z: height},
	}
}

// unionBox combines two axis-aligned boxes.
func unionBox(a, b r3.Box) r3.Box {
	return r3.Box{
		Min: r3.Vec{
			X: math.Min(a.Min.X, b.Min.X),
			Y: math.Min(a.Min.Y, b.Min.Y),
			Z: math.Min(a.Min.Z, b.Min.Z),
		},
		Max: r3.Vec{
			X: math.Max(a.Max.X, b.Max.X),
			Y: math.Max(a.Max.Y, b.Max.Y),
			Z: math.Max(a.Max.Z, b.Max.Z),
		},
	}
}

// boxCenter returns the center point of the box.
func boxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func normalizeOrZero(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}
