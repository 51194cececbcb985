package keywell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layout constants shared with the case builder. The curvature height
// lifts the arc pivot from the keycap top to the finger contact point;
// the key clearance keeps neighboring keycaps from touching.
const (
	keyClearance    = 1.0
	curvatureHeight = 6.6

	// Final placement of the solved layout: the lowest key sits
	// layoutZOffset above the mounting plane and the left outline edge
	// at layoutCenterOffset along X.
	layoutZOffset      = 12.0
	layoutCenterOffset = 10.0
)

// Column is one solved finger-cluster column: the per-row key frames in
// bottom-to-top order plus the resolved column parameters.
type Column struct {
	// Keys holds one transform per row, index 0 at the bottom.
	Keys []Transform

	// Kind is the configured column variant.
	Kind ColumnKind

	// EffectiveCurvature is the curvature angle in degrees that shaped
	// this column's arc. For side columns this is the neighbor's
	// curvature angle: a side column continues the neighboring arc and
	// never defines its own.
	EffectiveCurvature float64
}

// Layout holds the solved per-key rigid transforms of one keyboard half,
// in a shared coordinate frame. It is produced once per config change
// and immutable afterward; the case builder and the wiring derivation
// both read from the same value.
type Layout struct {
	// Columns is the finger-cluster grid, left to right.
	Columns []Column

	// ThumbKeys is the thumb-cluster sequence.
	ThumbKeys []Transform

	// FingerClearance and ThumbClearance are the per-cluster half
	// clearances around each key in local X and Y.
	FingerClearance r2.Vec
	ThumbClearance  r2.Vec
}

// resolvedColumn is a column config with side-column parameters donated
// by the neighboring normal column.
type resolvedColumn struct {
	kind      ColumnKind
	curvature float64 // degrees
	offset    r2.Vec  // column origin offset in Y and Z
	sideAngle float64 // degrees, zero for normal columns
	side      float64 // +1 left edge, -1 right edge, 0 normal
}

// resolveColumns applies the side-column tie-break: an edge column's
// physical curvature and offset equal its neighbor's, only the angular
// offset given by the side angle differs.
func resolveColumns(specs []ColumnSpec) []resolvedColumn {
	resolved := make([]resolvedColumn, len(specs))
	for i, spec := range specs {
		switch spec.Kind {
		case ColumnNormal:
			resolved[i] = resolvedColumn{
				kind:      ColumnNormal,
				curvature: spec.CurvatureAngle,
				offset:    r2.Vec{X: spec.Offset[0], Y: spec.Offset[1]},
			}
		case ColumnSide:
			side := 1.0
			donor := specs[1]
			if i != 0 {
				side = -1.0
				donor = specs[len(specs)-2]
			}
			resolved[i] = resolvedColumn{
				kind:      ColumnSide,
				curvature: donor.CurvatureAngle,
				offset:    r2.Vec{X: donor.Offset[0], Y: donor.Offset[1]},
				sideAngle: spec.SideAngle,
				side:      side,
			}
		default:
			panic("keywell: unreachable column kind after validation")
		}
	}
	return resolved
}

// SolveLayout converts a config into the per-key rigid transforms of the
// finger and thumb clusters. It is a pure function: identical configs
// yield bit-identical layouts. The only error condition is a config that
// fails [Config.Validate]; a valid config always solves.
func SolveLayout(cfg Config) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Layout{
		Columns:   solveFingerColumns(cfg.FingerCluster),
		ThumbKeys: solveThumbKeys(cfg.ThumbCluster),
		FingerClearance: r2.Vec{
			X: (cfg.FingerCluster.KeyDistance[0] + keyClearance) / 2,
			Y: (cfg.FingerCluster.KeyDistance[1] + keyClearance) / 2,
		},
		ThumbClearance: r2.Vec{
			X: (cfg.ThumbCluster.KeyDistance + keyClearance) / 2,
			Y: (1.5*cfg.ThumbCluster.KeyDistance + keyClearance) / 2,
		},
	}

	// Tilt the whole key frame, then translate it so the lowest key
	// clears the mounting plane and the outline starts at a fixed X.
	tilt := RotationY(radians(cfg.Keyboard.TiltingAngle[1])).
		Mul(RotationX(radians(cfg.Keyboard.TiltingAngle[0])))
	l.apply(tilt)

	bounds := unionBox(
		boundsFromOutline(l.FingerOutline(), 0, cfg.Keyboard.CircumferenceDistance),
		boundsFromOutline(l.ThumbOutline(), 0, cfg.Keyboard.CircumferenceDistance),
	)
	l.apply(Translation(r3.Vec{
		X: layoutCenterOffset - bounds.Min.X,
		Z: layoutZOffset - l.minZ(),
	}))

	return l, nil
}

// solveFingerColumns places each column's keys along a circular arc in
// the column's local Y-Z plane.
func solveFingerColumns(cfg FingerCluster) []Column {
	distX, distY := cfg.KeyDistance[0], cfg.KeyDistance[1]
	columns := make([]Column, len(cfg.Columns))

	for i, rc := range resolveColumns(cfg.Columns) {
		sideAngle := radians(rc.sideAngle)
		sideAngleTan := math.Tan(sideAngle)

		// Column origin along X; side columns wrap around the edge of
		// the neighboring arc instead of advancing by a full pitch.
		x := distX * float64(i)
		zOffset := 0.0
		if sideAngle != 0 {
			sin, cos := math.Sincos(sideAngle)
			sideRadius := distX/2/math.Tan(sideAngle/2) + curvatureHeight
			x = distX*(float64(i)+rc.side) - rc.side*sideRadius*sin
			zOffset = sideRadius * (1 - cos)
		}

		columnTransform := Translation(r3.Vec{X: x, Y: rc.offset.X, Z: rc.offset.Y + zOffset}).
			Mul(RotationY(rc.side * sideAngle))

		curvature := radians(rc.curvature)
		keys := make([]Transform, cfg.Rows)
		if curvature == 0 {
			for j := range keys {
				y := distY * float64(j-cfg.HomeRowIndex)
				keys[j] = columnTransform.Mul(Translation(r3.Vec{Y: y}))
			}
		} else {
			keycapRadius := distY / 2 / math.Tan(curvature/2)
			curvatureRadius := keycapRadius + curvatureHeight
			for j := range keys {
				totalAngle := curvature * float64(j-cfg.HomeRowIndex)
				sin, cos := math.Sincos(totalAngle)
				rcos := 1 - cos

				// Side columns drift along X as the arc bends, keeping
				// them flush with the neighbor they continue.
				x := -rc.side * sideAngleTan *
					(keycapRadius*rcos + signum(sideAngle)*distY/2*math.Abs(sin))

				keys[j] = columnTransform.
					Mul(Translation(r3.Vec{X: x, Y: curvatureRadius * sin, Z: curvatureRadius * rcos})).
					Mul(RotationX(totalAngle))
			}
		}

		columns[i] = Column{Keys: keys, Kind: rc.kind, EffectiveCurvature: rc.curvature}
	}
	return columns
}

// solveThumbKeys places the thumb keys along a single arc and moves the
// whole arc by the configured cluster rotation and offset, anchored at
// the resting key.
func solveThumbKeys(cfg ThumbCluster) []Transform {
	curvature := radians(cfg.CurvatureAngle)
	clusterTransform := EulerZYX(
		radians(cfg.Rotation[2]),
		radians(cfg.Rotation[1]),
		radians(cfg.Rotation[0]),
	)
	clusterTransform.Origin = r3.Vec{X: cfg.Offset[0], Y: cfg.Offset[1], Z: cfg.Offset[2]}

	keys := make([]Transform, cfg.Keys)
	if curvature == 0 {
		for i := range keys {
			x := cfg.KeyDistance * float64(i-cfg.RestingKeyIndex)
			keys[i] = clusterTransform.Mul(Translation(r3.Vec{X: x}))
		}
	} else {
		curvatureRadius := cfg.KeyDistance/2/math.Tan(curvature/2) + curvatureHeight
		for i := range keys {
			totalAngle := curvature * float64(i-cfg.RestingKeyIndex)
			sin, cos := math.Sincos(totalAngle)
			keys[i] = clusterTransform.
				Mul(Translation(r3.Vec{X: curvatureRadius * sin, Z: curvatureRadius * (1 - cos)})).
				Mul(RotationY(-totalAngle))
		}
	}
	return keys
}

// apply premultiplies every key frame by t.
func (l *Layout) apply(t Transform) {
	for i := range l.Columns {
		for j := range l.Columns[i].Keys {
			l.Columns[i].Keys[j] = t.Mul(l.Columns[i].Keys[j])
		}
	}
	for i := range l.ThumbKeys {
		l.ThumbKeys[i] = t.Mul(l.ThumbKeys[i])
	}
}

// Rows returns the number of finger-cluster rows.
func (l *Layout) Rows() int {
	return len(l.Columns[0].Keys)
}

// FingerKeyCount returns the number of finger-cluster keys.
func (l *Layout) FingerKeyCount() int {
	return len(l.Columns) * l.Rows()
}

// minZ returns the lowest key origin across both clusters.
func (l *Layout) minZ() float64 {
	min := math.Inf(1)
	for _, c := range l.Columns {
		for _, k := range c.Keys {
			min = math.Min(min, k.Origin.Z)
		}
	}
	for _, k := range l.ThumbKeys {
		min = math.Min(min, k.Origin.Z)
	}
	return min
}

// maxFingerZ returns the highest finger key origin.
func (l *Layout) maxFingerZ() float64 {
	max := math.Inf(-1)
	for _, c := range l.Columns {
		for _, k := range c.Keys {
			max = math.Max(max, k.Origin.Z)
		}
	}
	return max
}

// maxThumbZ returns the highest thumb key origin.
func (l *Layout) maxThumbZ() float64 {
	max := math.Inf(-1)
	for _, k := range l.ThumbKeys {
		max = math.Max(max, k.Origin.Z)
	}
	return max
}

// FingerOutline returns the counterclockwise outline containing all
// finger keys plus their clearance, projected to the XY plane.
func (l *Layout) FingerOutline() []r2.Vec {
	clearance := l.FingerClearance
	var bottom, top, left, right []r3.Vec

	for i := 0; i+1 < len(l.Columns); i++ {
		a, b := l.Columns[i], l.Columns[i+1]
		bottom = append(bottom, circumferencePoint(a.Keys[0], b.Keys[0], sideBottom, clearance))
		top = append(top, circumferencePoint(a.Keys[len(a.Keys)-1], b.Keys[len(b.Keys)-1], sideTop, clearance))
	}
	left = l.sideCircumferencePoints(sideLeft)
	right = l.sideCircumferencePoints(sideRight)

	points := make([]r2.Vec, 0, len(bottom)+len(top)+len(left)+len(right))
	for _, p := range bottom {
		points = append(points, r2.Vec{X: p.X, Y: p.Y})
	}
	for _, p := range right {
		points = append(points, r2.Vec{X: p.X, Y: p.Y})
	}
	for i := len(top) - 1; i >= 0; i-- {
		points = append(points, r2.Vec{X: top[i].X, Y: top[i].Y})
	}
	for i := len(left) - 1; i >= 0; i-- {
		points = append(points, r2.Vec{X: left[i].X, Y: left[i].Y})
	}
	return points
}

// circumferencePoint picks the more outward of the two facing clearance
// corners of horizontally adjacent keys.
func circumferencePoint(left, right Transform, sy sideY, clearance r2.Vec) r3.Vec {
	lp := cornerPoint(left, sideRight, sy, clearance)
	rp := cornerPoint(right, sideLeft, sy, clearance)
	if signum(lp.Y-rp.Y) == sy.direction() {
		return lp
	}
	return rp
}

// sideCircumferencePoints walks the outer edge of the first or last
// column from bottom to top.
func (l *Layout) sideCircumferencePoints(sx sideX) []r3.Vec {
	column := l.Columns[0]
	if sx == sideRight {
		column = l.Columns[len(l.Columns)-1]
	}
	clearance := l.FingerClearance
	first := column.Keys[0]
	last := column.Keys[len(column.Keys)-1]

	points := []r3.Vec{cornerPoint(first, sx, sideBottom, clearance)}
	for i := 0; i+1 < len(column.Keys); i++ {
		if p, ok := sideEdgePoint(column.Keys[i], column.Keys[i+1], sx, clearance); ok {
			points = append(points, p)
		}
	}
	return append(points, cornerPoint(last, sx, sideTop, clearance))
}

// sideEdgePoint intersects the outer clearance edge of the lower key
// with the plane of the upper key, yielding the silhouette point between
// two stacked keys.
func sideEdgePoint(bottom, top Transform, sx sideX, clearance r2.Vec) (r3.Vec, bool) {
	outwards := bottom.X

	offset := r3.Dot(r3.Sub(top.Origin, bottom.Origin), outwards)
	if signum(offset) != sx.direction() {
		offset = 0
	}
	point := r3.Add(bottom.Origin, r3.Scale(offset+sx.direction()*clearance.X, outwards))

	return newPlane(top.Origin, top.Z).intersect(newLine(point, bottom.Y))
}

// ThumbOutline returns the counterclockwise outline containing all thumb
// keys plus their clearance, projected to the XY plane.
func (l *Layout) ThumbOutline() []r2.Vec {
	clearance := l.ThumbClearance
	first := l.ThumbKeys[0]
	last := l.ThumbKeys[len(l.ThumbKeys)-1]

	corners := []r3.Vec{
		cornerPoint(first, sideLeft, sideTop, clearance),
		cornerPoint(first, sideLeft, sideBottom, clearance),
		cornerPoint(last, sideRight, sideBottom, clearance),
		cornerPoint(last, sideRight, sideTop, clearance),
	}
	points := make([]r2.Vec, len(corners))
	for i, p := range corners {
		points[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return points
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func signum(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return v
	}
}
