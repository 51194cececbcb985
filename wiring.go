package keywell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pad dimensions of one key footprint on the flexible matrix PCB.
const (
	PadWidth  = 13.0
	PadHeight = 14.0
)

// WiringKey is one key's place in the switch matrix: its row and column
// net, its pad anchor on the unrolled (flattened) PCB, and the same 3D
// frame the case builder used for its switch cutout.
type WiringKey struct {
	// RowNet and ColumnNet are the matrix nets the switch connects.
	RowNet    int
	ColumnNet int

	// Anchor is the pad center on the unrolled PCB plane.
	Anchor r2.Vec

	// Frame is the key's rigid transform in case coordinates.
	Frame Transform
}

// Wiring is the derived switch-matrix layout of one keyboard half.
type Wiring struct {
	// RowNets and ColumnNets are the matrix dimensions. The thumb
	// cluster occupies one dedicated row net below the finger rows.
	RowNets    int
	ColumnNets int

	// FingerKeys holds the finger-cluster keys column-major, bottom row
	// first, matching the layout's column order. ThumbKeys follows the
	// thumb arc order.
	FingerKeys []WiringKey
	ThumbKeys  []WiringKey
}

// Keys returns all keys of the half, finger cluster first.
func (w *Wiring) Keys() []WiringKey {
	keys := make([]WiringKey, 0, len(w.FingerKeys)+len(w.ThumbKeys))
	keys = append(keys, w.FingerKeys...)
	return append(keys, w.ThumbKeys...)
}

// DeriveWiring maps a solved layout onto a switch matrix and computes
// the pad anchors of the unrolled matrix PCB. It reuses the layout's
// key frames, so wiring and case always agree on where every switch
// sits. Finger key (column c, row r) connects column net c and row net
// r; thumb key k connects column net k and the dedicated thumb row net.
func DeriveWiring(cfg Config, layout *Layout) (*Wiring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rows := layout.Rows()
	columns := len(layout.Columns)
	thumbKeys := len(layout.ThumbKeys)

	w := &Wiring{
		RowNets:    rows + 1,
		ColumnNets: max(columns, thumbKeys),
		FingerKeys: make([]WiringKey, 0, layout.FingerKeyCount()),
		ThumbKeys:  make([]WiringKey, 0, thumbKeys),
	}

	// Finger pads: along each column the pads step by the unrolled arc
	// length of that column's curvature; across columns the pitch picks
	// up the same correction wherever a side column bends out of the
	// grid plane. Ribbon lengths survive the flattening both ways.
	distX, distY := cfg.FingerCluster.KeyDistance[0], cfg.FingerCluster.KeyDistance[1]
	home := cfg.FingerCluster.HomeRowIndex
	columnX := 0.0
	for c, column := range layout.Columns {
		if c > 0 {
			columnX += unrolledStep(distX, columnGapAngle(cfg.FingerCluster.Columns, c))
		}
		step := unrolledStep(distY, column.EffectiveCurvature)
		for r, frame := range column.Keys {
			w.FingerKeys = append(w.FingerKeys, WiringKey{
				RowNet:    r,
				ColumnNet: c,
				Anchor: r2.Vec{
					X: columnX,
					Y: step * float64(r-home),
				},
				Frame: frame,
			})
		}
	}

	// Thumb pads sit on their own strip below the finger grid, spaced
	// by the thumb arc's unrolled pitch.
	thumbStep := unrolledStep(cfg.ThumbCluster.KeyDistance, cfg.ThumbCluster.CurvatureAngle)
	bottomY := fingerPadMinY(layout, cfg) - 1.5*cfg.ThumbCluster.KeyDistance
	resting := cfg.ThumbCluster.RestingKeyIndex
	for k, frame := range layout.ThumbKeys {
		w.ThumbKeys = append(w.ThumbKeys, WiringKey{
			RowNet:    rows,
			ColumnNet: k,
			Anchor: r2.Vec{
				X: thumbStep * float64(k-resting),
				Y: bottomY,
			},
			Frame: frame,
		})
	}
	return w, nil
}

// columnGapAngle returns the bend angle between column c-1 and column
// c: zero inside the flat grid, the side angle where an edge column
// leaves it.
func columnGapAngle(specs []ColumnSpec, c int) float64 {
	if specs[c].Kind == ColumnSide {
		return specs[c].SideAngle
	}
	if specs[c-1].Kind == ColumnSide {
		return specs[c-1].SideAngle
	}
	return 0
}

// unrolledStep converts the chord distance between neighboring keys on
// an arc of the given per-key angle into the flattened arc length. A
// straight column unrolls to its own pitch.
func unrolledStep(distance, angleDegrees float64) float64 {
	angle := radians(math.Abs(angleDegrees))
	if angle == 0 {
		return distance
	}
	return distance * angle / (2 * math.Sin(angle/2))
}

// fingerPadMinY returns the lowest pad Y across the finger columns.
func fingerPadMinY(l *Layout, cfg Config) float64 {
	distY := cfg.FingerCluster.KeyDistance[1]
	home := cfg.FingerCluster.HomeRowIndex
	min := 0.0
	for _, column := range l.Columns {
		y := unrolledStep(distY, column.EffectiveCurvature) * float64(-home)
		min = math.Min(min, y)
	}
	return min
}
