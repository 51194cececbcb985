package keywell

import (
	"fmt"
	"math"
)

// Supported ranges for the cluster dimensions. Configurations outside
// these bounds are rejected by [Config.Validate] before any layout
// solving starts.
const (
	MinRows      = 1
	MaxRows      = 5
	MinColumns   = 2
	MaxColumns   = 6
	MinThumbKeys = 1
	MaxThumbKeys = 6
)

// Angle bounds for the per-column parameters, in degrees.
const (
	minCurvatureAngle = -20.0
	maxCurvatureAngle = 50.0
	minSideAngle      = 0.0
	maxSideAngle      = 45.0
)

// ColumnKind discriminates the two finger-column variants.
type ColumnKind string

const (
	// ColumnNormal is an interior column with its own curvature and offset.
	ColumnNormal ColumnKind = "normal"

	// ColumnSide is an edge column that continues the arc of its
	// neighboring normal column at a configured entry angle. It has no
	// curvature of its own: the neighbor donates curvature and offset.
	ColumnSide ColumnKind = "side"
)

// ColumnSpec configures a single finger-cluster column. Exactly one
// variant applies, selected by Kind: normal columns use CurvatureAngle
// and Offset, side columns use SideAngle. Side columns may only appear
// as the first or last column.
type ColumnSpec struct {
	Kind ColumnKind `toml:"kind"`

	// CurvatureAngle is the angle in degrees between two neighboring
	// keys on the column arc. Normal columns only.
	CurvatureAngle float64 `toml:"curvature_angle,omitempty"`

	// Offset displaces the column origin in Y and Z. Normal columns only.
	Offset [2]float64 `toml:"offset,omitempty"`

	// SideAngle is the angle in degrees of the side column relative to
	// its neighboring normal column. Side columns only.
	SideAngle float64 `toml:"side_angle,omitempty"`
}

// NormalColumn returns a normal column spec.
func NormalColumn(curvatureAngle float64, offsetY, offsetZ float64) ColumnSpec {
	return ColumnSpec{
		Kind:           ColumnNormal,
		CurvatureAngle: curvatureAngle,
		Offset:         [2]float64{offsetY, offsetZ},
	}
}

// SideColumn returns a side column spec.
func SideColumn(sideAngle float64) ColumnSpec {
	return ColumnSpec{Kind: ColumnSide, SideAngle: sideAngle}
}

// Preview holds the parameters of the interactive preview loop.
type Preview struct {
	// Resolution is the size of the smallest feature the mesher
	// resolves, in the same unit as the key distances (millimeters).
	Resolution float64 `toml:"resolution"`
}

// FingerCluster configures the finger-key grid.
type FingerCluster struct {
	// Rows is the number of key rows, 1 to 5.
	Rows int `toml:"rows"`

	// Columns are the per-column specs in left-to-right order,
	// 2 to 6 columns with at least one normal column.
	Columns []ColumnSpec `toml:"columns"`

	// KeyDistance is the center distance between neighboring keys in
	// X (between columns) and Y (between rows).
	KeyDistance [2]float64 `toml:"key_distance"`

	// HomeRowIndex is the row the fingers rest on, usually 1.
	HomeRowIndex int `toml:"home_row_index"`
}

// ThumbCluster configures the thumb-key arc.
type ThumbCluster struct {
	// Keys is the number of thumb keys, 1 to 6.
	Keys int `toml:"keys"`

	// CurvatureAngle is the angle in degrees between two neighboring
	// thumb keys on the arc.
	CurvatureAngle float64 `toml:"curvature_angle"`

	// Rotation rotates the whole cluster relative to the finger
	// cluster, in degrees about X, Y and Z.
	Rotation [3]float64 `toml:"rotation"`

	// Offset displaces the whole cluster relative to the finger
	// cluster's home-row reference key.
	Offset [3]float64 `toml:"offset"`

	// KeyDistance is the center distance between neighboring thumb keys.
	KeyDistance float64 `toml:"key_distance"`

	// RestingKeyIndex is the key the thumb naturally rests on; it acts
	// as the cluster's placement anchor.
	RestingKeyIndex int `toml:"resting_key_index"`
}

// Keyboard configures the case shell shared by both halves.
type Keyboard struct {
	// TiltingAngle tilts the whole key frame about X and Y, in degrees.
	TiltingAngle [2]float64 `toml:"tilting_angle"`

	// CircumferenceDistance is the space the shell extends beyond the
	// outermost key perimeter.
	CircumferenceDistance float64 `toml:"circumference_distance"`

	// RoundingRadius smooths the top case edges.
	RoundingRadius float64 `toml:"rounding_radius"`

	// ShellThickness is the wall thickness of the hollowed case.
	ShellThickness float64 `toml:"shell_thickness"`

	// BottomPlateThickness is the thickness of the shared bottom plate.
	BottomPlateThickness float64 `toml:"bottom_plate_thickness"`
}

// Config is the full parameter set of a keyboard. A Config is plain
// data; validate it with [Config.Validate] before handing it to
// [SolveLayout]. All dimensions are millimeters, all angles degrees.
type Config struct {
	Preview       Preview       `toml:"preview"`
	FingerCluster FingerCluster `toml:"finger_cluster"`
	ThumbCluster  ThumbCluster  `toml:"thumb_cluster"`
	Keyboard      Keyboard      `toml:"keyboard"`
}

// DefaultConfig returns the reference configuration: three rows, six
// columns (one side column on each edge), three thumb keys and standard
// 19.05 mm key spacing.
func DefaultConfig() Config {
	return Config{
		Preview: Preview{Resolution: 1.0},
		FingerCluster: FingerCluster{
			Rows: 3,
			Columns: []ColumnSpec{
				SideColumn(30),
				NormalColumn(15, 0, 0),
				NormalColumn(15, 0, 0),
				NormalColumn(15, 0, 0),
				NormalColumn(15, 0, 0),
				SideColumn(30),
			},
			KeyDistance:  [2]float64{19.05, 19.05},
			HomeRowIndex: 1,
		},
		ThumbCluster: ThumbCluster{
			Keys:            3,
			CurvatureAngle:  25,
			Rotation:        [3]float64{10, -45, 5},
			Offset:          [3]float64{-12, -48, 10},
			KeyDistance:     22,
			RestingKeyIndex: 1,
		},
		Keyboard: Keyboard{
			TiltingAngle:          [2]float64{12, 25},
			CircumferenceDistance: 12,
			RoundingRadius:        4,
			ShellThickness:        2.4,
			BottomPlateThickness:  2.0,
		},
	}
}

// Validate checks every parameter against its supported range. It
// returns a *ConfigError naming the first offending field, or nil.
// A Config that passes Validate never fails inside the pipeline.
func (c Config) Validate() error {
	if err := requirePositive("preview.resolution", c.Preview.Resolution); err != nil {
		return err
	}
	if err := c.FingerCluster.validate(); err != nil {
		return err
	}
	if err := c.ThumbCluster.validate(); err != nil {
		return err
	}
	return c.Keyboard.validate()
}

func (f FingerCluster) validate() error {
	if f.Rows < MinRows || f.Rows > MaxRows {
		return configErrorf("finger_cluster.rows", "%d is outside the supported range %d to %d", f.Rows, MinRows, MaxRows)
	}
	if n := len(f.Columns); n < MinColumns || n > MaxColumns {
		return configErrorf("finger_cluster.columns", "%d columns is outside the supported range %d to %d", n, MinColumns, MaxColumns)
	}
	if f.HomeRowIndex < 0 || f.HomeRowIndex >= f.Rows {
		return configErrorf("finger_cluster.home_row_index", "%d does not address one of the %d rows", f.HomeRowIndex, f.Rows)
	}
	if err := requirePositive("finger_cluster.key_distance[0]", f.KeyDistance[0]); err != nil {
		return err
	}
	if err := requirePositive("finger_cluster.key_distance[1]", f.KeyDistance[1]); err != nil {
		return err
	}

	normals := 0
	for i, col := range f.Columns {
		field := fmt.Sprintf("finger_cluster.columns[%d]", i)
		switch col.Kind {
		case ColumnNormal:
			normals++
			if col.CurvatureAngle < minCurvatureAngle || col.CurvatureAngle > maxCurvatureAngle || math.IsNaN(col.CurvatureAngle) {
				return configErrorf(field+".curvature_angle", "%v is outside the supported range %v to %v", col.CurvatureAngle, minCurvatureAngle, maxCurvatureAngle)
			}
			if err := requireFinite(field+".offset[0]", col.Offset[0]); err != nil {
				return err
			}
			if err := requireFinite(field+".offset[1]", col.Offset[1]); err != nil {
				return err
			}
		case ColumnSide:
			if i != 0 && i != len(f.Columns)-1 {
				return configErrorf(field+".kind", "side columns may only appear at the edges")
			}
			if col.SideAngle < minSideAngle || col.SideAngle > maxSideAngle || math.IsNaN(col.SideAngle) {
				return configErrorf(field+".side_angle", "%v is outside the supported range %v to %v", col.SideAngle, minSideAngle, maxSideAngle)
			}
		default:
			return configErrorf(field+".kind", "unknown column kind %q", col.Kind)
		}
	}
	if normals == 0 {
		return configErrorf("finger_cluster.columns", "at least one normal column is required")
	}
	return nil
}

func (t ThumbCluster) validate() error {
	if t.Keys < MinThumbKeys || t.Keys > MaxThumbKeys {
		return configErrorf("thumb_cluster.keys", "%d is outside the supported range %d to %d", t.Keys, MinThumbKeys, MaxThumbKeys)
	}
	if t.RestingKeyIndex < 0 || t.RestingKeyIndex >= t.Keys {
		return configErrorf("thumb_cluster.resting_key_index", "%d does not address one of the %d keys", t.RestingKeyIndex, t.Keys)
	}
	if t.CurvatureAngle < minCurvatureAngle || t.CurvatureAngle > maxCurvatureAngle || math.IsNaN(t.CurvatureAngle) {
		return configErrorf("thumb_cluster.curvature_angle", "%v is outside the supported range %v to %v", t.CurvatureAngle, minCurvatureAngle, maxCurvatureAngle)
	}
	if err := requirePositive("thumb_cluster.key_distance", t.KeyDistance); err != nil {
		return err
	}
	for i, v := range t.Rotation {
		if err := requireFinite(fmt.Sprintf("thumb_cluster.rotation[%d]", i), v); err != nil {
			return err
		}
	}
	for i, v := range t.Offset {
		if err := requireFinite(fmt.Sprintf("thumb_cluster.offset[%d]", i), v); err != nil {
			return err
		}
	}
	return nil
}

func (k Keyboard) validate() error {
	for i, v := range k.TiltingAngle {
		if err := requireFinite(fmt.Sprintf("keyboard.tilting_angle[%d]", i), v); err != nil {
			return err
		}
	}
	if err := requirePositive("keyboard.circumference_distance", k.CircumferenceDistance); err != nil {
		return err
	}
	if k.RoundingRadius < 0 || math.IsInf(k.RoundingRadius, 0) || math.IsNaN(k.RoundingRadius) {
		return configErrorf("keyboard.rounding_radius", "%v is not a finite non-negative value", k.RoundingRadius)
	}
	if err := requirePositive("keyboard.shell_thickness", k.ShellThickness); err != nil {
		return err
	}
	return requirePositive("keyboard.bottom_plate_thickness", k.BottomPlateThickness)
}

func requirePositive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return configErrorf(field, "%v is not a positive finite value", v)
	}
	return nil
}

func requireFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return configErrorf(field, "%v is not finite", v)
	}
	return nil
}

// Equal reports whether two configs describe the same keyboard.
// The engine uses it to memoize the last successful parametrization.
func (c Config) Equal(o Config) bool {
	if c.Preview != o.Preview || c.ThumbCluster != o.ThumbCluster || c.Keyboard != o.Keyboard {
		return false
	}
	a, b := c.FingerCluster, o.FingerCluster
	if a.Rows != b.Rows || a.KeyDistance != b.KeyDistance ||
		a.HomeRowIndex != b.HomeRowIndex || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}
