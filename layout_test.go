package keywell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func requireFiniteVec(t *testing.T, v r3.Vec) {
	t.Helper()
	for _, c := range []float64{v.X, v.Y, v.Z} {
		require.False(t, math.IsNaN(c) || math.IsInf(c, 0), "non-finite component in %v", v)
	}
}

func requireFiniteTransform(t *testing.T, tr Transform) {
	t.Helper()
	requireFiniteVec(t, tr.X)
	requireFiniteVec(t, tr.Y)
	requireFiniteVec(t, tr.Z)
	requireFiniteVec(t, tr.Origin)
}

func TestSolveLayoutRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FingerCluster.Rows = 0
	_, err := SolveLayout(cfg)
	require.Error(t, err)
}

func TestSolveLayoutDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := SolveLayout(cfg)
	require.NoError(t, err)
	b, err := SolveLayout(cfg)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSolveLayoutKeyCounts(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		columns []ColumnSpec
		thumbs  int
	}{
		{"minimal", 1, []ColumnSpec{NormalColumn(10, 0, 0), NormalColumn(10, 0, 0)}, 1},
		{"reference", 3, DefaultConfig().FingerCluster.Columns, 3},
		{"maximal", 5, []ColumnSpec{
			SideColumn(25),
			NormalColumn(20, 0, 0), NormalColumn(18, 1, 0),
			NormalColumn(18, 1, 0), NormalColumn(20, 0, 2),
			SideColumn(25),
		}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.FingerCluster.Rows = tt.rows
			cfg.FingerCluster.HomeRowIndex = 0
			cfg.FingerCluster.Columns = tt.columns
			cfg.ThumbCluster.Keys = tt.thumbs
			cfg.ThumbCluster.RestingKeyIndex = 0

			l, err := SolveLayout(cfg)
			require.NoError(t, err)
			require.Len(t, l.Columns, len(tt.columns))
			for _, c := range l.Columns {
				require.Len(t, c.Keys, tt.rows)
			}
			require.Equal(t, len(tt.columns)*tt.rows, l.FingerKeyCount())
			require.Len(t, l.ThumbKeys, tt.thumbs)
		})
	}
}

// Side columns continue the arc of the neighboring normal column: they
// never define a curvature of their own.
func TestSideColumnsInheritNeighborCurvature(t *testing.T) {
	for columns := MinColumns; columns <= MaxColumns; columns++ {
		specs := make([]ColumnSpec, columns)
		for i := range specs {
			specs[i] = NormalColumn(10+2*float64(i), 0, 0)
		}
		specs[0] = SideColumn(30)
		if columns > 2 {
			specs[columns-1] = SideColumn(30)
		}

		cfg := DefaultConfig()
		cfg.FingerCluster.Columns = specs
		l, err := SolveLayout(cfg)
		require.NoError(t, err)

		require.Equal(t, ColumnSide, l.Columns[0].Kind)
		require.Equal(t, l.Columns[1].EffectiveCurvature, l.Columns[0].EffectiveCurvature)
		if columns > 2 {
			last := columns - 1
			require.Equal(t, ColumnSide, l.Columns[last].Kind)
			require.Equal(t, l.Columns[last-1].EffectiveCurvature, l.Columns[last].EffectiveCurvature)
		}
	}
}

// Normal columns with identical offsets put their home-row keys on a
// straight line; tilting is rigid and keeps it straight.
func TestHomeRowCollinear(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FingerCluster.Columns = []ColumnSpec{
		NormalColumn(15, 0, 0), NormalColumn(15, 0, 0),
		NormalColumn(15, 0, 0), NormalColumn(15, 0, 0),
	}
	l, err := SolveLayout(cfg)
	require.NoError(t, err)

	home := cfg.FingerCluster.HomeRowIndex
	var origins []r3.Vec
	for _, c := range l.Columns {
		origins = append(origins, c.Keys[home].Origin)
	}
	dir := r3.Unit(r3.Sub(origins[1], origins[0]))
	for i := 2; i < len(origins); i++ {
		step := r3.Unit(r3.Sub(origins[i], origins[i-1]))
		require.InDelta(t, 0, r3.Norm(r3.Cross(dir, step)), 1e-9)
	}
}

// The reference grid without tilting: interior-column home keys line up
// along X at constant height, since column arcs only displace non-home
// rows.
func TestHomeRowFlatAcrossInteriorColumns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keyboard.TiltingAngle = [2]float64{0, 0}
	l, err := SolveLayout(cfg)
	require.NoError(t, err)

	home := cfg.FingerCluster.HomeRowIndex
	var prev *r3.Vec
	var prevX float64
	for i, c := range l.Columns {
		if c.Kind != ColumnNormal {
			continue
		}
		origin := l.Columns[i].Keys[home].Origin
		if prev != nil {
			require.InDelta(t, prev.Y, origin.Y, 1e-9)
			require.InDelta(t, prev.Z, origin.Z, 1e-9)
			require.InDelta(t, cfg.FingerCluster.KeyDistance[0], origin.X-prevX, 1e-9)
		}
		o := origin
		prev, prevX = &o, origin.X
	}
}

// The degenerate single-key configuration must still produce finite
// transforms everywhere.
func TestMinimalLayoutIsFinite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FingerCluster.Rows = 1
	cfg.FingerCluster.HomeRowIndex = 0
	cfg.FingerCluster.Columns = []ColumnSpec{SideColumn(30), NormalColumn(15, 0, 0)}
	cfg.ThumbCluster.Keys = 1
	cfg.ThumbCluster.RestingKeyIndex = 0

	l, err := SolveLayout(cfg)
	require.NoError(t, err)
	for _, c := range l.Columns {
		for _, k := range c.Keys {
			requireFiniteTransform(t, k)
		}
	}
	for _, k := range l.ThumbKeys {
		requireFiniteTransform(t, k)
	}
	for _, p := range l.FingerOutline() {
		require.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}

// Zero curvature columns degrade to a flat grid without special casing.
func TestZeroCurvatureColumns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FingerCluster.Columns = []ColumnSpec{
		NormalColumn(0, 0, 0), NormalColumn(0, 0, 0), NormalColumn(0, 0, 0),
	}
	cfg.Keyboard.TiltingAngle = [2]float64{0, 0}

	l, err := SolveLayout(cfg)
	require.NoError(t, err)
	distY := cfg.FingerCluster.KeyDistance[1]
	for _, c := range l.Columns {
		for j := 1; j < len(c.Keys); j++ {
			gap := r3.Norm(r3.Sub(c.Keys[j].Origin, c.Keys[j-1].Origin))
			require.InDelta(t, distY, gap, 1e-9)
		}
	}
}

func TestLayoutPlacement(t *testing.T) {
	l, err := SolveLayout(DefaultConfig())
	require.NoError(t, err)

	require.InDelta(t, layoutZOffset, l.minZ(), 1e-9)

	bounds := unionBox(
		boundsFromOutline(l.FingerOutline(), 0, DefaultConfig().Keyboard.CircumferenceDistance),
		boundsFromOutline(l.ThumbOutline(), 0, DefaultConfig().Keyboard.CircumferenceDistance),
	)
	require.InDelta(t, layoutCenterOffset, bounds.Min.X, 1e-9)
}

func TestFingerOutlineCounterclockwise(t *testing.T) {
	l, err := SolveLayout(DefaultConfig())
	require.NoError(t, err)

	outline := l.FingerOutline()
	require.GreaterOrEqual(t, len(outline), 4)
	area := 0.0
	for i, p := range outline {
		q := outline[(i+1)%len(outline)]
		area += p.X*q.Y - q.X*p.Y
	}
	require.Greater(t, area, 0.0)
}
