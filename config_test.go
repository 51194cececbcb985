package keywell

import (
	"errors"
	"math"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			"zero rows",
			func(c *Config) { c.FingerCluster.Rows = 0 },
			"finger_cluster.rows",
		},
		{
			"too many rows",
			func(c *Config) { c.FingerCluster.Rows = MaxRows + 1 },
			"finger_cluster.rows",
		},
		{
			"single column",
			func(c *Config) { c.FingerCluster.Columns = c.FingerCluster.Columns[:1] },
			"finger_cluster.columns",
		},
		{
			"side column in the interior",
			func(c *Config) { c.FingerCluster.Columns[2] = SideColumn(20) },
			"finger_cluster.columns[2].kind",
		},
		{
			"no normal column",
			func(c *Config) {
				c.FingerCluster.Columns = []ColumnSpec{SideColumn(20), SideColumn(20)}
			},
			"finger_cluster.columns",
		},
		{
			"unknown column kind",
			func(c *Config) { c.FingerCluster.Columns[1].Kind = "diagonal" },
			"finger_cluster.columns[1].kind",
		},
		{
			"curvature out of range",
			func(c *Config) { c.FingerCluster.Columns[1].CurvatureAngle = 90 },
			"finger_cluster.columns[1].curvature_angle",
		},
		{
			"home row outside grid",
			func(c *Config) { c.FingerCluster.HomeRowIndex = 3 },
			"finger_cluster.home_row_index",
		},
		{
			"zero key distance",
			func(c *Config) { c.FingerCluster.KeyDistance[0] = 0 },
			"finger_cluster.key_distance[0]",
		},
		{
			"no thumb keys",
			func(c *Config) { c.ThumbCluster.Keys = 0 },
			"thumb_cluster.keys",
		},
		{
			"too many thumb keys",
			func(c *Config) { c.ThumbCluster.Keys = MaxThumbKeys + 1 },
			"thumb_cluster.keys",
		},
		{
			"resting key outside cluster",
			func(c *Config) { c.ThumbCluster.RestingKeyIndex = 5 },
			"thumb_cluster.resting_key_index",
		},
		{
			"nan thumb rotation",
			func(c *Config) { c.ThumbCluster.Rotation[1] = math.NaN() },
			"thumb_cluster.rotation[1]",
		},
		{
			"negative resolution",
			func(c *Config) { c.Preview.Resolution = -1 },
			"preview.resolution",
		},
		{
			"zero shell thickness",
			func(c *Config) { c.Keyboard.ShellThickness = 0 },
			"keyboard.shell_thickness",
		},
		{
			"negative rounding",
			func(c *Config) { c.Keyboard.RoundingRadius = -2 },
			"keyboard.rounding_radius",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "want *ConfigError, got %T", err)
			require.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestZeroRoundingIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keyboard.RoundingRadius = 0
	require.NoError(t, cfg.Validate())
}

func TestConfigEqual(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	require.True(t, a.Equal(b))

	b.FingerCluster.Columns[3].CurvatureAngle += 0.5
	require.False(t, a.Equal(b))

	b = DefaultConfig()
	b.ThumbCluster.Offset[2] = 11
	require.False(t, a.Equal(b))
}

// A config file only overrides the fields it names; everything else
// keeps the reference values.
func TestConfigTOMLOverlay(t *testing.T) {
	cfg := DefaultConfig()
	src := `
[finger_cluster]
rows = 4

[thumb_cluster]
keys = 2
resting_key_index = 0

[keyboard]
rounding_radius = 1.5
`
	require.NoError(t, toml.Unmarshal([]byte(src), &cfg))
	require.NoError(t, cfg.Validate())
	require.Equal(t, 4, cfg.FingerCluster.Rows)
	require.Equal(t, 2, cfg.ThumbCluster.Keys)
	require.Equal(t, 1.5, cfg.Keyboard.RoundingRadius)
	require.Equal(t, DefaultConfig().Keyboard.ShellThickness, cfg.Keyboard.ShellThickness)
	require.Len(t, cfg.FingerCluster.Columns, 6)
}
